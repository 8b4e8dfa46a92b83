package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestUI_Dashboard_RendersLayout(t *testing.T) {
	h := CreateUIHandlersForTest(t)
	if h == nil {
		return
	}
	r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rr := httptest.NewRecorder()

	h.Dashboard(rr, r)

	res := rr.Result()
	t.Cleanup(func() { _ = res.Body.Close() })

	if got := res.StatusCode; got != http.StatusOK {
		// Default status is 200 if WriteHeader isn't called; enforce it.
		t.Fatalf("expected status 200, got %d", got)
	}
	if ct := res.Header.Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Fatalf("expected text/html content type, got %q", ct)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "<main id=\"main-content\"") {
		t.Fatalf("expected body to contain main container, got: %s", body)
	}
}
