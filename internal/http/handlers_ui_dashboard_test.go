package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUIHandlers_FullPage_Renders(t *testing.T) {
	tr := RequireTemplateRenderer(t)
	if tr == nil {
		return
	}

	handlers := &UIHandlers{T: tr}

	tests := []struct {
		name         string
		path         string
		handler      func(http.ResponseWriter, *http.Request)
		wantContains []string
	}{
		{
			name:         "Dashboard full page",
			path:         "/dashboard",
			handler:      handlers.Dashboard,
			wantContains: []string{"app-shell", "sidebar-nav", "main-content", "page-dashboard", "attendance-widget"},
		},
		{
			name:         "Attendance full page",
			path:         "/attendance",
			handler:      handlers.Attendance,
			wantContains: []string{"app-shell", "main-content", "attendance-widget"},
		},
		{
			name:         "Settings full page",
			path:         "/settings",
			handler:      handlers.Settings,
			wantContains: []string{"app-shell", "main-content", "settings-form"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set("Accept", "text/html")
			ctx := context.WithValue(req.Context(), browserRequestKey{}, true)
			req = req.WithContext(ctx)
			w := httptest.NewRecorder()
			tt.handler(w, req)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
			body := w.Body.String()
			for _, s := range tt.wantContains {
				assert.Contains(t, body, s)
			}
		})
	}
}

func TestUIHandlers_Index_RedirectsToDashboard(t *testing.T) {
	tr := RequireTemplateRenderer(t)
	if tr == nil {
		return
	}

	handlers := &UIHandlers{T: tr}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "text/html")
	ctx := context.WithValue(req.Context(), browserRequestKey{}, true)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()
	handlers.Index(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))
}

func TestUIHandlers_Dashboard_HTMXPartial(t *testing.T) {
	tr := RequireTemplateRenderer(t)
	if tr == nil {
		return
	}

	handlers := &UIHandlers{T: tr}

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("Accept", "text/html")
	req.Header.Set("Hx-Request", "true")

	ctx := context.WithValue(req.Context(), browserRequestKey{}, true)
	req = req.WithContext(ctx)

	w := httptest.NewRecorder()
	handlers.Dashboard(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")

	body := w.Body.String()
	// Should contain dashboard content plus the out-of-band header title,
	// but not the full layout
	assert.Contains(t, body, "page-dashboard")
	assert.Contains(t, body, `id="header-title"`)
	assert.NotContains(t, body, "app-shell")
	assert.NotContains(t, body, "sidebar-nav")
}

func TestUIHandlers_WantsPartial_Logic(t *testing.T) {
	tests := []struct {
		name           string
		headers        map[string]string
		expectedResult bool
	}{
		{
			name:           "Regular request",
			headers:        map[string]string{},
			expectedResult: false,
		},
		{
			name: "HTMX request",
			headers: map[string]string{
				"Hx-Request": "true",
			},
			expectedResult: true,
		},
		{
			name: "HTMX history restore",
			headers: map[string]string{
				"Hx-Request":                 "true",
				"Hx-History-Restore-Request": "true",
			},
			expectedResult: true, // Still partial on history restore
		},
		{
			name: "Boosted request",
			headers: map[string]string{
				"Hx-Request": "true",
				"Hx-Boosted": "true",
			},
			expectedResult: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			for key, value := range tt.headers {
				req.Header.Set(key, value)
			}

			result := WantsPartial(req)
			assert.Equal(t, tt.expectedResult, result)
		})
	}
}

func TestUIHandlers_NavigationActiveStates(t *testing.T) {
	tr := RequireTemplateRenderer(t)
	if tr == nil {
		return
	}

	handlers := &UIHandlers{T: tr}

	tests := []struct {
		path    string
		handler func(w http.ResponseWriter, r *http.Request)
	}{
		{"/dashboard", handlers.Dashboard},
		{"/attendance", handlers.Attendance},
		{"/settings", handlers.Settings},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set("Accept", "text/html")

			ctx := context.WithValue(req.Context(), browserRequestKey{}, true)
			req = req.WithContext(ctx)

			w := httptest.NewRecorder()
			tt.handler(w, req)

			assert.Equal(t, http.StatusOK, w.Code)

			body := w.Body.String()
			// Exactly one navigation item is marked as active
			activeClass := `class="nav-link active"`
			assert.Contains(t, body, activeClass)
			assert.Contains(t, body, `href="`+tt.path+`" class="nav-link active"`)
		})
	}
}
