package httpx

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/msccenter/hrm-ui/internal/data"
	domainauth "github.com/msccenter/hrm-ui/internal/domain/auth"
	"github.com/msccenter/hrm-ui/internal/domain/model"
	"github.com/msccenter/hrm-ui/internal/service"
)

// AuthServiceInterface defines the interface for auth service operations.
type AuthServiceInterface interface {
	PasswordLogin(ctx context.Context, input service.PasswordLoginInput) (*domainauth.Session, error)
	Signup(ctx context.Context, req *model.CreateUserRequest) (*model.User, error)
	BeginLogin(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error)
	CompleteLogin(ctx context.Context, input service.CompleteLoginInput) (*service.CompleteLoginResult, error)
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
	Touch(ctx context.Context, session *domainauth.Session)
	Logout(ctx context.Context, sessionID string) error
}

// genericAuthError is shown when login or signup fails for a reason the user
// cannot act on (backend outage, unexpected service error).
const genericAuthError = "An unexpected error occurred. Please try again."

// postLoginPath is where authenticated users land by default.
const postLoginPath = "/dashboard"

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc          AuthServiceInterface
	CookieDomain string
	// LocalLogin selects the email/password page instead of the SSO redirect
	// flow for GET /auth/login.
	LocalLogin bool
	T          *TemplateRenderer
	Logger     *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Login handles the login entry endpoint.
// GET /auth/login?redirect_uri=<optional_redirect>&tab=<login|signup>.
//
// Users who already hold a valid session never see the page; they are sent
// straight to the dashboard.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	if session := getSessionFromRequest(r, h.Svc); session != nil {
		http.Redirect(w, r, postLoginPath, http.StatusSeeOther)
		return
	}

	redirectURI := safeRedirectPath(r.URL.Query().Get("redirect_uri"))

	if h.LocalLogin {
		h.renderAuthPage(w, r, authPageData{
			Tab:         normalizeAuthTab(r.URL.Query().Get("tab")),
			RedirectURI: redirectURI,
		})
		return
	}

	// Begin SSO login flow
	result, err := h.Svc.BeginLogin(r.Context(), redirectURI)
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     err,
		})
		return
	}

	// Store state, nonce, and the original redirect URI in secure cookies
	h.setOAuthCookies(w, r, oauthCookieParams{State: result.State, Nonce: result.Nonce, RedirectURI: redirectURI})

	// Redirect to the identity provider
	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// PasswordLogin handles local email/password login.
// POST /auth/login.
//
// A failed login re-renders the login form in place with the service's exact
// error message; the user never navigates away from the page.
func (h *AuthHandlers) PasswordLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLoginError(w, r, genericAuthError)
		return
	}

	input := service.PasswordLoginInput{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}

	session, err := h.Svc.PasswordLogin(r.Context(), input)
	if err != nil {
		msg := genericAuthError
		if isLoginServiceError(err) {
			msg = err.Error()
		} else {
			h.logger().ErrorContext(r.Context(), "login failed", "error", err)
		}
		h.renderLoginError(w, r, msg)
		return
	}

	h.setSessionCookie(w, r, *session)

	redirectURI := safeRedirectPath(r.PostFormValue("redirect_uri"))
	if redirectURI == "/" {
		redirectURI = postLoginPath
	}
	if IsHTMX(r) {
		HTMX(w).Redirect(redirectURI)
		return
	}
	http.Redirect(w, r, redirectURI, http.StatusSeeOther)
}

// Signup handles local account registration.
// POST /auth/signup.
//
// A successful signup does not sign the user in or navigate anywhere: the
// account waits for admin approval, and the form is replaced by a notice
// saying so.
func (h *AuthHandlers) Signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderSignupError(w, r, genericAuthError, nil)
		return
	}

	req := &model.CreateUserRequest{
		FirstName:   strings.TrimSpace(r.PostFormValue("first_name")),
		LastName:    strings.TrimSpace(r.PostFormValue("last_name")),
		Email:       strings.TrimSpace(r.PostFormValue("email")),
		PhoneNumber: strings.TrimSpace(r.PostFormValue("phone_number")),
		Password:    r.PostFormValue("password"),
	}

	if confirm := r.PostFormValue("confirm_password"); confirm != req.Password {
		h.renderSignupError(w, r, "Passwords do not match.", req)
		return
	}

	user, err := h.Svc.Signup(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrUserEmailExists):
			h.renderSignupError(w, r, "An account with this email already exists.", req)
		case isValidationError(err):
			h.renderSignupError(w, r, capitalizeSentence(err.Error()), req)
		default:
			h.logger().ErrorContext(r.Context(), "signup failed", "error", err)
			h.renderSignupError(w, r, genericAuthError, req)
		}
		return
	}

	h.renderAuthFragment(w, r, "signup-success", map[string]any{
		"Email":    user.Email,
		"FullName": user.FullName,
	})
}

// Callback handles the OAuth callback endpoint.
// GET /auth/callback?code=<code>&state=<state>.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	// Read and validate basic params
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_code",
			Err:     errors.New("authorization code is required"),
		})
		return
	}
	if state == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_state",
			Err:     errors.New("state parameter is required"),
		})
		return
	}

	// Verify state and read nonce
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value != state {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_state",
			Err:     errors.New("invalid or missing state parameter"),
		})
		return
	}
	nonceCookie, err := r.Cookie("oauth_nonce")
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_nonce",
			Err:     errors.New("missing nonce parameter"),
		})
		return
	}

	// Complete the login flow
	result, err := h.Svc.CompleteLogin(r.Context(), service.CompleteLoginInput{
		Code:  code,
		State: state,
		Nonce: nonceCookie.Value,
	})
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_completion_failed",
			Err:     err,
		})
		return
	}

	// Set session cookie and clear temporary OAuth cookies
	h.setSessionCookie(w, r, result.Session)
	h.clearCookie(w, r, "oauth_state")
	h.clearCookie(w, r, "oauth_nonce")

	// Redirect to the original destination
	redirectURI := h.getPostLoginRedirect(w, r)
	http.Redirect(w, r, redirectURI, http.StatusFound)
}

// Logout handles the logout endpoint.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	// Get session ID from cookie and invalidate server-side session if present
	if sessionCookie, err := r.Cookie("session_id"); err == nil {
		if logoutErr := h.Svc.Logout(r.Context(), sessionCookie.Value); logoutErr != nil {
			h.logger().WarnContext(r.Context(), "logout failed", "error", logoutErr)
		}
	}

	// Clear session cookie on the client
	h.clearCookie(w, r, "session_id")

	// Determine desired post-login destination (where user wanted to be after re-auth)
	redirectURI := r.FormValue("redirect_uri")
	if redirectURI == "" {
		redirectURI = r.URL.Query().Get("redirect_uri")
	}
	if redirectURI == "" {
		redirectURI = "/"
	}
	// Enforce safe, relative redirect only (defense-in-depth)
	redirectURI = safeRedirectPath(redirectURI)

	// Build signed-out URL using url.Values to avoid edge cases
	u := url.URL{Path: "/auth/signed-out"}
	q := url.Values{}
	q.Set("redirect_uri", redirectURI)
	u.RawQuery = q.Encode()
	signedOutURL := u.String()

	// AJAX/HTMX requests get a JSON payload; regular requests redirect
	isAJAX := strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.EqualFold(r.Header.Get("Hx-Request"), "true") ||
		strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest")
	if isAJAX {
		WriteJSON(w, http.StatusOK, map[string]string{
			"status":      "success",
			"redirect_to": signedOutURL,
		})
		return
	}

	http.Redirect(w, r, signedOutURL, http.StatusFound)
}

// Status returns the current authentication status.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	// OptionalAuth resolves the session ahead of this handler; fall back to
	// the cookie for direct invocations.
	session, ok := GetUserSessionFromContext(r.Context())
	if !ok {
		sessionCookie, err := r.Cookie("session_id")
		if err != nil {
			WriteJSON(w, http.StatusOK, map[string]interface{}{
				"authenticated": false,
			})
			return
		}

		session, err = h.Svc.GetSession(r.Context(), sessionCookie.Value)
		if err != nil {
			// Session is invalid or expired, clear the cookie
			h.clearCookie(w, r, "session_id")
			WriteJSON(w, http.StatusOK, map[string]interface{}{
				"authenticated": false,
			})
			return
		}
	}

	// Return session information
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"authenticated": true,
		"user": map[string]interface{}{
			"id":         session.UserID,
			"first_name": session.FirstName,
			"last_name":  session.LastName,
			"email":      session.Email,
			"role":       session.Role,
		},
		"expires_at": session.ExpiresAt,
	})
}

// isLoginServiceError reports whether a login failure carries a message meant
// for the user. Those messages are shown exactly as the service produced them.
func isLoginServiceError(err error) bool {
	return errors.Is(err, service.ErrInvalidCredentials) ||
		errors.Is(err, service.ErrAccountPending) ||
		errors.Is(err, service.ErrAccountDisabled)
}

// normalizeAuthTab coerces the tab query param to a known tab name.
func normalizeAuthTab(tab string) string {
	if tab == "signup" {
		return "signup"
	}
	return "login"
}

// capitalizeSentence uppercases the first letter and ensures a trailing period
// so service validation messages read like UI copy.
func capitalizeSentence(s string) string {
	if s == "" {
		return s
	}
	out := strings.ToUpper(s[:1]) + s[1:]
	if !strings.HasSuffix(out, ".") {
		out += "."
	}
	return out
}

// authPageData is the template payload for the full login/signup page.
type authPageData struct {
	Tab         string
	RedirectURI string
	Error       string
	Form        *model.CreateUserRequest
}

// renderAuthPage renders the full login/signup page.
func (h *AuthHandlers) renderAuthPage(w http.ResponseWriter, r *http.Request, page authPageData) {
	if h.T == nil {
		http.Error(w, "login page unavailable", http.StatusInternalServerError)
		return
	}
	data := map[string]any{
		"Title":       "Sign in - MSC HRM",
		"Tab":         page.Tab,
		"RedirectURI": page.RedirectURI,
		"Error":       page.Error,
		"CSRFToken":   GetCSRFToken(r),
	}
	if page.Form != nil {
		data["Form"] = page.Form
	}
	var buf bytes.Buffer
	if err := h.T.t.ExecuteTemplate(&buf, "auth-page", data); err != nil {
		h.logger().ErrorContext(r.Context(), "auth page render failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		h.logger().ErrorContext(r.Context(), "auth page write failed", "error", err)
	}
}

// renderLoginError re-renders the login form with an error, plus a toast for
// HTMX clients. No navigation happens on a failed login.
func (h *AuthHandlers) renderLoginError(w http.ResponseWriter, r *http.Request, msg string) {
	if IsHTMX(r) {
		triggerToast(w, msg, "error")
		h.renderAuthFragment(w, r, "login-form", map[string]any{
			"Error":       msg,
			"Email":       strings.TrimSpace(r.PostFormValue("email")),
			"RedirectURI": safeRedirectPath(r.PostFormValue("redirect_uri")),
			"CSRFToken":   GetCSRFToken(r),
		})
		return
	}
	h.renderAuthPage(w, r, authPageData{
		Tab:         "login",
		RedirectURI: safeRedirectPath(r.PostFormValue("redirect_uri")),
		Error:       msg,
	})
}

// renderSignupError re-renders the signup form with an error and the
// previously entered values (minus passwords).
func (h *AuthHandlers) renderSignupError(w http.ResponseWriter, r *http.Request, msg string, req *model.CreateUserRequest) {
	form := req
	if form != nil {
		scrubbed := *form
		scrubbed.Password = ""
		form = &scrubbed
	}
	if IsHTMX(r) {
		triggerToast(w, msg, "error")
		data := map[string]any{"Error": msg, "CSRFToken": GetCSRFToken(r)}
		if form != nil {
			data["Form"] = form
		}
		h.renderAuthFragment(w, r, "signup-form", data)
		return
	}
	h.renderAuthPage(w, r, authPageData{Tab: "signup", Error: msg, Form: form})
}

// renderAuthFragment renders a named auth template fragment, buffered so a
// template failure never leaves a half-written body.
func (h *AuthHandlers) renderAuthFragment(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	if h.T == nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := h.T.t.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger().ErrorContext(r.Context(), "auth fragment render failed", "template", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		h.logger().ErrorContext(r.Context(), "auth fragment write failed", "template", name, "error", err)
	}
}

// clearCookie clears a cookie by setting it to expire immediately.
// It mirrors key attributes (Secure, Path, Domain, SameSite) used when setting cookies
// to maximize compatibility across browsers during deletion.
func (h *AuthHandlers) clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	isSecure := r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
	cd := h.CookieDomain
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   cd,
		HttpOnly: true,
		Secure:   isSecure,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

// oauthCookieParams groups values needed to set OAuth cookies (≤3 params rule).
type oauthCookieParams struct {
	State       string
	Nonce       string
	RedirectURI string
}

// setOAuthCookies stores OAuth state, nonce, and the post-login redirect in secure cookies.
func (h *AuthHandlers) setOAuthCookies(w http.ResponseWriter, r *http.Request, p oauthCookieParams) {
	isSecure := r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
	cd := h.CookieDomain

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    p.State,
		Path:     "/",
		Domain:   cd,
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600, // 10 minutes
	})

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_nonce",
		Value:    p.Nonce,
		Path:     "/",
		Domain:   cd,
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600, // 10 minutes
	})

	http.SetCookie(w, &http.Cookie{
		Name:     "post_login_redirect",
		Value:    p.RedirectURI,
		Path:     "/",
		Domain:   cd,
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600, // 10 minutes
	})
}

// setSessionCookie writes the session cookie based on the session's expiry.
func (h *AuthHandlers) setSessionCookie(w http.ResponseWriter, r *http.Request, s domainauth.Session) {
	isSecure := r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
	cd := h.CookieDomain
	http.SetCookie(w, &http.Cookie{
		Name:     "session_id",
		Value:    s.ID,
		Path:     "/",
		Domain:   cd,
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(time.Until(s.ExpiresAt).Seconds()),
	})
}

// getPostLoginRedirect returns the post-login redirect URL and clears the cookie.
func (h *AuthHandlers) getPostLoginRedirect(w http.ResponseWriter, r *http.Request) string {
	redirectURI := "/"
	if redirectCookie, err := r.Cookie("post_login_redirect"); err == nil {
		candidate := redirectCookie.Value
		// Defensive re-validation: allow only relative paths
		u, parseErr := url.Parse(candidate)
		if parseErr == nil && !u.IsAbs() && u.Host == "" && strings.HasPrefix(u.Path, "/") {
			redirectURI = candidate
		}
		h.clearCookie(w, r, "post_login_redirect")
	}
	return redirectURI
}

// safeRedirectPath ensures the provided redirect is a same-origin relative path
// starting with "/" and not an absolute URL. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return candidate
}
