package httpx

import (
	"bytes"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	hrm "github.com/msccenter/hrm-ui"
	domainauth "github.com/msccenter/hrm-ui/internal/domain/auth"
	"github.com/msccenter/hrm-ui/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth       *service.AuthService
	Prefs      PreferencesService
	Attendance AttendanceUIService
	Users      UsersUIService
	// CookieDomain scopes session and CSRF cookies.
	CookieDomain string
	// LocalLogin selects the email/password page over the SSO redirect flow.
	LocalLogin bool
	IsDev      bool         // Development mode flag for hot reloading, etc.
	Logger     *slog.Logger // Logger for template and HTTP errors (optional)
}

// NewRouter creates and configures a new HTTP router with browser middleware.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	// Static assets at /static
	// Dev mode: serve from disk for hot reloading
	// Prod mode: serve from embedded FS
	mux.Handle("GET /static/", staticWithFallback(services.IsDev))

	// UI routes with template renderer
	uiHandlers := setupUIHandlers(services)
	cfg := uiRouteConfig{Auth: services.Auth, CookieDomain: services.CookieDomain}

	if services.Auth != nil {
		authHandlers := &AuthHandlers{
			Svc:          services.Auth,
			CookieDomain: services.CookieDomain,
			LocalLogin:   services.LocalLogin,
			Logger:       services.Logger,
		}
		if uiHandlers != nil {
			authHandlers.T = uiHandlers.T
		}
		registerAuthRoutes(mux, authHandlers, cfg)
	}

	if uiHandlers != nil {
		registerUIRoutes(mux, uiHandlers, cfg)
		registerAPIRoutes(mux, uiHandlers, cfg)
	}

	// Wrap with NotFound handler and browser detection middleware
	handler := &notFoundHandler{
		mux:        mux,
		uiHandlers: uiHandlers,
	}

	// Apply browser detection middleware
	return BrowserDetection()(handler)
}

// setupDevMode configures template FS, critical CSS FS, and asset resolver for dev mode.
func setupDevMode(diskManifestPath string) (fs.FS, fs.FS, *AssetResolver) {
	templateFS := os.DirFS(TemplatePathFromRoot)
	criticalCSSFS := os.DirFS("frontend/public")

	resolver, err := NewAssetResolverFromDisk(diskManifestPath)
	if err != nil {
		log.Printf(
			"failed to load asset manifest %s: %v; falling back to logical asset names",
			diskManifestPath,
			err,
		)
	}
	return templateFS, criticalCSSFS, resolver
}

// setupProdMode configures template FS, critical CSS FS, and asset resolver for production mode.
func setupProdMode(diskManifestPath string) (fs.FS, fs.FS, *AssetResolver) {
	templateFS, err := fs.Sub(hrm.TemplateFS, "frontend/templates")
	if err != nil {
		log.Printf("failed to create sub-filesystem for templates: %v; falling back to disk", err)
		templateFS = os.DirFS(TemplatePathFromRoot)
	}

	criticalCSSFS, resolver := setupProdAssets(diskManifestPath)
	return templateFS, criticalCSSFS, resolver
}

// setupProdAssets configures critical CSS FS and asset resolver for production mode.
func setupProdAssets(diskManifestPath string) (fs.FS, *AssetResolver) {
	staticSub, err := fs.Sub(hrm.StaticFS, "frontend/static")
	if err != nil {
		log.Printf("failed to create sub-filesystem for static assets: %v", err)
		return nil, tryDiskManifest(diskManifestPath)
	}

	resolver, err := NewAssetResolverFromFS(staticSub, "manifest.json")
	if err != nil {
		log.Printf("failed to load asset manifest from embedded FS: %v", err)
		return staticSub, tryDiskManifest(diskManifestPath)
	}

	return staticSub, resolver
}

// tryDiskManifest attempts to load the asset manifest from disk as a fallback.
func tryDiskManifest(diskManifestPath string) *AssetResolver {
	resolver, err := NewAssetResolverFromDisk(diskManifestPath)
	if err != nil {
		log.Printf(
			"failed to load asset manifest %s: %v; falling back to logical asset names",
			diskManifestPath,
			err,
		)
	}
	return resolver
}

// setupUIHandlers creates UI handlers with template renderer and asset resolver.
// In dev mode (services.IsDev=true), templates are loaded from disk for hot reloading.
// In production mode (services.IsDev=false), templates are loaded from embedded FS.
func setupUIHandlers(services RouterServices) *UIHandlers {
	// Choose template filesystem based on dev mode
	var templateFS fs.FS
	var criticalCSSFS fs.FS
	var resolver *AssetResolver

	diskManifestPath := filepath.Join("frontend", "static", "manifest.json")

	if services.IsDev {
		templateFS, criticalCSSFS, resolver = setupDevMode(diskManifestPath)
	} else {
		templateFS, criticalCSSFS, resolver = setupProdMode(diskManifestPath)
	}

	if resolver == nil {
		resolver = &AssetResolver{}
	}

	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS:    templateFS,
		Resolver:      resolver,
		CriticalCSSFS: criticalCSSFS,
		DevMode:       services.IsDev,
		Logger:        services.Logger,
	})
	if err != nil {
		if services.Logger != nil {
			services.Logger.Error("failed to create template renderer", slog.Any("error", err))
		} else {
			log.Printf("ERROR: failed to create template renderer: %v", err)
		}
		return nil
	}

	return &UIHandlers{
		T:             tr,
		Prefs:         services.Prefs,
		AttendanceSvc: services.Attendance,
		Users:         services.Users,
		IsDev:         services.IsDev,
		Logger:        services.Logger,
	}
}

// staticWithFallback serves /static/* assets.
// In dev mode (isDev=true), serves from disk with fallback for hot reloading.
// In production mode (isDev=false), serves from embedded FS.
func staticWithFallback(isDev bool) http.Handler {
	if isDev {
		// Dev mode: serve from disk with fallback for hot reloading
		mfs := multiFS{
			http.Dir("frontend/static"),
			http.Dir("frontend/public"),
			devCSSFS{},
		}
		return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(mfs)))
	}

	// Production mode: serve from embedded FS
	staticSub, err := fs.Sub(hrm.StaticFS, "frontend/static")
	if err != nil {
		log.Printf("failed to create sub-filesystem for static assets: %v", err)
		// Fallback to disk serving if embed fails
		return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.Dir("frontend/static"))))
	}
	return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))
}

// multiFS provides fallback filesystem for dev mode.
type multiFS []http.FileSystem

func (m multiFS) Open(name string) (http.File, error) {
	for _, fsys := range m {
		f, err := fsys.Open(name)
		if err == nil {
			return f, nil
		}
		// ignore not-exist and try next, but return early on other errors
		if !os.IsNotExist(err) {
			return nil, err
		}
	}
	return nil, os.ErrNotExist
}

// devCSSFS maps a single CSS path used during dev to the source stylesheet.
type devCSSFS struct{}

func (devCSSFS) Open(name string) (http.File, error) {
	if strings.TrimPrefix(name, "/") == "css/styles.css" || name == "css/styles.css" {
		return os.Open("frontend/styles/index.css")
	}
	return nil, os.ErrNotExist
}

// staticWithCacheHeaders wraps a static file handler to add appropriate cache headers.
func staticWithCacheHeaders(handler http.Handler) http.Handler {
	// Regex to match content-hashed filenames including optional .map (e.g., app.abc123.js, styles.def456.css, app.abc123.js.map)
	hashedFilePattern := regexp.MustCompile(`\.[a-f0-9]{8}\.(?:js|css)(?:\.map)?$`)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Check if this is a content-hashed asset
		if hashedFilePattern.MatchString(r.URL.Path) {
			// Hashed assets can be cached for a long time (1 year)
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		} else {
			// Non-hashed assets (dev mode) should not be cached
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
			w.Header().Set("Pragma", "no-cache")
			w.Header().Set("Expires", "0")
		}

		handler.ServeHTTP(w, r)
	})
}

// notFoundHandler wraps a ServeMux and provides custom 404 handling.
type notFoundHandler struct {
	mux        *http.ServeMux
	uiHandlers *UIHandlers
}

// ServeHTTP implements http.Handler and provides custom 404 handling.
func (h *notFoundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cw := newCaptureWriter(w)
	// Serve the request through the mux, capturing status, headers, and body
	h.mux.ServeHTTP(cw, r)

	// If the mux didn't handle the request (404), use our custom handler
	if cw.status == http.StatusNotFound {
		// For missing static assets, preserve the default file server response
		if strings.HasPrefix(r.URL.Path, "/static/") {
			cw.flushTo(w)
			return
		}
		if h.uiHandlers != nil {
			h.uiHandlers.NotFound(w, r)
			return
		}
		http.NotFound(w, r)
		return
	}

	// Not a 404: write the captured response
	cw.flushTo(w)
}

// captureWriter buffers headers, status and body so we can decide post-dispatch.
type captureWriter struct {
	rw     http.ResponseWriter
	header http.Header
	status int
	buf    bytes.Buffer
}

func newCaptureWriter(w http.ResponseWriter) *captureWriter {
	return &captureWriter{rw: w, header: make(http.Header), status: http.StatusOK}
}

func (c *captureWriter) Header() http.Header         { return c.header }
func (c *captureWriter) WriteHeader(code int)        { c.status = code }
func (c *captureWriter) Write(b []byte) (int, error) { return c.buf.Write(b) }

func (c *captureWriter) flushTo(w http.ResponseWriter) {
	for k, vs := range c.header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(c.status)
	if _, err := w.Write(c.buf.Bytes()); err != nil {
		log.Printf("failed to write captured response: %v", err)
	}
}

// uiRouteConfig holds configuration for UI route registration.
type uiRouteConfig struct {
	Auth         *service.AuthService
	CookieDomain string
}

// csrf returns the shared CSRF middleware so tokens are issued on page loads
// and validated on form posts.
func (cfg uiRouteConfig) csrf() func(http.Handler) http.Handler {
	return CSRFProtection(CSRFConfig{CookieDomain: cfg.CookieDomain})
}

// authWrap requires a signed-in user and layers CSRF protection under it.
func (cfg uiRouteConfig) authWrap() func(http.Handler) http.Handler {
	if cfg.Auth == nil {
		return func(h http.Handler) http.Handler { return h }
	}
	csrf := cfg.csrf()
	requireAuth := RequireAuthBrowser(cfg.Auth)
	return func(h http.Handler) http.Handler {
		return requireAuth(csrf(h))
	}
}

// adminWrap requires the admin role and layers CSRF protection under it.
func (cfg uiRouteConfig) adminWrap() func(http.Handler) http.Handler {
	if cfg.Auth == nil {
		return func(h http.Handler) http.Handler { return h }
	}
	csrf := cfg.csrf()
	roleCheck := RequireRoleBrowser(cfg.Auth, domainauth.RoleAdmin)
	return func(h http.Handler) http.Handler {
		return roleCheck(csrf(h))
	}
}

// registerAuthRoutes wires login, signup, and session endpoints. The page
// routes run under the CSRF middleware so the login/signup forms carry a
// token before the user is authenticated.
func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, cfg uiRouteConfig) {
	csrf := cfg.csrf()
	mux.Handle("GET /auth/login", csrf(http.HandlerFunc(h.Login)))
	mux.Handle("POST /auth/login", csrf(http.HandlerFunc(h.PasswordLogin)))
	mux.Handle("POST /auth/signup", csrf(http.HandlerFunc(h.Signup)))
	mux.HandleFunc("GET /auth/callback", h.Callback)
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.Handle("GET /auth/status", OptionalAuth(h.Svc)(http.HandlerFunc(h.Status)))
}

// registerAPIRoutes wires the JSON endpoints consumed outside the HTMX pages.
// These run under the token-style auth middleware rather than the browser
// redirect wrappers: failures answer with JSON errors, never a login redirect.
func registerAPIRoutes(mux *http.ServeMux, h *UIHandlers, cfg uiRouteConfig) {
	if cfg.Auth == nil {
		return
	}
	requireAuth := RequireAuth(cfg.Auth)
	requireAdmin := RequireRole(cfg.Auth, domainauth.RoleAdmin)
	mux.Handle("GET /api/attendance/today", requireAuth(http.HandlerFunc(h.APIAttendanceToday)))
	mux.Handle("GET /api/users/pending", requireAdmin(http.HandlerFunc(h.APIPendingUsers)))
}

// registerUIRoutes delegates to per-domain UI route registration functions.
func registerUIRoutes(mux *http.ServeMux, h *UIHandlers, cfg uiRouteConfig) {
	registerUIDashboardRoutes(mux, h, cfg)
	registerUIAttendanceRoutes(mux, h, cfg)
	registerUISettingsRoutes(mux, h, cfg)
	registerUIProfileRoutes(mux, h, cfg)
	registerUIUsersRoutes(mux, h, cfg)
	// Public auth-related UI routes (no auth wrapper)
	mux.Handle("GET /auth/signed-out", http.HandlerFunc(h.SignedOut))
}

// registerUIDashboardRoutes wires main dashboard/navigation pages.
func registerUIDashboardRoutes(mux *http.ServeMux, h *UIHandlers, cfg uiRouteConfig) {
	wrap := cfg.authWrap()
	mux.Handle("GET /", wrap(http.HandlerFunc(h.Index)))
	mux.Handle("GET /dashboard", wrap(http.HandlerFunc(h.Dashboard)))
	mux.Handle("GET /dashboard/pending-users", wrap(http.HandlerFunc(h.PendingUsersFragment)))
}

// registerUIAttendanceRoutes wires the attendance page and its widget.
func registerUIAttendanceRoutes(mux *http.ServeMux, h *UIHandlers, cfg uiRouteConfig) {
	wrap := cfg.authWrap()
	mux.Handle("GET /attendance", wrap(http.HandlerFunc(h.Attendance)))
	mux.Handle("GET /attendance/widget", wrap(http.HandlerFunc(h.AttendanceWidget)))
	mux.Handle("GET /attendance/week", wrap(http.HandlerFunc(h.AttendanceWeek)))
	mux.Handle("POST /attendance/check-in", wrap(http.HandlerFunc(h.AttendanceCheckIn)))
	mux.Handle("POST /attendance/check-out", wrap(http.HandlerFunc(h.AttendanceCheckOut)))
}

// registerUISettingsRoutes wires the settings page.
func registerUISettingsRoutes(mux *http.ServeMux, h *UIHandlers, cfg uiRouteConfig) {
	wrap := cfg.authWrap()
	mux.Handle("GET /settings", wrap(http.HandlerFunc(h.Settings)))
	mux.Handle("POST /settings", wrap(http.HandlerFunc(h.SettingsSave)))
	mux.Handle("POST /settings/theme", wrap(http.HandlerFunc(h.SettingsSetTheme)))
	mux.Handle("POST /settings/language", wrap(http.HandlerFunc(h.SettingsSetLanguage)))
}

// registerUIProfileRoutes wires the profile page.
func registerUIProfileRoutes(mux *http.ServeMux, h *UIHandlers, cfg uiRouteConfig) {
	wrap := cfg.authWrap()
	mux.Handle("GET /profile", wrap(http.HandlerFunc(h.Profile)))
	mux.Handle("POST /profile/password", wrap(http.HandlerFunc(h.ProfileChangePassword)))
}

// registerUIUsersRoutes wires user administration (admin-only) pages.
func registerUIUsersRoutes(mux *http.ServeMux, h *UIHandlers, cfg uiRouteConfig) {
	wrapAdmin := cfg.adminWrap()
	mux.Handle("GET /users", wrapAdmin(http.HandlerFunc(h.UsersList)))
	mux.Handle("GET /users/new", wrapAdmin(http.HandlerFunc(h.UserNew)))
	mux.Handle("POST /users", wrapAdmin(http.HandlerFunc(h.UserCreate)))
	mux.Handle("POST /users/{id}/approve", wrapAdmin(http.HandlerFunc(h.UserApprove)))
	mux.Handle("POST /users/{id}/role", wrapAdmin(http.HandlerFunc(h.UserSetRole)))
	mux.Handle("POST /users/{id}/status", wrapAdmin(http.HandlerFunc(h.UserSetStatus)))
	mux.Handle("POST /users/{id}/delete", wrapAdmin(http.HandlerFunc(h.UserDelete)))
}
