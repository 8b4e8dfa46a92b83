package bootstrap

import (
	"log/slog"

	"github.com/msccenter/hrm-ui/config"
	"github.com/msccenter/hrm-ui/internal/adapters/authroles"
	"github.com/msccenter/hrm-ui/internal/adapters/devauth"
	"github.com/msccenter/hrm-ui/internal/adapters/oidc"
	redisadapter "github.com/msccenter/hrm-ui/internal/adapters/redis"
	"github.com/msccenter/hrm-ui/internal/core"
	"github.com/msccenter/hrm-ui/internal/observability/statsd"
	"github.com/msccenter/hrm-ui/internal/service"
	"github.com/msccenter/hrm-ui/internal/service/accountnotifier"
	"github.com/redis/go-redis/v9"
)

// AuthConfig contains configuration for auth service.
type AuthConfig struct {
	Auth        config.AuthConfig
	RedisClient redis.UniversalClient
	Users       core.UserRepository
	Logger      *slog.Logger
	Metrics     statsd.Sink
	Notifier    *accountnotifier.Service
}

// BuildAuthService creates an auth service based on the configured auth mode.
// Returns nil if auth is not configured or configuration is invalid.
func BuildAuthService(cfg AuthConfig) *service.AuthService {
	if cfg.RedisClient == nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("auth service disabled: redis client not configured", "mode", cfg.Auth.Mode)
		}
		return nil
	}

	// Create Redis session store shared by all modes
	sessionStore := redisadapter.NewSessionStoreWithPrefix(cfg.RedisClient, "session:")

	// Role mapper is shared; it only matters for provider identities since
	// local accounts carry their role in the database.
	roleMapper := authroles.StaticRoleMapper{
		AdminGroup:   cfg.Auth.AdminGroup,
		ManagerGroup: cfg.Auth.ManagerGroup,
	}

	switch cfg.Auth.Mode {
	case config.AuthModeLocal:
		return buildLocalAuthService(cfg, sessionStore, roleMapper)

	case config.AuthModeMock:
		return buildDevAuthService(cfg, sessionStore, roleMapper)

	case config.AuthModeOAuth:
		return buildOAuthService(cfg, sessionStore, roleMapper)

	default:
		return nil
	}
}

func buildLocalAuthService(
	cfg AuthConfig,
	sessionStore *redisadapter.SessionStore,
	roleMapper authroles.StaticRoleMapper,
) *service.AuthService {
	if cfg.Users == nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("auth service disabled: local mode requires a user repository")
		}
		return nil
	}

	// Local mode has no external provider; login and signup run against the
	// database alone.
	return service.NewAuthService(service.AuthServiceOptions{
		Sessions:   sessionStore,
		Roles:      roleMapper,
		Users:      cfg.Users,
		SessionTTL: cfg.Auth.SessionTTL,
		Mode:       string(config.AuthModeLocal),
		Logger:     cfg.Logger,
		Metrics:    cfg.Metrics,
		Notifier:   cfg.Notifier,
	})
}

func buildDevAuthService(
	cfg AuthConfig,
	sessionStore *redisadapter.SessionStore,
	roleMapper authroles.StaticRoleMapper,
) *service.AuthService {
	// Explicitly enabled dev auth mode; build a local provider.
	prov, err := devauth.NewProvider(devauth.Config{
		UserID: cfg.Auth.DevAuth.UserID,
		Email:  cfg.Auth.DevAuth.Email,
		Groups: cfg.Auth.DevAuth.Groups,
		// session duration defaults inside provider
	})
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("failed to create dev auth provider, auth disabled", "error", err)
		}
		return nil
	}

	return service.NewAuthService(service.AuthServiceOptions{
		Provider:   prov,
		Sessions:   sessionStore,
		Roles:      roleMapper,
		Users:      cfg.Users,
		SessionTTL: cfg.Auth.SessionTTL,
		Mode:       string(config.AuthModeMock),
		Logger:     cfg.Logger,
		Metrics:    cfg.Metrics,
		Notifier:   cfg.Notifier,
	})
}

func buildOAuthService(
	cfg AuthConfig,
	sessionStore *redisadapter.SessionStore,
	roleMapper authroles.StaticRoleMapper,
) *service.AuthService {
	// Only enable when fully configured
	oauth := cfg.Auth.OAuth
	if oauth.DiscoveryURL == "" || oauth.ClientID == "" || oauth.ClientSecret == "" {
		if cfg.Logger != nil {
			cfg.Logger.Warn("AuthModeOAuth selected but required config missing; auth disabled",
				"discovery_url_empty", oauth.DiscoveryURL == "",
				"client_id_empty", oauth.ClientID == "",
				"client_secret_empty", oauth.ClientSecret == "",
			)
		}
		return nil
	}

	prov, err := oidc.NewProvider(oidc.ProviderConfig{
		ClientID:     oauth.ClientID,
		ClientSecret: oauth.ClientSecret,
		RedirectURL:  oauth.RedirectURL,
		Scope:        oauth.Scope,
		DiscoveryURL: oauth.DiscoveryURL,
	})
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("failed to create OIDC provider, auth disabled", "error", err)
		}
		return nil
	}

	return service.NewAuthService(service.AuthServiceOptions{
		Provider:   prov,
		Sessions:   sessionStore,
		Roles:      roleMapper,
		Users:      cfg.Users,
		SessionTTL: cfg.Auth.SessionTTL,
		Mode:       string(config.AuthModeOAuth),
		Logger:     cfg.Logger,
		Metrics:    cfg.Metrics,
		Notifier:   cfg.Notifier,
	})
}
