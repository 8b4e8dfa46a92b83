package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the HTTP server.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeSessionReaper runs the idle session reaper.
	ServiceModeSessionReaper ServiceMode = "session-reaper"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeHTTP,
		ServiceModeSessionReaper,
	}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	parts := strings.Split(servicesStr, ",")
	for _, part := range parts {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP, ServiceModeSessionReaper:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: http, session-reaper)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// SessionReaperConfig contains idle session reaper configuration.
type SessionReaperConfig struct {
	// Interval is the reaper tick interval.
	Interval time.Duration `env:"SESSION_REAPER_INTERVAL" envDefault:"5m"`

	// IdleTimeout is how long a session may sit without activity before it
	// is removed for users who enabled auto logout.
	IdleTimeout time.Duration `env:"SESSION_REAPER_IDLE_TIMEOUT" envDefault:"30m"`
}

// Sanitize applies guardrails to session reaper configuration values.
func (r *SessionReaperConfig) Sanitize() {
	// Enforce minimum intervals to prevent excessive Redis load
	if r.Interval < 1*time.Minute {
		r.Interval = 1 * time.Minute
	}
	if r.IdleTimeout < 5*time.Minute {
		r.IdleTimeout = 5 * time.Minute
	}
}

// ServicesConfig groups all service-related configuration.
type ServicesConfig struct {
	// Services is a comma-delimited list of enabled services.
	// Valid values: http, session-reaper
	Services string `env:"SERVICES" envDefault:"http,session-reaper" yaml:"services"`

	// SessionReaper configuration.
	SessionReaper SessionReaperConfig
}

// GetEnabledServices returns the enabled services based on the Services field.
func (s *ServicesConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(s.Services)
}

// IsHTTPServerEnabled returns true if the HTTP server service is enabled.
func (s *ServicesConfig) IsHTTPServerEnabled() bool {
	services, err := s.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeHTTP]
}

// IsSessionReaperEnabled returns true if the session reaper service is enabled.
func (s *ServicesConfig) IsSessionReaperEnabled() bool {
	services, err := s.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeSessionReaper]
}

// Sanitize applies guardrails to services configuration values.
func (s *ServicesConfig) Sanitize() {
	s.SessionReaper.Sanitize()
}
