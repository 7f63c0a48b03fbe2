package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the silab service.
type Config struct {
	HTTPPort           int
	SQLiteDSN          string
	SessionTTL         time.Duration
	StudentEmailDomain string
	CalendarCacheTTL   time.Duration
	ExpirySweepEvery   time.Duration
}

// Load parses configuration values from the current process environment.
//
// Every field has a sensible default; set values are validated and reported
// together so operators see all problems at once.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:           8080,
		SQLiteDSN:          "file:silab.db?_foreign_keys=on",
		SessionTTL:         24 * time.Hour,
		StudentEmailDomain: "@mhs.uinsaid.ac.id",
		CalendarCacheTTL:   30 * time.Second,
		ExpirySweepEvery:   time.Hour,
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("SILAB_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "SILAB_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("SILAB_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if ttlValue := strings.TrimSpace(os.Getenv("SILAB_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "SILAB_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if domain := strings.TrimSpace(os.Getenv("SILAB_STUDENT_EMAIL_DOMAIN")); domain != "" {
		if !strings.HasPrefix(domain, "@") {
			invalid = append(invalid, "SILAB_STUDENT_EMAIL_DOMAIN")
		} else {
			cfg.StudentEmailDomain = strings.ToLower(domain)
		}
	}

	if ttlValue := strings.TrimSpace(os.Getenv("SILAB_CALENDAR_CACHE_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "SILAB_CALENDAR_CACHE_TTL")
		} else {
			cfg.CalendarCacheTTL = ttl
		}
	}

	if sweepValue := strings.TrimSpace(os.Getenv("SILAB_EXPIRY_SWEEP_INTERVAL")); sweepValue != "" {
		sweep, err := time.ParseDuration(sweepValue)
		if err != nil || sweep <= 0 {
			invalid = append(invalid, "SILAB_EXPIRY_SWEEP_INTERVAL")
		} else {
			cfg.ExpirySweepEvery = sweep
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("nilai variabel lingkungan tidak valid: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
