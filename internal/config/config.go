package config

import (
	"flag"
	"os"
	"time"
)

type ServerConfig struct {
	Address         string
	DatabaseDSN     string
	MigrationsPath  string
	RedisAddr       string
	RedisPassword   string
	SessionTTL      time.Duration
	AuthBackend     string
	SupabaseProject string
	SupabaseAPIKey  string
	SecretPepper    string
	AuditFile       string
	AuditURL        string
}

func NewServerConfig() (*ServerConfig, error) {
	return ParseServerConfig(os.Args[1:], os.Getenv)
}

// ParseServerConfig reads flags from args and lets non-empty environment
// variables override them.
func ParseServerConfig(args []string, getenv func(string) string) (*ServerConfig, error) {
	config := &ServerConfig{
		Address:        "localhost:8080",
		MigrationsPath: "file://./migrations",
		SessionTTL:     DefaultSessionTTL,
		AuthBackend:    AuthBackendLocal,
	}

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	address := fs.String("a", config.Address, "address")
	databaseDSN := fs.String("d", config.DatabaseDSN, "database dsn, empty keeps records in memory")
	migrationsPath := fs.String("m", config.MigrationsPath, "migrations source url")
	redisAddr := fs.String("redis", config.RedisAddr, "redis address for session tokens, empty keeps them in memory")
	redisPassword := fs.String("redis-password", config.RedisPassword, "redis password")
	sessionTTL := fs.Duration("session-ttl", config.SessionTTL, "session lifetime")
	authBackend := fs.String("auth", config.AuthBackend, "identity backend: local or supabase")
	supabaseProject := fs.String("supabase-project", config.SupabaseProject, "supabase project reference")
	supabaseAPIKey := fs.String("supabase-key", config.SupabaseAPIKey, "supabase anon api key")
	secretPepper := fs.String("pepper", config.SecretPepper, "pepper mixed into local password hashes")
	auditFile := fs.String("audit-file", config.AuditFile, "path to audit log file")
	auditURL := fs.String("audit-url", config.AuditURL, "url receiving audit events")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	envVars := map[string]*string{
		"ADDRESS":          address,
		"DATABASE_DSN":     databaseDSN,
		"MIGRATIONS_PATH":  migrationsPath,
		"REDIS_ADDR":       redisAddr,
		"REDIS_PASSWORD":   redisPassword,
		"AUTH_BACKEND":     authBackend,
		"SUPABASE_PROJECT": supabaseProject,
		"SUPABASE_API_KEY": supabaseAPIKey,
		"SECRET_PEPPER":    secretPepper,
		"AUDIT_FILE":       auditFile,
		"AUDIT_URL":        auditURL,
	}

	for envVar, flag := range envVars {
		if envValue := getenv(envVar); envValue != "" {
			*flag = envValue
		}
	}

	if envSessionTTL := getenv("SESSION_TTL"); envSessionTTL != "" {
		ttl, err := time.ParseDuration(envSessionTTL)
		if err != nil {
			return nil, err
		}
		*sessionTTL = ttl
	}

	config.Address = *address
	config.DatabaseDSN = *databaseDSN
	config.MigrationsPath = *migrationsPath
	config.RedisAddr = *redisAddr
	config.RedisPassword = *redisPassword
	config.SessionTTL = *sessionTTL
	config.AuthBackend = *authBackend
	config.SupabaseProject = *supabaseProject
	config.SupabaseAPIKey = *supabaseAPIKey
	config.SecretPepper = *secretPepper
	config.AuditFile = *auditFile
	config.AuditURL = *auditURL

	return config, nil
}
