package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Schera-ole/wellness/internal/audit"
	"github.com/Schera-ole/wellness/internal/auth"
	"github.com/Schera-ole/wellness/internal/config"
	"github.com/Schera-ole/wellness/internal/handler"
	"github.com/Schera-ole/wellness/internal/migration"
	models "github.com/Schera-ole/wellness/internal/model"
	"github.com/Schera-ole/wellness/internal/repository"
	"github.com/Schera-ole/wellness/internal/service"
	"github.com/Schera-ole/wellness/internal/session"
)

const shutdownTimeout = 10 * time.Second

func main() {
	serverConfig, err := config.NewServerConfig()
	if err != nil {
		log.Fatal("Failed to parse configuration: ", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal("Failed to create logger: ", err)
	}
	defer logger.Sync()
	logSugar := logger.Sugar()

	if err := run(serverConfig, logSugar); err != nil {
		logSugar.Fatalw("server stopped", "error", err)
	}
}

func run(serverConfig *config.ServerConfig, logger *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := newStorage(ctx, serverConfig, logger)
	if err != nil {
		return err
	}
	defer storage.Close()

	backend, err := newBackend(serverConfig, storage)
	if err != nil {
		return err
	}

	tokens, closeTokens, err := newTokenStore(ctx, serverConfig, logger)
	if err != nil {
		return err
	}
	defer closeTokens()

	var opts []session.Option
	stopAudit := func() {}
	if serverConfig.AuditFile != "" || serverConfig.AuditURL != "" {
		var auditLogger audit.AuditLogger
		auditLogger, stopAudit = startAudit(serverConfig, logger)
		opts = append(opts, session.WithChangeHook(audit.ChangeHook(auditLogger)))
	}
	defer stopAudit()

	sessions := session.NewManager(backend, storage, tokens, serverConfig.SessionTTL, logger, opts...)
	go sessions.Run(ctx, config.SessionSweepInterval)
	accounts := service.NewAccountService(storage, logger)

	server := &http.Server{
		Addr:              serverConfig.Address,
		Handler:           handler.Router(storage, sessions, accounts, logger, serverConfig),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Infow("starting server", "address", serverConfig.Address, "auth", serverConfig.AuthBackend)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newStorage(ctx context.Context, serverConfig *config.ServerConfig, logger *zap.SugaredLogger) (repository.Repository, error) {
	if serverConfig.DatabaseDSN == "" {
		logger.Info("using in-memory storage")
		return repository.NewMemStorage(), nil
	}
	storage, err := repository.NewDBStorage(serverConfig.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := migration.RunMigrations(ctx, storage.DB(), serverConfig.MigrationsPath, logger); err != nil {
		storage.Close()
		return nil, err
	}
	logger.Info("using database storage")
	return storage, nil
}

func newBackend(serverConfig *config.ServerConfig, credentials repository.CredentialStore) (auth.Backend, error) {
	switch serverConfig.AuthBackend {
	case config.AuthBackendLocal:
		return auth.NewLocalBackend(credentials, serverConfig.SecretPepper), nil
	case config.AuthBackendSupabase:
		if serverConfig.SupabaseProject == "" || serverConfig.SupabaseAPIKey == "" {
			return nil, errors.New("supabase backend needs a project reference and an api key")
		}
		return auth.NewSupabaseBackend(serverConfig.SupabaseProject, serverConfig.SupabaseAPIKey), nil
	default:
		return nil, fmt.Errorf("unknown auth backend %q", serverConfig.AuthBackend)
	}
}

func newTokenStore(ctx context.Context, serverConfig *config.ServerConfig, logger *zap.SugaredLogger) (session.TokenStore, func(), error) {
	if serverConfig.RedisAddr == "" {
		return session.NewMemTokenStore(), func() {}, nil
	}
	tokens, err := session.NewRedisTokenStore(ctx, serverConfig.RedisAddr, serverConfig.RedisPassword)
	if err != nil {
		return nil, nil, err
	}
	logger.Infow("keeping sessions in redis", "address", serverConfig.RedisAddr)
	return tokens, func() { tokens.Close() }, nil
}

// startAudit wires the audit channel to the configured subscribers. The
// returned function closes the channel and waits for the subscribers to drain.
func startAudit(serverConfig *config.ServerConfig, logger *zap.SugaredLogger) (audit.AuditLogger, func()) {
	events := make(chan models.AuditEvent, 100)
	var wg sync.WaitGroup
	var subs []chan<- models.AuditEvent

	if serverConfig.AuditFile != "" {
		fileEvents := make(chan models.AuditEvent, 100)
		subs = append(subs, fileEvents)
		wg.Add(1)
		go func() {
			defer wg.Done()
			audit.FileSubscriber(fileEvents, serverConfig.AuditFile, logger)
		}()
	}
	if serverConfig.AuditURL != "" {
		urlEvents := make(chan models.AuditEvent, 100)
		subs = append(subs, urlEvents)
		wg.Add(1)
		go func() {
			defer wg.Done()
			audit.URLSubscriber(urlEvents, serverConfig.AuditURL, &http.Client{Timeout: 5 * time.Second}, logger)
		}()
	}
	go audit.Broadcaster(events, logger, subs...)

	return audit.NewAuditLogger(events, logger), func() {
		close(events)
		wg.Wait()
	}
}
