package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	ginapi "github.com/wordnest/wordnest-api/api/gin"
	"github.com/wordnest/wordnest-api/config"
	"github.com/wordnest/wordnest-api/domain"
	"github.com/wordnest/wordnest-api/internal/metrics"
	"github.com/wordnest/wordnest-api/internal/reconcile"
	"github.com/wordnest/wordnest-api/internal/server"
	"github.com/wordnest/wordnest-api/internal/socialauth"
	"github.com/wordnest/wordnest-api/internal/store/memory"
	"github.com/wordnest/wordnest-api/internal/token"
	"github.com/wordnest/wordnest-api/log"
	"github.com/wordnest/wordnest-api/mongodb"
	"github.com/wordnest/wordnest-api/services"
	"github.com/wordnest/wordnest-api/tracing"
)

func main() {
	root := &cobra.Command{
		Use:          "wordnest-api",
		Short:        "Wordnest vocabulary backend",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd(), seedCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg *config.ServerConfig) log.Logger {
	return log.NewZerologAdapter(log.ParseLevel(cfg.LogLevel), cfg.LogPretty)
}

// buildStores selects the persistence backend. An empty MONGO_URI or the
// literal "memory" runs everything in process, which is enough for local
// development.
func buildStores(ctx context.Context, cfg *config.ServerConfig, logger log.Logger) (domain.IdentityStore, domain.LanguageRepository, func(), error) {
	if cfg.MongoURI == "" || cfg.MongoURI == "memory" {
		logger.Warn(ctx, "running with the in-memory store, data will not survive restarts")
		store := memory.New()
		return store, store, func() {}, nil
	}

	client, db, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		return nil, nil, nil, err
	}
	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(shutdownCtx); err != nil {
			logger.Error(shutdownCtx, "disconnecting mongodb", err)
		}
	}

	store, err := mongodb.NewStore(ctx, client, db)
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}
	languages, err := mongodb.NewLanguageRepository(ctx, db)
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}
	return store, languages, cleanup, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				stdLog := zerolog.New(os.Stderr).With().Timestamp().Logger()
				stdLog.Fatal().Err(err).Msg("Failed to load configuration")
			}
			logger := newLogger(cfg)
			ctx := cmd.Context()

			logger.Info(ctx, "starting wordnest-api", map[string]interface{}{
				"http_port":     cfg.HTTPPort,
				"mongo_db_name": cfg.MongoDBName,
				"log_level":     cfg.LogLevel,
				"mock_provider": cfg.EnableMockProvider,
			})

			tp, err := tracing.InitTracerProvider(cfg.OtelServiceName)
			if err != nil {
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tp.Shutdown(shutdownCtx); err != nil {
					logger.Error(shutdownCtx, "shutting down tracer provider", err)
				}
			}()

			store, languages, cleanup, err := buildStores(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			metricsReg := prometheus.NewRegistry()
			metricsReg.MustRegister(collectors.NewGoCollector())
			metricsReg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			metrics.InitCustomMetrics(metricsReg)

			validators := socialauth.NewRegistry(socialauth.Config{
				GoogleClientID:     cfg.GoogleClientID,
				AppleClientID:      cfg.AppleClientID,
				EnableMockProvider: cfg.EnableMockProvider,
				Timeout:            cfg.ProviderTimeout(),
			}, logger)
			reconciler := reconcile.New(store, languages, cfg.DefaultNativeLanguage, cfg.DefaultStudyLanguage, logger, nil)
			codec := token.NewCodec(cfg.JWTSecretKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTokenTTL(), cfg.RefreshTokenTTL(), nil)
			authService := services.NewAuthService(validators, reconciler, codec, store, logger)
			authmw := ginapi.NewAuthMiddleware(codec, store, logger)

			authAPI := ginapi.NewAuthAPI(authService, authmw, logger)
			langAPI := ginapi.NewLanguageAPI(languages, authmw, logger)

			httpServer := server.NewHTTPServer(cfg, logger, authAPI, langAPI, metricsReg)

			errCh := make(chan error, 1)
			go func() {
				logger.Info(ctx, "HTTP server listening", map[string]interface{}{"addr": httpServer.Addr})
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-quit:
				logger.Info(ctx, "shutting down", map[string]interface{}{"signal": sig.String()})
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				return err
			}
			logger.Info(ctx, "server stopped")
			return nil
		},
	}
}

// seedLanguages is the starter catalogue installed by the seed command.
var seedLanguages = []domain.Language{
	{Code: "en", Name: "English", NativeName: "English"},
	{Code: "es", Name: "Spanish", NativeName: "Español"},
	{Code: "fr", Name: "French", NativeName: "Français"},
	{Code: "de", Name: "German", NativeName: "Deutsch"},
	{Code: "it", Name: "Italian", NativeName: "Italiano"},
	{Code: "pt", Name: "Portuguese", NativeName: "Português"},
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Install the starter language catalogue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)
			ctx := cmd.Context()

			_, languages, cleanup, err := buildStores(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			for _, lang := range seedLanguages {
				lang := lang
				err := languages.CreateLanguage(ctx, &lang)
				switch {
				case errors.Is(err, domain.ErrDuplicateLanguage):
					logger.Info(ctx, "language already present", map[string]interface{}{"code": lang.Code})
				case err != nil:
					return err
				default:
					logger.Info(ctx, "language installed", map[string]interface{}{"code": lang.Code})
				}
			}
			return nil
		},
	}
}
