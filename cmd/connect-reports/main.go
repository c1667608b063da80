package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/Checker-Finance/connect-reports/internal/api"
	"github.com/Checker-Finance/connect-reports/internal/connect"
	"github.com/Checker-Finance/connect-reports/internal/publisher"
	"github.com/Checker-Finance/connect-reports/internal/rate"
	"github.com/Checker-Finance/connect-reports/internal/report"
	internalsecrets "github.com/Checker-Finance/connect-reports/internal/secrets"
	"github.com/Checker-Finance/connect-reports/internal/service"
	"github.com/Checker-Finance/connect-reports/internal/store"
	"github.com/Checker-Finance/connect-reports/pkg/config"
	"github.com/Checker-Finance/connect-reports/pkg/logger"
	"github.com/Checker-Finance/connect-reports/pkg/secrets"
	"github.com/Checker-Finance/connect-reports/pkg/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Load configuration ---
	cfg := config.Load()

	logger.Init(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	defer logger.Sync()
	logg := logger.S()
	logg.Info("starting [connect-reports]...")

	// --- Connect credentials (AWS Secrets Manager or environment) ---
	resolver := buildResolver(cfg)

	creds, err := resolver.Resolve(ctx)
	if err != nil {
		logg.Fatalw("failed to resolve Connect credentials", "error", err)
	}
	logg.Infow("connect credentials resolved",
		"base_url", creds.BaseURL,
		"token", utils.MaskToken(creds.Token))

	// --- Rate limiter ---
	rateMgr := rate.NewManager(rate.Config{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
		Cooldown:          1 * time.Second,
	})

	// --- Connect API client ---
	client := connect.NewClient(logg.Desugar(), creds.BaseURL, creds.Token, rateMgr)

	// --- Run registry (optional) ---
	st, err := store.New(cfg.DatabaseURL, store.PGPoolConfig{
		MaxConns:          int32(cfg.PGMaxConns),
		MinConns:          int32(cfg.PGMinConns),
		MaxConnLifetime:   cfg.PGMaxConnLifetime,
		MaxConnIdleTime:   cfg.PGMaxConnIdleTime,
		HealthCheckPeriod: cfg.PGHealthCheckPeriod,
	}, logg.Desugar())
	if err != nil {
		logg.Fatalw("failed to init store", "error", err)
	}
	if cfg.DatabaseURL != "" {
		logg.Info("run registry enabled: ", utils.MaskDSN(cfg.DatabaseURL))
	}

	// --- NATS publisher (optional) ---
	var nc *nats.Conn
	var pub *publisher.Publisher
	if cfg.NATSURL != "" {
		nc, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			logg.Fatalw("failed to connect to NATS", "error", err)
		}
		pub, err = publisher.New(nc, cfg.OutboundSubject, cfg.ServiceName)
		if err != nil {
			logg.Fatalw("failed to init publisher", "error", err)
		}
	}

	// --- Report runner ---
	gen := report.NewGenerator(client, logg.Desugar())
	var events service.EventSink
	if pub != nil {
		events = pub
	}
	runner := service.NewRunner(gen, st, events, logg.Desugar())

	exitCode := 0
	switch cfg.RunMode {
	case "serve":
		runServer(ctx, cfg, nc, st, runner, logg)
	default:
		if err := runOnce(ctx, cfg, runner, logg); err != nil {
			exitCode = 1
		}
	}

	logg.Info("shutting down [connect-reports]...")
	if nc != nil {
		if err := nc.Drain(); err != nil {
			logg.Warnw("nats.drain_failed", "error", err)
		}
	}
	if err := st.Close(); err != nil {
		logg.Warnw("store.close_failed", "error", err)
	}
	if exitCode != 0 {
		logger.Sync()
		os.Exit(exitCode)
	}
}

// buildResolver picks AWS Secrets Manager when a secret name is configured
// and falls back to plain environment credentials otherwise.
func buildResolver(cfg *config.Config) internalsecrets.Resolver {
	if cfg.ConnectSecretName == "" {
		return internalsecrets.NewEnvResolver(cfg)
	}

	awsProvider, err := secrets.NewAWSProvider(cfg.AWSRegion)
	if err != nil {
		logger.S().Fatalw("failed to create AWS Secrets Manager provider", "error", err)
	}
	credsCache := secrets.NewCache[internalsecrets.Credentials](cfg.CacheTTL)
	return internalsecrets.NewAWSResolver(logger.L(), cfg.ConnectSecretName, awsProvider, credsCache)
}

// runOnce generates the report a single time and writes it to OUTPUT_PATH.
func runOnce(ctx context.Context, cfg *config.Config, runner *service.Runner, logg *zap.SugaredLogger) error {
	out, err := os.Create(cfg.OutputPath)
	if err != nil {
		logg.Errorw("failed to create output file", "path", cfg.OutputPath, "error", err)
		return err
	}
	defer out.Close()

	opts := report.Options{
		Product: report.ProductFilter{
			All:     cfg.ProductAll,
			Choices: cfg.ProductChoices,
		},
		RendererType: cfg.RendererType,
	}

	rows, err := runner.Run(ctx, opts, func(current, total int) {
		if total > 0 && current%100 == 0 {
			logg.Infow("report progress", "current", current, "total", total)
		}
	}, out)
	if err != nil {
		logg.Errorw("report run failed", "rows", rows, "error", err)
		return err
	}

	logg.Infow("report written", "path", cfg.OutputPath, "rows", rows)
	return nil
}

// runServer exposes the report over HTTP until the context is cancelled.
func runServer(ctx context.Context, cfg *config.Config, nc *nats.Conn, st store.Store, runner *service.Runner, logg *zap.SugaredLogger) {
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
		BodyLimit:    cfg.HTTPBodyLimit,
	})

	reportHandler := api.NewReportHandler(logger.L(), runner)
	api.RegisterRoutes(app, nc, st, reportHandler)

	go func() {
		logg.Infof("HTTP API listening on :%d", cfg.Port)
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logg.Fatalw("fiber.listen_failed", "error", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logg.Warnw("fiber.shutdown_failed", "error", err)
	}
}
