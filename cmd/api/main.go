package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Taller-api/internal/application/repairorder"
	"github.com/jhoicas/Taller-api/internal/application/stock"
	"github.com/jhoicas/Taller-api/internal/infrastructure/memory"
	"github.com/jhoicas/Taller-api/internal/infrastructure/metrics"
	"github.com/jhoicas/Taller-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Taller-api/internal/infrastructure/seed"
	httpRouter "github.com/jhoicas/Taller-api/internal/interfaces/http"
	"github.com/jhoicas/Taller-api/pkg/config"
	"github.com/jhoicas/Taller-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()

	var txRunner repairorder.TxRunner
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		store := memory.NewStore()
		if cfg.Storage.SeedPath != "" {
			n, err := store.LoadSeed(cfg.Storage.SeedPath)
			if err != nil {
				log.Fatal().Err(err).Str("path", cfg.Storage.SeedPath).Msg("carga inicial de repuestos")
			}
			log.Info().Int("parts", n).Msg("repuestos cargados en memoria")
		}
		txRunner = store
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB, cfg.App.Name)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()

		if cfg.DB.AutoMigrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				log.Fatal().Err(err).Msg("migración de esquema")
			}
		}
		if cfg.Storage.SeedPath != "" {
			if err := seedPostgres(ctx, pool, cfg.Storage.SeedPath); err != nil {
				log.Fatal().Err(err).Str("path", cfg.Storage.SeedPath).Msg("carga inicial de repuestos")
			}
		}
		txRunner = postgres.NewTxRunner(pool)
	}

	var recorder repairorder.Recorder
	var promMetrics *metrics.Metrics
	if cfg.Metrics.Enabled {
		promMetrics = metrics.New()
		recorder = promMetrics
	}

	ledger := stock.NewLedger(log)
	orderUC := repairorder.NewOrderUseCase(txRunner, log)
	transitionUC := repairorder.NewTransitionUseCase(txRunner, ledger, recorder, log)
	optimizeUC := repairorder.NewOptimizeUseCase(txRunner, repairorder.OptimizerSettings{
		TimeBudget:     cfg.Optimizer.TimeBudget,
		NodeLimit:      cfg.Optimizer.NodeLimit,
		MaxExactOrders: cfg.Optimizer.MaxExactOrders,
	}, recorder, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: cfg.Optimizer.TimeBudget + time.Second*10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "storage": cfg.Storage.Driver})
	})

	deps := httpRouter.RouterDeps{
		OrderUC:      orderUC,
		TransitionUC: transitionUC,
		OptimizeUC:   optimizeUC,
		MetricsPath:  cfg.Metrics.Path,
		Log:          log,
	}
	if promMetrics != nil {
		deps.Metrics = promMetrics.Handler()
	}
	httpRouter.Router(app, deps)

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func seedPostgres(ctx context.Context, pool *pgxpool.Pool, path string) error {
	parts, err := seed.LoadParts(path)
	if err != nil {
		return err
	}
	return postgres.SeedParts(ctx, pool, parts)
}
