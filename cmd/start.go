package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jamiemulcahy/pa-pedia-sub001/core/config"
	"github.com/jamiemulcahy/pa-pedia-sub001/core/database"
	"github.com/jamiemulcahy/pa-pedia-sub001/core/loader"
	"github.com/jamiemulcahy/pa-pedia-sub001/core/logger"
	"github.com/jamiemulcahy/pa-pedia-sub001/core/middleware/auth"
	"github.com/jamiemulcahy/pa-pedia-sub001/core/middleware/rayid"
	"github.com/jamiemulcahy/pa-pedia-sub001/core/storage"

	"github.com/jamiemulcahy/pa-pedia-sub001/feature/compare"
	"github.com/jamiemulcahy/pa-pedia-sub001/feature/faction"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// @title PA Pedia API
// @version 1.0
// @description API for browsing and comparing Planetary Annihilation unit data.
// @host localhost:8080
// @BasePath /

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the PA Pedia server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Initialize Storage
		store, err := storage.NewClient(cfg.Storage)
		if err != nil {
			logg.Fatal("Failed to create storage client", zap.Error(err))
		}

		// 4. Connect to Database (Optional)
		// Without it the server runs browsing-only: uploads and deletions
		// of local factions return 503 instead of crashing startup.
		var localStore faction.LocalStore
		if db, err := database.Connect(cfg.Database); err != nil {
			logg.Warn("Optional database connection failed, local factions disabled", zap.Error(err))
		} else {
			gls, err := faction.NewGormLocalStore(db, store, cfg.Storage.Bucket, cfg.Data.LocalPrefix, logg)
			if err != nil {
				logg.Fatal("Failed to migrate local faction store", zap.Error(err))
			}
			localStore = gls
			logg.Info("Local faction store ready")
		}

		// 5. Build the faction cache and its collaborators
		source := faction.NewStorageDataSource(store, cfg.Storage.Bucket, cfg.Data.CatalogObject, cfg.Data.StaticPrefix)
		cache := faction.NewCache(source, localStore, faction.NewZipBundleParser(), logg)
		resolver := faction.NewStorageAssetResolver(store, cfg.Storage.Bucket,
			cfg.Data.StaticPrefix, cfg.Data.LocalPrefix,
			time.Duration(cfg.Storage.PresignExpiryMinutes)*time.Minute)

		// Metadata loads eagerly so the faction list renders without a
		// blocking first request. Faction indexes still load lazily.
		go func() {
			if _, err := cache.LoadFactionMetadataAll(context.Background()); err != nil {
				logg.Warn("Eager metadata load failed", zap.Error(err))
			}
		}()

		// 6. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We will log our own startup message
		})

		// 7. Initialize Feature Loader
		mgr := loader.NewManager()
		mgr.Register(faction.NewFeature(cache, resolver, logg))
		mgr.Register(compare.NewFeature(cache, logg))

		// Middleware Registration
		// RayID must be first to trace everything.
		app.Use(rayid.New())

		// Request logging with Zap + RayID.
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// Health check stays public.
		app.Get("/health", func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"status": "ok"})
		})

		// Auth (Protect API)
		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

		// 8. Load Features
		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 9. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(":" + cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 10. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
