package cmd

import (
	"fmt"
	"sort"

	"github.com/jamiemulcahy/pa-pedia-sub001/core/config"
	"github.com/jamiemulcahy/pa-pedia-sub001/core/database"
	"github.com/jamiemulcahy/pa-pedia-sub001/core/logger"
	"github.com/jamiemulcahy/pa-pedia-sub001/core/storage"
	"github.com/jamiemulcahy/pa-pedia-sub001/feature/faction"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// factionsCmd represents the factions command
var factionsCmd = &cobra.Command{
	Use:   "factions",
	Short: "List all known factions",
	Long:  `Lists every faction visible through the configured storage bucket and, when the database is reachable, the local faction store.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cache, logg, err := buildCache()
		if err != nil {
			return err
		}
		defer logg.Sync()

		metadata, err := cache.LoadFactionMetadataAll(cmd.Context())
		if err != nil {
			return fmt.Errorf("metadata load failed: %w", err)
		}

		ids := make([]string, 0, len(metadata))
		for id := range metadata {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		fmt.Printf("%d faction(s)\n", len(ids))
		for _, id := range ids {
			meta := metadata[id]
			origin := "bundled"
			if meta.IsLocal {
				origin = "local"
			}
			fmt.Printf("  %-24s %-32s %-10s %s\n", id, meta.DisplayName, meta.Version, origin)
		}
		return nil
	},
}

// buildCache wires a faction cache the same way the server does, for
// one-shot CLI use. The database stays optional here too.
func buildCache() (*faction.Cache, *zap.Logger, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logg, err := logger.New(&logger.Config{Level: cfg.Log.Level, Format: "console"})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	store, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	var localStore faction.LocalStore
	if db, err := database.Connect(cfg.Database); err != nil {
		logg.Warn("Optional database connection failed", zap.Error(err))
	} else {
		gls, err := faction.NewGormLocalStore(db, store, cfg.Storage.Bucket, cfg.Data.LocalPrefix, logg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open local faction store: %w", err)
		}
		localStore = gls
	}

	source := faction.NewStorageDataSource(store, cfg.Storage.Bucket, cfg.Data.CatalogObject, cfg.Data.StaticPrefix)
	return faction.NewCache(source, localStore, faction.NewZipBundleParser(), logg), logg, nil
}

func init() {
	RootCmd.AddCommand(factionsCmd)
}
