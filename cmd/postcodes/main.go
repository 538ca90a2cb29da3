package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ukpostcodes/internal/config"
	"github.com/ukpostcodes/internal/db"
	"github.com/ukpostcodes/internal/debug"
	"github.com/ukpostcodes/internal/service"
)

var (
	settings config.Settings
	logger   *slog.Logger
)

func main() {
	config.LoadEnv()
	settings = config.Load()

	// Create root command
	rootCmd := &cobra.Command{
		Use:   "postcodes",
		Short: "UK postcode recognition, repair and lookup",
		Long: `Finds UK postcodes in free text and OCR output, repairs common misreads
(O/0, I/1, S/5 ...), checks them against the postcode directory and answers
spatial queries over the directory's coordinates.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = debug.NewLogger(settings.Debug, os.Stderr)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&settings.Driver, "driver", settings.Driver, "Directory backend: sqlite, postgres or csv")
	flags.StringVar(&settings.DBPath, "db", settings.DBPath, "SQLite file or CSV snapshot (.csv or .csv.xz)")
	flags.StringVar(&settings.DatabaseURL, "database-url", settings.DatabaseURL, "PostgreSQL connection string")
	flags.BoolVar(&settings.Debug, "debug", settings.Debug, "Enable debug logging")

	// Parsing
	rootCmd.AddCommand(createParseCmd())
	rootCmd.AddCommand(createTextCmd())
	rootCmd.AddCommand(createAddressCmd())
	rootCmd.AddCommand(createOCRCmd())

	// Directory
	rootCmd.AddCommand(createLookupCmd())
	rootCmd.AddCommand(createSearchCmd())
	rootCmd.AddCommand(createOutcodeCmd())
	rootCmd.AddCommand(createAreaCmd())
	rootCmd.AddCommand(createInfoCmd())
	rootCmd.AddCommand(createImportCmd())

	// Spatial
	rootCmd.AddCommand(createNearestCmd())
	rootCmd.AddCommand(createReverseCmd())
	rootCmd.AddCommand(createDistanceCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openService connects to the configured directory. Parsing commands pass
// required=false so they still run, without directory status, when the
// directory cannot be opened.
func openService(ctx context.Context, required bool) (*service.Service, func(), error) {
	conn, err := db.Open(ctx, settings, logger)
	if err != nil {
		if required {
			return nil, nil, err
		}
		logger.Warn("postcode directory unavailable, continuing without it", "error", err)
		return service.New(ctx, nil, service.WithLogger(logger)), func() {}, nil
	}

	svc := service.New(ctx, conn.Store,
		service.WithLogger(logger),
		service.WithCacheSize(settings.CacheSize),
		service.WithMaxBulk(settings.Limits.MaxBulkRequests),
	)
	return svc, func() { conn.Close() }, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
