package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ukpostcodes/internal/corpus"
	"github.com/ukpostcodes/internal/db"
	"github.com/ukpostcodes/internal/debug"
)

// createLookupCmd looks up one or more postcodes
func createLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <postcode>...",
		Short: "Show the directory record for postcodes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, done, err := openService(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer done()

			if len(args) == 1 {
				rec, err := svc.Lookup(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if rec == nil {
					return fmt.Errorf("postcode not found: %s", args[0])
				}
				return printJSON(rec)
			}

			recs, err := svc.BulkLookup(cmd.Context(), args)
			if err != nil {
				return err
			}
			return printJSON(recs)
		},
	}
}

// createSearchCmd lists postcodes by prefix
func createSearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <prefix>",
		Short: "List postcodes starting with a prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, done, err := openService(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer done()

			recs, err := svc.Search(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			printRecords(recs)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of results")
	return cmd
}

// createOutcodeCmd lists every postcode in an outcode
func createOutcodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "outcode <outcode>",
		Short: "List every postcode in an outcode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, done, err := openService(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer done()

			recs, err := svc.ByOutcode(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printRecords(recs)
			return nil
		},
	}
}

// createAreaCmd lists postcodes in an administrative area
func createAreaCmd() *cobra.Command {
	var limit int

	names := make([]string, len(corpus.AreaTypes))
	for i, a := range corpus.AreaTypes {
		names[i] = string(a)
	}

	cmd := &cobra.Command{
		Use:       "area <type> <value>",
		Short:     "List postcodes in an administrative area",
		Long:      "Area types: " + strings.Join(names, ", "),
		Args:      cobra.ExactArgs(2),
		ValidArgs: names,
		RunE: func(cmd *cobra.Command, args []string) error {
			area, ok := corpus.ParseAreaType(args[0])
			if !ok {
				return fmt.Errorf("unknown area type %q (want one of %s)", args[0], strings.Join(names, ", "))
			}
			svc, done, err := openService(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer done()

			recs, err := svc.ByArea(cmd.Context(), area, args[1], limit)
			if err != nil {
				return err
			}
			printRecords(recs)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum number of results")
	return cmd
}

// createInfoCmd shows directory statistics
func createInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show postcode directory statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, done, err := openService(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer done()

			info, err := svc.Info(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("Backend:           %s\n", info.Backend)
			if info.Source != "" {
				fmt.Printf("Source:            %s (%d bytes)\n", info.Source, info.SourceSizeBytes)
			}
			if info.SourceFingerprint != "" {
				fmt.Printf("Fingerprint:       blake3:%s\n", info.SourceFingerprint)
			}
			fmt.Printf("Postcodes:         %d\n", info.TotalPostcodes)
			fmt.Printf("With coordinates:  %d (%.2f%%)\n", info.WithCoordinates, info.CoveragePercent)
			fmt.Printf("Spatial snapshot:  %d points\n", info.SpatialPoints)
			for country, n := range info.CountryBreakdown {
				fmt.Printf("  %-16s %d\n", country, n)
			}
			return nil
		},
	}
}

// createImportCmd loads a CSV snapshot into a SQL directory
func createImportCmd() *cobra.Command {
	var batchSize int

	cmd := &cobra.Command{
		Use:   "import <csv>",
		Short: "Import a postcode CSV (optionally .xz) into the SQLite or PostgreSQL directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if batchSize <= 0 {
				return errors.New("batch size must be positive")
			}
			ctx := cmd.Context()
			defer debug.Timing(logger, settings.Debug, "import "+args[0])()

			src, err := corpus.LoadCSV(args[0])
			if err != nil {
				return err
			}
			records := src.Records()

			conn, err := db.Create(ctx, settings, logger)
			if err != nil {
				return err
			}
			defer conn.Close()
			store := conn.Store.(*corpus.SQLStore)

			for start := 0; start < len(records); start += batchSize {
				end := min(start+batchSize, len(records))
				if err := store.Insert(ctx, records[start:end]); err != nil {
					return err
				}
				debug.Output(logger, settings.Debug, "imported %d/%d", end, len(records))
			}
			fmt.Printf("Imported %d postcodes into %s\n", len(records), conn.Driver)
			return nil
		},
	}

	cmd.Flags().IntVar(&batchSize, "batch-size", 5000, "Rows per insert transaction")
	return cmd
}

func printRecords(recs []corpus.Record) {
	if len(recs) == 0 {
		fmt.Println("No postcodes found")
		return
	}
	for _, r := range recs {
		coords := "-"
		if r.Coordinates != nil {
			coords = fmt.Sprintf("%.6f,%.6f", r.Coordinates.Latitude, r.Coordinates.Longitude)
		}
		fmt.Printf("%-9s %-22s %-24s %s\n", r.Postcode, coords, r.Administrative.District, r.Administrative.Country)
	}
	fmt.Printf("\n%d postcode(s)\n", len(recs))
}
