package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// createNearestCmd lists postcodes around a point
func createNearestCmd() *cobra.Command {
	var (
		radius float64
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "nearest <latitude> <longitude>",
		Short: "List the postcodes nearest to a point",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, lon, err := parsePoint(args)
			if err != nil {
				return err
			}
			svc, done, err := openService(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer done()

			results, err := svc.Nearest(lat, lon, radius, limit)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Printf("No postcodes within %.2f km\n", radius)
				return nil
			}
			for _, r := range results {
				fmt.Printf("%-9s %8.3f km  %s\n", r.Record.Postcode, r.DistanceKm, r.Record.Administrative.District)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&radius, "radius", 10, "Search radius in kilometres")
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of results")
	return cmd
}

// createReverseCmd finds the closest postcode to a point
func createReverseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reverse <latitude> <longitude>",
		Short: "Reverse geocode a point to its closest postcode",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, lon, err := parsePoint(args)
			if err != nil {
				return err
			}
			svc, done, err := openService(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer done()

			res, err := svc.ReverseGeocode(lat, lon)
			if err != nil {
				return err
			}
			if res == nil {
				return fmt.Errorf("no postcode found near %g,%g", lat, lon)
			}
			return printJSON(res)
		},
	}
}

// createDistanceCmd measures the distance between two postcodes
func createDistanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "distance <postcode> <postcode>",
		Short: "Great-circle distance between two postcodes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, done, err := openService(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer done()

			km, ok, err := svc.DistanceBetween(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("distance unavailable: %s or %s is unknown or has no coordinates", args[0], args[1])
			}
			fmt.Printf("%.3f km\n", km)
			return nil
		},
	}
}

func parsePoint(args []string) (float64, float64, error) {
	lat, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude %q", args[0])
	}
	lon, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude %q", args[1])
	}
	return lat, lon, nil
}
