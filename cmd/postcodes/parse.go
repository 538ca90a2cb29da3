package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ukpostcodes/internal/address"
	"github.com/ukpostcodes/internal/address/libpostal"
	"github.com/ukpostcodes/internal/ocr"
	"github.com/ukpostcodes/internal/ocr/tesseract"
	"github.com/ukpostcodes/internal/postcode"
	"github.com/ukpostcodes/internal/recognize"
	"github.com/ukpostcodes/internal/service"
)

// createParseCmd parses one postcode token
func createParseCmd() *cobra.Command {
	var noFix bool

	cmd := &cobra.Command{
		Use:   "parse <postcode>",
		Short: "Parse and repair a single postcode",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, done, err := openService(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer done()

			got, err := svc.ParseOne(cmd.Context(), strings.Join(args, " "), !noFix)
			if err != nil {
				return err
			}
			return printJSON(got)
		},
	}

	cmd.Flags().BoolVar(&noFix, "no-fix", false, "Only accept postcodes that are already well formed")
	return cmd
}

// createTextCmd finds every postcode in a file or stdin
func createTextCmd() *cobra.Command {
	var (
		modeName string
		noFix    bool
		ranked   bool
	)

	cmd := &cobra.Command{
		Use:   "text [file|-]",
		Short: "Find postcodes in free text",
		Long:  "Reads text from a file, or stdin when the file is - or omitted, and lists every postcode found.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := postcode.ParseMode(modeName)
			if err != nil {
				return err
			}
			text, err := readInput(args)
			if err != nil {
				return err
			}

			svc, done, err := openService(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer done()

			printRecognized(findPostcodes(cmd.Context(), svc, text, mode, noFix, ranked))
			return nil
		},
	}

	cmd.Flags().StringVar(&modeName, "mode", "single", "Repair mode: single or exhaustive")
	cmd.Flags().BoolVar(&noFix, "no-fix", false, "Only report postcodes that need no repair")
	cmd.Flags().BoolVar(&ranked, "ranked", false, "Sort by confidence instead of text order")
	return cmd
}

// createAddressCmd extracts the postcode from an address line
func createAddressCmd() *cobra.Command {
	var useLibpostal bool

	cmd := &cobra.Command{
		Use:   "address <address line>",
		Short: "Extract and repair the postcode in a full address",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, done, err := openService(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer done()

			var parser address.Parser
			if useLibpostal {
				parser = libpostal.Parser{}
			}
			got, err := address.NewExtractor(parser, svc).Extract(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return printJSON(got)
		},
	}

	cmd.Flags().BoolVar(&useLibpostal, "libpostal", true, "Use libpostal to locate the postcode component")
	return cmd
}

// createOCRCmd reads postcodes from an image
func createOCRCmd() *cobra.Command {
	var (
		languages []string
		modeName  string
	)

	cmd := &cobra.Command{
		Use:   "ocr <image>",
		Short: "Recognise postcodes in a scanned image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := postcode.ParseMode(modeName)
			if err != nil {
				return err
			}
			image, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read image: %w", err)
			}

			svc, done, err := openService(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer done()

			scanner := ocr.NewScanner(tesseract.New(languages...), svc).WithMode(mode)
			text, found, err := scanner.Scan(cmd.Context(), image)
			if err != nil {
				return err
			}
			logger.Debug("ocr text", "text", text)
			printRecognized(found)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&languages, "lang", []string{"eng"}, "Tesseract languages")
	cmd.Flags().StringVar(&modeName, "mode", "exhaustive", "Repair mode: single or exhaustive")
	return cmd
}

// findPostcodes runs the text command's search. --ranked applies to strict
// results as well.
func findPostcodes(ctx context.Context, svc *service.Service, text string, mode postcode.Mode, noFix, ranked bool) []recognize.Recognized {
	switch {
	case noFix:
		found := svc.ParseTextStrict(ctx, text)
		if ranked {
			recognize.Rank(found)
		}
		return found
	case ranked:
		return svc.ParseTextRanked(ctx, text, mode)
	default:
		return svc.ParseText(ctx, text, mode)
	}
}

func readInput(args []string) (string, error) {
	var r io.Reader = os.Stdin
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return "", fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		r = f
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(b), nil
}

func printRecognized(found []recognize.Recognized) {
	if len(found) == 0 {
		fmt.Println("No postcodes found")
		return
	}
	fmt.Printf("%-9s %-10s %5s %5s  %-11s %s\n", "POSTCODE", "ORIGINAL", "FIX", "SCORE", "DIRECTORY", "OFFSET")
	for _, r := range found {
		fmt.Printf("%-9s %-10s %5d %5d  %-11s %d\n",
			r.Postcode, r.Original, r.Distance, r.Score(), r.Status, r.Offset)
	}
	fmt.Printf("\n%d postcode(s) found\n", len(found))
}
