package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"regpulse/internal/app"
	"regpulse/internal/services"
)

// queryFile mirrors the JSON body of the HTTP query endpoints so a
// saved request can be replayed from the command line.
type queryFile struct {
	Selections map[string]any           `json:"selections"`
	Advanced   services.AdvancedOptions `json:"advanced"`
	Dimensions []string                 `json:"dimensions"`
}

func main() {
	mode := flag.String("mode", "count", "count | export | analysis")
	queryPath := flag.String("query", "", "JSON file with selections (empty selects everything)")
	flag.Parse()

	application, err := app.New()
	if err != nil {
		slog.Error("failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := application.Logger

	var query queryFile
	if *queryPath != "" {
		data, err := os.ReadFile(*queryPath)
		if err != nil {
			logger.Error("failed to read query file", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if err := json.Unmarshal(data, &query); err != nil {
			logger.Error("query file is not valid JSON", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	ctx := context.Background()
	switch *mode {
	case "count":
		count, err := application.Export.Count(ctx, query.Selections, query.Advanced)
		if err != nil {
			logger.Error("count failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		fmt.Println(count)

	case "export":
		rows, err := application.Export.Download(ctx, os.Stdout, query.Selections, query.Advanced)
		if err != nil {
			logger.Error("export failed",
				slog.Int("rows_written", rows),
				slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("export complete", slog.Int("rows", rows))

	case "analysis":
		report, err := application.Analysis.Analyze(ctx, query.Selections, query.Advanced, query.Dimensions)
		if err != nil {
			logger.Error("analysis failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			logger.Error("failed to encode report", slog.String("error", err.Error()))
			os.Exit(1)
		}

	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", *mode)
		os.Exit(2)
	}
}
