package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"nuttally/internal/config"
	"nuttally/internal/logger"
	"nuttally/internal/model"
	"nuttally/internal/repository/sheets"
	"nuttally/internal/services/inference"
	"nuttally/internal/services/tally"
)

func main() {
	imagePath := flag.String("image", "", "Image file to analyze")
	name := flag.String("name", "", "Name recorded in the row (defaults to the file name)")
	dryRun := flag.Bool("dry-run", false, "Count only, do not write to the sheet")
	flag.Parse()

	if *imagePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logs := logger.NewWithWriter(os.Stderr)

	image, err := os.ReadFile(*imagePath)
	if err != nil {
		log.Fatalf("Failed to read image: %v", err)
	}

	submission := *name
	if submission == "" {
		submission = filepath.Base(*imagePath)
	}

	ctx := context.Background()
	client := inference.NewClient(cfg.InferenceURL, cfg.InferenceAPIKey, cfg.InferenceTimeout, logs)
	raw, err := client.Infer(ctx, image, submission)
	if err != nil {
		log.Fatalf("Detection failed: %v", err)
	}

	store := sheets.NewTallyRepository(ctx, cfg.SheetID, cfg.SheetRange, cfg.GoogleCredentials)
	aggregator := tally.NewAggregator(model.NewVocabulary(cfg.Classes), store, cfg.StoreTimeout, logs)

	var result tally.Result
	if *dryRun {
		result.Row, result.Diagnostics = aggregator.BuildRow(raw, submission)
	} else {
		result = aggregator.Aggregate(ctx, raw, submission)
	}

	out := map[string]interface{}{
		"row":         result.Row.Values(),
		"classCounts": result.Row.ClassCounts(aggregator.Vocabulary()),
		"total":       result.Row.Total,
		"diagnostics": result.Diagnostics,
	}
	if !*dryRun {
		out["status"] = result.Outcome.Status
		out["message"] = result.Outcome.Message()
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatalf("Failed to write result: %v", err)
	}
	if !*dryRun && !result.Outcome.Saved() {
		fmt.Fprintln(os.Stderr, result.Outcome.Message())
	}
}
