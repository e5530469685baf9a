package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/stockrx/importer/internal/common"
	"github.com/stockrx/importer/internal/enrich"
	"github.com/stockrx/importer/internal/entity"
	"github.com/stockrx/importer/internal/genai"
)

// One-shot enrichment run for a single medicine name. Useful for prompt
// tuning without driving the whole pipeline.
func main() {
	_ = godotenv.Load()

	name := flag.String("name", "", "medicine name to enrich")
	batchID := flag.String("batch", "CLI-0001", "batch id to stamp on the result")
	flag.Parse()

	if *name == "" {
		fmt.Fprintln(os.Stderr, "usage: enrich -name <medicine name> [-batch <id>]")
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg := common.LoadConfig()
	if cfg.GenAI.APIKey == "" {
		logger.Error("GENAI_API_KEY is required")
		os.Exit(1)
	}

	client := genai.NewClient(genai.Config{
		BaseURL:     cfg.GenAI.BaseURL,
		APIKey:      cfg.GenAI.APIKey,
		TextModel:   cfg.GenAI.TextModel,
		VisionModel: cfg.GenAI.VisionModel,
		Timeout:     cfg.GenAI.Timeout,
	}, logger)

	enricher := enrich.NewEnricher(client, enrich.NopPacer{}, logger)
	records := []entity.ReconciledRecord{{
		ExtractedRecord: entity.ExtractedRecord{
			BatchID:  *batchID,
			Name:     *name,
			Price:    decimal.Zero,
			Quantity: 1,
		},
		Classification: entity.ClassNew,
	}}

	enriched, err := enricher.Enrich(context.Background(), records)
	if err != nil {
		logger.Error("enrichment failed", "error", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(enriched[0], "", "  ")
	if err != nil {
		logger.Error("encode result", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
