// Command render turns quotation request JSON files into letterheaded PDFs
// without the API server or database.
//
//	render -letterhead ./assets/letterhead.pdf -out ./out q1.json q2.json
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sangkips/quotation-api/internal/config"
	"github.com/sangkips/quotation-api/pkg/asset"
	"github.com/sangkips/quotation-api/pkg/pdfdoc"
	"github.com/sangkips/quotation-api/pkg/pricing"
	"github.com/sangkips/quotation-api/pkg/quotedoc"
	"github.com/shopspring/decimal"
)

func main() {
	cfg := config.Load()

	letterhead := flag.String("letterhead", cfg.Document.LetterheadPath, "letterhead PDF path or gs://bucket/object")
	outDir := flag.String("out", ".", "directory the PDFs are written to")
	vatRate := flag.String("vat", cfg.Document.VATRate, "VAT rate as a decimal fraction")
	pageSize := flag.String("page-size", cfg.Document.PageSize, "page size (A4 or Letter)")
	workers := flag.Int("workers", 4, "number of documents rendered at once")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] request.json...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline, err := buildPipeline(ctx, *letterhead, *vatRate, *pageSize)
	if err != nil {
		log.Fatalf("Failed to initialize document pipeline: %v", err)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	b := &batch{pipeline: pipeline, outDir: *outDir, workers: *workers}
	results, err := b.run(ctx, flag.Args())
	for _, r := range results {
		if r.Err != nil {
			log.Printf("FAIL %s: %v", r.Input, r.Err)
			continue
		}
		log.Printf("ok   %s -> %s (%d pages)", r.Input, r.Output, r.Pages)
	}
	if err != nil {
		log.Fatalf("Batch failed: %v", err)
	}
}

func buildPipeline(ctx context.Context, letterhead, vatRate, pageSize string) (*quotedoc.Pipeline, error) {
	rate, err := decimal.NewFromString(vatRate)
	if err != nil {
		return nil, fmt.Errorf("invalid VAT rate %q: %w", vatRate, err)
	}
	calc, err := pricing.NewCalculator(rate)
	if err != nil {
		return nil, err
	}
	setup, err := pdfdoc.SetupByName(pageSize)
	if err != nil {
		return nil, err
	}
	renderer, err := pdfdoc.NewRenderer(setup)
	if err != nil {
		return nil, err
	}
	source, err := asset.NewSourceFromLocation(ctx, letterhead)
	if err != nil {
		return nil, err
	}
	return quotedoc.NewPipeline(calc, renderer, quotedoc.NewLetterheadCache(source)), nil
}
