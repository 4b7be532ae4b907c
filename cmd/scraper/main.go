package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/shelfwatch/backend/internal/fetcher"
)

// One-off fetch CLI for debugging the Amazon parser without the API or
// database. Pass ASINs, get parsed product data back.
func main() {
	// Flags
	asins := flag.String("asins", "", "Comma-separated list of ASINs to fetch")
	marketplace := flag.String("marketplace", "US", "Marketplace code (US, UK, DE, ...)")
	output := flag.String("output", "", "Output file for JSON results (default: stdout)")
	timeout := flag.Duration("timeout", 2*time.Minute, "Total fetch timeout")
	flag.Parse()

	if *asins == "" {
		fmt.Fprintln(os.Stderr, "Usage: scraper -asins B08N5WRWNW[,B0ABCDEF12] [-marketplace US]")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	f := fetcher.NewAmazonFetcher(30*time.Second, logger)

	startTime := time.Now()

	var results []*fetcher.ProductData
	var failed int

	for _, asin := range strings.Split(*asins, ",") {
		asin = strings.TrimSpace(asin)
		if asin == "" {
			continue
		}

		data, err := f.Fetch(ctx, asin, *marketplace)
		if err != nil {
			failed++
			fmt.Printf("❌ %s: %v\n", asin, err)
			continue
		}

		price := "—"
		if data.Price != nil {
			price = data.Price.StringFixed(2) + " " + data.Currency
		}
		fmt.Printf("✅ %s: %s | %s | in stock: %v\n", asin, data.Title, price, data.InStock)
		results = append(results, data)
	}

	elapsed := time.Since(startTime)
	fmt.Printf("\n%d fetched, %d failed, %.1fs\n", len(results), failed, elapsed.Seconds())

	if *output != "" {
		data, _ := json.MarshalIndent(results, "", "  ")
		if err := os.WriteFile(*output, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %d products to %s\n", len(results), *output)
	}

	if failed > 0 {
		os.Exit(1)
	}
}
