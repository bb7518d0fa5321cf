package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/quickops/qcommerce_backend/config"
	"github.com/quickops/qcommerce_backend/ingest"
	"github.com/quickops/qcommerce_backend/models"
)

// Seeds the demo store, either from canonical CSV/XLSX files or with
// generated synthetic data.
func main() {
	days := flag.Int("days", 30, "days of synthetic sales history to generate")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed for the generator")
	salesFile := flag.String("sales-file", "", "canonical sales CSV/XLSX to load instead of generating")
	inventoryFile := flag.String("inventory-file", "", "canonical inventory CSV/XLSX to load instead of generating")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	models.MigrateTable()

	ctx := context.Background()

	if *salesFile != "" || *inventoryFile != "" {
		if *salesFile != "" {
			n, err := loadFile(ctx, *salesFile, ingest.LoadSalesCSV, ingest.LoadSalesXLSX)
			if err != nil {
				log.Fatalf("loading sales from %s: %v", *salesFile, err)
			}
			log.Printf("loaded %d sales rows from %s", n, *salesFile)
		}
		if *inventoryFile != "" {
			n, err := loadFile(ctx, *inventoryFile, ingest.LoadInventoryCSV, ingest.LoadInventoryXLSX)
			if err != nil {
				log.Fatalf("loading inventory from %s: %v", *inventoryFile, err)
			}
			log.Printf("loaded %d inventory rows from %s", n, *inventoryFile)
		}
		return
	}

	g := ingest.NewGenerator(*seed)

	sales := g.GenerateSalesRecords(*days)
	if err := models.CreateSalesRecords(ctx, sales); err != nil {
		log.Fatalf("seeding sales: %v", err)
	}
	log.Printf("seeded %d sales rows (%d days)", len(sales), *days)

	inventory := g.GenerateInventoryRecords()
	if err := models.CreateInventoryRecords(ctx, inventory); err != nil {
		log.Fatalf("seeding inventory: %v", err)
	}
	log.Printf("seeded %d inventory rows", len(inventory))
}

type loaderFunc func(ctx context.Context, path string) (int, error)

func loadFile(ctx context.Context, path string, csvLoader loaderFunc, xlsxLoader loaderFunc) (int, error) {
	if len(path) > 5 && path[len(path)-5:] == ".xlsx" {
		return xlsxLoader(ctx, path)
	}
	return csvLoader(ctx, path)
}
