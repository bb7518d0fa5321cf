package ingest

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/quickops/qcommerce_backend/models"
	"github.com/shopspring/decimal"
)

// Generator produces synthetic demo data: a month of city/product sales with
// weekday and city/product demand multipliers, and a matching inventory
// snapshot where roughly one row in ten is running low.
type Generator struct {
	Cities     []string
	Products   []string
	Categories []string
	rng        *rand.Rand
}

var cityMultiplier = map[string]float64{
	"Mumbai": 1.3, "Delhi": 1.2, "Bangalore": 1.1, "Chennai": 1.0,
	"Kolkata": 0.9, "Hyderabad": 0.95, "Pune": 0.85, "Ahmedabad": 0.8,
}

var productMultiplier = map[string]float64{
	"Smartphone": 1.5, "Laptop": 1.2, "Headphones": 1.1, "Tablet": 1.0,
	"Smart Watch": 1.3, "Power Bank": 0.9, "Bluetooth Speaker": 0.8,
	"Gaming Mouse": 0.7, "Keyboard": 0.6, "Monitor": 0.8,
}

var cityStockMultiplier = map[string]float64{
	"Mumbai": 1.2, "Delhi": 1.1, "Bangalore": 1.0, "Chennai": 0.9,
	"Kolkata": 0.8, "Hyderabad": 0.85, "Pune": 0.75, "Ahmedabad": 0.7,
}

var productStockMultiplier = map[string]float64{
	"Smartphone": 1.3, "Laptop": 0.8, "Headphones": 1.5, "Tablet": 1.0,
	"Smart Watch": 1.2, "Power Bank": 1.4, "Bluetooth Speaker": 1.1,
	"Gaming Mouse": 1.3, "Keyboard": 1.2, "Monitor": 0.9,
}

func NewGenerator(seed int64) *Generator {
	return &Generator{
		Cities: []string{"Mumbai", "Delhi", "Bangalore", "Chennai", "Kolkata", "Hyderabad", "Pune", "Ahmedabad"},
		Products: []string{
			"Smartphone", "Laptop", "Headphones", "Tablet", "Smart Watch",
			"Power Bank", "Bluetooth Speaker", "Gaming Mouse", "Keyboard", "Monitor",
			"Webcam", "Microphone", "Router", "Charger", "Cable",
		},
		Categories: []string{"Electronics", "Computers", "Audio", "Accessories", "Gaming"},
		rng:        rand.New(rand.NewSource(seed)),
	}
}

func multiplier(m map[string]float64, key string) float64 {
	if v, ok := m[key]; ok {
		return v
	}
	return 1.0
}

// GenerateSalesRecords covers the last `days` days for every (city, product)
// pair.
func (g *Generator) GenerateSalesRecords(days int) []models.SalesRecord {
	records := make([]models.SalesRecord, 0, days*len(g.Cities)*len(g.Products))
	baseDate := time.Now().AddDate(0, 0, -days)

	for day := 0; day < days; day++ {
		current := baseDate.AddDate(0, 0, day)
		currentDay := time.Date(current.Year(), current.Month(), current.Day(), 0, 0, 0, 0, current.Location())

		for _, city := range g.Cities {
			for _, product := range g.Products {
				baseSales := g.rng.Intn(46) + 5
				if wd := currentDay.Weekday(); wd == time.Saturday || wd == time.Sunday {
					baseSales = int(float64(baseSales) * 0.8)
				}

				units := int(float64(baseSales) * multiplier(cityMultiplier, city) * multiplier(productMultiplier, product))
				units += g.rng.Intn(9) - 3
				if units < 0 {
					units = 0
				}

				unitPrice := 1000 + g.rng.Float64()*49000
				records = append(records, models.SalesRecord{
					Date:          currentDay,
					City:          city,
					Product:       product,
					Category:      g.Categories[g.rng.Intn(len(g.Categories))],
					UnitsSold:     units,
					Revenue:       decimal.NewFromFloat(float64(units) * unitPrice).Round(2),
					AvgOrderValue: decimal.NewFromFloat(1500 + g.rng.Float64()*1000).Round(2),
				})
			}
		}
	}
	return records
}

// GenerateInventoryRecords builds one snapshot row per (city, product) pair.
// Reorder level is pinned at a quarter of capacity.
func (g *Generator) GenerateInventoryRecords() []models.InventoryRecord {
	records := make([]models.InventoryRecord, 0, len(g.Cities)*len(g.Products))

	for _, city := range g.Cities {
		for _, product := range g.Products {
			baseStock := g.rng.Intn(451) + 50
			stock := int(float64(baseStock) * multiplier(cityStockMultiplier, city) * multiplier(productStockMultiplier, product))

			if g.rng.Float64() < 0.1 {
				stock = g.rng.Intn(16) + 5
			}

			capacity := int(float64(stock) * (3 + g.rng.Float64()*2))
			reorder := capacity / 4

			records = append(records, models.InventoryRecord{
				City:          city,
				Product:       product,
				Category:      g.Categories[g.rng.Intn(len(g.Categories))],
				CurrentStock:  stock,
				MaxCapacity:   capacity,
				ReorderLevel:  reorder,
				CostPerUnit:   decimal.NewFromFloat(500 + g.rng.Float64()*29500).Round(2),
				Supplier:      fmt.Sprintf("Supplier_%d", g.rng.Intn(5)+1),
				LeadTimeDays:  g.rng.Intn(6) + 2,
				LastRestocked: time.Now().AddDate(0, 0, -(g.rng.Intn(15) + 1)),
			})
		}
	}
	return records
}
