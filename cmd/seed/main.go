package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"

	"github.com/niaga-platform/service-pos-analytics/internal/config"
	"github.com/niaga-platform/service-pos-analytics/internal/logger"
	"github.com/niaga-platform/service-pos-analytics/internal/models"
	"github.com/niaga-platform/service-pos-analytics/internal/repository"
)

// init loads environment variables
func init() {
	_ = godotenv.Load()
}

type menuItem struct {
	name  string
	price float64
}

var menu = []menuItem{
	{"Negroni", 380},
	{"Gin Tonic", 320},
	{"Old Fashioned Whisky", 420},
	{"Highball", 300},
	{"Mojito", 340},
	{"Virgin Mojito", 220},
	{"Margarita Tequila", 360},
	{"Vodka Martini", 380},
	{"Craft Beer", 250},
	{"Sparkling Wine", 400},
	{"Truffle Fries", 260},
	{"Chicken Wings", 320},
}

var statuses = []models.OrderStatus{
	models.OrderStatusPaid, models.OrderStatusPaid, models.OrderStatusPaid,
	models.OrderStatusCompleted, models.OrderStatusCompleted,
	models.OrderStatusCancelled,
}

// demoOrders generates perDay orders for each of the last days business
// days, mostly in the evening and around midnight
func demoOrders(rng *rand.Rand, now time.Time, days, perDay, customers int) []models.Order {
	orders := make([]models.Order, 0, days*perDay)
	for d := days - 1; d >= 0; d-- {
		day := now.AddDate(0, 0, -d)
		opening := time.Date(day.Year(), day.Month(), day.Day(), 18, 0, 0, 0, now.Location())

		for i := 0; i < perDay; i++ {
			createdAt := opening.Add(time.Duration(rng.Intn(9*60)) * time.Minute)
			if createdAt.After(now) {
				continue
			}

			var items []models.OrderItem
			var total float64
			for n := rng.Intn(3) + 1; n > 0; n-- {
				m := menu[rng.Intn(len(menu))]
				qty := rng.Intn(3) + 1
				items = append(items, models.OrderItem{ID: uuid.NewString(), Name: m.name, Price: m.price, Quantity: qty})
				total += m.price * float64(qty)
			}

			var customerID string
			if customers > 0 && rng.Intn(3) > 0 {
				customerID = fmt.Sprintf("member-%03d", rng.Intn(customers)+1)
			}

			orders = append(orders, models.Order{
				ID:          uuid.NewString(),
				TableNumber: rng.Intn(12) + 1,
				Items:       items,
				Total:       total,
				Subtotal:    total,
				Status:      statuses[rng.Intn(len(statuses))],
				Customers:   rng.Intn(4) + 1,
				CustomerID:  customerID,
				CreatedAt:   createdAt.UTC(),
				UpdatedAt:   createdAt.Add(45 * time.Minute).UTC(),
			})
		}
	}
	return orders
}

// batches splits orders into chunks of at most size; size below 1 is treated as 1
func batches(orders []models.Order, size int) [][]models.Order {
	if size < 1 {
		size = 1
	}
	var out [][]models.Order
	for start := 0; start < len(orders); start += size {
		out = append(out, orders[start:min(start+size, len(orders))])
	}
	return out
}

// main fills the orders table with demo data
// Usage: go run ./cmd/seed -days 60 -per-day 25
// This is a standalone CLI tool, not part of the main application
func main() {
	days := flag.Int("days", 60, "number of business days to generate")
	perDay := flag.Int("per-day", 25, "orders per business day")
	customers := flag.Int("customers", 80, "size of the member pool")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	batch := flag.Int("batch", 200, "orders per insert")
	flag.Parse()

	if *batch < 1 {
		log.Fatalf("-batch must be at least 1, got %d", *batch)
	}
	if *days < 1 || *perDay < 0 {
		log.Fatalf("-days must be at least 1 and -per-day not negative")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Source.Kind != config.SourceSQL {
		log.Fatalf("Seeding needs SOURCE_KIND=sql, got %q", cfg.Source.Kind)
	}

	zlog, err := logger.NewLogger(cfg.App.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	db, err := repository.Connect(cfg.Database, cfg.App.Env, zlog)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("✓ Connected to database")

	repo := repository.NewOrderRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		log.Fatalf("Failed to migrate orders table: %v", err)
	}

	loc, err := cfg.Analytics.Location()
	if err != nil {
		log.Fatalf("Invalid analytics timezone: %v", err)
	}

	orders := demoOrders(rand.New(rand.NewSource(*seed)), time.Now().In(loc), *days, *perDay, *customers)

	ctx := context.Background()
	bar := progressbar.Default(int64(len(orders)), "seeding orders")
	for _, chunk := range batches(orders, *batch) {
		if err := repo.Upsert(ctx, chunk...); err != nil {
			log.Fatalf("Failed to insert orders: %v", err)
		}
		_ = bar.Add(len(chunk))
	}

	log.Printf("✓ Seeded %d orders over %d days", len(orders), *days)
}
