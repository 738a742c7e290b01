package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/shopspring/decimal"

	"github.com/threadcart/backend/internal/repository"
)

type productJSON struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Sizes map[string]int  `json:"sizes"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	data, err := os.ReadFile(productsFile)
	if err != nil {
		slog.Error("read products file", "err", err)
		os.Exit(1)
	}
	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		slog.Error("parse products file", "err", err)
		os.Exit(1)
	}

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		slog.Error("create db pool", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		slog.Error("run migrations", "err", err)
		os.Exit(1)
	}

	for _, p := range products {
		_, err := pool.Exec(ctx,
			`INSERT INTO products (id, name, price) VALUES ($1, $2, $3)
			 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, price = EXCLUDED.price`,
			p.ID, p.Name, p.Price,
		)
		if err != nil {
			slog.Error("seed product", "id", p.ID, "err", err)
			os.Exit(1)
		}
		for size, qty := range p.Sizes {
			_, err := pool.Exec(ctx,
				`INSERT INTO product_stock (product_id, size, quantity) VALUES ($1, $2, $3)
				 ON CONFLICT (product_id, size) DO UPDATE SET quantity = EXCLUDED.quantity`,
				p.ID, size, qty,
			)
			if err != nil {
				slog.Error("seed stock", "id", p.ID, "size", size, "err", err)
				os.Exit(1)
			}
		}
	}

	slog.Info("seeded products", "count", len(products))
}
