// seed is a one-shot tool that loads demo stores, warehouses, showrooms and
// sellable stock into a development database. Rows are keyed by id, so running
// it again restores the demo directory and tops stock back up without touching
// dispatches or ledger entries.
//
// Usage: go run ./cmd/seed
package main

import (
	"context"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"sample-logistics/internal/config"
	"sample-logistics/internal/db"
	"sample-logistics/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New(false).Fatal("config", zap.Error(err))
	}
	log := logging.New(cfg.IsDev())
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	if err := db.Migrate(ctx, cfg.DatabaseURL); err != nil {
		log.Fatal("migrations", zap.Error(err))
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect", zap.Error(err))
	}
	defer pool.Close()

	steps := []struct {
		name string
		sql  string
	}{
		{"stores", `
			INSERT INTO stores (id, name) VALUES
			    (1, 'Nordic Living'),
			    (2, 'Atelier Lumen')
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`},
		{"warehouses", `
			INSERT INTO warehouses (id, name, address) VALUES
			    (1, 'Central Depot', '12 Dock Road'),
			    (2, 'East Depot',    '4 Harbour Way')
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, address = EXCLUDED.address`},
		{"showrooms", `
			INSERT INTO showrooms (id, warehouse_id, name, address) VALUES
			    (1, 1, 'City Centre',  '1 Market Square'),
			    (2, 1, 'Riverside',    '88 Quay Street'),
			    (3, 2, 'East Gallery', '9 Mill Lane')
			ON CONFLICT (id) DO UPDATE
			  SET warehouse_id = EXCLUDED.warehouse_id,
			      name = EXCLUDED.name,
			      address = EXCLUDED.address`},
		{"products", `
			INSERT INTO products (id, store_id, name) VALUES
			    (1, 1, 'Oak Lounge Chair'),
			    (2, 1, 'Wool Throw'),
			    (3, 2, 'Brass Floor Lamp')
			ON CONFLICT (id) DO UPDATE SET store_id = EXCLUDED.store_id, name = EXCLUDED.name`},
		{"product units", `
			INSERT INTO product_units (id, product_id, sku, quantity) VALUES
			    (1, 1, 'OLC-NAT', 20),
			    (2, 1, 'OLC-SMK', 12),
			    (3, 2, 'WT-GRY',  30),
			    (4, 3, 'BFL-01',  8)
			ON CONFLICT (id) DO UPDATE
			  SET sku = EXCLUDED.sku,
			      quantity = GREATEST(product_units.quantity, EXCLUDED.quantity),
			      updated_at = NOW()`},
		{"sequences", `
			SELECT setval('stores_id_seq',        GREATEST((SELECT MAX(id) FROM stores), 1)),
			       setval('warehouses_id_seq',    GREATEST((SELECT MAX(id) FROM warehouses), 1)),
			       setval('showrooms_id_seq',     GREATEST((SELECT MAX(id) FROM showrooms), 1)),
			       setval('products_id_seq',      GREATEST((SELECT MAX(id) FROM products), 1)),
			       setval('product_units_id_seq', GREATEST((SELECT MAX(id) FROM product_units), 1))`},
	}

	err = db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		for _, step := range steps {
			log.Info("seeding", zap.String("step", step.name))
			if _, err := tx.Exec(ctx, step.sql); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal("seed failed", zap.Error(err))
	}
	log.Info("seed data restored")
}
