package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"sample-logistics/internal/adapters/cli"
	"sample-logistics/internal/adapters/repl"
	webAdapter "sample-logistics/internal/adapters/web"
	"sample-logistics/internal/app"
	"sample-logistics/internal/config"
	"sample-logistics/internal/core"
	"sample-logistics/internal/db"
	"sample-logistics/internal/events"
	"sample-logistics/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	// token is answered locally; it needs the signing secret but no database.
	if len(os.Args) > 1 && os.Args[1] == "token" {
		if err := printToken(cfg, os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	log := logging.New(cfg.IsDev())
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Unable to connect to database:", err)
		os.Exit(1)
	}
	defer pool.Close()

	publisher, err := events.NewPublisher(cfg)
	if err != nil {
		log.Warn("events disabled", zap.Error(err))
		publisher = events.NopPublisher{}
	}
	defer func() { _ = publisher.Close() }()

	ledger := core.NewLedger()
	svc := app.NewAppService(
		core.NewDispatchService(pool, ledger),
		core.NewSampleService(pool, ledger),
		core.NewDirectoryService(pool),
		core.NewStockService(pool),
		publisher,
		nil,
		log,
	)

	if len(os.Args) < 2 {
		repl.Run(ctx, svc, bufio.NewReader(os.Stdin), os.Stdout)
		return
	}
	if err := cli.Run(ctx, svc, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		pool.Close()
		os.Exit(1)
	}
}

// printToken mints an API token: app token <vendor|employee|admin> <user-id> [store-or-warehouse-id].
func printToken(cfg *config.Config, args []string) error {
	const usage = "Usage: app token <vendor|employee|admin> <user-id> [store-or-warehouse-id]"
	if cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required to mint tokens")
	}
	if len(args) < 2 {
		return fmt.Errorf("%s", usage)
	}
	role, err := app.ParseRole(args[0])
	if err != nil {
		return fmt.Errorf("%v\n%s", err, usage)
	}
	userID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid user id %q\n%s", args[1], usage)
	}
	actor := app.Actor{UserID: userID, Role: role}
	if role != app.RoleAdmin {
		if len(args) < 3 {
			return fmt.Errorf("%s needs a scope id\n%s", role, usage)
		}
		scope, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid scope id %q\n%s", args[2], usage)
		}
		if role == app.RoleVendor {
			actor.StoreID = scope
		} else {
			actor.WarehouseID = scope
		}
	}

	token, err := webAdapter.SignToken(cfg.JWTSecret, actor, 24*time.Hour)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
