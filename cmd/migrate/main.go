package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/Digital-master-solutions/sen-alerte-sub001/internal/migrate"
)

func main() {
	log.SetFlags(0)
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var (
		dsn            = flag.String("dsn", os.Getenv("PG_DSN"), "PostgreSQL DSN (defaults to PG_DSN)")
		migrationsPath = flag.String("migrations", envOr("MIGRATIONS_DIR", "ops/migrations/sql"), "Path to SQL migrations")
		seedsPath      = flag.String("seeds", envOr("SEEDS_DIR", "ops/migrations/seeds"), "Path to SQL seeds")
		timeout        = flag.Duration("timeout", 30*time.Second, "Overall command timeout")
	)
	flag.Parse()

	if *dsn == "" {
		return errors.New("missing DSN: provide via -dsn or PG_DSN")
	}
	command := flag.Arg(0)
	if command == "" {
		return errors.New("usage: migrate [up|down|seed|status]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping db: %w", err)
	}

	mgr := migrate.NewManager(db, *migrationsPath, *seedsPath)

	switch command {
	case "up":
		if err := mgr.Up(ctx); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		log.Println("migrations applied")
	case "down":
		if err := mgr.Down(ctx); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
		log.Println("last migration rolled back")
	case "seed":
		if err := mgr.Seed(ctx); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		log.Println("seeds applied")
	case "status":
		history, err := mgr.Status(ctx)
		if err != nil {
			return fmt.Errorf("status: %w", err)
		}
		if len(history) == 0 {
			log.Println("no migrations applied")
			return nil
		}
		for _, name := range history {
			fmt.Println(name)
		}
	default:
		return fmt.Errorf("unknown command %q (want up, down, seed or status)", command)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
