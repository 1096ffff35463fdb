// Command replay backfills ledger transactions from a JSON-lines file through
// the ledger service. Records whose reference already exists are skipped.
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"

	"ajo/internal/config"
	"ajo/internal/repositories"
	"ajo/internal/replay"
	"ajo/internal/services/ledger"
)

func main() {
	path := flag.String("file", "-", "JSON-lines input, - for stdin")
	flag.Parse()

	config.LoadEnv()
	cfg := config.Load()

	db, err := repositories.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			log.Printf("⚠️ Failed to close PostgreSQL connection: %v", err)
		}
	}()
	if err := repositories.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	var in io.Reader = os.Stdin
	if *path != "-" {
		f, err := os.Open(*path)
		if err != nil {
			log.Fatalf("Failed to open %s: %v", *path, err)
		}
		defer f.Close()
		in = f
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	svc := ledger.NewService(repositories.NewLedgerRepository(db), nil, nil, nil)
	stats, err := replay.Run(ctx, svc, in)
	log.Printf("applied=%d skipped=%d failed=%d", stats.Applied, stats.Skipped, stats.Failed)
	if err != nil {
		log.Printf("Replay aborted: %v", err)
		os.Exit(1)
	}
	log.Println("✅ Replay complete")
}
