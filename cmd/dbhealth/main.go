// Command dbhealth verifies ledger connectivity and prints the document
// status breakdown. Useful before pointing a long batch run at a DSN.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/solarplanninganalytics/docket/internal/common"
	repo "github.com/solarplanninganalytics/docket/internal/repository"
)

func main() {
	var (
		dsn     = flag.String("dsn", "", "ledger DSN (overrides LEDGER_DSN)")
		timeout = flag.Duration("timeout", 5*time.Second, "connection timeout")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	cfg := common.LoadConfig()
	if *dsn != "" {
		cfg.Database.DSN = *dsn
	}

	ctx := context.Background()
	db, err := repo.Open(ctx, repo.Config{DSN: cfg.Database.DSN, DialTimeout: *timeout}, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ledger unreachable: %v\n", err)
		os.Exit(1)
	}
	defer repo.Close(db, logger)

	if err := repo.HealthCheck(ctx, db, *timeout, logger); err != nil {
		fmt.Fprintf(os.Stderr, "ledger ping failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("ledger: ok")

	docs := repo.NewDocumentRepository(db, logger)
	if err := docs.Bootstrap(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ledger bootstrap failed: %v\n", err)
		os.Exit(1)
	}

	counts, err := docs.CountByStatus(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "status count failed: %v\n", err)
		os.Exit(1)
	}
	if len(counts) == 0 {
		fmt.Println("documents: none")
		return
	}

	keys := make([]string, 0, len(counts))
	total := 0
	for k, n := range counts {
		keys = append(keys, k)
		total += n
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%-60s %d\n", k, counts[k])
	}
	fmt.Printf("total documents: %d\n", total)
}
