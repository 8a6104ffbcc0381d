// Package main provides the watchlist management CLI. Symbols live in
// a flat file by default; -postgres-dsn switches to the shared
// Postgres watchlist.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"intraday-lab/internal/domain"
	"intraday-lab/internal/storage"
	"intraday-lab/internal/storage/file"
	"intraday-lab/internal/storage/migrations"
	pgstore "intraday-lab/internal/storage/postgres"
)

func main() {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	watchlist := flag.String("watchlist", envOr("WATCHLIST_FILE", "watchlist.txt"), "Watchlist file path")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string (overrides -watchlist)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	ctx := context.Background()

	store, cleanup, err := openStore(ctx, *watchlist, *postgresDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening watchlist: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	cmd, args := flag.Arg(0), flag.Args()[1:]
	switch cmd {
	case "list":
		err = list(ctx, store)
	case "add":
		err = add(ctx, store, args)
	case "remove":
		err = remove(ctx, store, args)
	case "import":
		err = importFile(ctx, store, args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", cmd)
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: universe [flags] <command> [args]

Commands:
  list            print the watchlist, one symbol per line
  add SYM...      add symbols
  remove SYM...   remove symbols
  import FILE     replace the watchlist with the symbols in FILE

Flags:
`)
	flag.PrintDefaults()
}

// openStore picks the backend. Postgres wins when a DSN is given and
// gets its schema applied first.
func openStore(ctx context.Context, watchlistPath, postgresDSN string) (storage.WatchlistStore, func(), error) {
	if postgresDSN == "" {
		return file.NewWatchlistStore(watchlistPath), func() {}, nil
	}
	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("apply migrations: %w", err)
	}
	return pgstore.NewWatchlistStore(pool), pool.Close, nil
}

func list(ctx context.Context, store storage.WatchlistStore) error {
	symbols, err := store.Load(ctx)
	if err != nil {
		return err
	}
	for _, s := range symbols {
		fmt.Println(s)
	}
	return nil
}

func add(ctx context.Context, store storage.WatchlistStore, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("add requires at least one symbol")
	}
	symbols, err := store.Load(ctx)
	if err != nil {
		return err
	}
	symbols = append(symbols, args...)
	if err := store.Save(ctx, symbols); err != nil {
		return err
	}
	return report(ctx, store)
}

func remove(ctx context.Context, store storage.WatchlistStore, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("remove requires at least one symbol")
	}
	drop := make(map[string]bool, len(args))
	for _, s := range domain.NormalizeSymbols(args) {
		drop[s] = true
	}
	symbols, err := store.Load(ctx)
	if err != nil {
		return err
	}
	kept := symbols[:0]
	for _, s := range symbols {
		if !drop[strings.ToUpper(strings.TrimSpace(s))] {
			kept = append(kept, s)
		}
	}
	if err := store.Save(ctx, kept); err != nil {
		return err
	}
	return report(ctx, store)
}

// importFile replaces the watchlist with the contents of a flat symbol
// file, one symbol per line.
func importFile(ctx context.Context, store storage.WatchlistStore, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("import requires exactly one file argument")
	}
	// A watchlist store treats a missing file as an empty universe;
	// for an import that would silently wipe the list.
	if _, err := os.Stat(args[0]); err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	symbols, err := file.NewWatchlistStore(args[0]).Load(ctx)
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	if err := store.Save(ctx, symbols); err != nil {
		return err
	}
	return report(ctx, store)
}

func report(ctx context.Context, store storage.WatchlistStore) error {
	symbols, err := store.Load(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("watchlist now holds %d symbols\n", len(symbols))
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
