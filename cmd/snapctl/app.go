package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
	"github.com/username/perfsnap/src/config"
	"github.com/username/perfsnap/src/database"
	"github.com/username/perfsnap/src/logger"
	"github.com/username/perfsnap/src/services"
)

// Commands lists every snapctl subcommand.
var Commands = []subcommands.Command{
	&importCmd{},
	&listCmd{},
	&showCmd{},
	&convertCmd{},
	&reconcileCmd{},
	&deleteCmd{},
}

var (
	driverFlag    = flag.String("driver", "", "Store driver: sqlite, postgres or memory. Defaults to DATABASE_DRIVER.")
	dbPathFlag    = flag.String("db", "", "SQLite database path. Defaults to DATABASE_PATH.")
	dsnFlag       = flag.String("dsn", "", "Postgres connection string. Defaults to DATABASE_URL.")
	chunkSizeFlag = flag.Int("chunk-size", 0, "Rows per write chunk. Defaults to CHUNK_SIZE.")
	aliasesFlag   = flag.String("aliases", "", "YAML column alias file. Defaults to COLUMN_ALIASES_PATH.")
	logLevelFlag  = flag.String("log-level", "warn", "Log level written to stderr.")
)

// stdout is where command results go; tests swap it.
var stdout io.Writer = os.Stdout

type app struct {
	store     database.Store
	imports   services.ImportService
	snapshots services.SnapshotService
}

// openApp loads configuration, applies the global flags on top of it and
// opens the store.
func openApp(ctx context.Context) (*app, error) {
	config.LoadConfig()
	logger.InitLoggerWithWriter(os.Stderr, *logLevelFlag)

	cfg := *config.Cfg
	if *driverFlag != "" {
		cfg.DatabaseDriver = *driverFlag
	}
	if *dbPathFlag != "" {
		cfg.DatabasePath = *dbPathFlag
	}
	if *dsnFlag != "" {
		cfg.DatabaseURL = *dsnFlag
	}
	if *chunkSizeFlag > 0 {
		cfg.ChunkSize = *chunkSizeFlag
	}
	if *aliasesFlag != "" {
		cfg.ColumnAliasesPath = *aliasesFlag
	}

	aliases, err := config.LoadColumnAliases(cfg.ColumnAliasesPath)
	if err != nil {
		return nil, err
	}
	store, err := database.Open(ctx, cfg.DatabaseDriver, cfg.DatabasePath, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.DatabaseDriver, err)
	}
	imports, snapshots := services.NewServices(store, &cfg, aliases)
	return &app{store: store, imports: imports, snapshots: snapshots}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		logger.L.Warn("Closing store failed", "error", err)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// withApp runs fn against a freshly opened app and maps errors to exit codes.
func withApp(ctx context.Context, fn func(*app) error) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if err := fn(a); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
