// catalogtool runs the offline catalog jobs: building profile snapshots
// from order history and embedding product texts for the search index.
//
// Usage:
//
//	catalogtool profiles -orders orders.parquet -products products.json [-publish]
//	catalogtool embed -products products.json [-index products] [-out bulk.ndjson]
//
// Connection settings (Valkey, embedding provider) come from config/<ENV>.yaml.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/kailas-cloud/b2bsearch/internal/config"
	logpkg "github.com/kailas-cloud/b2bsearch/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	env := config.GetEnv()
	logger, err := logpkg.NewLogger(env, os.Getenv("LOG_LEVEL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	switch os.Args[1] {
	case "profiles":
		err = cmdProfiles(ctx, env, os.Args[2:], os.Stdout, logger)
	case "embed":
		err = cmdEmbed(ctx, env, os.Args[2:], os.Stdout, logger)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		cancel()
		logger.Fatal("Command failed", zap.String("command", os.Args[1]), zap.Error(err))
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `catalogtool: offline jobs for b2bsearch

usage:
  catalogtool profiles -orders <file> -products <file> [-publish]
  catalogtool embed    -products <file> [-index <name>] [-out <file>]

profiles  Builds user profiles from order history and prints snapshot stats.
          -publish writes the snapshot to Valkey and flips the current version.
          Orders are JSON or Parquet, chosen by file extension.
embed     Embeds product texts and writes Elasticsearch bulk update NDJSON
          that sets the embedding field.
`)
}
