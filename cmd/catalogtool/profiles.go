package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/b2bsearch/internal/bootstrap"
	"github.com/kailas-cloud/b2bsearch/internal/config"
	domprof "github.com/kailas-cloud/b2bsearch/internal/domain/profile"
	"github.com/kailas-cloud/b2bsearch/internal/repository/source"
)

type profilesOptions struct {
	orders   string
	products string
	publish  bool
}

func parseProfilesFlags(args []string) (profilesOptions, error) {
	var opts profilesOptions
	fs := flag.NewFlagSet("profiles", flag.ContinueOnError)
	fs.StringVar(&opts.orders, "orders", "", "orders file (.json or .parquet)")
	fs.StringVar(&opts.products, "products", "", "products JSON file")
	fs.BoolVar(&opts.publish, "publish", false, "publish the snapshot to Valkey")
	if err := fs.Parse(args); err != nil {
		return opts, fmt.Errorf("parse flags: %w", err)
	}
	if opts.orders == "" || opts.products == "" {
		return opts, errors.New("-orders and -products are required")
	}
	return opts, nil
}

// buildSnapshot reads both sources and builds a fresh snapshot.
func buildSnapshot(opts profilesOptions, now time.Time) (*domprof.Snapshot, error) {
	orders, err := source.ReadOrders(opts.orders)
	if err != nil {
		return nil, fmt.Errorf("read orders: %w", err)
	}
	products, err := source.ReadProducts(opts.products)
	if err != nil {
		return nil, fmt.Errorf("read products: %w", err)
	}
	res := domprof.Build(orders, source.ProfileCatalog(products))
	return domprof.NewSnapshot(uuid.NewString(), now.UTC(), res), nil
}

func cmdProfiles(ctx context.Context, env string, args []string, out io.Writer, logger *zap.Logger) error {
	opts, err := parseProfilesFlags(args)
	if err != nil {
		return err
	}

	snap, err := buildSnapshot(opts, time.Now())
	if err != nil {
		return err
	}
	logger.Info("Profile snapshot built",
		zap.String("version", snap.Version()),
		zap.Int("users", snap.Len()),
	)

	if opts.publish {
		if err := publish(ctx, env, snap, logger); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap.Stats()); err != nil {
		return fmt.Errorf("write stats: %w", err)
	}
	return nil
}

func publish(ctx context.Context, env string, snap *domprof.Snapshot, logger *zap.Logger) error {
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store, err := bootstrap.Store(ctx, cfg.Cache)
	if err != nil {
		return err //nolint:wrapcheck // already descriptive
	}
	if store == nil {
		return errors.New("-publish requires cache.addrs")
	}
	defer store.Close()

	if err := bootstrap.ProfileStore(store, cfg.Cache, logger).Publish(ctx, snap); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}
	logger.Info("Profile snapshot published", zap.String("version", snap.Version()))
	return nil
}
