package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/kailas-cloud/b2bsearch/internal/bootstrap"
	"github.com/kailas-cloud/b2bsearch/internal/config"
	"github.com/kailas-cloud/b2bsearch/internal/domain/catalog"
	"github.com/kailas-cloud/b2bsearch/internal/domain/search/query"
	"github.com/kailas-cloud/b2bsearch/internal/repository/source"
)

type embedOptions struct {
	products string
	index    string
	out      string
}

// documentEmbedder is the slice of the embedding adapter this command needs.
type documentEmbedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

type bulkAction struct {
	Update bulkTarget `json:"update"`
}

type bulkTarget struct {
	Index string `json:"_index"`
	ID    string `json:"_id"`
}

type bulkDoc struct {
	Doc map[string][]float32 `json:"doc"`
}

func parseEmbedFlags(args []string) (embedOptions, error) {
	var opts embedOptions
	fs := flag.NewFlagSet("embed", flag.ContinueOnError)
	fs.StringVar(&opts.products, "products", "", "products JSON file")
	fs.StringVar(&opts.index, "index", "", "target index (default: retrieval.index from config)")
	fs.StringVar(&opts.out, "out", "", "output NDJSON file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return opts, fmt.Errorf("parse flags: %w", err)
	}
	if opts.products == "" {
		return opts, errors.New("-products is required")
	}
	return opts, nil
}

func cmdEmbed(ctx context.Context, env string, args []string, stdout io.Writer, logger *zap.Logger) error {
	opts, err := parseEmbedFlags(args)
	if err != nil {
		return err
	}
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.index == "" {
		opts.index = cfg.Retrieval.Index
	}

	store, err := bootstrap.Store(ctx, cfg.Cache)
	if err != nil {
		logger.Warn("Embedding cache unavailable, embedding without it", zap.Error(err))
		store = nil
	}
	if store != nil {
		defer store.Close()
	}
	adapter, _ := bootstrap.Embedder(cfg.Embedding, cfg.Cache, store, logger)
	if !adapter.Enabled() {
		return errors.New("embedding is disabled in config")
	}

	products, err := source.ReadProducts(opts.products)
	if err != nil {
		return fmt.Errorf("read products: %w", err)
	}

	out := stdout
	if opts.out != "" {
		f, err := os.Create(opts.out)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	written, err := embedProducts(ctx, adapter, products, opts.index, out)
	if err != nil {
		return err
	}
	logger.Info("Product embeddings written",
		zap.Int("products", len(products)),
		zap.Int("written", written),
		zap.String("index", opts.index),
	)
	return nil
}

// embedProducts writes one bulk update pair per product with a non-empty
// document text and returns how many pairs were written.
func embedProducts(
	ctx context.Context,
	e documentEmbedder,
	products []catalog.Product,
	index string,
	out io.Writer,
) (int, error) {
	texts := make([]string, len(products))
	for i, p := range products {
		texts[i] = p.DocumentText()
	}
	vecs, err := e.EmbedDocuments(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed products: %w", err)
	}

	w := bufio.NewWriter(out)
	enc := json.NewEncoder(w)
	written := 0
	for i, p := range products {
		if p.ID == "" || vecs[i] == nil {
			continue
		}
		if err := enc.Encode(bulkAction{Update: bulkTarget{Index: index, ID: p.ID}}); err != nil {
			return written, fmt.Errorf("write action: %w", err)
		}
		if err := enc.Encode(bulkDoc{Doc: map[string][]float32{query.FieldEmbedding: vecs[i]}}); err != nil {
			return written, fmt.Errorf("write doc: %w", err)
		}
		written++
	}
	if err := w.Flush(); err != nil {
		return written, fmt.Errorf("flush output: %w", err)
	}
	return written, nil
}
