// Package storefront parses storefront service flags and launches the server.
package storefront

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	entrypoint "github.com/louisbranch/storefront/internal/platform/cmd"
	server "github.com/louisbranch/storefront/internal/services/storefront"
	storagesqlite "github.com/louisbranch/storefront/internal/services/storefront/storage/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Config holds storefront command configuration.
type Config struct {
	HTTPAddr   string `env:"HTTP_ADDR" envDefault:"localhost:8080"`
	DBPath     string `env:"DB_PATH" envDefault:"data/storefront.db"`
	CartAction string `env:"CART_ACTION" envDefault:"/cart"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "catalog database path")
	fs.StringVar(&cfg.CartAction, "cart-action", cfg.CartAction, "add-to-cart form action")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run serves the storefront until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceStorefront, func(ctx context.Context) error {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return fmt.Errorf("create database dir: %w", err)
		}
		store, err := storagesqlite.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open catalog store: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Printf("close catalog store: %v", err)
			}
		}()

		srv, err := server.NewServer(server.Config{
			HTTPAddr:   cfg.HTTPAddr,
			CartAction: cfg.CartAction,
			Store:      store,
			Registry:   newRegistry(),
		})
		if err != nil {
			return err
		}
		return srv.ListenAndServe(ctx)
	})
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}
