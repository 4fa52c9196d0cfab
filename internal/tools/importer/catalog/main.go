// Package catalogimporter loads product and section files into the
// storefront catalog database.
package catalogimporter

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/louisbranch/storefront/internal/services/storefront/storage"
	storagesqlite "github.com/louisbranch/storefront/internal/services/storefront/storage/sqlite"
)

// DefaultDBPath is the catalog database shared with the storefront server.
var DefaultDBPath = filepath.Join("data", "storefront.db")

// Config holds configuration for the catalog importer.
type Config struct {
	Dir    string
	DBPath string
	DryRun bool
}

// ParseConfig parses CLI flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{DBPath: DefaultDBPath}

	fs.StringVar(&cfg.Dir, "dir", "", "directory containing product files (.json, .yaml, .yml)")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "catalog database path")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "validate without writing to the database")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if strings.TrimSpace(cfg.Dir) == "" {
		return Config{}, errors.New("dir is required")
	}
	return cfg, nil
}

// Run validates every product file in cfg.Dir and, unless DryRun is set,
// writes them to the catalog database. Nothing is written when any file
// fails validation.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if out == nil {
		out = io.Discard
	}

	dir := strings.TrimSpace(cfg.Dir)
	if dir == "" {
		return errors.New("dir is required")
	}
	names, err := listProductFiles(dir)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("no product files found in %s", dir)
	}

	files, err := prepareDir(dir, names)
	if err != nil {
		return err
	}
	sections := 0
	for _, file := range files {
		sections += len(file.Sections)
		for _, warning := range file.Warnings {
			if _, err := fmt.Fprintf(out, "warning: %s: %s\n", file.Name, warning); err != nil {
				return err
			}
		}
	}

	if cfg.DryRun {
		_, err = fmt.Fprintf(out, "validated %d product(s), %d section(s)\n", len(files), sections)
		return err
	}

	if strings.TrimSpace(cfg.DBPath) == "" {
		return errors.New("db-path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("create database dir: %w", err)
	}
	store, err := storagesqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open catalog store: %w", err)
	}
	defer store.Close()

	if err := importFiles(ctx, store, files, time.Now().UTC()); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "imported %d product(s), %d section(s) into %s\n", len(files), sections, cfg.DBPath)
	return err
}

func listProductFiles(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !supportedExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// prepareDir reads and validates every file, rejecting handles and section
// ids that appear in more than one file.
func prepareDir(dir string, names []string) ([]preparedFile, error) {
	handles := make(map[string]string, len(names))
	sectionIDs := make(map[string]string)
	files := make([]preparedFile, 0, len(names))
	for _, name := range names {
		payload, err := readProductFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		file, err := prepareFile(name, payload)
		if err != nil {
			return nil, fmt.Errorf("validate %s: %w", name, err)
		}
		handle := file.Product.Product.Handle
		if other, ok := handles[handle]; ok {
			return nil, fmt.Errorf("validate %s: product %s already defined in %s", name, handle, other)
		}
		handles[handle] = name
		for _, section := range file.Sections {
			if other, ok := sectionIDs[section.ID]; ok {
				return nil, fmt.Errorf("validate %s: section %s already defined in %s", name, section.ID, other)
			}
			sectionIDs[section.ID] = name
		}
		files = append(files, file)
	}
	return files, nil
}

func importFiles(ctx context.Context, store storage.Store, files []preparedFile, now time.Time) error {
	for _, file := range files {
		if err := upsertFile(ctx, store, file, now); err != nil {
			return fmt.Errorf("import %s: %w", file.Name, err)
		}
	}
	return nil
}
