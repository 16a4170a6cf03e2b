package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/mealsense/backend/config"
	"github.com/mealsense/backend/internal/catalog"
)

// catalog-builder merges the ranked raw source files into the SQLite catalog
// and rebuilds its search index. It runs offline, outside the request path,
// and can be re-run while a server is reading the previous catalog: the
// replace is one transaction, so readers never see a half-built store.
func main() {
	var (
		dbPath  = flag.String("db", "", "catalog database path (defaults to config)")
		sources = flag.String("sources", "", "comma-separated ranked source files, highest priority first (defaults to config)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	path := cfg.Catalog.DBPath
	if *dbPath != "" {
		path = *dbPath
	}
	files := cfg.Catalog.SourceFiles
	if *sources != "" {
		files = strings.Split(*sources, ",")
	}
	if len(files) == 0 {
		log.Fatal("No source files configured")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Fatalf("Failed to create catalog directory: %v", err)
	}

	store, err := catalog.NewStore(path)
	if err != nil {
		log.Fatalf("Failed to open catalog store: %v", err)
	}
	defer store.Close()

	var loaded []catalog.Source
	for _, file := range files {
		file = strings.TrimSpace(file)
		src, err := catalog.LoadSourceFile(file)
		if err != nil {
			// Optional secondary files may be absent; a missing file demotes
			// to a warning, anything else is fatal.
			if errors.Is(err, os.ErrNotExist) {
				log.Printf("[BUILD] source %s not found, skipping", file)
				continue
			}
			log.Fatalf("Failed to load source %s: %v", file, err)
		}
		log.Printf("[BUILD] loaded %s: %d records", src.Name, len(src.Records))
		loaded = append(loaded, src)
	}
	if len(loaded) == 0 {
		log.Fatal("No readable source files")
	}

	builder := catalog.NewBuilder(store)
	count, err := builder.Build(context.Background(), loaded)
	if err != nil {
		log.Fatalf("Catalog build failed: %v", err)
	}

	log.Printf("[BUILD] done: %d entries -> %s", count, path)
}
