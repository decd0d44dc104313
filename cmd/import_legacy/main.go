package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"billing/internal/config"
	"billing/internal/repository"
	"billing/internal/store"

	"github.com/sirupsen/logrus"
)

type options struct {
	path    string
	replace bool
	purge   bool
}

type importResult struct {
	Imported int
	Skipped  int
	Corrupt  int
	Replaced int
	Purged   int
}

func main() {
	opts := parseFlags()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config error: %v", err)
	}
	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logrus.Fatalf("logger error: %v", err)
	}

	entries, err := readExport(opts.path)
	if err != nil {
		logger.Fatalf("read export file: %v", err)
	}

	ctx := context.Background()
	kv, closeStore, err := store.Open(ctx, cfg.StoreDriver, cfg.DatabaseURL, cfg.RedisURL)
	if err != nil {
		logger.Fatalf("store error: %v", err)
	}
	defer closeStore()

	repo := repository.New(kv, repository.Options{
		Retention: cfg.Retention,
		Logger:    logger,
	})

	result, err := runImport(ctx, kv, repo, entries, opts, logger)
	if err != nil {
		logger.Fatalf("import failed: %v", err)
	}

	logger.WithFields(logrus.Fields{
		"file":     opts.path,
		"store":    cfg.StoreDriver,
		"imported": result.Imported,
		"skipped":  result.Skipped,
		"corrupt":  result.Corrupt,
		"replaced": result.Replaced,
		"purged":   result.Purged,
	}).Info("legacy import completed")
}

func parseFlags() options {
	var opts options
	flag.StringVar(
		&opts.path,
		"file",
		"",
		"path to a JSON object of browser localStorage key -> value",
	)
	flag.BoolVar(
		&opts.replace,
		"replace",
		false,
		"remove every stored invoice before importing",
	)
	flag.BoolVar(
		&opts.purge,
		"purge",
		false,
		"purge expired invoices after importing",
	)
	flag.Parse()

	if strings.TrimSpace(opts.path) == "" {
		fmt.Fprintln(os.Stderr, "-file is required")
		flag.Usage()
		os.Exit(2)
	}
	return opts
}

func readExport(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseExport(data)
}

// parseExport accepts values either as JSON strings, the way localStorage
// holds them, or as inline JSON objects.
func parseExport(data []byte) (map[string]string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("export must be a JSON object: %w", err)
	}

	entries := make(map[string]string, len(raw))
	for key, value := range raw {
		trimmed := bytes.TrimSpace(value)
		if len(trimmed) > 0 && trimmed[0] == '"' {
			var text string
			if err := json.Unmarshal(trimmed, &text); err != nil {
				return nil, fmt.Errorf("key %s: %w", key, err)
			}
			entries[key] = text
			continue
		}
		entries[key] = string(trimmed)
	}
	return entries, nil
}

func runImport(
	ctx context.Context,
	kv store.Store,
	repo *repository.InvoiceRepository,
	entries map[string]string,
	opts options,
	logger logrus.FieldLogger,
) (importResult, error) {
	var result importResult

	if opts.replace {
		keys, err := kv.Keys(ctx)
		if err != nil {
			return result, fmt.Errorf("list keys: %w", err)
		}
		for _, key := range keys {
			if !strings.HasPrefix(key, repository.KeyPrefix) {
				continue
			}
			if err := kv.Remove(ctx, key); err != nil {
				return result, fmt.Errorf("remove %s: %w", key, err)
			}
			result.Replaced++
		}
	}

	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if !strings.HasPrefix(key, repository.KeyPrefix) {
			result.Skipped++
			continue
		}
		invoiceNo := strings.TrimPrefix(key, repository.KeyPrefix)
		if _, err := repo.ImportRaw(ctx, invoiceNo, entries[key]); err != nil {
			if errors.Is(err, repository.ErrCorruptRecord) {
				logger.WithFields(logrus.Fields{"key": key, "error": err}).Warn("skipping corrupt invoice")
				result.Corrupt++
				continue
			}
			return result, err
		}
		result.Imported++
	}

	if opts.purge {
		purged, err := repo.PurgeExpired(ctx)
		if err != nil {
			return result, err
		}
		result.Purged = purged
	}
	return result, nil
}
