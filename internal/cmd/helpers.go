package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/planline/planline/internal/logging"
	"github.com/planline/planline/internal/plan"
	"github.com/planline/planline/internal/store"
)

// loadDocument reads and parses the plan file.
func loadDocument() (*plan.Document, error) {
	data, err := os.ReadFile(planPath)
	if err != nil {
		return nil, fmt.Errorf("reading plan: %w", err)
	}
	doc, err := plan.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", planPath, err)
	}
	return doc, nil
}

// resolveStateDir returns the state directory: the --state-dir flag if
// given, else store.dir_name next to the plan file.
func resolveStateDir() string {
	if stateDir != "" {
		return stateDir
	}
	return filepath.Join(filepath.Dir(planPath), cfg.Store.DirName)
}

// planID derives a stable plan identifier from the plan file name.
func planID() string {
	base := filepath.Base(planPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// openStore opens the status store for the current plan. The returned
// logger must be closed by the caller.
func openStore(doc *plan.Document) (*store.Store, *logging.Logger, error) {
	dir := resolveStateDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, nil, fmt.Errorf("creating state dir: %w", err)
	}
	log, err := logging.NewLogger(dir, cfg.Logging.Level)
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Open(dir, doc, store.Options{
		PlanID:     planID(),
		MaxRetries: cfg.Store.MaxRetries,
		StaleAfter: time.Duration(cfg.Store.StaleAfterMinutes) * time.Minute,
		Logger:     log,
	})
	if err != nil {
		log.Close()
		return nil, nil, err
	}
	return st, log, nil
}
