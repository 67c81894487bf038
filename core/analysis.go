package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/healthgap/core/registry"
	"github.com/huangsam/healthgap/internal/contract"
	"github.com/huangsam/healthgap/schema"
)

// runAnalysisCore loads the snapshot, computes every cell and tracks the run
// in the analysis store when one is configured.
func runAnalysisCore(ctx context.Context, cfg *contract.Config, loader contract.SnapshotLoader, mgr contract.CacheManager) (*Results, error) {
	if !shouldSuppressHeader(ctx) {
		logAnalysisHeader(cfg)
	}

	// Add cache manager to context for use by later phases
	ctx = contextWithCacheManager(ctx, mgr)

	// --- 0. Begin Analysis Tracking (if configured) ---
	var analysisStore contract.AnalysisStore
	if mgr != nil {
		analysisStore = mgr.GetAnalysisStore()
	}
	if analysisStore != nil {
		configParams := map[string]any{
			"data_dir":       cfg.DataDir,
			"district":       cfg.District,
			"domain":         string(cfg.Domain),
			"cohort":         string(cfg.Cohort),
			"indicator_type": string(cfg.IndicatorType),
			"workers":        cfg.Workers,
			"result_limit":   cfg.ResultLimit,
		}
		analysisID, err := analysisStore.BeginAnalysis(time.Now(), configParams)
		if err != nil {
			contract.LogWarn("Analysis tracking initialization failed", err)
		} else if analysisID > 0 {
			ctx = withAnalysisID(ctx, analysisID)
		}
	}

	// --- 1. Registry ---
	reg, err := loadRegistry(cfg)
	if err != nil {
		return nil, err
	}

	// --- 2. Load Snapshot ---
	snap, err := loader.Load(ctx, cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load data from %s: %w", cfg.DataDir, err)
	}
	if len(snap.Records) == 0 {
		return nil, errors.New("no survey records found")
	}

	// --- 3. Core Analysis ---
	results, err := Compute(ctx, reg, snap, cfg.Workers)
	if err != nil {
		return nil, err
	}

	// --- 4. Record and End Analysis Tracking ---
	recordResults(ctx, results)

	return results, nil
}

// recordResults stores every computed result and finalizes the tracked run.
// Failures are reported but never abort the analysis.
func recordResults(ctx context.Context, results *Results) {
	analysisID, ok := getAnalysisID(ctx)
	if !ok || analysisID <= 0 {
		return
	}
	mgr := cacheManagerFromContext(ctx)
	if mgr == nil {
		return
	}
	analysisStore := mgr.GetAnalysisStore()
	if analysisStore == nil {
		return
	}

	all := results.All()
	now := time.Now()
	records := make([]schema.IndicatorResultRecord, len(all))
	for i, r := range all {
		records[i] = schema.NewIndicatorResultRecord(analysisID, r, now)
	}
	if err := analysisStore.RecordIndicatorResults(analysisID, records); err != nil {
		logTrackingError("RecordIndicatorResults", err)
	}
	if err := analysisStore.EndAnalysis(analysisID, time.Now(), len(records)); err != nil {
		contract.LogWarn("Failed to finalize analysis tracking", err)
	}
}

// logTrackingError logs database tracking errors to stderr without disrupting analysis.
func logTrackingError(operation string, err error) {
	contract.LogWarn(fmt.Sprintf("Analysis tracking failed for %s", operation), err)
}

// loadRegistry builds the registry of a config for commands that need no snapshot.
func loadRegistry(cfg *contract.Config) (*registry.Registry, error) {
	reg, err := cfg.Registry()
	if err != nil {
		return nil, fmt.Errorf("failed to build indicator registry: %w", err)
	}
	return reg, nil
}
