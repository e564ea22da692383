package preflight

import (
	"context"

	"golang.org/x/sync/errgroup"

	"mailtriage/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckFreeSpace("State free space", cfg.Paths.StateDir, minFreeBytes),
		CheckLedger(ctx, cfg),
	}

	remote := []func(context.Context, *config.Config) Result{CheckMailSource, CheckLLM}
	if cfg.Mail.OCREnabled {
		remote = append(remote, CheckOCR)
	}
	if cfg.Alert.Enabled {
		remote = append(remote, CheckTelegram)
	}

	// Remote checks are independent; results keep declaration order.
	remoteResults := make([]Result, len(remote))
	var g errgroup.Group
	for i, check := range remote {
		g.Go(func() error {
			remoteResults[i] = check(ctx, cfg)
			return nil
		})
	}
	_ = g.Wait()

	return append(results, remoteResults...)
}

// Failed counts failing results.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.Passed {
			n++
		}
	}
	return n
}
