package preflight

import (
	"context"

	"docverify/internal/api"
	"docverify/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// HealthChecker is the subset of the service client used by CheckService.
type HealthChecker interface {
	Health(ctx context.Context) (api.HealthResponse, error)
}

// RunAll executes every applicable preflight check for the given config.
// The service check is skipped when checker is nil.
func RunAll(ctx context.Context, cfg *config.Config, checker HealthChecker) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	if checker != nil {
		results = append(results, CheckService(ctx, checker))
	}
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	results = append(results, CheckDirectoryAccess("Download directory", cfg.Paths.DownloadDir))
	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
