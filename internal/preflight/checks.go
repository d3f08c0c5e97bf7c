package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

const serviceCheckTimeout = 5 * time.Second

// CheckService verifies the verification service answers its health endpoint
// and reports its models and disk as ready.
func CheckService(ctx context.Context, checker HealthChecker) Result {
	const name = "Verification service"

	checkCtx, cancel := context.WithTimeout(ctx, serviceCheckTimeout)
	defer cancel()

	health, err := checker.Health(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: summarizeHealthError(err)}
	}

	var problems []string
	if !strings.EqualFold(health.Status, "healthy") {
		problems = append(problems, fmt.Sprintf("status %q", health.Status))
	}
	if !health.ModelsLoaded {
		problems = append(problems, "models not loaded")
	}
	if !health.DiskSpaceAvailable {
		problems = append(problems, "low disk space")
	}
	version := strings.TrimSpace(health.Version)
	if version == "" {
		version = "unknown"
	}
	if len(problems) > 0 {
		return Result{Name: name, Detail: fmt.Sprintf("degraded: %s (version %s)", strings.Join(problems, ", "), version)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("healthy (version %s)", version)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func summarizeHealthError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (service unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (service unreachable)"
	}
	return err.Error()
}
