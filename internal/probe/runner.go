package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/mcreate/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	outputPermission    = 0600
)

// Runner configuration constants.
const (
	WorkerChannelMultiplier = 2
	PercentageMultiplier    = 100
)

// Run executes every check of config against the facade and returns the
// per-check results. It fails when the facade is unhealthy or any check
// violates a response invariant.
func Run(ctx context.Context, config *Config) ([]Result, *Stats, error) {
	stats := &Stats{
		RunID:     uuid.NewString(),
		StartTime: time.Now(),
	}
	log := logger.Named("probe").With(logger.String("runId", stats.RunID))

	targets := config.Targets
	if len(targets) == 0 {
		targets = DefaultTargets
	}
	modes := config.Modes
	if len(modes) == 0 {
		modes = AllModes
	}
	workers := config.Workers
	if workers <= 0 {
		workers = 1
	}

	log.Info(ctx, "starting probe",
		logger.String("baseURL", config.BaseURL),
		logger.Int("targets", len(targets)),
		logger.Int("workers", workers),
		logger.String("timeout", config.Timeout.String()))

	client := newHTTPClient(config.BaseURL, config.Timeout)

	// Step 1: Check facade health
	if err := client.health(ctx); err != nil {
		return nil, stats, err
	}
	log.Info(ctx, "facade is healthy")

	// Step 2: Run checks concurrently
	checks := make([]Check, 0, len(targets)*len(modes))
	for _, t := range targets {
		for _, m := range modes {
			checks = append(checks, Check{Target: t, Mode: m})
		}
	}
	results := runChecks(ctx, client, stats.RunID, checks, workers, config.Verbose, log)

	// Step 3: Tally
	stats.Checks = len(results)
	for _, r := range results {
		switch {
		case r.Error != "":
			stats.Failed++
			log.Warn(ctx, "check failed",
				logger.String("target", r.Check.Target.String()),
				logger.String("mode", string(r.Check.Mode)),
				logger.String("requestId", r.RequestID),
				logger.String("error", r.Error))
		case r.Empty:
			stats.Empty++
			stats.Passed++
		default:
			stats.Passed++
		}
	}

	// Step 4: Save results
	if config.OutputFile != "" {
		if err := saveResults(config.OutputFile, results); err != nil {
			log.Warn(ctx, "failed to save results", logger.Error(err))
		} else {
			log.Info(ctx, "results saved", logger.String("filename", config.OutputFile))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)

	if stats.Failed > 0 {
		return results, stats, fmt.Errorf("%w: %d of %d", ErrChecksFailed, stats.Failed, stats.Checks)
	}
	return results, stats, nil
}

// runChecks fans checks out to a fixed worker pool. Results keep the order
// of checks.
func runChecks(ctx context.Context, client *HTTPClient, runID string, checks []Check, workers int, verbose bool, log logger.Logger) []Result {
	results := make([]Result, len(checks))
	indexes := make(chan int, workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				results[i] = runCheck(ctx, client, runID+"-"+strconv.Itoa(i), checks[i])
				if verbose {
					log.Debug(ctx, "check done",
						logger.String("target", checks[i].Target.String()),
						logger.String("mode", string(checks[i].Mode)),
						logger.Int("status", results[i].Status),
						logger.Int("count", int(results[i].Count)))
				}
			}
		}()
	}

	go func() {
		defer close(indexes)
		for i := range checks {
			select {
			case <-ctx.Done():
				return
			case indexes <- i:
			}
		}
	}()

	wg.Wait()

	// Checks never dispatched because ctx ended
	for i := range results {
		if results[i].RequestID != "" {
			continue
		}
		msg := "not run"
		if err := ctx.Err(); err != nil {
			msg = err.Error()
		}
		results[i] = Result{Check: checks[i], Error: msg}
	}
	return results
}

func runCheck(ctx context.Context, client *HTTPClient, requestID string, check Check) Result {
	start := time.Now()
	res := Result{Check: check, RequestID: requestID}

	status, body, err := client.request(ctx, check, requestID)
	res.Status = status
	res.Duration = time.Since(start)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	count, err := verifyResponse(check.Mode, status, body)
	res.Count = count
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Empty = count == 0
	return res
}

// saveResults writes results as a JSON array.
func saveResults(filename string, results []Result) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(filename, data, outputPermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var passRate float64
	if stats.Checks > 0 {
		passRate = float64(stats.Passed) / float64(stats.Checks) * PercentageMultiplier
	}
	log.Info(ctx, "final statistics",
		logger.Int("checks", stats.Checks),
		logger.Int("passed", stats.Passed),
		logger.Int("failed", stats.Failed),
		logger.Int("empty", stats.Empty),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("passRate", passRate))
}
