// Package probe exercises a running facade and checks the response shapes
// of every vehicle endpoint.
package probe

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/mcreate/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging initializes the logger, writing to stdout and, when logFile
// is set, to that file as well.
func SetupLogging(logFile string, verbose bool) (io.Closer, error) {
	var (
		out    io.Writer = os.Stdout
		closer io.Closer = io.NopCloser(nil)
	)
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		out = io.MultiWriter(os.Stdout, file)
		closer = file
	}
	if err := logger.Init(logger.WithWriter(out)); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return closer, nil
}

// ShowHelp prints usage information for the probe tool.
func ShowHelp() {
	os.Stdout.WriteString(`mcreate probe
=============

Sends vehicle lookups to a running facade and verifies every response.

Usage:
  go run ./cmd/probe [options]

Options:
  -url string
        Base URL of the facade (default "http://localhost:8888")
  -targets string
        Comma separated year/make/model triples (default: a built-in set)
  -modes string
        Comma separated subset of plain,rating,post (default: all)
  -workers int
        Number of concurrent workers (default 4)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Write per-check results as JSON to this file
  -log string
        Also write logs to this file
  -verbose
        Log every check
  -help
        Show this help message

Examples:
  go run ./cmd/probe -targets "2015/Audi/A3,2016/Land Rover/LR4"
  go run ./cmd/probe -modes rating -workers 8 -url http://localhost:9000
`)
}
