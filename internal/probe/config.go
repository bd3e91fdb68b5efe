package probe

import (
	"fmt"
	"strings"
	"time"
)

// Config holds configuration for a probe run
type Config struct {
	BaseURL    string        // Base URL of the facade
	Targets    []Target      // Model lines to query
	Modes      []Mode        // Endpoint variants to exercise per target
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // Where to write per-check results, empty to skip
	Verbose    bool          // Log every check
}

// Target is one year/make/model triple.
type Target struct {
	ModelYear    string `json:"modelYear"`
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
}

func (t Target) String() string {
	return t.ModelYear + "/" + t.Manufacturer + "/" + t.Model
}

// Mode selects which endpoint variant a check calls.
type Mode string

// Endpoint variants.
const (
	ModePlain  Mode = "plain"
	ModeRating Mode = "rating"
	ModePost   Mode = "post"
)

// AllModes lists every variant in the order they are run.
var AllModes = []Mode{ModePlain, ModeRating, ModePost}

// DefaultTargets are used when none are given.
var DefaultTargets = []Target{
	{ModelYear: "2015", Manufacturer: "Audi", Model: "A3"},
	{ModelYear: "2013", Manufacturer: "Acura", Model: "RDX"},
	{ModelYear: "2016", Manufacturer: "Land Rover", Model: "Range Rover Sport"},
}

// ParseTargets reads a comma separated list of year/make/model triples.
// Spaces inside a segment are kept.
func ParseTargets(s string) ([]Target, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []Target
	for _, item := range strings.Split(s, ",") {
		parts := strings.Split(strings.TrimSpace(item), "/")
		if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTarget, item)
		}
		out = append(out, Target{ModelYear: parts[0], Manufacturer: parts[1], Model: parts[2]})
	}
	return out, nil
}

// ParseModes reads a comma separated list of modes.
func ParseModes(s string) ([]Mode, error) {
	if strings.TrimSpace(s) == "" {
		return AllModes, nil
	}
	var out []Mode
	for _, item := range strings.Split(s, ",") {
		m := Mode(strings.TrimSpace(item))
		switch m {
		case ModePlain, ModeRating, ModePost:
			out = append(out, m)
		default:
			return nil, fmt.Errorf("%w: %q", ErrInvalidMode, item)
		}
	}
	return out, nil
}

// Check is one request the probe sends.
type Check struct {
	Target Target `json:"target"`
	Mode   Mode   `json:"mode"`
}

// Result is the outcome of one Check.
type Result struct {
	Check     Check         `json:"check"`
	RequestID string        `json:"requestId"`
	Status    int           `json:"status"`
	Count     int64         `json:"count"`
	Empty     bool          `json:"empty"`
	Duration  time.Duration `json:"durationNs"`
	Error     string        `json:"error,omitempty"`
}

// Stats holds run statistics
type Stats struct {
	RunID     string
	Checks    int
	Passed    int
	Failed    int
	Empty     int
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}
