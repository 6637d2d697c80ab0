package health

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/scrapewatch/scrapewatch/internal/config"
)

// Status is the health status of a check or of the whole scraper.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// DefaultTimeout is the per-check budget applied when a check does not set
// its own.
const DefaultTimeout = 5 * time.Second

// CheckFunc is a boolean health probe. Returning false marks the check
// unhealthy; returning an error marks it unhealthy with the error captured
// in the report.
type CheckFunc func() (bool, error)

// StatusCheckFunc is a status-aware probe for checks that need to report
// degraded rather than a hard failure.
type StatusCheckFunc func() (Status, error)

// Check is one registered health probe.
type Check struct {
	Name        string
	Description string
	Timeout     time.Duration
	Probe       StatusCheckFunc
}

// Result is the outcome of one probe execution. Results are rebuilt on
// every run and never cached.
type Result struct {
	Name        string    `json:"name"`
	Status      Status    `json:"status"`
	Description string    `json:"description"`
	DurationMS  float64   `json:"duration_ms"`
	Timestamp   time.Time `json:"timestamp"`
	Error       string    `json:"error,omitempty"`
}

// Report aggregates one run of all checks.
type Report struct {
	Status      Status    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Scraper     string    `json:"scraper"`
	Version     string    `json:"version"`
	Environment string    `json:"environment"`
	Checks      []Result  `json:"checks"`
}

// Checker maintains the registered checks and runs them on demand. The
// check list may be mutated while another goroutine is running checks; the
// list is guarded, probes execute on a snapshot.
type Checker struct {
	identity config.Identity
	logger   zerolog.Logger

	mu     sync.Mutex
	checks []Check
}

// NewChecker creates an empty checker. Call RegisterDefaults for the
// standard system resource checks.
func NewChecker(identity config.Identity, logger zerolog.Logger) *Checker {
	return &Checker{identity: identity, logger: logger}
}

// Register adds a boolean health check. Registering an existing name
// replaces its probe and description in place, keeping the original run
// order position (last registration wins).
func (c *Checker) Register(name string, probe CheckFunc, description string) {
	c.RegisterStatus(Check{
		Name:        name,
		Description: description,
		Probe: func() (Status, error) {
			ok, err := probe()
			if err != nil {
				return StatusUnhealthy, err
			}
			if !ok {
				return StatusUnhealthy, nil
			}
			return StatusHealthy, nil
		},
	})
}

// RegisterStatus adds a status-aware health check with the same
// last-registration-wins semantics as Register.
func (c *Checker) RegisterStatus(check Check) {
	if check.Timeout <= 0 {
		check.Timeout = DefaultTimeout
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.checks {
		if c.checks[i].Name == check.Name {
			c.checks[i] = check
			return
		}
	}
	c.checks = append(c.checks, check)
}

// Deregister removes the check with the given name. No-op when absent.
func (c *Checker) Deregister(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.checks[:0]
	for _, check := range c.checks {
		if check.Name != name {
			kept = append(kept, check)
		}
	}
	c.checks = kept
}

// Names returns the registered check names in run order.
func (c *Checker) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, len(c.checks))
	for i, check := range c.checks {
		names[i] = check.Name
	}
	return names
}

// Run executes all checks in registration order and aggregates the overall
// status by worst-of: unhealthy > degraded > healthy. One check failing,
// panicking, or timing out never prevents the remaining checks from
// running.
func (c *Checker) Run() Report {
	c.mu.Lock()
	snapshot := make([]Check, len(c.checks))
	copy(snapshot, c.checks)
	c.mu.Unlock()

	overall := StatusHealthy
	results := make([]Result, 0, len(snapshot))

	for _, check := range snapshot {
		result := runCheck(check)
		results = append(results, result)

		switch result.Status {
		case StatusUnhealthy:
			overall = StatusUnhealthy
		case StatusDegraded:
			if overall == StatusHealthy {
				overall = StatusDegraded
			}
		}

		if result.Status != StatusHealthy {
			c.logger.Warn().
				Str("check", result.Name).
				Str("status", string(result.Status)).
				Str("error", result.Error).
				Msg("health check not healthy")
		}
	}

	return Report{
		Status:      overall,
		Timestamp:   time.Now().UTC(),
		Scraper:     c.identity.Name,
		Version:     c.identity.Version,
		Environment: c.identity.Environment,
		Checks:      results,
	}
}

type probeOutcome struct {
	status Status
	err    error
}

// runCheck executes one probe with its timeout budget, converting panics
// and overruns into unhealthy results. A probe still running when the
// budget elapses is abandoned; its late result is discarded.
func runCheck(check Check) Result {
	start := time.Now()
	outcome := make(chan probeOutcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				outcome <- probeOutcome{StatusUnhealthy, fmt.Errorf("check panicked: %v", r)}
			}
		}()
		status, err := check.Probe()
		if err != nil {
			status = StatusUnhealthy
		}
		outcome <- probeOutcome{status, err}
	}()

	timer := time.NewTimer(check.Timeout)
	defer timer.Stop()

	var status Status
	var errMsg string
	select {
	case o := <-outcome:
		status = o.status
		if o.err != nil {
			errMsg = o.err.Error()
		}
	case <-timer.C:
		status = StatusUnhealthy
		errMsg = fmt.Sprintf("check timed out after %s", check.Timeout)
	}

	return Result{
		Name:        check.Name,
		Status:      status,
		Description: check.Description,
		DurationMS:  float64(time.Since(start)) / float64(time.Millisecond),
		Timestamp:   time.Now().UTC(),
		Error:       errMsg,
	}
}
