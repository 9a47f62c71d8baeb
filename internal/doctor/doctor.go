package doctor

import (
	"context"
	"time"
)

// Severity indicates the importance level of a check result.
type Severity int

const (
	// SeverityPass indicates the check passed without issues.
	SeverityPass Severity = iota

	// SeverityInfo is informational output, not a problem.
	SeverityInfo

	// SeverityWarning is an issue that does not stop autoback from running
	// but may stop backups from being taken.
	SeverityWarning

	// SeverityError prevents autoback from running.
	SeverityError
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityPass:
		return "pass"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText encodes the severity by name in JSON reports.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CheckResult is the outcome of a single check.
type CheckResult struct {
	Name     string         `json:"name"`
	Category string         `json:"category"`
	Status   Severity       `json:"status"`
	Message  string         `json:"message"`
	Details  map[string]any `json:"details,omitempty"`

	// Fixable reports whether Fix can resolve the issue.
	Fixable bool `json:"fixable,omitempty"`

	// FixHint tells the user how to resolve the issue by hand.
	FixHint string `json:"fix_hint,omitempty"`
}

// Check is a single diagnostic.
type Check interface {
	// Name returns the unique identifier for this check.
	Name() string

	// Category returns the grouping for this check (e.g. "config", "session").
	Category() string

	// Run executes the check.
	Run(ctx context.Context) *CheckResult
}

// Fixer is implemented by checks that can repair what they found.
type Fixer interface {
	// CanFix reports whether the last Run found a fixable issue.
	CanFix() bool

	// Fix repairs the issue found by the last Run.
	Fix() FixResult
}

// FixResult describes the outcome of a fix.
type FixResult struct {
	Check       string `json:"check"`
	Path        string `json:"path,omitempty"`
	Fixed       bool   `json:"fixed"`
	Description string `json:"description"`
	Error       error  `json:"-"`
}

// Summary counts results by severity.
type Summary struct {
	Passed   int `json:"passed"`
	Info     int `json:"info"`
	Warnings int `json:"warnings"`
	Errors   int `json:"errors"`
}

// Report aggregates the results of a run.
type Report struct {
	Timestamp time.Time      `json:"timestamp"`
	Results   []*CheckResult `json:"results"`
	Fixes     []FixResult    `json:"fixes,omitempty"`
	Summary   Summary        `json:"summary"`
}

// HasErrors reports whether any check failed with SeverityError.
func (r *Report) HasErrors() bool {
	return r.Summary.Errors > 0
}

// HasWarnings reports whether any check returned SeverityWarning.
func (r *Report) HasWarnings() bool {
	return r.Summary.Warnings > 0
}

// Runner executes checks in registration order.
type Runner struct {
	checks []Check
	fix    bool
	now    func() time.Time
}

// NewRunner creates a Runner. With fix set, fixable issues are repaired and
// the check is run again to report the repaired state.
func NewRunner(fix bool) *Runner {
	return &Runner{fix: fix, now: time.Now}
}

// AddCheck registers a check.
func (r *Runner) AddCheck(c Check) {
	r.checks = append(r.checks, c)
}

// Run executes all registered checks.
func (r *Runner) Run(ctx context.Context) *Report {
	report := &Report{
		Timestamp: r.now().UTC(),
		Results:   make([]*CheckResult, 0, len(r.checks)),
	}

	for _, check := range r.checks {
		result := check.Run(ctx)

		if f, ok := check.(Fixer); ok && r.fix && f.CanFix() {
			fr := f.Fix()
			fr.Check = check.Name()
			report.Fixes = append(report.Fixes, fr)
			if fr.Fixed {
				result = check.Run(ctx)
			}
		}

		report.Results = append(report.Results, result)
		switch result.Status {
		case SeverityPass:
			report.Summary.Passed++
		case SeverityInfo:
			report.Summary.Info++
		case SeverityWarning:
			report.Summary.Warnings++
		case SeverityError:
			report.Summary.Errors++
		}
	}

	return report
}
