// Package health provides health check implementations for the vault
// prerequisites: the encrypted document, the password file and the
// decryption command.
package health

import (
	"context"
)

// Check represents a health check.
type Check interface {
	// Name returns the name of the health check.
	Name() string
	// CheckDetailed performs the health check and returns a Result.
	CheckDetailed(ctx context.Context) Result
}

// Status represents the status of a health check.
type Status string

const (
	// StatusHealthy indicates the component is healthy.
	StatusHealthy Status = "healthy"
	// StatusUnhealthy indicates the component is unhealthy.
	StatusUnhealthy Status = "unhealthy"
	// StatusDegraded indicates the component is working but degraded.
	StatusDegraded Status = "degraded"
	// StatusSkipped indicates the check did not run because an earlier one failed.
	StatusSkipped Status = "skipped"
)

// Result represents the result of a health check.
type Result struct {
	Name    string            `json:"name"`
	Status  Status            `json:"status"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// Report is the outcome of running a list of checks.
type Report struct {
	Status  Status   `json:"status"`
	Results []Result `json:"results"`
}

// Run executes checks in order. Once a check is unhealthy the remaining
// checks are skipped, since they depend on the earlier ones.
func Run(ctx context.Context, checks ...Check) Report {
	report := Report{Status: StatusHealthy, Results: make([]Result, 0, len(checks))}

	for _, c := range checks {
		if report.Status == StatusUnhealthy {
			report.Results = append(report.Results, Result{
				Name:    c.Name(),
				Status:  StatusSkipped,
				Message: "skipped after an earlier failure",
			})
			continue
		}

		r := c.CheckDetailed(ctx)
		report.Results = append(report.Results, r)

		switch r.Status {
		case StatusUnhealthy:
			report.Status = StatusUnhealthy
		case StatusDegraded:
			report.Status = StatusDegraded
		}
	}

	return report
}

// Healthy reports whether no check was unhealthy.
func (r Report) Healthy() bool {
	return r.Status != StatusUnhealthy
}
