package domain

import "time"

// Outcome is the result of a single test case
type Outcome string

const (
	OutcomePassed  Outcome = "passed"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
)

// CaseResult represents the result of executing one test case
type CaseResult struct {
	Class    string        `json:"class"`
	Name     string        `json:"name"`
	Outcome  Outcome       `json:"outcome"`
	Duration time.Duration `json:"duration"`
	Message  string        `json:"message,omitempty"`
}

// ClassResult represents the result of executing a test class
type ClassResult struct {
	Class    string        // Qualified class name
	WorkerID int           // Worker that ran the class
	Success  bool          // Whether every case passed
	Output   string        // Raw output from the test host, if any
	Error    error         // Error if execution itself failed
	Duration time.Duration // Time taken to execute
	Cases    []CaseResult
}

// Counts returns passed and failed case counts
func (r ClassResult) Counts() (passed, failed int) {
	for _, c := range r.Cases {
		switch c.Outcome {
		case OutcomePassed:
			passed++
		case OutcomeFailed:
			failed++
		}
	}
	return passed, failed
}

// TestResultsMeta contains metadata about a test run
type TestResultsMeta struct {
	RunID           string  `json:"run_id"`
	TotalClasses    int     `json:"total_classes"`
	FailedClasses   int     `json:"failed_classes"`
	PassedClasses   int     `json:"passed_classes"`
	TotalCases      int     `json:"total_cases"`
	PassedCases     int     `json:"passed_cases"`
	FailedCases     int     `json:"failed_cases"`
	SkippedCases    int     `json:"skipped_cases"`
	Duration        string  `json:"duration"`
	DurationSeconds float64 `json:"duration_seconds"`
	Workers         int     `json:"workers"`
	Timestamp       string  `json:"timestamp"`
}

// TestResultsOutput is the complete output structure for test results
type TestResultsOutput struct {
	Meta    TestResultsMeta `json:"meta"`
	Cases   []CaseResult    `json:"cases"`
	Details []TestFailure   `json:"details"`
}
