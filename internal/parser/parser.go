package parser

import "stp/internal/domain"

// Parser parses test results and extracts failures
type Parser interface {
	ParseCaseResults(class, output string) []domain.CaseResult
	ParseFailure(result domain.ClassResult) []domain.TestFailure
	ParseTestCounts(result domain.ClassResult) (passed, failed int)
}
