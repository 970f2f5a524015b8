package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"stp/internal/domain"
)

var (
	// Passed CreateInvalidContainer [1 s]
	// Failed GetBlobByPrefix [120 ms]
	// Skipped IgnoredCase
	caseLinePattern = regexp.MustCompile(`^\s*(Passed|Failed|Skipped)\s+([\w.+` + "`" + `<>]+(?:\s*\(.*\))?)(?:\s+\[([^\]]*)\])?\s*$`)
	// Failed!  - Failed:     1, Passed:     2, Skipped:     0, Total:     3, Duration: 2 s - CLITest.dll (net6.0)
	summaryPattern = regexp.MustCompile(`(?:Passed|Failed)!\s+-\s+Failed:\s*(\d+),\s*Passed:\s*(\d+),\s*Skipped:\s*(\d+),\s*Total:\s*(\d+)`)
	// older hosts print "Total tests: 3" followed by "Passed: 2" / "Failed: 1" lines
	legacyTotalPattern  = regexp.MustCompile(`(?m)^\s*Total tests:\s*(\d+)`)
	legacyPassedPattern = regexp.MustCompile(`(?m)^\s*Passed:\s*(\d+)\s*$`)
	legacyFailedPattern = regexp.MustCompile(`(?m)^\s*Failed:\s*(\d+)\s*$`)
	// at Ns.Class.Method() in C:\src\Test\GetBlob.cs:line 42
	locationPattern = regexp.MustCompile(`\sin\s+(.+):line\s+(\d+)\s*$`)
)

// sections the console logger prints under a failed case
const (
	sectionMessage = "Error Message:"
	sectionStack   = "Stack Trace:"
)

// VSTestParser parses the console logger output of the VSTest host
type VSTestParser struct{}

// NewVSTestParser creates a new VSTestParser
func NewVSTestParser() *VSTestParser {
	return &VSTestParser{}
}

// ParseCaseResults extracts one result per reported case, in output order
func (p *VSTestParser) ParseCaseResults(class, output string) []domain.CaseResult {
	var results []domain.CaseResult
	for _, line := range strings.Split(output, "\n") {
		m := caseLinePattern.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		results = append(results, domain.CaseResult{
			Class:    class,
			Name:     caseName(class, m[2]),
			Outcome:  outcome(m[1]),
			Duration: parseDuration(m[3]),
		})
	}
	return results
}

// ParseTestCounts extracts passed and failed test case counts from the host summary.
// Returns (passed, failed). Without a summary the reported case lines are counted,
// and without those the class counts as one case (file-level fallback).
func (p *VSTestParser) ParseTestCounts(result domain.ClassResult) (passed, failed int) {
	output := result.Output

	summaries := summaryPattern.FindAllStringSubmatch(output, -1)
	for _, m := range summaries {
		failed += atoi(m[1])
		passed += atoi(m[2])
	}
	if len(summaries) > 0 {
		return passed, failed
	}

	if legacyTotalPattern.MatchString(output) {
		for _, m := range legacyPassedPattern.FindAllStringSubmatch(output, -1) {
			passed += atoi(m[1])
		}
		for _, m := range legacyFailedPattern.FindAllStringSubmatch(output, -1) {
			failed += atoi(m[1])
		}
		if passed > 0 || failed > 0 {
			return passed, failed
		}
	}

	cases := result.Cases
	if len(cases) == 0 {
		cases = p.ParseCaseResults(result.Class, output)
	}
	for _, c := range cases {
		switch c.Outcome {
		case domain.OutcomePassed:
			passed++
		case domain.OutcomeFailed:
			failed++
		}
	}
	if passed > 0 || failed > 0 {
		return passed, failed
	}

	// Fallback: one "test" per class
	if result.Success {
		return 1, 0
	}
	return 0, 1
}

// ParseFailure parses one failure per failed case. A failed class without any
// failed case line (crash, timeout, setup failure) yields a class-level failure.
func (p *VSTestParser) ParseFailure(result domain.ClassResult) []domain.TestFailure {
	var failures []domain.TestFailure
	lines := strings.Split(strings.ReplaceAll(result.Output, "\r\n", "\n"), "\n")

	for i, line := range lines {
		m := caseLinePattern.FindStringSubmatch(line)
		if m == nil || m[1] != "Failed" {
			continue
		}
		failure := p.parseTestFailureCase(i, lines)
		failure.Class = result.Class
		failure.TestName = caseName(result.Class, m[2])
		failures = append(failures, *failure)
	}

	// cases executed in-process carry their message directly
	if len(failures) == 0 {
		for _, c := range result.Cases {
			if c.Outcome != domain.OutcomeFailed {
				continue
			}
			failures = append(failures, domain.TestFailure{
				Class:      result.Class,
				TestName:   c.Name,
				Message:    c.Message,
				StackTrace: []string{},
			})
		}
	}

	if len(failures) == 0 && !result.Success {
		message := strings.TrimSpace(tail(result.Output, 20))
		if result.Error != nil {
			message = strings.TrimSpace(fmt.Sprintf("%v\n%s", result.Error, message))
		}
		failures = append(failures, domain.TestFailure{
			Class:      result.Class,
			TestName:   domain.ClassLevel,
			Message:    message,
			StackTrace: []string{},
		})
	}

	return failures
}

func (p *VSTestParser) parseTestFailureCase(i int, lines []string) *domain.TestFailure {
	testFailure := &domain.TestFailure{StackTrace: []string{}}

	var messageLines []string
	section := ""

	// Parse from line after the case line until the next case line or summary
	for j := i + 1; j < len(lines); j++ {
		line := lines[j]
		trimmed := strings.TrimSpace(line)

		if caseLinePattern.MatchString(line) || summaryPattern.MatchString(line) {
			break
		}

		switch {
		case trimmed == sectionMessage:
			section = sectionMessage
			continue
		case trimmed == sectionStack:
			section = sectionStack
			continue
		case strings.HasSuffix(trimmed, "Messages:"):
			// Standard Output Messages: and friends end the failure detail
			section = ""
			continue
		}

		switch section {
		case sectionMessage:
			if len(messageLines) == 0 && trimmed == "" {
				continue
			}
			messageLines = append(messageLines, trimmed)
		case sectionStack:
			if trimmed == "" {
				continue
			}
			testFailure.StackTrace = append(testFailure.StackTrace, trimmed)
			if testFailure.File == "" {
				if loc := locationPattern.FindStringSubmatch(trimmed); loc != nil {
					testFailure.File = loc[1]
					testFailure.Line = atoi(loc[2])
				}
			}
		}
	}

	// Join message lines (trim trailing empty lines)
	for len(messageLines) > 0 && messageLines[len(messageLines)-1] == "" {
		messageLines = messageLines[:len(messageLines)-1]
	}
	testFailure.Message = strings.Join(messageLines, "\n")
	return testFailure
}

// caseName strips the class prefix some loggers print before the method name
func caseName(class, name string) string {
	name = strings.TrimSpace(name)
	if class != "" {
		name = strings.TrimPrefix(name, class+".")
	}
	return name
}

func outcome(word string) domain.Outcome {
	switch word {
	case "Passed":
		return domain.OutcomePassed
	case "Failed":
		return domain.OutcomeFailed
	default:
		return domain.OutcomeSkipped
	}
}

// parseDuration reads the logger's duration form: "1 s", "120 ms", "< 1 ms", "2 m 3 s"
func parseDuration(s string) time.Duration {
	fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(s), "<"))
	var total time.Duration
	for i := 0; i+1 < len(fields); i += 2 {
		n, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return 0
		}
		var unit time.Duration
		switch fields[i+1] {
		case "ms":
			unit = time.Millisecond
		case "s":
			unit = time.Second
		case "m":
			unit = time.Minute
		case "h":
			unit = time.Hour
		default:
			return 0
		}
		total += time.Duration(n * float64(unit))
	}
	return total
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
