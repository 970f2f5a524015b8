package domain

// ClassLevel is the test name recorded when a class failed without a
// failing case, e.g. a setup error or a crashed host
const ClassLevel = "(class)"

// TestFailure represents a failed test case
type TestFailure struct {
	Class      string   `json:"class"`
	TestName   string   `json:"test_name"`
	Message    string   `json:"message"`
	StackTrace []string `json:"stack_trace"`
	File       string   `json:"file"`
	Line       int      `json:"line"`
	Resolved   bool     `json:"resolved,omitempty"` // Track if test case is marked as resolved
}

// IsClassLevel reports whether the failure belongs to the class as a whole
func (f TestFailure) IsClassLevel() bool {
	return f.TestName == ClassLevel
}

// Key identifies the failed case across runs
func (f TestFailure) Key() string {
	return f.Class + "." + f.TestName
}
