package ui

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"stp/internal/catalog"
	"stp/internal/config"
	"stp/internal/domain"
	"stp/internal/execution"
)

// Formatter formats and displays output
type Formatter struct {
	config *config.Config
	out    io.Writer
}

// NewFormatter creates a new Formatter writing to out, or to the color
// package's stdout when out is nil
func NewFormatter(cfg *config.Config, out io.Writer) *Formatter {
	if out == nil {
		out = color.Output
	}
	return &Formatter{config: cfg, out: out}
}

// PrintMetaStats displays run statistics and a tree of failed cases
func (f *Formatter) PrintMetaStats(output *domain.TestResultsOutput) {
	meta := output.Meta

	fmt.Fprint(f.out, "\n")
	fmt.Fprintln(f.out, color.CyanString("╔═══════════════════════════════════════════════════════════════╗"))
	fmt.Fprintln(f.out, color.CyanString("║                  Scenario Execution Statistics                ║"))
	fmt.Fprintln(f.out, color.CyanString("╚═══════════════════════════════════════════════════════════════╝"))
	fmt.Fprintln(f.out)

	rows := []struct {
		label string
		value string
		paint func(string, ...interface{}) string
	}{
		{"Run", meta.RunID, color.WhiteString},
		{"Total Classes", fmt.Sprint(meta.TotalClasses), color.WhiteString},
		{"Passed Classes", fmt.Sprint(meta.PassedClasses), color.GreenString},
		{"Failed Classes", fmt.Sprint(meta.FailedClasses), color.RedString},
		{"Passed Cases", fmt.Sprint(meta.PassedCases), color.GreenString},
		{"Failed Cases", fmt.Sprint(meta.FailedCases), color.RedString},
		{"Skipped Cases", fmt.Sprint(meta.SkippedCases), color.YellowString},
		{"Duration", fmt.Sprintf("%.2fs", meta.DurationSeconds), color.WhiteString},
		{"Workers", fmt.Sprint(meta.Workers), color.WhiteString},
		{"Timestamp", meta.Timestamp, color.WhiteString},
	}

	fmt.Fprintln(f.out, "┌─────────────────────────────────┬──────────────────────────────────────┐")
	for i, row := range rows {
		fmt.Fprintf(f.out, "│ %-31s │ %s │\n", row.label, row.paint("%-36s", row.value))
		if i < len(rows)-1 {
			fmt.Fprintln(f.out, "├─────────────────────────────────┼──────────────────────────────────────┤")
		}
	}
	fmt.Fprintln(f.out, "└─────────────────────────────────┴──────────────────────────────────────┘")

	fmt.Fprintln(f.out)
	if meta.FailedClasses == 0 && len(output.Details) == 0 {
		fmt.Fprintln(f.out, color.GreenString("✓ All scenarios passed!"))
		return
	}
	fmt.Fprintln(f.out, color.RedString("✗ %d class(es) failed with %d case failure(s)", meta.FailedClasses, meta.FailedCases))
	fmt.Fprintln(f.out)
	f.printFailedTree(output.Details)
}

// treeNode is a namespace segment; class nodes carry their failures
type treeNode struct {
	name     string
	children map[string]*treeNode
	failures []domain.TestFailure
	isClass  bool
}

func (f *Formatter) printFailedTree(failures []domain.TestFailure) {
	if len(failures) == 0 {
		return
	}

	root := &treeNode{children: make(map[string]*treeNode)}
	for _, failure := range failures {
		parts := strings.Split(failure.Class, ".")
		current := root
		for i, part := range parts {
			child := current.children[part]
			if child == nil {
				child = &treeNode{name: part, children: make(map[string]*treeNode)}
				current.children[part] = child
			}
			current = child
			if i == len(parts)-1 {
				current.isClass = true
				current.failures = append(current.failures, failure)
			}
		}
	}
	f.printTreeNode(root, "")
}

func (f *Formatter) printTreeNode(node *treeNode, prefix string) {
	keys := make([]string, 0, len(node.children))
	for key := range node.children {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for i, key := range keys {
		child := node.children[key]
		last := i == len(keys)-1
		connector, indent := "├── ", "│   "
		if last {
			connector, indent = "└── ", "    "
		}

		if child.isClass {
			fmt.Fprintln(f.out, prefix+connector+color.YellowString("%s", child.name))
		} else {
			fmt.Fprintln(f.out, prefix+connector+color.CyanString("%s", child.name))
		}

		for j, failure := range child.failures {
			caseConnector := "├── "
			if j == len(child.failures)-1 && len(child.children) == 0 {
				caseConnector = "└── "
			}
			fmt.Fprintln(f.out, prefix+indent+caseConnector+color.RedString("%s", failure.TestName))
		}
		f.printTreeNode(child, prefix+indent)
	}
}

// PrintCatalog prints the discovered classes as a tree. Without showAll only
// active classes and effective cases appear; with it every class and case is
// listed with its state. failed marks classes that failed in the last run.
func (f *Formatter) PrintCatalog(cat *catalog.Catalog, showCases, showAll bool, failed map[string]struct{}) {
	stats := cat.Stats()
	classes := cat.Active()
	if showAll {
		classes = cat.Classes()
	}

	fmt.Fprintln(f.out, color.GreenString("Found %d test class(es) in %s, %d active, %d effective case(s):\n",
		len(classes), f.config.GetTestPath(), stats.ActiveClasses, stats.EffectiveCases))

	for i, class := range classes {
		lastClass := i == len(classes)-1
		connector, indent := "├── ", "│   "
		if lastClass {
			connector, indent = "└── ", "    "
		}
		fmt.Fprintln(f.out, color.CyanString("%s%s", connector, class.Name())+classTags(class, failed))

		if showCases {
			f.printClassBody(cat, class, indent, showAll)
			if !lastClass {
				fmt.Fprintln(f.out)
			}
		}
	}
}

func (f *Formatter) printClassBody(cat *catalog.Catalog, class *catalog.TestClassUnit, indent string, showAll bool) {
	var lines []string
	for _, role := range domain.LifecycleRoles {
		if ref, ok := class.LifecycleMethod(role); ok {
			lines = append(lines, color.MagentaString("⚙ %s: %s", role, ref.QualifiedName()))
		}
	}

	cases := cat.EffectiveCases(class)
	if showAll {
		cases = class.Cases()
	}
	for _, tc := range cases {
		lines = append(lines, color.YellowString("%s", tc.Method())+caseTags(cat, tc))
	}

	if len(class.Cases()) == 0 {
		lines = append(lines, color.RedString("(no test cases found)"))
	}

	for j, line := range lines {
		connector := "├── "
		if j == len(lines)-1 {
			connector = "└── "
		}
		fmt.Fprintf(f.out, "%s%s%s\n", indent, connector, line)
	}
}

func classTags(class *catalog.TestClassUnit, failed map[string]struct{}) string {
	var tags []string
	if state := class.State(); state != catalog.StateActive {
		tags = append(tags, color.HiBlackString("[%s]", state))
	}
	if class.Ignored() {
		tags = append(tags, color.HiBlackString("[ignored]"))
	}
	if _, ok := failed[class.Name()]; ok {
		tags = append(tags, color.RedString("[F]"))
	}
	if d := class.Description(); d != "" {
		tags = append(tags, color.WhiteString("- %s", d))
	}
	if len(tags) == 0 {
		return ""
	}
	return " " + strings.Join(tags, " ")
}

func caseTags(cat *catalog.Catalog, tc *catalog.TestCaseUnit) string {
	var tags []string
	if cats := tc.Categories(); len(cats) > 0 {
		tags = append(tags, color.BlueString("{%s}", strings.Join(cats, ", ")))
	}
	if tc.Timeout() > 0 {
		tags = append(tags, color.WhiteString("(timeout %s)", tc.Timeout()))
	}
	switch {
	case tc.Ignored():
		tags = append(tags, color.HiBlackString("[ignored]"))
	case !tc.Enabled():
		tags = append(tags, color.HiBlackString("[disabled]"))
	case !cat.Effective(tc):
		tags = append(tags, color.HiBlackString("[class disabled]"))
	}
	if len(tags) == 0 {
		return ""
	}
	return " " + strings.Join(tags, " ")
}

// PrintPlan prints the invocation order of every active class
func (f *Formatter) PrintPlan(cat *catalog.Catalog) {
	for _, class := range cat.Active() {
		fmt.Fprintln(f.out, color.CyanString("%s", class.Name()))
		for i, step := range execution.BuildPlan(cat, class) {
			target := step.Ref.QualifiedName()
			if step.Kind == execution.StepCase {
				target = color.YellowString("%s", step.Case.Method())
			} else if step.Case != nil {
				target += color.HiBlackString(" (%s)", step.Case.Method())
			}
			fmt.Fprintf(f.out, "  %3d. %-15s %s\n", i+1, step.Kind, target)
		}
	}
}

// FailedClasses returns the classes with a recorded failure in output
func FailedClasses(output *domain.TestResultsOutput) map[string]struct{} {
	failed := make(map[string]struct{})
	if output == nil {
		return failed
	}
	for _, d := range output.Details {
		if !d.Resolved {
			failed[d.Class] = struct{}{}
		}
	}
	return failed
}
