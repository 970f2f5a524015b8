package cli

import "stp/internal/config"

// Flags holds command-line flags
type Flags struct {
	ConfigFile string
	Verbose    bool
	Processors int
	TestPath   string
	NameFilter string
	CaseFilter string
	Include    []string
	Exclude    []string
	TestCases  bool
	ShowPlan   bool
	ShowAll    bool
	FailFast   bool
	Publish    bool
	Fresh      bool
}

// ToConfigFlags converts CLI flags to config flags
func (f *Flags) ToConfigFlags() config.Flags {
	return config.Flags{
		ConfigFile: f.ConfigFile,
		Verbose:    f.Verbose,
		Processors: f.Processors,
		TestPath:   f.TestPath,
		NameFilter: f.NameFilter,
		CaseFilter: f.CaseFilter,
		Include:    append([]string(nil), f.Include...),
		Exclude:    append([]string(nil), f.Exclude...),
		TestCases:  f.TestCases,
		ShowPlan:   f.ShowPlan,
		ShowAll:    f.ShowAll,
		FailFast:   f.FailFast,
		Publish:    f.Publish,
		Fresh:      f.Fresh,
	}
}
