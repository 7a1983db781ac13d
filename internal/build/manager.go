package build

import (
	"fmt"
	"strings"

	"github.com/stuckyb/ontobuilder/internal/config"
)

// TargetFlags carries the command-line options that select build target
// variants.
type TargetFlags struct {
	MergeImports bool
	Reason       bool
	ReleaseDate  string
}

// taskInfo describes one buildable task for usage output.
type taskInfo struct {
	name string
	args string
	desc string
}

var tasks = []taskInfo{
	{"make", "imports", "build the project's import modules"},
	{"make", "ontology", "compile the ontology from the base document and term tables"},
	{"make", "release", "produce a dated release of the compiled ontology"},
	{"errorcheck", "", "check the compiled ontology for consistency and coherence"},
	{"update_base", "", "synchronize the base ontology's import declarations"},
}

// GetTarget maps a task name and argument to a build target.
func GetTarget(cfg *config.Config, task, arg string, flags TargetFlags) (Target, error) {
	switch task {
	case "make":
		switch strings.ToLower(arg) {
		case "imports":
			return NewImportsTarget(cfg), nil
		case "ontology", "":
			return NewOntologyTarget(cfg, flags.MergeImports, flags.Reason), nil
		case "release":
			return NewReleaseTarget(cfg, flags.ReleaseDate, flags.MergeImports, flags.Reason), nil
		default:
			return nil, fmt.Errorf("unrecognized build task %q\n%s", task+" "+arg, Usage())
		}
	case "errorcheck":
		return NewErrorCheckTarget(cfg), nil
	case "update_base":
		return NewUpdateBaseTarget(cfg), nil
	default:
		return nil, fmt.Errorf("unrecognized build task %q\n%s", task, Usage())
	}
}

// Usage lists the available build tasks.
func Usage() string {
	var b strings.Builder
	b.WriteString("Available build tasks:\n")
	for _, t := range tasks {
		name := t.name
		if t.args != "" {
			name += " " + t.args
		}
		fmt.Fprintf(&b, "  %-16s %s\n", name, t.desc)
	}
	return strings.TrimRight(b.String(), "\n")
}
