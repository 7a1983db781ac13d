package build

import (
	"context"
	"fmt"
	"strings"

	"github.com/stuckyb/ontobuilder/internal/config"
	"github.com/stuckyb/ontobuilder/internal/owl"
	"github.com/stuckyb/ontobuilder/internal/reasoner"
)

// Report summarizes the logical state of a compiled ontology.
type Report struct {
	Consistent              bool
	Coherent                bool
	UnsatisfiableClasses    []owl.IRI
	InconsistentIndividuals []owl.IRI
}

// OK reports whether the ontology passed both checks.
func (r *Report) OK() bool { return r.Consistent && r.Coherent }

// String renders the report for terminal output.
func (r *Report) String() string {
	if r.OK() {
		return "The ontology is consistent and coherent."
	}
	var b strings.Builder
	if !r.Coherent {
		fmt.Fprintf(&b, "The ontology is incoherent: %d unsatisfiable class(es).\n", len(r.UnsatisfiableClasses))
		for _, cls := range r.UnsatisfiableClasses {
			fmt.Fprintf(&b, "  unsatisfiable: %s\n", cls)
		}
	}
	if !r.Consistent {
		fmt.Fprintf(&b, "The ontology is inconsistent: %d individual(s) with contradictory types.\n", len(r.InconsistentIndividuals))
		for _, ind := range r.InconsistentIndividuals {
			fmt.Fprintf(&b, "  inconsistent: %s\n", ind)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// ErrorCheckTarget compiles the ontology and runs consistency and coherence
// checks over it. The check itself always runs; only the compile step is
// subject to out-of-date detection.
type ErrorCheckTarget struct {
	cfg      *config.Config
	ontology *OntologyTarget
}

// NewErrorCheckTarget returns the error-check target. The underlying
// compile keeps imports as declarations so the reasoner sees the full
// imports closure without altering the main build product.
func NewErrorCheckTarget(cfg *config.Config) *ErrorCheckTarget {
	return &ErrorCheckTarget{cfg: cfg, ontology: NewOntologyTarget(cfg, false, false)}
}

func (t *ErrorCheckTarget) Name() string { return "errorcheck" }

func (t *ErrorCheckTarget) Dependencies() []Target { return []Target{t.ontology} }

func (t *ErrorCheckTarget) IsBuildRequired() (bool, error) { return true, nil }

// Run classifies the compiled ontology and returns an "error report"
// product.
func (t *ErrorCheckTarget) Run(ctx context.Context, deps Products) (Products, error) {
	ont, ok := deps["ontology"].(*owl.Ontology)
	if !ok {
		return nil, fmt.Errorf("no compiled ontology available for error checking")
	}
	r, err := reasoner.NewManager().Get(ont, t.cfg.Reasoner.Name)
	if err != nil {
		return nil, err
	}
	report := &Report{
		Consistent:              r.IsConsistent(),
		Coherent:                r.IsCoherent(),
		UnsatisfiableClasses:    r.UnsatisfiableClasses(),
		InconsistentIndividuals: r.InconsistentIndividuals(),
	}
	return Products{"error report": report}, nil
}
