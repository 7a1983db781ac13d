// Package build implements the build targets of an ontology project and
// their orchestration: import modules, the compiled ontology, error checks,
// releases, and base-ontology maintenance. Targets declare dependencies;
// running a target runs its dependencies first and merges their build
// products.
package build

import (
	"context"
	"fmt"
)

// Products maps build product names to product values (file paths, loaded
// ontologies, reports). Product names must be unique across a target and
// its dependencies.
type Products map[string]interface{}

// Target is one buildable unit.
type Target interface {
	// Name identifies the target in errors and logs.
	Name() string

	// Dependencies returns the targets that must run first.
	Dependencies() []Target

	// IsBuildRequired reports whether this target itself is out of date,
	// ignoring dependencies.
	IsBuildRequired() (bool, error)

	// Run builds the target. deps holds the merged products of all
	// dependencies.
	Run(ctx context.Context, deps Products) (Products, error)
}

// BuildRequired reports whether a target or any of its transitive
// dependencies is out of date.
func BuildRequired(t Target) (bool, error) {
	required, err := t.IsBuildRequired()
	if err != nil {
		return false, err
	}
	if required {
		return true, nil
	}
	for _, dep := range t.Dependencies() {
		required, err := BuildRequired(dep)
		if err != nil {
			return false, err
		}
		if required {
			return true, nil
		}
	}
	return false, nil
}

// Runner executes target graphs, running each target at most once per
// invocation.
type Runner struct {
	done map[Target]Products
}

// NewRunner returns a Runner with an empty memo.
func NewRunner() *Runner {
	return &Runner{done: make(map[Target]Products)}
}

// Run builds a target after its dependencies and returns the merged
// products of the whole subgraph. Duplicate product names abort the build.
func (r *Runner) Run(ctx context.Context, t Target) (Products, error) {
	if products, ok := r.done[t]; ok {
		return products, nil
	}

	merged := make(Products)
	for _, dep := range t.Dependencies() {
		depProducts, err := r.Run(ctx, dep)
		if err != nil {
			return nil, err
		}
		for name, value := range depProducts {
			if existing, ok := merged[name]; ok {
				// Shared transitive dependencies legitimately surface the
				// same product twice.
				if existing == value {
					continue
				}
				return nil, fmt.Errorf(
					"unable to merge product %q returned from build target %s: duplicate product name",
					name, dep.Name())
			}
			merged[name] = value
		}
	}

	own, err := t.Run(ctx, merged)
	if err != nil {
		return nil, fmt.Errorf("build target %s failed: %w", t.Name(), err)
	}
	for name, value := range own {
		if _, ok := merged[name]; ok {
			return nil, fmt.Errorf(
				"build target %s returned a product name that duplicates one of its dependency's product names: %q",
				t.Name(), name)
		}
		merged[name] = value
	}

	r.done[t] = merged
	return merged, nil
}
