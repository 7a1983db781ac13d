// Package reasoner implements EL-style ontology classification on top of the
// Google Mangle Datalog engine. Ontology axioms are normalized to facts, a
// fixed rule program saturates the subsumption and role-successor relations,
// and the saturated store answers consistency, coherence, and subsumption
// queries.
package reasoner

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	_ "github.com/google/mangle/builtin"
	mengine "github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	"github.com/google/mangle/parse"
	"github.com/google/mangle/unionfind"
)

// Config holds Datalog engine configuration.
type Config struct {
	FactLimit    int  // maximum number of stored facts; 0 means unlimited
	QueryTimeout int  // seconds
	AutoEval     bool // re-evaluate rules after every fact batch
}

// DefaultConfig returns defaults suitable for ontology classification runs.
func DefaultConfig() Config {
	return Config{
		FactLimit:    2000000,
		QueryTimeout: 120,
		AutoEval:     false,
	}
}

// Engine wraps the Mangle engine: schema loading, fact insertion, program
// evaluation, and fact retrieval.
type Engine struct {
	config Config

	mu              sync.RWMutex
	store           factstore.ConcurrentFactStore
	baseStore       factstore.FactStoreWithRemove
	programInfo     *analysis.ProgramInfo
	queryContext    *mengine.QueryContext
	predicateIndex  map[string]ast.PredicateSym
	schemaFragments []parse.SourceUnit
	factCount       int
	autoEval        bool
}

// Fact is a single Datalog fact. All arguments in the reasoning program are
// strings (IRIs, expression keys, or introduced names).
type Fact struct {
	Predicate string
	Args      []string
}

// NewEngine creates an engine with an empty fact store.
func NewEngine(cfg Config) *Engine {
	baseStore := factstore.NewSimpleInMemoryStore()
	return &Engine{
		config:         cfg,
		baseStore:      baseStore,
		store:          factstore.NewConcurrentFactStore(baseStore),
		predicateIndex: make(map[string]ast.PredicateSym),
		autoEval:       cfg.AutoEval,
	}
}

// LoadSchemaString loads and compiles a Mangle program from a string.
func (e *Engine) LoadSchemaString(schema string) error {
	unit, err := parse.Unit(bytes.NewReader([]byte(schema)))
	if err != nil {
		return fmt.Errorf("failed to parse rule program: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.schemaFragments = append(e.schemaFragments, unit)
	if err := e.rebuildProgramLocked(); err != nil {
		return fmt.Errorf("failed to analyze rule program: %w", err)
	}
	return nil
}

// rebuildProgramLocked analyzes all loaded schema fragments and refreshes
// the predicate index.
func (e *Engine) rebuildProgramLocked() error {
	if len(e.schemaFragments) == 0 {
		return fmt.Errorf("no rule program loaded")
	}

	var clauses []ast.Clause
	var decls []ast.Decl
	for _, fragment := range e.schemaFragments {
		clauses = append(clauses, fragment.Clauses...)
		decls = append(decls, fragment.Decls...)
	}

	programInfo, err := analysis.AnalyzeOneUnit(parse.SourceUnit{Clauses: clauses, Decls: decls}, nil)
	if err != nil {
		return err
	}

	e.programInfo = programInfo
	e.predicateIndex = make(map[string]ast.PredicateSym, len(programInfo.Decls))
	predToDecl := make(map[ast.PredicateSym]*ast.Decl, len(programInfo.Decls))
	for sym, decl := range programInfo.Decls {
		e.predicateIndex[sym.Symbol] = sym
		predToDecl[sym] = decl
	}

	predToRules := make(map[ast.PredicateSym][]ast.Clause)
	for _, clause := range programInfo.Rules {
		predToRules[clause.Head.Predicate] = append(predToRules[clause.Head.Predicate], clause)
	}

	e.queryContext = &mengine.QueryContext{
		PredToRules: predToRules,
		PredToDecl:  predToDecl,
		Store:       e.store,
	}
	return nil
}

// AddFact inserts a single fact.
func (e *Engine) AddFact(predicate string, args ...string) error {
	return e.AddFacts([]Fact{{Predicate: predicate, Args: args}})
}

// AddFacts inserts a batch of facts. With AutoEval enabled the rule program
// is re-evaluated after the batch.
func (e *Engine) AddFacts(facts []Fact) error {
	if len(facts) == 0 {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.programInfo == nil {
		return fmt.Errorf("no rule program loaded; call LoadSchemaString first")
	}

	for _, fact := range facts {
		if err := e.insertFactLocked(fact); err != nil {
			return err
		}
	}

	if e.autoEval {
		_, err := mengine.EvalProgramWithStats(e.programInfo, e.store)
		return err
	}
	return nil
}

func (e *Engine) insertFactLocked(fact Fact) error {
	if e.config.FactLimit > 0 && e.factCount >= e.config.FactLimit {
		return fmt.Errorf("fact limit exceeded: %d", e.config.FactLimit)
	}

	sym, ok := e.predicateIndex[fact.Predicate]
	if !ok {
		return fmt.Errorf("predicate %s is not declared in the rule program", fact.Predicate)
	}
	if len(fact.Args) != sym.Arity {
		return fmt.Errorf("predicate %s expects %d args, got %d", fact.Predicate, sym.Arity, len(fact.Args))
	}

	args := make([]ast.BaseTerm, len(fact.Args))
	for i, raw := range fact.Args {
		args[i] = ast.String(raw)
	}

	if e.store.Add(ast.Atom{Predicate: sym, Args: args}) {
		e.factCount++
	}
	return nil
}

// Evaluate runs the rule program to fixpoint against the current store.
func (e *Engine) Evaluate() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.programInfo == nil {
		return fmt.Errorf("no rule program loaded")
	}
	_, err := mengine.EvalProgramWithStats(e.programInfo, e.store)
	return err
}

// GetFacts retrieves all stored and derived facts for a predicate.
func (e *Engine) GetFacts(predicate string) ([]Fact, error) {
	e.mu.RLock()
	sym, ok := e.predicateIndex[predicate]
	e.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("predicate %s is not declared", predicate)
	}

	var results []Fact
	err := e.store.GetFacts(ast.NewQuery(sym), func(atom ast.Atom) error {
		args := make([]string, len(atom.Args))
		for i, arg := range atom.Args {
			if c, ok := arg.(ast.Constant); ok {
				args[i] = c.Symbol
			} else {
				args[i] = arg.String()
			}
		}
		results = append(results, Fact{Predicate: predicate, Args: args})
		return nil
	})
	return results, err
}

// Query evaluates a single-atom query in Mangle notation, e.g.
// `sub("http://...#leaf", X)`. Variable bindings come back as one map per
// result row.
func (e *Engine) Query(ctx context.Context, query string) ([]map[string]string, error) {
	shape, err := parseQueryShape(query)
	if err != nil {
		return nil, err
	}

	e.mu.RLock()
	queryContext := e.queryContext
	if queryContext == nil {
		e.mu.RUnlock()
		return nil, fmt.Errorf("no rule program loaded; cannot execute query")
	}
	decl, ok := queryContext.PredToDecl[shape.atom.Predicate]
	if !ok {
		e.mu.RUnlock()
		return nil, fmt.Errorf("predicate %s is not declared", shape.atom.Predicate.Symbol)
	}
	if len(decl.Modes()) == 0 {
		e.mu.RUnlock()
		return nil, fmt.Errorf("predicate %s has no modes declared", shape.atom.Predicate.Symbol)
	}
	mode := decl.Modes()[0]
	e.mu.RUnlock()

	timeout := 5 * time.Second
	if e.config.QueryTimeout > 0 {
		timeout = time.Duration(e.config.QueryTimeout) * time.Second
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	resultChan := make(chan []map[string]string, 1)
	errChan := make(chan error, 1)

	go func() {
		var results []map[string]string
		err := queryContext.EvalQuery(shape.atom, mode, unionfind.New(), func(fact ast.Atom) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			row := make(map[string]string, len(shape.variables))
			for _, binding := range shape.variables {
				if binding.Index >= len(fact.Args) {
					continue
				}
				if c, ok := fact.Args[binding.Index].(ast.Constant); ok {
					row[binding.Name] = c.Symbol
				}
			}
			results = append(results, row)
			return nil
		})
		if err != nil {
			errChan <- err
			return
		}
		resultChan <- results
	}()

	select {
	case results := <-resultChan:
		return results, nil
	case err := <-errChan:
		return nil, err
	case <-ctx.Done():
		return nil, fmt.Errorf("query execution timed out after %v: %w", time.Since(start), ctx.Err())
	}
}

// FactCount returns the number of explicitly inserted facts.
func (e *Engine) FactCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.factCount
}

// Clear removes all facts from the store, keeping the loaded rule program.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.baseStore = factstore.NewSimpleInMemoryStore()
	e.store = factstore.NewConcurrentFactStore(e.baseStore)
	e.factCount = 0
	if e.queryContext != nil {
		e.queryContext.Store = e.store
	}
}

type queryVariable struct {
	Name  string
	Index int
}

type queryShape struct {
	atom      ast.Atom
	variables []queryVariable
}

func parseQueryShape(query string) (*queryShape, error) {
	clean := strings.TrimSpace(query)
	if clean == "" {
		return nil, fmt.Errorf("empty query")
	}
	if strings.HasPrefix(clean, "?") {
		clean = strings.TrimSpace(clean[1:])
	}
	clean = strings.TrimSuffix(clean, ".")

	atom, err := parse.Atom(clean)
	if err != nil {
		return nil, fmt.Errorf("failed to parse query %q: %w", query, err)
	}

	variables := make([]queryVariable, 0, len(atom.Args))
	for idx, arg := range atom.Args {
		if variable, ok := arg.(ast.Variable); ok {
			variables = append(variables, queryVariable{Name: variable.Symbol, Index: idx})
		}
	}
	return &queryShape{atom: atom, variables: variables}, nil
}
