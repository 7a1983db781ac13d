package reasoner

import (
	"fmt"
	"strings"
	"sync"

	"github.com/stuckyb/ontobuilder/internal/logging"
	"github.com/stuckyb/ontobuilder/internal/owl"
)

// DefaultName is the reasoner selected when a terms file or configuration
// leaves the choice blank.
const DefaultName = "elk"

// knownNames are the reasoner choices accepted in configuration files and
// import terms tables. All of them run the same saturation; the names exist
// so term files written for other build pipelines keep working.
var knownNames = map[string]bool{
	"elk":    true,
	"hermit": true,
}

// NormalizeName canonicalizes a reasoner name. The empty string selects the
// default; unknown names are an error.
func NormalizeName(name string) (string, error) {
	clean := strings.ToLower(strings.TrimSpace(name))
	if clean == "" {
		return DefaultName, nil
	}
	if !knownNames[clean] {
		return "", fmt.Errorf("unrecognized reasoner type: %q", name)
	}
	return clean, nil
}

// Manager caches saturated reasoners so that repeated classification
// requests against the same ontology during a build are answered once.
type Manager struct {
	mu    sync.Mutex
	cache map[*owl.Ontology]*Reasoner
}

// NewManager returns an empty reasoner cache.
func NewManager() *Manager {
	return &Manager{cache: make(map[*owl.Ontology]*Reasoner)}
}

// Get returns a saturated reasoner for the ontology, building one on first
// use. The name is validated but does not change the saturation.
func (m *Manager) Get(ont *owl.Ontology, name string) (*Reasoner, error) {
	canonical, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.cache[ont]; ok {
		return r, nil
	}
	logging.ReasonerDebug("building %s reasoner for %s", canonical, ont.IRI())
	r, err := New(ont)
	if err != nil {
		return nil, err
	}
	m.cache[ont] = r
	return r, nil
}
