// Package analysis implements the analysis pipeline engine and the
// scoring & lead-status mapper. Analyzers live in a registry — a map
// category -> analyzer-value carrying metadata plus a function pointer,
// scanned and filtered at selection time — rather than behind dynamic
// dispatch.
package analysis

import (
	"context"
	"sort"

	"github.com/ignite/outreach-orchestrator/internal/domain"
)

// Outcome is the result of running one Analyzer against a Lead.
type Outcome struct {
	Success      bool
	Issues       []domain.Issue
	RawData      map[string]interface{}
	Score        int
	ErrorMessage string
}

// Func is the stateless analysis function an Analyzer wraps. Extractors
// and the concrete per-category logic live outside this repo; only the
// contract and the engine that drives it live here.
type Func func(ctx context.Context, lead domain.Lead) (Outcome, error)

// Analyzer is one registered, stateless unit of analysis.
type Analyzer struct {
	Category    string
	Priority    int
	IsUniversal bool
	Industry    string // ignored when IsUniversal
	Run         Func
}

// Supports reports whether this Analyzer owns the given category.
func (a Analyzer) Supports(category string) bool {
	return a.Category == category
}

// Registry is the full set of registered analyzers, keyed by category.
type Registry struct {
	analyzers map[string]Analyzer
}

// NewRegistry builds an empty registry; call Register to populate it.
func NewRegistry() *Registry {
	return &Registry{analyzers: make(map[string]Analyzer)}
}

// Register adds or replaces the analyzer for its category.
func (r *Registry) Register(a Analyzer) {
	r.analyzers = cloneAnalyzers(r.analyzers)
	r.analyzers[a.Category] = a
}

func cloneAnalyzers(src map[string]Analyzer) map[string]Analyzer {
	dst := make(map[string]Analyzer, len(src)+1)
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// All returns every registered analyzer, category sorted for determinism.
func (r *Registry) All() []Analyzer {
	out := make([]Analyzer, 0, len(r.analyzers))
	for _, a := range r.analyzers {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// Get returns the analyzer registered for category, if any.
func (r *Registry) Get(category string) (Analyzer, bool) {
	a, ok := r.analyzers[category]
	return a, ok
}
