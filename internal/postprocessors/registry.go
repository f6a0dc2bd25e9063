package postprocessors

import (
	"fmt"
	"maps"
	"slices"

	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/core/ports/driven"
)

// BuilderFunc creates a PostProcessor from its [pipeline.<name>] table.
type BuilderFunc func(cfg map[string]any) (driven.PostProcessor, error)

// Stage says where a processor may run in the pipeline.
type Stage int

const (
	// StageSplit processors create chunks from the document text. A
	// pipeline has exactly one, and it runs first.
	StageSplit Stage = iota

	// StageAnnotate processors enrich existing chunks (citations,
	// metadata) and never see a nil chunk slice.
	StageAnnotate
)

func (s Stage) String() string {
	switch s {
	case StageSplit:
		return "split"
	case StageAnnotate:
		return "annotate"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

type registration struct {
	stage   Stage
	builder BuilderFunc
}

// Registry maps processor names to builders and stages.
type Registry struct {
	entries map[string]registration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]registration)}
}

// Register adds a builder under name. Names are unique.
func (r *Registry) Register(name string, stage Stage, builder BuilderFunc) error {
	if name == "" || builder == nil {
		return fmt.Errorf("%w: processor needs a name and a builder", domain.ErrInvalidInput)
	}
	if _, dup := r.entries[name]; dup {
		return fmt.Errorf("%w: processor %q already registered", domain.ErrInvalidInput, name)
	}
	r.entries[name] = registration{stage: stage, builder: builder}
	return nil
}

// Build creates the named processor with cfg.
func (r *Registry) Build(name string, cfg map[string]any) (driven.PostProcessor, error) {
	e, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown processor %q (available: %v)", domain.ErrInvalidInput, name, r.Names())
	}
	return e.builder(cfg)
}

// Stage returns the stage a processor was registered with.
func (r *Registry) Stage(name string) (Stage, bool) {
	e, ok := r.entries[name]
	return e.stage, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.entries[name]
	return ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.entries))
}

// checkOrder rejects pipelines whose first processor does not split the
// document, or that split more than once.
func (r *Registry) checkOrder(names []string) error {
	if len(names) == 0 {
		return fmt.Errorf("%w: pipeline has no processors", domain.ErrInvalidInput)
	}
	for i, name := range names {
		stage, ok := r.Stage(name)
		if !ok {
			continue // Build reports unknown names.
		}
		if i == 0 && stage != StageSplit {
			return fmt.Errorf("%w: pipeline must start with a split processor, got %s (%s)",
				domain.ErrInvalidInput, name, stage)
		}
		if i > 0 && stage == StageSplit {
			return fmt.Errorf("%w: split processor %s at position %d; only the first processor may split",
				domain.ErrInvalidInput, name, i+1)
		}
	}
	return nil
}
