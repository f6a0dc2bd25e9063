package postprocessors

import (
	"context"
	"errors"
	"testing"

	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/core/ports/driven"
)

type namedProcessor struct{ name string }

func (p *namedProcessor) Name() string { return p.name }
func (p *namedProcessor) Process(_ context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	return chunks, nil
}

func builderFor(name string) BuilderFunc {
	return func(map[string]any) (driven.PostProcessor, error) {
		return &namedProcessor{name: name}, nil
	}
}

func TestRegistry_RegisterAndBuild(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("splitter", StageSplit, builderFor("splitter")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	proc, err := r.Build("splitter", nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if proc.Name() != "splitter" {
		t.Errorf("expected splitter, got %q", proc.Name())
	}
	if stage, ok := r.Stage("splitter"); !ok || stage != StageSplit {
		t.Errorf("expected split stage, got %v %v", stage, ok)
	}
}

func TestRegistry_RegisterRejects(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("citations", StageAnnotate, builderFor("citations")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	tests := []struct {
		name    string
		proc    string
		builder BuilderFunc
	}{
		{"duplicate", "citations", builderFor("citations")},
		{"empty name", "", builderFor("x")},
		{"nil builder", "x", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Register(tt.proc, StageAnnotate, tt.builder)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestRegistry_BuildUnknownListsAvailable(t *testing.T) {
	r := NewRegistry()
	_ = r.Register("chunker", StageSplit, builderFor("chunker"))

	_, err := r.Build("stemmer", nil)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if got := err.Error(); got != `invalid input: unknown processor "stemmer" (available: [chunker])` {
		t.Errorf("unexpected message %q", got)
	}
}

func TestRegistry_NamesSorted(t *testing.T) {
	r := NewRegistry()
	if len(r.Names()) != 0 {
		t.Fatalf("expected no names, got %v", r.Names())
	}
	_ = r.Register("citations", StageAnnotate, builderFor("citations"))
	_ = r.Register("chunker", StageSplit, builderFor("chunker"))

	names := r.Names()
	if len(names) != 2 || names[0] != "chunker" || names[1] != "citations" {
		t.Errorf("expected [chunker citations], got %v", names)
	}
	if r.Has("stemmer") {
		t.Error("expected Has to be false for unregistered name")
	}
}

func TestStage_String(t *testing.T) {
	if StageSplit.String() != "split" || StageAnnotate.String() != "annotate" {
		t.Errorf("unexpected stage names %s %s", StageSplit, StageAnnotate)
	}
	if Stage(9).String() != "stage(9)" {
		t.Errorf("unexpected unknown stage name %s", Stage(9))
	}
}

func TestRegisterDefaults(t *testing.T) {
	r := NewRegistry()
	if err := RegisterDefaults(r); err != nil {
		t.Fatalf("RegisterDefaults failed: %v", err)
	}

	if stage, _ := r.Stage("chunker"); stage != StageSplit {
		t.Errorf("expected chunker to split, got %s", stage)
	}
	if stage, _ := r.Stage("citations"); stage != StageAnnotate {
		t.Errorf("expected citations to annotate, got %s", stage)
	}
	if err := RegisterDefaults(r); err == nil {
		t.Error("expected registering defaults twice to fail")
	}
}

func TestBuildChunker_Config(t *testing.T) {
	r := NewRegistry()
	if err := RegisterDefaults(r); err != nil {
		t.Fatalf("RegisterDefaults failed: %v", err)
	}

	for _, cfg := range []map[string]any{nil, {"max_bytes": 500, "min_bytes": int64(10)}} {
		proc, err := r.Build("chunker", cfg)
		if err != nil {
			t.Fatalf("Build chunker failed: %v", err)
		}
		if proc.Name() != "chunker" {
			t.Errorf("expected name 'chunker', got %q", proc.Name())
		}
	}
}

func TestGetIntFromConfig(t *testing.T) {
	tests := []struct {
		name     string
		cfg      map[string]any
		key      string
		expected int
	}{
		{"int value", map[string]any{"max_bytes": 100}, "max_bytes", 100},
		{"int64 from toml", map[string]any{"max_bytes": int64(200)}, "max_bytes", 200},
		{"float64 from json", map[string]any{"max_bytes": float64(300)}, "max_bytes", 300},
		{"string value", map[string]any{"max_bytes": "400"}, "max_bytes", 0},
		{"missing key", map[string]any{"min_bytes": 100}, "max_bytes", 0},
		{"nil config", nil, "max_bytes", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getIntFromConfig(tt.cfg, tt.key); got != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}
