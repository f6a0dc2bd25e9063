package postprocessors

import (
	"github.com/custodia-labs/lexground/internal/core/ports/driven"
	"github.com/custodia-labs/lexground/internal/postprocessors/chunker"
	"github.com/custodia-labs/lexground/internal/postprocessors/citations"
)

// RegisterDefaults registers the built-in chunker and citations processors.
func RegisterDefaults(r *Registry) error {
	if err := r.Register("chunker", StageSplit, buildChunker); err != nil {
		return err
	}
	return r.Register("citations", StageAnnotate, func(map[string]any) (driven.PostProcessor, error) {
		return citations.New(), nil
	})
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - max_bytes (int): Byte ceiling per chunk (default: 1000)
//   - min_bytes (int): Chunks shorter than this are dropped (default: 32)
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	if cfg != nil {
		if size := getIntFromConfig(cfg, "max_bytes"); size > 0 {
			opts = append(opts, chunker.WithMaxBytes(size))
		}
		if _, ok := cfg["min_bytes"]; ok {
			opts = append(opts, chunker.WithMinBytes(getIntFromConfig(cfg, "min_bytes")))
		}
	}

	return chunker.New(opts...), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
