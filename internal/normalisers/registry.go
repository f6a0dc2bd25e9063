package normalisers

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/core/ports/driven"
	"github.com/custodia-labs/lexground/internal/normalisers/docx"
	"github.com/custodia-labs/lexground/internal/normalisers/html"
	"github.com/custodia-labs/lexground/internal/normalisers/markdown"
	"github.com/custodia-labs/lexground/internal/normalisers/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// extensionMIMETypes maps supported file extensions to MIME types.
var extensionMIMETypes = map[string]string{
	".txt":      "text/plain",
	".text":     "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".html":     "text/html",
	".htm":      "text/html",
	".xhtml":    "application/xhtml+xml",
	".docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// MIMETypeForPath returns the MIME type for a file path, or "" if the
// extension is not supported.
func MIMETypeForPath(path string) string {
	return extensionMIMETypes[strings.ToLower(filepath.Ext(path))]
}

// SupportedExtensions returns the file extensions that can be ingested.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(extensionMIMETypes))
	for ext := range extensionMIMETypes {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Registry holds normalisers and selects one per document.
type Registry struct {
	mu          sync.RWMutex
	normalisers []driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// NewDefaultRegistry returns a registry with every built-in format.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(docx.New())
	return r
}

// Register adds a normaliser.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.normalisers = append(r.normalisers, n)
}

// Normalise converts raw using the highest-priority matching normaliser.
// Ties go to the earliest registered.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: raw document is nil", domain.ErrInvalidInput)
	}

	n := r.lookup(raw.MIMEType)
	if n == nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, raw.MIMEType)
	}
	return n.Normalise(ctx, raw)
}

// SupportedMIMETypes returns all MIME types with a registered normaliser.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	var types []string
	for _, n := range r.normalisers {
		for _, mt := range n.SupportedMIMETypes() {
			if _, ok := seen[mt]; ok {
				continue
			}
			seen[mt] = struct{}{}
			types = append(types, mt)
		}
	}
	sort.Strings(types)
	return types
}

// DetectMIMEType returns the MIME type for path if a registered
// normaliser handles it.
func (r *Registry) DetectMIMEType(path string) string {
	mt := MIMETypeForPath(path)
	if mt == "" || r.lookup(mt) == nil {
		return ""
	}
	return mt
}

func (r *Registry) lookup(mimeType string) driven.Normaliser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best driven.Normaliser
	for _, n := range r.normalisers {
		for _, mt := range n.SupportedMIMETypes() {
			if mt != mimeType {
				continue
			}
			if best == nil || n.Priority() > best.Priority() {
				best = n
			}
			break
		}
	}
	return best
}
