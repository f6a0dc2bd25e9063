package normalisers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexground/internal/core/domain"
)

type stubNormaliser struct {
	types    []string
	priority int
	title    string
}

func (s stubNormaliser) SupportedMIMETypes() []string { return s.types }
func (s stubNormaliser) Priority() int                { return s.priority }

func (s stubNormaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	return &domain.Document{Title: s.title, Content: string(raw.Content)}, nil
}

func TestMIMETypeForPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"brief.txt", "text/plain"},
		{"notes/MEMO.MD", "text/markdown"},
		{"opinion.htm", "text/html"},
		{"contract.docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{"scan.pdf", ""},
		{"noext", ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, MIMETypeForPath(tt.path))
		})
	}
}

func TestRegistry_HighestPriorityWins(t *testing.T) {
	r := NewRegistry()
	r.Register(stubNormaliser{types: []string{"text/plain"}, priority: 5, title: "low"})
	r.Register(stubNormaliser{types: []string{"text/plain"}, priority: 50, title: "high"})
	r.Register(stubNormaliser{types: []string{"text/plain"}, priority: 50, title: "late"})

	doc, err := r.Normalise(context.Background(), &domain.RawDocument{MIMEType: "text/plain", Content: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, "high", doc.Title)
}

func TestRegistry_Unsupported(t *testing.T) {
	r := NewDefaultRegistry()

	_, err := r.Normalise(context.Background(), &domain.RawDocument{MIMEType: "application/pdf"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	_, err = r.Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDefaultRegistry_CoversExtensions(t *testing.T) {
	r := NewDefaultRegistry()
	supported := r.SupportedMIMETypes()

	for _, ext := range SupportedExtensions() {
		assert.Contains(t, supported, MIMETypeForPath("file"+ext), ext)
	}
}

func TestRegistry_DetectMIMEType(t *testing.T) {
	r := NewRegistry()
	r.Register(stubNormaliser{types: []string{"text/plain"}, priority: 5})

	assert.Equal(t, "text/plain", r.DetectMIMEType("/tmp/notes.TXT"))
	assert.Empty(t, r.DetectMIMEType("/tmp/notes.md"), "no markdown normaliser registered")
	assert.Empty(t, r.DetectMIMEType("/tmp/scan.pdf"))
}
