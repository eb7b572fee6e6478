package extractors

import (
	"context"
	"testing"
)

type mockExtractor struct {
	name     string
	types    []string
	priority int
}

func (m *mockExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	return string(data) + "-" + m.name, nil
}

func (m *mockExtractor) SupportedTypes() []string {
	return m.types
}

func (m *mockExtractor) Priority() int {
	return m.priority
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockExtractor{name: "test", types: []string{"text/plain"}, priority: 50})

	types := r.List()
	if len(types) != 1 {
		t.Fatalf("expected 1 type, got %d", len(types))
	}
	if types[0] != "text/plain" {
		t.Errorf("expected text/plain, got %s", types[0])
	}
}

func TestRegistry_GetByPriority(t *testing.T) {
	r := NewRegistry()
	low := &mockExtractor{name: "low", types: []string{"*/*"}, priority: 1}
	high := &mockExtractor{name: "high", types: []string{"application/pdf"}, priority: 90}
	r.Register(low)
	r.Register(high)

	if got := r.Get("application/pdf"); got != high {
		t.Errorf("expected high priority extractor, got %v", got)
	}
	if got := r.Get("image/png"); got != low {
		t.Errorf("expected wildcard fallback, got %v", got)
	}
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockExtractor{name: "pdf", types: []string{"application/pdf"}, priority: 50})

	if got := r.Get("text/html"); got != nil {
		t.Errorf("expected nil for unregistered type, got %v", got)
	}
}

func TestMatchesMIMEType(t *testing.T) {
	tests := []struct {
		supported []string
		mimeType  string
		want      bool
	}{
		{[]string{"application/pdf"}, "application/pdf", true},
		{[]string{"application/pdf"}, "APPLICATION/PDF", true},
		{[]string{"application/pdf"}, "application/pdf; charset=binary", true},
		{[]string{"application/*"}, "application/pdf", true},
		{[]string{"application/pdf"}, "text/plain", false},
		{[]string{"*/*"}, "anything/else", true},
	}

	for _, tt := range tests {
		t.Run(tt.mimeType, func(t *testing.T) {
			if got := matchesMIMEType(tt.supported, tt.mimeType); got != tt.want {
				t.Errorf("matchesMIMEType(%v, %q) = %v, want %v", tt.supported, tt.mimeType, got, tt.want)
			}
		})
	}
}

func TestMIMETypeForFilename(t *testing.T) {
	tests := map[string]string{
		"report.pdf":      MIMETypePDF,
		"REPORT.PDF":      MIMETypePDF,
		"scan.Pdf":        MIMETypePDF,
		"notes.txt":       "application/octet-stream",
		"pdf":             "application/octet-stream",
		"archive.pdf.zip": "application/octet-stream",
	}

	for name, want := range tests {
		if got := MIMETypeForFilename(name); got != want {
			t.Errorf("MIMETypeForFilename(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestRegistry_MIMETypeSelectsPDFExtractor(t *testing.T) {
	r := DefaultRegistry()

	if e := r.Get(r.MIMEType("Quarterly Report.PDF")); e == nil {
		t.Error("expected the PDF extractor for a .PDF filename")
	}
	if e := r.Get(r.MIMEType("notes.txt")); e != nil {
		t.Errorf("expected no extractor for a .txt filename, got %T", e)
	}
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()

	e := r.Get(MIMETypePDF)
	if e == nil {
		t.Fatal("expected PDF extractor to be registered")
	}
	if _, ok := e.(*PDFExtractor); !ok {
		t.Errorf("expected *PDFExtractor, got %T", e)
	}
}
