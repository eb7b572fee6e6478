package postprocessors

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driven"
)

// DefaultSeparators are tried in order: paragraph, line, word, character.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// ChunkConfig configures the chunker behavior.
// Sizes are counted in characters (runes).
type ChunkConfig struct {
	// ChunkSize is the maximum characters per chunk
	ChunkSize int

	// Overlap is the character overlap between consecutive chunks
	Overlap int

	// Separators are the split points in priority order.
	// An empty string means a hard character cut.
	Separators []string
}

// DefaultChunkConfig returns the retrieval defaults.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		ChunkSize:  1000,
		Overlap:    500,
		Separators: DefaultSeparators,
	}
}

// Validate checks that the sizes are usable.
func (c ChunkConfig) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidInput, c.ChunkSize)
	}
	if c.Overlap < 0 || c.Overlap >= c.ChunkSize {
		return fmt.Errorf("%w: overlap %d must be in [0, %d)", domain.ErrInvalidInput, c.Overlap, c.ChunkSize)
	}
	return nil
}

// Chunker splits content recursively on a priority list of separators and
// merges the pieces back into windows of at most ChunkSize characters,
// carrying up to Overlap trailing characters into the next window.
// Separators stay attached to the start of the piece that follows them.
// This is the first processor in the pipeline (Order = 0).
type Chunker struct {
	config ChunkConfig
}

// Verify interface compliance
var _ driven.PostProcessor = (*Chunker)(nil)

// NewChunker creates a new chunker with the given config.
// Out of range values fall back to the defaults.
func NewChunker(config ChunkConfig) *Chunker {
	def := DefaultChunkConfig()
	if config.ChunkSize <= 0 {
		config.ChunkSize = def.ChunkSize
	}
	if config.Overlap < 0 || config.Overlap >= config.ChunkSize {
		config.Overlap = config.ChunkSize / 2
	}
	if len(config.Separators) == 0 {
		config.Separators = def.Separators
	}
	return &Chunker{config: config}
}

// Process splits each input chunk and renumbers the results.
// Whitespace-only output is dropped.
func (c *Chunker) Process(chunks []domain.Chunk) []domain.Chunk {
	var result []domain.Chunk

	for _, chunk := range chunks {
		root := piece{text: chunk.Content, start: chunk.StartOffset, size: utf8.RuneCountInString(chunk.Content)}
		for _, p := range c.split(root, c.config.Separators) {
			result = append(result, domain.Chunk{
				Position:    len(result),
				Content:     p.text,
				StartOffset: p.start,
				EndOffset:   p.start + p.size,
			})
		}
	}

	return result
}

// Name returns the processor name.
func (c *Chunker) Name() string {
	return "chunker"
}

// Order returns 0 - chunker should be first.
func (c *Chunker) Order() int {
	return 0
}

// piece is a contiguous run of the source text with its rune offset.
type piece struct {
	text  string
	start int
	size  int
}

func (c *Chunker) split(p piece, separators []string) []piece {
	separator := separators[len(separators)-1]
	var rest []string
	for i, s := range separators {
		if s == "" {
			separator = s
			break
		}
		if strings.Contains(p.text, s) {
			separator = s
			rest = separators[i+1:]
			break
		}
	}

	var (
		final []piece
		good  []piece
	)
	for _, s := range splitKeepingSeparator(p, separator) {
		if s.size < c.config.ChunkSize {
			good = append(good, s)
			continue
		}
		if len(good) > 0 {
			final = append(final, c.merge(good)...)
			good = nil
		}
		if len(rest) == 0 {
			if t, ok := trim(s); ok {
				final = append(final, t)
			}
		} else {
			final = append(final, c.split(s, rest)...)
		}
	}
	if len(good) > 0 {
		final = append(final, c.merge(good)...)
	}
	return final
}

// merge packs consecutive pieces into windows. When a window is full it is
// emitted and pieces are dropped from its front until at most Overlap
// characters remain to seed the next one.
func (c *Chunker) merge(splits []piece) []piece {
	var (
		docs    []piece
		current []piece
		total   int
	)
	for _, d := range splits {
		if total+d.size > c.config.ChunkSize && len(current) > 0 {
			if doc, ok := join(current); ok {
				docs = append(docs, doc)
			}
			for len(current) > 0 && (total > c.config.Overlap || total+d.size > c.config.ChunkSize) {
				total -= current[0].size
				current = current[1:]
			}
		}
		current = append(current, d)
		total += d.size
	}
	if doc, ok := join(current); ok {
		docs = append(docs, doc)
	}
	return docs
}

// splitKeepingSeparator splits on sep, prefixing every piece after the
// first with the separator. An empty sep splits into single characters.
func splitKeepingSeparator(p piece, sep string) []piece {
	var parts []string
	if sep == "" {
		parts = make([]string, 0, p.size)
		for _, r := range p.text {
			parts = append(parts, string(r))
		}
	} else {
		raw := strings.Split(p.text, sep)
		parts = make([]string, 0, len(raw))
		parts = append(parts, raw[0])
		for _, r := range raw[1:] {
			parts = append(parts, sep+r)
		}
	}

	out := make([]piece, 0, len(parts))
	offset := p.start
	for _, s := range parts {
		if s == "" {
			continue
		}
		n := utf8.RuneCountInString(s)
		out = append(out, piece{text: s, start: offset, size: n})
		offset += n
	}
	return out
}

// join concatenates contiguous pieces and trims surrounding whitespace.
func join(pieces []piece) (piece, bool) {
	if len(pieces) == 0 {
		return piece{}, false
	}
	var b strings.Builder
	size := 0
	for _, p := range pieces {
		b.WriteString(p.text)
		size += p.size
	}
	return trim(piece{text: b.String(), start: pieces[0].start, size: size})
}

func trim(p piece) (piece, bool) {
	left := strings.TrimLeftFunc(p.text, unicode.IsSpace)
	lead := p.size - utf8.RuneCountInString(left)
	text := strings.TrimRightFunc(left, unicode.IsSpace)
	if text == "" {
		return piece{}, false
	}
	return piece{text: text, start: p.start + lead, size: utf8.RuneCountInString(text)}, true
}
