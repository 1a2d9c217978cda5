// Package extraction pulls structured fields out of recognized document text
// with several independent strategies and arbitrates between them.
package extraction

import (
	"context"
	"strings"

	"github.com/sells-group/regdoc-cli/internal/model"
)

// Strategy names.
const (
	NameStructured = "structured"
	NameContextual = "contextual"
	NameTableBased = "table_based"
	NameSearch     = "search"
	NameComplement = "complement"
)

// Strategy extracts fields from text and reports how confident it is.
// For every input: Confidence is 0 exactly when CanExtract is false and
// exactly when Extract returns nil fields. Blank text is never an error.
type Strategy interface {
	Name() string
	CanExtract(ctx context.Context, text string) (bool, error)
	Confidence(ctx context.Context, text string) (int, error)
	Extract(ctx context.Context, text string) (*model.ExtractedFields, error)
}

// Evaluator is implemented by strategies that score and extract in one
// pass. The orchestrator keeps the ranking pass's fields instead of
// scanning the text again.
type Evaluator interface {
	Evaluate(ctx context.Context, text string) (*model.ExtractedFields, int, error)
}

// scanner is the per-strategy heuristic behind base. It returns nil fields
// when the text does not carry the strategy's layout signals.
type scanner interface {
	scan(ctx context.Context, text string) (*model.ExtractedFields, int, error)
}

// layout is a scanner built from a cheap signal check and a context-free scan.
type layout struct {
	match   func(text string) bool
	extract func(text string) (*model.ExtractedFields, int)
}

func (l layout) scan(_ context.Context, text string) (*model.ExtractedFields, int, error) {
	if !l.match(text) {
		return nil, 0, nil
	}
	f, conf := l.extract(text)
	return f, conf, nil
}

// base implements Strategy over a scanner and keeps the three methods
// consistent with one another.
type base struct {
	name string
	s    scanner
}

func (b *base) Name() string { return b.name }

func (b *base) CanExtract(ctx context.Context, text string) (bool, error) {
	_, conf, err := b.Evaluate(ctx, text)
	return conf > 0, err
}

func (b *base) Confidence(ctx context.Context, text string) (int, error) {
	_, conf, err := b.Evaluate(ctx, text)
	return conf, err
}

func (b *base) Extract(ctx context.Context, text string) (*model.ExtractedFields, error) {
	f, _, err := b.Evaluate(ctx, text)
	return f, err
}

// Evaluate returns the fields and confidence of one scan. Confidence is 0
// exactly when fields is nil.
func (b *base) Evaluate(ctx context.Context, text string) (*model.ExtractedFields, int, error) {
	if err := model.CheckCancelled(ctx); err != nil {
		return nil, 0, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, 0, nil
	}
	raw, conf, err := b.s.scan(ctx, text)
	if err != nil {
		return nil, 0, err
	}
	if raw == nil {
		return nil, 0, nil
	}
	fields := merge(raw)
	if fields.IsEmpty() {
		return nil, 0, nil
	}
	return fields, min(max(conf, 1), 100), nil
}

// kindCount tracks which field kinds a scan produced.
type kindCount map[fieldKind]struct{}

func (k kindCount) add(kind fieldKind) { k[kind] = struct{}{} }
func (k kindCount) len() int           { return len(k) }

// count reports how many of kinds were produced.
func (k kindCount) count(kinds ...fieldKind) int {
	n := 0
	for _, kind := range kinds {
		if _, ok := k[kind]; ok {
			n++
		}
	}
	return n
}
