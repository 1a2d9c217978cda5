package extraction

import "github.com/sells-group/regdoc-cli/internal/model"

// Structured reads line-anchored "Label: value" pairs from the bilingual
// label vocabulary. Confidence grows with the number of canonical labels
// found: case id, notice number, authority, cause and requested action.
type Structured struct {
	base
}

// canonicalKinds are the labels Structured confidence is tiered on.
var canonicalKinds = []fieldKind{kindCaseID, kindNotice, kindAuthority, kindCause, kindAction}

// NewStructured creates the label-line strategy.
func NewStructured() *Structured {
	s := &Structured{}
	s.base = base{name: NameStructured, s: layout{match: s.detect, extract: s.scan}}
	return s
}

func (s *Structured) detect(text string) bool {
	return hasLabelLine(text)
}

func (s *Structured) scan(text string) (*model.ExtractedFields, int) {
	f := &model.ExtractedFields{}
	kinds := scanLabelLines(f, text)
	if kinds.len() == 0 {
		return f, 0
	}
	switch n := kinds.count(canonicalKinds...); {
	case n == 0:
		return f, 40
	case n == 1:
		return f, 50
	case n == 2:
		return f, 70
	case n < len(canonicalKinds):
		return f, 90
	default:
		return f, 95
	}
}
