package extraction

import (
	"context"

	"github.com/sells-group/regdoc-cli/internal/compare"
	"github.com/sells-group/regdoc-cli/internal/model"
)

// crossReferences mark documents that point elsewhere for their details.
var crossReferences = []string{
	"as stated above",
	"as mentioned above",
	"as set forth above",
	"referred to above",
	"per attached annex",
	"see attached annex",
	"in the attached annex",
	"según lo señalado",
	"lo antes señalado",
	"previamente citado",
	"conforme al anexo",
	"de acuerdo con el anexo",
	"en términos del anexo",
}

type phraseScope int

const (
	// scopeSentence takes the whole sentence around the phrase.
	scopeSentence phraseScope = iota
	// scopeAfter takes the text after the phrase up to the sentence end.
	scopeAfter
)

type searchPhrase struct {
	phrase string
	kind   fieldKind
	scope  phraseScope
}

// phraseCatalog lists legal and administrative fragments and the field the
// text around them feeds.
var phraseCatalog = []searchPhrase{
	{"expediente número", kindCaseID, scopeAfter},
	{"case number", kindCaseID, scopeAfter},
	{"oficio número", kindNotice, scopeAfter},
	{"notice number", kindNotice, scopeAfter},
	{"autoridad requirente", kindAuthority, scopeAfter},
	{"requesting authority", kindAuthority, scopeAfter},
	{"embargo precautorio", kindCause, scopeSentence},
	{"precautionary seizure", kindCause, scopeSentence},
	{"crédito fiscal", kindCause, scopeSentence},
	{"tax liability", kindCause, scopeSentence},
	{"aseguramiento de cuentas", kindAction, scopeSentence},
	{"account freeze", kindAction, scopeSentence},
	{"desbloqueo de cuentas", kindAction, scopeSentence},
	{"release of funds", kindAction, scopeSentence},
	{"transferencia de fondos", kindAction, scopeSentence},
	{"transfer of funds", kindAction, scopeSentence},
	{"por la cantidad de", kindAmount, scopeAfter},
	{"in the amount of", kindAmount, scopeAfter},
	{"de fecha", kindDate, scopeAfter},
	{"dated", kindDate, scopeAfter},
}

// Search locates known phrases by fuzzy match and lifts the surrounding
// context into fields. It only engages when the document cross-references
// other material.
type Search struct {
	base
	threshold float64
}

// NewSearch creates the phrase-search strategy. A threshold outside (0,1]
// uses compare.DefaultPhraseThreshold.
func NewSearch(threshold float64) *Search {
	if threshold <= 0 || threshold > 1 {
		threshold = compare.DefaultPhraseThreshold
	}
	s := &Search{threshold: threshold}
	s.base = base{name: NameSearch, s: s}
	return s
}

func (s *Search) scan(ctx context.Context, text string) (*model.ExtractedFields, int, error) {
	searcher := compare.NewSearcher(text)
	referenced := false
	for _, marker := range crossReferences {
		_, ok, err := searcher.Find(ctx, marker, s.threshold)
		if err != nil {
			return nil, 0, err
		}
		if ok {
			referenced = true
			break
		}
	}
	if !referenced {
		return nil, 0, nil
	}

	f := &model.ExtractedFields{}
	kinds := kindCount{}
	for _, p := range phraseCatalog {
		m, ok, err := searcher.Find(ctx, p.phrase, s.threshold)
		if err != nil {
			return nil, 0, err
		}
		if ok && applyContext(f, p, text, m) {
			kinds.add(p.kind)
		}
	}
	return f, min(40+10*kinds.len(), 80), nil
}

func applyContext(f *model.ExtractedFields, p searchPhrase, text string, m compare.Match) bool {
	after := text[m.End():nextBoundary(text, m.End())]
	switch p.kind {
	case kindCaseID, kindNotice:
		tok, ok := firstToken(after)
		return ok && apply(f, p.kind, tok)
	case kindAmount, kindDate:
		return apply(f, p.kind, after)
	}

	if p.scope == scopeSentence {
		sentence := text[prevBoundary(text, m.Start):nextBoundary(text, m.End())]
		return apply(f, p.kind, sentence)
	}
	if v := cleanValue(after); v != "" {
		return apply(f, p.kind, v)
	}
	return apply(f, p.kind, m.Text)
}

func firstToken(s string) (string, bool) {
	tok := idTokenRe.FindString(s)
	return tok, tok != ""
}
