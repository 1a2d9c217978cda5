package extraction

import (
	"regexp"

	"github.com/sells-group/regdoc-cli/internal/model"
)

// Contextual finds fields in narrative prose through keyword windows
// instead of line-anchored labels.
type Contextual struct {
	base
}

// NewContextual creates the prose strategy.
func NewContextual() *Contextual {
	s := &Contextual{}
	s.base = base{name: NameContextual, s: layout{match: s.detect, extract: s.scan}}
	return s
}

var contextualPatterns = []struct {
	re   *regexp.Regexp
	kind fieldKind
}{
	{caseIDRe, kindCaseID},
	{noticeRe, kindNotice},
	{authorityRe, kindAuthority},
	{causeRe, kindCause},
	{actionRe, kindAction},
}

func (s *Contextual) detect(text string) bool {
	if contextKeywordRe.MatchString(text) {
		return true
	}
	for _, p := range contextualPatterns {
		if p.re.MatchString(text) {
			return true
		}
	}
	return false
}

func (s *Contextual) scan(text string) (*model.ExtractedFields, int) {
	f := &model.ExtractedFields{}
	kinds := kindCount{}
	for _, p := range contextualPatterns {
		if v, ok := firstGroup(p.re, text); ok && apply(f, p.kind, v) {
			kinds.add(p.kind)
		}
	}
	if amounts := FindAmounts(text); len(amounts) > 0 {
		for _, a := range amounts {
			f.AddAmount(a)
		}
		kinds.add(kindAmount)
	}
	if dates := FindDates(text); len(dates) > 0 {
		for _, d := range dates {
			f.AddDate(d)
		}
		kinds.add(kindDate)
	}
	return f, min(30+10*kinds.len(), 75)
}
