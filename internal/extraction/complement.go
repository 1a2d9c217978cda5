package extraction

import "github.com/sells-group/regdoc-cli/internal/model"

// Complement runs many shallow signals at once (label lines, identifiers,
// money, dates, table rows and narrative markers). It covers more layouts
// than any single strategy with less depth, which makes it a useful second
// opinion.
type Complement struct {
	base
}

// NewComplement creates the aggregate strategy.
func NewComplement() *Complement {
	s := &Complement{}
	s.base = base{name: NameComplement, s: layout{match: s.detect, extract: s.scan}}
	return s
}

func (s *Complement) detect(text string) bool {
	return hasLabelLine(text) ||
		caseIDRe.MatchString(text) ||
		noticeRe.MatchString(text) ||
		narrativeRe.MatchString(text) ||
		len(tableRows(text)) > 0 ||
		len(FindAmounts(text)) > 0 ||
		len(FindDates(text)) > 0
}

func (s *Complement) scan(text string) (*model.ExtractedFields, int) {
	f := &model.ExtractedFields{}
	signals := 0
	if scanLabelLines(f, text).len() > 0 {
		signals++
	}
	if v, ok := firstGroup(caseIDRe, text); ok && apply(f, kindCaseID, v) {
		signals++
	}
	if v, ok := firstGroup(noticeRe, text); ok && apply(f, kindNotice, v) {
		signals++
	}
	if amounts := FindAmounts(text); len(amounts) > 0 {
		for _, a := range amounts {
			f.AddAmount(a)
		}
		signals++
	}
	if dates := FindDates(text); len(dates) > 0 {
		for _, d := range dates {
			f.AddDate(d)
		}
		signals++
	}
	if rows := tableRows(text); len(rows) > 0 {
		scanTable(f, rows)
		signals++
	}
	if narrativeRe.MatchString(text) {
		signals++
	}
	return f, min(20+10*signals, 70)
}
