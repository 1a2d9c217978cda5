package extraction

import (
	"regexp"
	"strings"

	"github.com/sells-group/regdoc-cli/internal/model"
)

// idToken is an identifier with at least one digit that starts and ends on
// an alphanumeric, so sentence punctuation stays out of it.
const idToken = `([A-Za-z0-9][A-Za-z0-9/._-]*\d(?:[A-Za-z0-9/._-]*[A-Za-z0-9])?)`

var (
	labelLineRe = regexp.MustCompile(`^\s*(\p{L}[\p{L}\p{M} .#º°/]{0,40}?)\s*:\s*(.+?)\s*$`)

	caseIDRe  = regexp.MustCompile(`(?i:\b(?:expediente|exp\.|case\s+(?:no\.?|number|id)|file\s+(?:no\.?|number))\s*(?:[:#]|n[uú]m(?:ero)?\.?|no\.?)?\s*)` + idToken)
	noticeRe  = regexp.MustCompile(`(?i:\b(?:oficio|official\s+notice|notice)\s*(?:[:#]|n[uú]m(?:ero)?\.?|no\.?|number)?\s*)` + idToken)
	idTokenRe = regexp.MustCompile(idToken)

	authorityRe = regexp.MustCompile(`(?i)\b(?:issued\s+by|signed\s+by|emitid[oa]\s+por|suscrit[oa]\s+por|la\s+autoridad\s+(?:emisora|requirente)|requesting\s+authority)\s*,?\s*([^.,;\n]{3,80})`)
	causeRe     = regexp.MustCompile(`(?i)\b(?:due\s+to|because\s+of|by\s+reason\s+of|on\s+the\s+grounds\s+of|derivado\s+de|con\s+motivo\s+de|en\s+virtud\s+de|debido\s+a)\s+([^;\n]{3,200}?)(?:\.(?:\s|$)|[;\n]|$)`)
	actionRe    = regexp.MustCompile(`(?i)\b(?:is\s+hereby\s+ordered\s+to|are\s+hereby\s+requested\s+to|you\s+are\s+requested\s+to|we\s+request(?:\s+that)?|se\s+ordena|se\s+solicita|se\s+requiere|se\s+instruye)\s+([^;\n]{3,200}?)(?:\.(?:\s|$)|[;\n]|$)`)

	contextKeywordRe = regexp.MustCompile(`(?i)\b(?:expediente|oficio|autoridad|embargo|aseguramiento|requerimiento|cuenta|case|notice|authority|seizure|freeze|garnishment|account)\b`)
	narrativeRe      = regexp.MustCompile(`(?i)\b(?:por\s+medio\s+del\s+presente|por\s+este\s+conducto|se\s+hace\s+de\s+su\s+conocimiento|hereby|please\s+be\s+advised)\b`)

	boundaryRe     = regexp.MustCompile(`[;\n]|\.(?:\s|$)`)
	separatorRowRe = regexp.MustCompile(`^[\s\-=+:]*$`)
)

// scanLabelLines applies every "Label: value" line with a known label.
func scanLabelLines(f *model.ExtractedFields, text string) kindCount {
	kinds := kindCount{}
	for _, line := range strings.Split(text, "\n") {
		m := labelLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		kind, ok := lookupLabel(m[1])
		if !ok {
			continue
		}
		if apply(f, kind, m[2]) {
			kinds.add(kind)
		}
	}
	return kinds
}

// hasLabelLine reports whether any line carries a known label.
func hasLabelLine(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		if m := labelLineRe.FindStringSubmatch(line); m != nil {
			if _, ok := lookupLabel(m[1]); ok {
				return true
			}
		}
	}
	return false
}

// firstGroup returns the first capture group of re in text.
func firstGroup(re *regexp.Regexp, text string) (string, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil || len(m) < 2 {
		return "", false
	}
	return m[1], true
}

// nextBoundary returns the offset of the sentence end at or after from.
func nextBoundary(text string, from int) int {
	if loc := boundaryRe.FindStringIndex(text[from:]); loc != nil {
		return from + loc[0]
	}
	return len(text)
}

// prevBoundary returns the offset just after the sentence end before to.
func prevBoundary(text string, to int) int {
	start := 0
	for _, loc := range boundaryRe.FindAllStringIndex(text[:to], -1) {
		start = loc[1]
	}
	return start
}
