package extraction

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/sells-group/regdoc-cli/internal/compare"
)

var months = map[string]int{
	"enero": 1, "febrero": 2, "marzo": 3, "abril": 4, "mayo": 5, "junio": 6,
	"julio": 7, "agosto": 8, "septiembre": 9, "setiembre": 9, "octubre": 10,
	"noviembre": 11, "diciembre": 12,
	"january": 1, "february": 2, "march": 3, "april": 4, "may": 5, "june": 6,
	"july": 7, "august": 8, "september": 9, "october": 10, "november": 11,
	"december": 12,
}

var (
	isoDateRe     = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	numericDateRe = regexp.MustCompile(`\b(\d{1,2})[/.-](\d{1,2})[/.-](\d{4})\b`)
	spanishDateRe = regexp.MustCompile(`(?i)\b(\d{1,2})\s+de\s+(enero|febrero|marzo|abril|mayo|junio|julio|agosto|septiembre|setiembre|octubre|noviembre|diciembre)\s+(?:de\s+|del\s+)?(\d{4})\b`)
	englishDateRe = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{1,2}),?\s+(\d{4})\b`)
)

type dateHit struct {
	start int
	iso   string
}

// FindDates returns dates in text normalized to YYYY-MM-DD, in order of
// appearance. Numeric dates are read day first.
func FindDates(text string) []string {
	var hits []dateHit
	collect := func(re *regexp.Regexp, conv func(m []string) (string, bool)) {
		for _, idx := range re.FindAllStringSubmatchIndex(text, -1) {
			m := make([]string, len(idx)/2)
			for i := range m {
				if idx[2*i] >= 0 {
					m[i] = text[idx[2*i]:idx[2*i+1]]
				}
			}
			if iso, ok := conv(m); ok {
				hits = append(hits, dateHit{start: idx[0], iso: iso})
			}
		}
	}
	collect(isoDateRe, func(m []string) (string, bool) { return isoDate(m[1], m[2], m[3]) })
	collect(numericDateRe, func(m []string) (string, bool) { return isoDate(m[3], m[2], m[1]) })
	collect(spanishDateRe, func(m []string) (string, bool) {
		return isoDate(m[3], strconv.Itoa(months[compare.Fold(m[2])]), m[1])
	})
	collect(englishDateRe, func(m []string) (string, bool) {
		return isoDate(m[3], strconv.Itoa(months[strings.ToLower(m[1])]), m[2])
	})

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].start < hits[j].start })
	out := make([]string, 0, len(hits))
	seen := make(map[string]bool, len(hits))
	for _, h := range hits {
		if !seen[h.iso] {
			seen[h.iso] = true
			out = append(out, h.iso)
		}
	}
	return out
}

func isoDate(y, m, d string) (string, bool) {
	year, err1 := strconv.Atoi(y)
	month, err2 := strconv.Atoi(m)
	day, err3 := strconv.Atoi(d)
	if err1 != nil || err2 != nil || err3 != nil {
		return "", false
	}
	if year < 1900 || year > 2100 || month < 1 || month > 12 || day < 1 || day > 31 {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}
