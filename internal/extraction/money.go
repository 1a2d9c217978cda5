package extraction

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sells-group/regdoc-cli/internal/model"
)

// DefaultCurrency applies to amounts written with a bare "$".
const DefaultCurrency = "MXN"

var moneyRe = regexp.MustCompile(`(?i)(?:\b(MXN|USD|EUR)\s*)?(\$)?\s?(\d{1,3}(?:,\d{3})+(?:\.\d{1,2})?|\d+(?:\.\d{1,2})?)(?:\s*(MXN|USD|euros|EUR|M\.\s?N\.?|pesos|d[oó]lares|dollars))?`)

// FindAmounts returns every monetary amount in text, in order of appearance.
// A number counts as money only with a "$" sign or a currency marker.
func FindAmounts(text string) []model.MonetaryAmount {
	var out []model.MonetaryAmount
	for _, m := range moneyRe.FindAllStringSubmatch(text, -1) {
		prefix, dollar, number, suffix := m[1], m[2], m[3], m[4]
		if prefix == "" && dollar == "" && suffix == "" {
			continue
		}
		v, err := decimal.NewFromString(strings.ReplaceAll(number, ",", ""))
		if err != nil {
			continue
		}
		out = append(out, model.MonetaryAmount{
			Value:        v,
			Currency:     currencyCode(prefix, suffix),
			OriginalText: strings.TrimSpace(m[0]),
		})
	}
	return out
}

func currencyCode(prefix, suffix string) string {
	for _, s := range []string{suffix, prefix} {
		switch c := strings.ToLower(strings.ReplaceAll(strings.ReplaceAll(s, ".", ""), " ", "")); {
		case c == "":
			continue
		case c == "mxn" || c == "mn" || c == "pesos":
			return "MXN"
		case c == "usd" || strings.HasPrefix(c, "d"):
			return "USD"
		case c == "eur" || c == "euros":
			return "EUR"
		}
	}
	return DefaultCurrency
}
