package extraction

import (
	"strings"

	"github.com/sells-group/regdoc-cli/internal/compare"
	"github.com/sells-group/regdoc-cli/internal/model"
)

type fieldKind int

const (
	kindCaseID fieldKind = iota
	kindNotice
	kindAuthority
	kindCause
	kindAction
	kindAmount
	kindDate
	kindAccount
	kindSubject
	kindTaxID
)

// Additional field keys.
const (
	KeyNoticeNumber  = "notice_number"
	KeyAuthority     = "authority"
	KeyAccountNumber = "account_number"
	KeyAccountHolder = "account_holder"
	KeyTaxID         = "tax_id"
)

// labels maps folded label text, English and Spanish, to a field kind.
var labels = map[string]fieldKind{
	"case":                  kindCaseID,
	"case id":               kindCaseID,
	"case no":               kindCaseID,
	"case number":           kindCaseID,
	"file":                  kindCaseID,
	"file no":               kindCaseID,
	"file number":           kindCaseID,
	"expediente":            kindCaseID,
	"no de expediente":      kindCaseID,
	"numero de expediente":  kindCaseID,
	"notice":                kindNotice,
	"notice no":             kindNotice,
	"notice number":         kindNotice,
	"official notice":       kindNotice,
	"oficio":                kindNotice,
	"no de oficio":          kindNotice,
	"numero de oficio":      kindNotice,
	"authority":             kindAuthority,
	"issuing authority":     kindAuthority,
	"requesting authority":  kindAuthority,
	"autoridad":             kindAuthority,
	"autoridad emisora":     kindAuthority,
	"autoridad requirente":  kindAuthority,
	"autoridad solicitante": kindAuthority,
	"cause":                 kindCause,
	"reason":                kindCause,
	"grounds":               kindCause,
	"legal basis":           kindCause,
	"causa":                 kindCause,
	"motivo":                kindCause,
	"fundamento":            kindCause,
	"fundamento legal":      kindCause,
	"requested action":      kindAction,
	"action":                kindAction,
	"request":               kindAction,
	"accion":                kindAction,
	"accion solicitada":     kindAction,
	"solicitud":             kindAction,
	"requerimiento":         kindAction,
	"medida":                kindAction,
	"amount":                kindAmount,
	"total":                 kindAmount,
	"sum":                   kindAmount,
	"monto":                 kindAmount,
	"importe":               kindAmount,
	"cantidad":              kindAmount,
	"date":                  kindDate,
	"issue date":            kindDate,
	"fecha":                 kindDate,
	"fecha de emision":      kindDate,
	"account":               kindAccount,
	"account no":            kindAccount,
	"account number":        kindAccount,
	"cuenta":                kindAccount,
	"no de cuenta":          kindAccount,
	"numero de cuenta":      kindAccount,
	"clabe":                 kindAccount,
	"account holder":        kindSubject,
	"holder":                kindSubject,
	"name":                  kindSubject,
	"titular":               kindSubject,
	"nombre":                kindSubject,
	"contribuyente":         kindSubject,
	"taxpayer":              kindSubject,
	"rfc":                   kindTaxID,
	"tax id":                kindTaxID,
}

// lookupLabel resolves free label text such as "No. de Expediente" to a kind.
func lookupLabel(raw string) (fieldKind, bool) {
	key := compare.Fold(strings.NewReplacer(".", " ", "#", " ", "º", " ", "°", " ").Replace(raw))
	kind, ok := labels[key]
	return kind, ok
}

// apply stores value under kind and reports whether anything was stored.
// Scalars keep the first value seen.
func apply(f *model.ExtractedFields, kind fieldKind, value string) bool {
	value = cleanValue(value)
	if value == "" {
		return false
	}
	if kind == kindCaseID || kind == kindNotice {
		value = strings.TrimRight(value, "./_-")
		if value == "" {
			return false
		}
	}
	switch kind {
	case kindCaseID:
		if f.CaseID == "" {
			f.CaseID = value
		}
	case kindCause:
		if f.Cause == "" {
			f.Cause = value
		}
	case kindAction:
		if f.RequestedAction == "" {
			f.RequestedAction = value
		}
	case kindNotice:
		f.SetAdditional(KeyNoticeNumber, value)
	case kindAuthority:
		f.SetAdditional(KeyAuthority, value)
	case kindAccount:
		f.SetAdditional(KeyAccountNumber, value)
	case kindSubject:
		f.SetAdditional(KeyAccountHolder, value)
	case kindTaxID:
		f.SetAdditional(KeyTaxID, strings.ToUpper(value))
	case kindAmount:
		amounts := FindAmounts(value)
		for _, a := range amounts {
			f.AddAmount(a)
		}
		return len(amounts) > 0
	case kindDate:
		dates := FindDates(value)
		for _, d := range dates {
			f.AddDate(d)
		}
		return len(dates) > 0
	default:
		return false
	}
	return true
}

// cleanValue trims whitespace and stray separators around a captured value.
func cleanValue(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.Trim(s, " :;,|-–")
}
