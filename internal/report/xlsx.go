// Package report writes reconciliation results to spreadsheets and reads
// batch manifests of authoritative records.
package report

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/regdoc-cli/internal/extraction"
	"github.com/sells-group/regdoc-cli/internal/model"
)

const (
	summarySheet = "Summary"
	fieldsSheet  = "Fields"
)

// Entry is one reconciled document.
type Entry struct {
	DocumentID string
	Source     string
	Result     *model.ComparisonResult
}

// WriteComparisons saves a workbook with a per-document summary sheet and a
// per-field detail sheet.
func WriteComparisons(path string, entries []Entry) error {
	f := xlsx.NewFile()

	summary, err := f.AddSheet(summarySheet)
	if err != nil {
		return eris.Wrap(err, "report: add summary sheet")
	}
	addStrings(summary.AddRow(), "document_id", "source", "overall_similarity", "matches", "total_fields")

	fields, err := f.AddSheet(fieldsSheet)
	if err != nil {
		return eris.Wrap(err, "report: add fields sheet")
	}
	addStrings(fields.AddRow(), "document_id", "field", "authoritative", "extracted", "status", "similarity", "ocr_confidence")

	for _, e := range entries {
		if e.Result == nil {
			continue
		}
		row := summary.AddRow()
		addStrings(row, e.DocumentID, e.Source)
		row.AddCell().SetFloat(float64(e.Result.OverallSimilarity))
		row.AddCell().SetInt(e.Result.MatchCount)
		row.AddCell().SetInt(e.Result.TotalFields)

		for _, fc := range e.Result.FieldComparisons {
			r := fields.AddRow()
			addStrings(r, e.DocumentID, fc.FieldName, fc.XMLValue, fc.OCRValue, string(fc.Status))
			r.AddCell().SetFloat(float64(fc.Similarity))
			if fc.OCRConfidence != nil {
				r.AddCell().SetFloat(float64(*fc.OCRConfidence))
			} else {
				r.AddCell().SetString("")
			}
		}
	}

	return eris.Wrapf(f.Save(path), "report: save %s", path)
}

func addStrings(row *xlsx.Row, values ...string) {
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

// ManifestRow is one document listed in a batch manifest.
type ManifestRow struct {
	Source        string
	Authoritative *model.ExtractedFields
}

// manifestColumns maps header names to field setters. Unknown headers become
// additional fields.
var manifestColumns = map[string]func(*model.ExtractedFields, string) error{
	"case_id":          func(f *model.ExtractedFields, v string) error { f.CaseID = v; return nil },
	"cause":            func(f *model.ExtractedFields, v string) error { f.Cause = v; return nil },
	"requested_action": func(f *model.ExtractedFields, v string) error { f.RequestedAction = v; return nil },
	"date":             func(f *model.ExtractedFields, v string) error { f.AddDate(v); return nil },
	"amount": func(f *model.ExtractedFields, v string) error {
		amounts := extraction.FindAmounts(v)
		if len(amounts) == 0 {
			d, err := decimal.NewFromString(strings.ReplaceAll(v, ",", ""))
			if err != nil {
				return eris.Wrapf(err, "report: amount %q", v)
			}
			amounts = []model.MonetaryAmount{{Value: d, Currency: extraction.DefaultCurrency, OriginalText: v}}
		}
		for _, a := range amounts {
			f.AddAmount(a)
		}
		return nil
	},
}

// ReadManifest reads the first sheet of an XLSX manifest. The header row must
// contain a "source" column; case_id, cause, requested_action, date and
// amount fill the authoritative record and any other column becomes an
// additional field. Rows with a blank source are skipped.
func ReadManifest(path string) ([]ManifestRow, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "report: open manifest")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("report: manifest has no sheets")
	}
	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, nil
	}

	header := rowToStrings(sheet.Rows[0])
	sourceCol := -1
	for i, h := range header {
		header[i] = strings.ToLower(strings.TrimSpace(h))
		if header[i] == "source" {
			sourceCol = i
		}
	}
	if sourceCol < 0 {
		return nil, eris.New(`report: manifest needs a "source" column`)
	}

	var out []ManifestRow
	for n, row := range sheet.Rows[1:] {
		cells := rowToStrings(row)
		if sourceCol >= len(cells) || strings.TrimSpace(cells[sourceCol]) == "" {
			continue
		}
		fields := &model.ExtractedFields{}
		for i, v := range cells {
			v = strings.TrimSpace(v)
			if i == sourceCol || i >= len(header) || v == "" || header[i] == "" {
				continue
			}
			if set, ok := manifestColumns[header[i]]; ok {
				if err := set(fields, v); err != nil {
					return nil, eris.Wrapf(err, "report: manifest row %d", n+2)
				}
				continue
			}
			fields.SetAdditional(header[i], v)
		}
		mr := ManifestRow{Source: strings.TrimSpace(cells[sourceCol])}
		if !fields.IsEmpty() {
			mr.Authoritative = fields
		}
		out = append(out, mr)
	}
	return out, nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
