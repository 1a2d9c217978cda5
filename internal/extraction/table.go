package extraction

import (
	"strings"

	"github.com/sells-group/regdoc-cli/internal/model"
)

// TableBased reads pipe, grid or tab delimited rows. A left column of field
// names maps to the value beside it; a header row of field names maps
// column-wise onto the rows beneath it.
type TableBased struct {
	base
}

// NewTableBased creates the table strategy.
func NewTableBased() *TableBased {
	s := &TableBased{}
	s.base = base{name: NameTableBased, s: layout{match: s.detect, extract: s.scan}}
	return s
}

func (s *TableBased) detect(text string) bool {
	return len(tableRows(text)) >= 2
}

func (s *TableBased) scan(text string) (*model.ExtractedFields, int) {
	f := &model.ExtractedFields{}
	kinds := scanTable(f, tableRows(text))
	return f, min(40+15*kinds.len(), 85)
}

// tableRows splits delimited lines into trimmed cells. Separator rows and
// rows with fewer than two cells are dropped.
func tableRows(text string) [][]string {
	var rows [][]string
	for _, line := range strings.Split(text, "\n") {
		var raw []string
		switch {
		case strings.Contains(line, "|"):
			raw = strings.Split(line, "|")
		case strings.Contains(line, "\t"):
			raw = strings.Split(line, "\t")
		default:
			continue
		}
		if separatorRowRe.MatchString(strings.Join(raw, "")) {
			continue
		}
		cells := make([]string, 0, len(raw))
		for _, c := range raw {
			cells = append(cells, strings.TrimSpace(c))
		}
		for len(cells) > 0 && cells[0] == "" {
			cells = cells[1:]
		}
		for len(cells) > 0 && cells[len(cells)-1] == "" {
			cells = cells[:len(cells)-1]
		}
		if len(cells) >= 2 {
			rows = append(rows, cells)
		}
	}
	return rows
}

// scanTable applies header-style and label-column rows.
func scanTable(f *model.ExtractedFields, rows [][]string) kindCount {
	kinds := kindCount{}
	for i := 0; i < len(rows); i++ {
		header := rows[i]
		headerKinds, known := headerRow(header)
		if known >= 2 {
			j := i + 1
			for ; j < len(rows) && len(rows[j]) == len(header); j++ {
				if _, k := headerRow(rows[j]); k >= 2 {
					break
				}
				for col, cell := range rows[j] {
					if kind, ok := headerKinds[col]; ok && apply(f, kind, cell) {
						kinds.add(kind)
					}
				}
			}
			i = j - 1
			continue
		}

		kind, ok := lookupLabel(header[0])
		if !ok {
			continue
		}
		for _, v := range header[1:] {
			if v == "" {
				continue
			}
			if apply(f, kind, v) {
				kinds.add(kind)
			}
			break
		}
	}
	return kinds
}

// headerRow maps column index to field kind for cells that are labels.
func headerRow(cells []string) (map[int]fieldKind, int) {
	kinds := make(map[int]fieldKind, len(cells))
	for i, c := range cells {
		if kind, ok := lookupLabel(c); ok {
			kinds[i] = kind
		}
	}
	return kinds, len(kinds)
}
