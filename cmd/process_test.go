package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/regdoc-cli/internal/model"
	"github.com/sells-group/regdoc-cli/internal/pipeline"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestBuildDocuments_OnePerFile(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.png", []byte("a"))
	b := writeFile(t, dir, "b.png", []byte("b"))

	docs, err := buildDocuments([]string{a, b}, false, "")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, a, docs[0].Source)
	assert.Equal(t, [][]byte{[]byte("b")}, docs[1].Pages)
}

func TestBuildDocuments_Pages(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "p1.png", []byte("1"))
	b := writeFile(t, dir, "p2.png", []byte("2"))

	docs, err := buildDocuments([]string{a, b}, true, "")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, a, docs[0].Source)
	assert.Equal(t, [][]byte{[]byte("1"), []byte("2")}, docs[0].Pages)
}

func TestBuildDocuments_Errors(t *testing.T) {
	_, err := buildDocuments(nil, false, "")
	assert.ErrorContains(t, err, "no input files")

	_, err = buildDocuments([]string{"x.png"}, false, "m.xlsx")
	assert.ErrorContains(t, err, "--manifest")

	_, err = buildDocuments([]string{filepath.Join(t.TempDir(), "missing.png")}, false, "")
	assert.Error(t, err)
}

func TestBuildDocuments_Manifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "scan.png", []byte("img"))

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Docs")
	require.NoError(t, err)
	for _, r := range [][]string{{"source", "case_id"}, {"scan.png", "EXP-9"}} {
		row := sheet.AddRow()
		for _, v := range r {
			row.AddCell().SetString(v)
		}
	}
	manifest := filepath.Join(dir, "manifest.xlsx")
	require.NoError(t, f.Save(manifest))

	docs, err := buildDocuments(nil, false, manifest)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "scan.png", docs[0].Source)
	assert.Equal(t, [][]byte{[]byte("img")}, docs[0].Pages)
	require.NotNil(t, docs[0].Authoritative)
	assert.Equal(t, "EXP-9", docs[0].Authoritative.CaseID)
}

func TestApplyRecords(t *testing.T) {
	dir := t.TempDir()
	auth := writeFile(t, dir, "auth.json", []byte(`{"case_id":"EXP-1","dates":["2024-03-05"]}`))
	known := writeFile(t, dir, "known.json", []byte(`{"cause":"fraude"}`))

	docs := []pipeline.Document{{Source: "a.png"}}
	require.NoError(t, applyRecords(docs, auth, known))
	require.NotNil(t, docs[0].Authoritative)
	assert.Equal(t, "EXP-1", docs[0].Authoritative.CaseID)
	require.NotNil(t, docs[0].Existing)
	assert.Equal(t, "fraude", docs[0].Existing.Cause)

	err := applyRecords([]pipeline.Document{{}, {}}, auth, "")
	assert.Error(t, err)

	assert.NoError(t, applyRecords([]pipeline.Document{{}, {}}, "", ""))

	bad := writeFile(t, dir, "bad.json", []byte(`{`))
	assert.Error(t, applyRecords([]pipeline.Document{{}}, bad, ""))
}

func TestReportEntries(t *testing.T) {
	res := model.NewComparisonResult(nil)
	batch := &pipeline.BatchResult{Documents: []*pipeline.DocumentResult{
		{ID: "1", Source: "a.png", Comparison: res},
		nil,
		{ID: "3", Source: "c.png"},
	}}

	entries := reportEntries(batch)
	require.Len(t, entries, 1)
	assert.Equal(t, "1", entries[0].DocumentID)
	assert.Same(t, res, entries[0].Result)
}
