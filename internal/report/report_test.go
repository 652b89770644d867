package report

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/KaramelBytes/dkap-cli/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		img.Set(x, 10, color.Black)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func sample() *dataset.Table {
	tbl := dataset.New("corr", "Question", "Pearson r", "p-value", "n")
	tbl.Append("Q8", 0.123456, 0.04, 120)
	tbl.Append("Q14 – environmental implications of microplastic contamination", 0.51, 1e-6, 118)
	return tbl
}

func requirePDF(t *testing.T, path string) {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("%PDF")), "%s is not a pdf", path)
}

func TestDocument(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "plot.png")
	writePNG(t, img)

	out := filepath.Join(dir, "out", "awareness_summary_report.pdf")
	doc := NewDocument(out, "Awareness Analysis Summary Report", "DKAP Framework – Awareness Component")
	doc.Heading("1. Overview")
	doc.Paragraph("Pearson r ≈ 0.72 between knowledge and awareness.")
	doc.TableFrom(sample(), 3)
	doc.Bold("Factor 1 Regression Summary")
	doc.Preformatted([]string{"R-squared: 0.512", "F-statistic: 12.3"})
	doc.Image(img, 120)
	doc.Image(filepath.Join(dir, "missing.png"), 120)
	doc.Spacer(4)
	require.NoError(t, doc.Save())
	requirePDF(t, out)
}

func TestMergePDF(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.pdf")
	b := filepath.Join(dir, "b.pdf")
	for _, p := range []string{a, b} {
		doc := NewDocument(p, filepath.Base(p), "")
		doc.Paragraph("content")
		require.NoError(t, doc.Save())
	}
	out := filepath.Join(dir, "merged.pdf")
	merged, err := MergePDF(out, a, filepath.Join(dir, "nope.pdf"), b)
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, merged)
	requirePDF(t, out)

	_, err = MergePDF(out, filepath.Join(dir, "nope.pdf"))
	assert.Error(t, err)
}

func TestWriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dkap.xlsx")
	require.NoError(t, WriteWorkbook(path, []Sheet{
		{Name: "awareness_question_correlations", Table: sample()},
		{Name: "awareness_question_correlations_extra", Table: sample()},
	}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	sheets := f.GetSheetList()
	require.Len(t, sheets, 2)
	assert.Equal(t, "awareness_question_correlations", sheets[0])
	assert.Equal(t, "awareness_question_correlatio_2", sheets[1])

	rows, err := f.GetRows(sheets[0])
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Question", "Pearson r", "p-value", "n"}, rows[0])
	assert.Equal(t, "Q8", rows[1][0])
	assert.Equal(t, "120", rows[1][3])
}

func TestSheetName(t *testing.T) {
	used := map[string]bool{}
	assert.Equal(t, "a_b", SheetName("a/b", used))
	assert.Equal(t, "A_B_2", SheetName("A/B", used))
	assert.Equal(t, "Sheet", SheetName("", used))
}

func TestSheetNameCountsRunes(t *testing.T) {
	used := map[string]bool{}
	label := strings.Repeat("é", 40)
	first := SheetName(label, used)
	assert.True(t, utf8.ValidString(first))
	assert.Equal(t, maxSheetName, utf8.RuneCountInString(first))
	assert.Equal(t, strings.Repeat("é", maxSheetName), first)

	second := SheetName(label, used)
	assert.True(t, utf8.ValidString(second))
	assert.Equal(t, maxSheetName, utf8.RuneCountInString(second))
	assert.Equal(t, strings.Repeat("é", maxSheetName-2)+"_2", second)

	// Short multi-byte names are kept whole.
	assert.Equal(t, "Überblick", SheetName("Überblick", used))
}

func TestPrintAndRoundCells(t *testing.T) {
	var buf bytes.Buffer
	Print(&buf, "Correlations", sample(), 3)
	out := buf.String()
	assert.Contains(t, out, "Correlations")
	assert.Contains(t, out, "0.123")
	assert.Contains(t, out, "120")

	assert.Equal(t, []string{"x", "0.50", "3", "0.00"}, RoundCells([]string{"x", "0.5", "3", "1e-6"}, 2))

	buf.Reset()
	Print(&buf, "Empty", dataset.New("e", "a"), 2)
	assert.Equal(t, "Empty (0 rows)\n", buf.String())
}
