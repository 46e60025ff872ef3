package fetcher_test

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jonesrussell/north-cloud/evidence/internal/fetcher"
)

func buildWorkbook(t *testing.T, rows [][]string) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, value))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func buildDocx(t *testing.T, paragraphs []string) []byte {
	t.Helper()

	var body strings.Builder
	body.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	body.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		// Split each paragraph across two runs to exercise run joining.
		half := len(p) / 2
		body.WriteString(`<w:p><w:r><w:t xml:space="preserve">` + p[:half] + `</w:t></w:r>`)
		body.WriteString(`<w:r><w:t xml:space="preserve">` + p[half:] + `</w:t></w:r></w:p>`)
	}
	body.WriteString(`<w:p></w:p></w:body></w:document>`)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(body.String()))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractSpreadsheet(t *testing.T) {
	t.Parallel()

	payload := buildWorkbook(t, [][]string{{"a", "", "b"}, {"", ""}, {"c"}})

	text, err := fetcher.ExtractSpreadsheet(payload)

	require.NoError(t, err)
	assert.Equal(t, "a b\nc\n", text)
}

func TestExtractSpreadsheet_Invalid(t *testing.T) {
	t.Parallel()

	_, err := fetcher.ExtractSpreadsheet([]byte("not a workbook"))
	require.Error(t, err)
}

func TestExtractDocx(t *testing.T) {
	t.Parallel()

	text, err := fetcher.ExtractDocx(buildDocx(t, []string{"First line", "Second line"}))

	require.NoError(t, err)
	assert.Equal(t, "First line\nSecond line", text)
}

func TestExtractDocx_MissingBody(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.Create("word/styles.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = fetcher.ExtractDocx(buf.Bytes())
	require.ErrorIs(t, err, fetcher.ErrNoDocumentBody)
}

func TestIsPDF(t *testing.T) {
	t.Parallel()

	assert.True(t, fetcher.IsPDF([]byte("%PDF-1.7")))
	assert.False(t, fetcher.IsPDF([]byte("<html>")))
	assert.False(t, fetcher.IsPDF(nil))
}

func TestExtractPDF_Corrupt(t *testing.T) {
	t.Parallel()

	_, _, err := fetcher.ExtractPDF([]byte("%PDF-1.4\ngarbage"))
	require.Error(t, err)
}

func TestNewHTMLResource_EmptyBodyKeepsTitle(t *testing.T) {
	t.Parallel()

	res := fetcher.NewHTMLResource("https://acme.com/", "<html><head><title>Only Title</title></head><body></body></html>", "http")

	assert.Equal(t, "Only Title", res.Title)
}
