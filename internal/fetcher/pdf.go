package fetcher

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/jonesrussell/north-cloud/evidence/internal/domain"
)

var pdfSignature = []byte("%PDF")

// IsPDF reports whether payload starts with the PDF signature.
func IsPDF(payload []byte) bool {
	return bytes.HasPrefix(payload, pdfSignature)
}

// ExtractPDF returns the plain text of a PDF and its info dictionary dates.
// Whole-document extraction is tried first; when it fails, pages are read one
// at a time and unreadable pages are skipped.
func ExtractPDF(payload []byte) (text string, meta map[string]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf decoder panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return "", nil, fmt.Errorf("open pdf: %w", err)
	}

	meta = pdfMetadata(reader)

	if whole, wholeErr := wholeDocumentText(reader); wholeErr == nil && strings.TrimSpace(whole) != "" {
		return whole, meta, nil
	}

	text, err = pageByPageText(reader)
	if err != nil {
		return "", meta, err
	}
	return text, meta, nil
}

func wholeDocumentText(reader *pdf.Reader) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf text panic: %v", r)
		}
	}()

	r, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func pageByPageText(reader *pdf.Reader) (string, error) {
	var (
		b       strings.Builder
		lastErr error
		read    int
	)

	for i := 1; i <= reader.NumPage(); i++ {
		pageText, err := pageText(reader, i)
		if err != nil {
			lastErr = err
			continue
		}
		read++
		b.WriteString(pageText)
		b.WriteByte('\n')
	}

	if read == 0 {
		if lastErr == nil {
			lastErr = errors.New("pdf has no readable pages")
		}
		return "", lastErr
	}
	return b.String(), nil
}

func pageText(reader *pdf.Reader, num int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf page %d panic: %v", num, r)
		}
	}()

	page := reader.Page(num)
	if page.V.IsNull() {
		return "", fmt.Errorf("pdf page %d missing", num)
	}
	return page.GetPlainText(nil)
}

func pdfMetadata(reader *pdf.Reader) map[string]string {
	meta := make(map[string]string)
	info := reader.Trailer().Key("Info")
	if info.IsNull() {
		return meta
	}
	for _, key := range []string{domain.MetaModDate, domain.MetaCreationDate} {
		if v := strings.TrimSpace(info.Key(key).Text()); v != "" {
			meta[key] = v
		}
	}
	return meta
}
