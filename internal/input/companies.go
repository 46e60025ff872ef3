// Package input reads the company list and the keyword vocabulary that drive
// a run.
package input

import (
	"bufio"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jonesrussell/north-cloud/evidence/internal/domain"
	"github.com/jonesrussell/north-cloud/evidence/internal/logger"
)

const (
	colCompany = 0
	colDomain  = 1
	colCountry = 2

	minRequiredColumns = 2
)

// ErrNoCompanies is returned when an input file yields no usable rows.
var ErrNoCompanies = errors.New("input: no companies found")

var fieldSeparator = regexp.MustCompile(`[,|\t]`)

// RowError describes a skipped input row.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// LoadCompanies reads companies from a delimited text file (.csv, .tsv,
// .txt) or from the first sheet of an .xlsx workbook. Rows are
// (company, domain_or_url[, country]); a leading header row is skipped.
func LoadCompanies(path string, log logger.Logger) ([]domain.Company, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err = readWorkbook(path)
	default:
		rows, err = readDelimited(path)
	}
	if err != nil {
		return nil, err
	}

	companies, skipped := ParseCompanyRows(rows)
	for _, s := range skipped {
		log.Warn("Skipping input row",
			logger.String("file", path),
			logger.Int("row", s.Row),
			logger.String("reason", s.Reason))
	}
	if len(companies) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoCompanies)
	}
	return companies, nil
}

// ParseCompanyRows turns raw rows into companies. Row numbers in the
// returned errors are 1-based.
func ParseCompanyRows(rows [][]string) ([]domain.Company, []RowError) {
	var (
		companies []domain.Company
		skipped   []RowError
	)

	for i, row := range rows {
		cells := trimCells(row)
		if len(cells) == 0 {
			continue
		}
		if i == 0 && isHeader(cells[colCompany]) {
			continue
		}
		if len(cells) < minRequiredColumns || cells[colDomain] == "" {
			skipped = append(skipped, RowError{Row: i + 1, Reason: "expected company and domain"})
			continue
		}

		country := ""
		if len(cells) > colCountry {
			country = cells[colCountry]
		}
		c, ok := NewCompany(cells[colCompany], cells[colDomain], country)
		if !ok {
			skipped = append(skipped, RowError{Row: i + 1, Reason: "unparseable domain"})
			continue
		}
		companies = append(companies, c)
	}

	return companies, skipped
}

// NewCompany builds a company from a name and a domain or URL. An empty name
// falls back to the host. ok is false when no host can be parsed.
func NewCompany(name, rawDomain, country string) (domain.Company, bool) {
	host := NormalizeCompany(rawDomain)
	if host == "" {
		return domain.Company{}, false
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = host
	}
	return domain.Company{
		Name:    name,
		Domain:  host,
		URL:     ensureHTTPS(rawDomain),
		Country: strings.TrimSpace(country),
	}, true
}

// NormalizeCompany reduces a company name, domain or URL to a bare host:
// lowercase, without scheme, path or "www." prefix.
func NormalizeCompany(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ""
	}

	host := name
	if strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://") || strings.HasPrefix(name, "//") {
		u, err := url.Parse(name)
		if err != nil {
			return ""
		}
		host = u.Host
	} else if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}

	return strings.TrimPrefix(host, "www.")
}

func ensureHTTPS(raw string) string {
	raw = strings.TrimSpace(raw)
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return raw
	}
	return "https://" + strings.TrimPrefix(raw, "//")
}

func isHeader(first string) bool {
	first = strings.ToLower(first)
	return first == "company" || first == "company name"
}

// trimCells trims every cell and drops trailing empty ones. A row of only
// empty cells becomes nil.
func trimCells(row []string) []string {
	out := make([]string, len(row))
	last := -1
	for i, cell := range row {
		out[i] = strings.TrimSpace(cell)
		if out[i] != "" {
			last = i
		}
	}
	return out[:last+1]
}

func readDelimited(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open companies file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var rows [][]string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimPrefix(scanner.Text(), "\ufeff")
		rows = append(rows, fieldSeparator.Split(line, -1))
	}
	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("read companies file: %w", err)
	}
	return rows, nil
}

func readWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open companies workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: workbook has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}
