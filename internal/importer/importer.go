// Package importer parses CSV files of billing records, the bulk-entry path
// for operators migrating from spreadsheets. It tolerates the usual
// spreadsheet export quirks: semicolon or comma delimiters, accented or
// unaccented Portuguese headers, Brazilian number and date formats, and
// non-UTF-8 encodings.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/cobranca/internal/billing"
	enc "github.com/MrJamesThe3rd/cobranca/internal/encoding"
)

// Column aliases accepted in the header row, lower-cased and unaccented.
var (
	nameCols   = []string{"cliente", "nome", "nome do cliente", "customer", "name"}
	emailCols  = []string{"email", "e-mail", "email do cliente"}
	descCols   = []string{"descricao", "servico", "description"}
	amountCols = []string{"valor", "valor (r$)", "montante", "amount"}
	dueCols    = []string{"vencimento", "data de vencimento", "due date", "data"}
	statusCols = []string{"status", "situacao"}
)

var dateLayouts = []string{"02/01/2006", "02-01-2006", "2006-01-02"}

var statusAliases = map[string]billing.Status{
	"pendente": billing.StatusPending,
	"pending":  billing.StatusPending,
	"pago":     billing.StatusPaid,
	"paga":     billing.StatusPaid,
	"paid":     billing.StatusPaid,
	"vencido":  billing.StatusOverdue,
	"vencida":  billing.StatusOverdue,
	"atrasado": billing.StatusOverdue,
	"overdue":  billing.StatusOverdue,
}

type colIndex map[string]int

// layout holds the resolved column positions after header detection.
type layout struct {
	name   int
	email  int
	desc   int
	amount int
	due    int
	status int // -1 when absent; defaults to pending
}

// Parse reads a billing CSV and returns one CreateParams per data row.
// The header row is located by scanning for the required columns; rows
// above it (titles, blank lines) are ignored. A row with an empty date
// cell is skipped as a footer; any other malformed cell is an error
// naming the 1-based row.
func Parse(r io.Reader) ([]billing.CreateParams, error) {
	utf8r, err := enc.Normalize(r)
	if err != nil {
		return nil, fmt.Errorf("normalizing encoding: %w", err)
	}

	rows, err := readRows(utf8r)
	if err != nil {
		return nil, err
	}

	lay, headerIdx, ok := detectHeader(rows)
	if !ok {
		return nil, fmt.Errorf("no header row found: need columns for cliente, email, descrição, valor and vencimento")
	}

	return parseRows(lay, rows[headerIdx+1:], headerIdx+1)
}

func readRows(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}

	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.Comma = detectDelimiter(string(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}

	return rows, nil
}

// detectDelimiter picks semicolon when the file carries more of them than
// commas. Brazilian Excel exports use semicolons because the comma is the
// decimal separator. The whole file is counted rather than the first line:
// exports often start with a title line that has no delimiter at all.
func detectDelimiter(data string) rune {
	if strings.Count(data, ";") > strings.Count(data, ",") {
		return ';'
	}

	return ','
}

func detectHeader(rows [][]string) (layout, int, bool) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			if name := normalizeHeader(cell); name != "" {
				cols[name] = i
			}
		}

		lay, ok := resolveLayout(cols)
		if ok {
			return lay, rowIdx, true
		}
	}

	return layout{}, 0, false
}

func resolveLayout(cols colIndex) (layout, bool) {
	lay := layout{
		name:   findCol(cols, nameCols),
		email:  findCol(cols, emailCols),
		desc:   findCol(cols, descCols),
		amount: findCol(cols, amountCols),
		due:    findCol(cols, dueCols),
		status: findCol(cols, statusCols),
	}

	ok := lay.name >= 0 && lay.email >= 0 && lay.desc >= 0 && lay.amount >= 0 && lay.due >= 0

	return lay, ok
}

func findCol(cols colIndex, aliases []string) int {
	for _, alias := range aliases {
		if idx, ok := cols[alias]; ok {
			return idx
		}
	}

	return -1
}

// normalizeHeader lower-cases a header cell and strips the accents found in
// Portuguese column names, so "Descrição" and "descricao" match the same
// alias.
func normalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	replacer := strings.NewReplacer(
		"ç", "c", "ã", "a", "á", "a", "â", "a",
		"é", "e", "ê", "e", "í", "i",
		"ó", "o", "õ", "o", "ô", "o", "ú", "u",
	)

	return replacer.Replace(s)
}

func parseRows(lay layout, rows [][]string, headerRowNum int) ([]billing.CreateParams, error) {
	var params []billing.CreateParams

	for i, row := range rows {
		rowNum := headerRowNum + i + 2 // 1-based, past the header

		due, ok := parseDate(cellValue(row, lay.due))
		if !ok {
			// Footer or blank row.
			continue
		}

		name := cellValue(row, lay.name)
		if name == "" {
			return nil, fmt.Errorf("row %d: missing customer name", rowNum)
		}

		email := cellValue(row, lay.email)
		if email == "" {
			return nil, fmt.Errorf("row %d: missing customer email", rowNum)
		}

		amount, err := ParseBrazilianAmount(cellValue(row, lay.amount))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid amount %q", rowNum, cellValue(row, lay.amount))
		}

		if amount < 0 {
			return nil, fmt.Errorf("row %d: negative amount", rowNum)
		}

		status, err := parseStatus(cellValue(row, lay.status))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		params = append(params, billing.CreateParams{
			CustomerName:  name,
			CustomerEmail: email,
			Description:   cellValue(row, lay.desc),
			Amount:        amount,
			DueDate:       due,
			Status:        status,
		})
	}

	return params, nil
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

func parseStatus(s string) (billing.Status, error) {
	if s == "" {
		return billing.StatusPending, nil
	}

	if status, ok := statusAliases[strings.ToLower(s)]; ok {
		return status, nil
	}

	return "", fmt.Errorf("unknown status %q", s)
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}

// ParseBrazilianAmount converts "1.234,56" style values into cents. A
// leading "R$" prefix is tolerated.
func ParseBrazilianAmount(s string) (int64, error) {
	clean := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	clean = strings.ReplaceAll(clean, ".", "")
	clean = strings.ReplaceAll(clean, ",", ".")

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, err
	}

	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart(), nil
}
