/*
cbo.go - CBO timesheet CSV parsing

PURPOSE:
  Parses the raw CBO export into structured rows. The export packs a
  whole day of activity into one CSV record: the 作業時間 (work time),
  作業内容 (task) and 残業種別 (overtime type) cells each hold one line
  per activity segment, index-aligned across the three columns, with
  embedded newlines inside the quoted cells.

TOLERANCE:
  Header-driven column lookup; extra or missing columns are fine.
  Rows with no reporter, an unparseable date, or no usable content are
  skipped silently - the exports are known to contain noise rows and
  one bad row must never abort an upload.

SEE ALSO:
  - allocate.go: consumes the parsed work blocks
*/
package timesheet

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/shopspring/decimal"
)

// CBORow is one parsed CBO record: one reporter, one date, the day's
// work blocks, and the export's own scalar overtime/early figures.
// The same employee-day may span several records; callers accumulate
// by DayKey.
type CBORow struct {
	Employee      string          `json:"employee"` // normalized name
	Date          string          `json:"date"`     // YYYY/MM/DD
	Blocks        []WorkBlock     `json:"blocks"`
	OvertimeHours decimal.Decimal `json:"overtime_hours"`
	EarlyHours    decimal.Decimal `json:"early_hours"`
}

// Key returns the row's employee-day key.
func (r CBORow) Key() DayKey {
	return DayKey{Name: r.Employee, Date: r.Date}
}

// CBO export column headers. ユーザー名 is the older export's name for
// the reporter column.
const (
	colReporter     = "報告者"
	colReporterAlt  = "ユーザー名"
	colWorkDate     = "作業日"
	colTimeRanges   = "作業時間"
	colTaskContents = "作業内容"
	colOvertimeType = "残業種別"
	colOvertime     = "残業時間"
	colEarly        = "早出時間"
)

// ParseCBOCSV parses a CBO export. Malformed rows are skipped, never
// an error; only completely unreadable input yields an empty result.
func ParseCBOCSV(data string) []CBORow {
	records := readCSV(data)
	if len(records) < 2 {
		return nil
	}

	cols := headerIndex(records[0])
	var rows []CBORow

	for _, rec := range records[1:] {
		name := NormalizeName(cols.get(rec, colReporter, colReporterAlt))
		if name == "" {
			continue
		}
		date, ok := NormalizeDate(cols.get(rec, colWorkDate))
		if !ok {
			continue
		}

		ranges := splitLines(cols.get(rec, colTimeRanges))
		tasks := splitLines(cols.get(rec, colTaskContents))
		tags := splitLines(cols.get(rec, colOvertimeType))

		n := len(ranges)
		if len(tasks) > n {
			n = len(tasks)
		}
		if len(tags) > n {
			n = len(tags)
		}

		var blocks []WorkBlock
		for i := 0; i < n; i++ {
			iv := ParseRange(lineAt(ranges, i))
			if iv.IsZero() {
				continue
			}
			blocks = append(blocks, WorkBlock{
				Range:        iv,
				Task:         lineAt(tasks, i),
				OvertimeType: lineAt(tags, i),
			})
		}

		rows = append(rows, CBORow{
			Employee:      name,
			Date:          date,
			Blocks:        blocks,
			OvertimeHours: ParseClock(cols.get(rec, colOvertime)),
			EarlyHours:    ParseClock(cols.get(rec, colEarly)),
		})
	}

	return rows
}

// =============================================================================
// CSV PLUMBING (shared by the attendance and sales parsers)
// =============================================================================

// readCSV reads all records, tolerating ragged column counts and lax
// quoting. encoding/csv handles the embedded newlines in quoted cells.
func readCSV(data string) [][]string {
	r := csv.NewReader(strings.NewReader(strings.TrimSpace(data)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Skip the unreadable record and keep going.
			continue
		}
		records = append(records, rec)
	}
	return records
}

// columnIndex maps header names to positions for one parsed file.
type columnIndex map[string]int

func headerIndex(header []string) columnIndex {
	cols := make(columnIndex, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	return cols
}

// get returns the trimmed cell under the first matching header name,
// or "" when no candidate column exists in this file.
func (c columnIndex) get(rec []string, names ...string) string {
	for _, name := range names {
		if i, ok := c[name]; ok && i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
	}
	return ""
}

func splitLines(cell string) []string {
	if cell == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(cell, "\r\n", "\n"), "\n")
}

func lineAt(lines []string, i int) string {
	if i < len(lines) {
		return strings.TrimSpace(lines[i])
	}
	return ""
}
