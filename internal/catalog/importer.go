package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ImportReport summarizes a CSV import.
type ImportReport struct {
	Processed int      `json:"processed"`
	Inserted  int      `json:"inserted"`
	Skipped   int      `json:"skipped"`
	Details   []string `json:"details,omitempty"`
}

func (r *ImportReport) skip(format string, args ...any) {
	r.Skipped++
	r.Details = append(r.Details, fmt.Sprintf(format, args...))
}

// ImportTable is a cleaned CSV ready to be written to a database.
type ImportTable struct {
	Columns []string
	Kinds   map[string]string
	Rows    [][]any
}

// ParseCSV reads the merged school CSV, cleans every mapped value and drops
// rows with an empty or duplicate primary key. Columns are sorted by name.
func ParseCSV(ctx context.Context, r io.Reader) (*ImportTable, *ImportReport, error) {
	log := zap.L().With(zap.String("component", "catalog.import"))

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, eris.Wrap(err, "catalog: read csv header")
	}
	pos := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		pos[strings.TrimSpace(h)] = i
	}
	var missing []string
	for _, h := range requiredHeaders {
		if _, ok := pos[h]; !ok {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, nil, eris.Errorf("catalog: csv missing required headers: %s", strings.Join(missing, ", "))
	}

	specs := make([]columnSpec, len(csvColumns))
	copy(specs, csvColumns)
	sort.Slice(specs, func(i, j int) bool { return specs[i].Column < specs[j].Column })

	table := &ImportTable{Kinds: map[string]string{ratioColumn: kindReal}}
	for _, sp := range specs {
		if _, ok := pos[sp.Header]; !ok {
			log.Debug("csv header absent, column will be null", zap.String("header", sp.Header))
		}
		table.Columns = append(table.Columns, sp.Column)
		table.Kinds[sp.Column] = sp.Kind
	}
	table.Columns = append(table.Columns, ratioColumn)
	codeIdx := pos["School Code Adjusted"]

	report := &ImportReport{}
	seen := make(map[string]bool)
	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, eris.Wrap(err, "catalog: import cancelled")
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, nil, eris.Wrapf(err, "catalog: read csv line %d", line)
		}
		report.Processed++

		get := func(header string) string {
			i, ok := pos[header]
			if !ok || i >= len(record) {
				return ""
			}
			return record[i]
		}

		code := ""
		if codeIdx < len(record) {
			code = strings.TrimSpace(record[codeIdx])
		}
		if code == "" {
			report.skip("CSV row %d: missing or empty primary key", line)
			continue
		}
		if seen[code] {
			report.skip("CSV row %d (PK: %s): duplicate primary key in CSV", line, code)
			continue
		}
		seen[code] = true

		row := make([]any, 0, len(table.Columns))
		for _, sp := range specs {
			row = append(row, cleanValue(get(sp.Header), sp.Kind))
		}
		row = append(row, ratioValue(get("Student Teacher Ratio")))
		table.Rows = append(table.Rows, row)
		report.Inserted++
	}

	return table, report, nil
}

// ImportCSV parses csvPath and replaces the schools table in the SQLite
// database at dbPath.
func ImportCSV(ctx context.Context, csvPath, dbPath string) (*ImportReport, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: open csv %s", csvPath)
	}
	defer func() { _ = f.Close() }()

	table, report, err := ParseCSV(ctx, f)
	if err != nil {
		return nil, err
	}
	if err := WriteSQLite(ctx, dbPath, DefaultTable, table); err != nil {
		return nil, err
	}
	return report, nil
}

var nullTokens = map[string]bool{"": true, "*": true, "N/A": true, "#VALUE!": true, "N": true, "NA": true}

// cleanValue normalizes a raw CSV cell. Placeholder tokens become NULL;
// numeric cells drop thousands separators and percent signs and accept
// parenthesized negatives. Unparseable numbers become NULL.
func cleanValue(raw, kind string) any {
	v := strings.TrimSpace(strings.ReplaceAll(raw, "\u00a0", " "))
	if nullTokens[strings.ToUpper(v)] {
		return nil
	}
	if kind == kindText {
		return v
	}

	v = strings.NewReplacer(",", "", "%", "").Replace(v)
	if strings.HasPrefix(v, "(") && strings.HasSuffix(v, ")") {
		v = "-" + v[1:len(v)-1]
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	if kind == kindInteger {
		return int64(f)
	}
	return f
}

// ratioValue turns "15:01" into 15.0. Missing or zero denominators are NULL.
func ratioValue(raw string) any {
	s, t, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok {
		return nil
	}
	num, err1 := strconv.ParseFloat(strings.TrimSpace(s), 64)
	den, err2 := strconv.ParseFloat(strings.TrimSpace(t), 64)
	if err1 != nil || err2 != nil || den == 0 {
		return nil
	}
	return num / den
}
