package generic

import (
	"fmt"
	"strconv"
	"strings"
)

// CellRef is one parsed A1 cell: 1-based Row, 0-based Col.
type CellRef struct {
	Sheet string
	Row   int
	Col   int
}

// ParseA1 parses "E5", "Sheet1!E5" or "Sheet1!E5:G5" into its first and last
// cells. A single cell returns the same ref twice.
func ParseA1(address string) (from, to CellRef, err error) {
	sheet, cells := "", strings.TrimSpace(address)
	if i := strings.LastIndex(cells, "!"); i >= 0 {
		sheet = strings.Trim(cells[:i], "'")
		cells = cells[i+1:]
	}

	first, last, isRange := strings.Cut(cells, ":")
	if from, err = parseCell(first); err != nil {
		return CellRef{}, CellRef{}, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	from.Sheet = sheet
	if !isRange {
		return from, from, nil
	}
	if to, err = parseCell(last); err != nil || to.Col < from.Col || to.Row < from.Row {
		return CellRef{}, CellRef{}, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	to.Sheet = sheet
	return from, to, nil
}

func parseCell(s string) (CellRef, error) {
	i := 0
	for i < len(s) && (s[i] >= 'A' && s[i] <= 'Z' || s[i] >= 'a' && s[i] <= 'z') {
		i++
	}
	if i == 0 || i == len(s) {
		return CellRef{}, ErrInvalidAddress
	}
	col, err := ColumnIndex(s[:i])
	if err != nil {
		return CellRef{}, err
	}
	row, err := strconv.Atoi(s[i:])
	if err != nil || row < 1 {
		return CellRef{}, ErrInvalidAddress
	}
	return CellRef{Row: row, Col: col}, nil
}

// ColumnIndex converts a column name (A, Z, AA) to a 0-based index.
func ColumnIndex(name string) (int, error) {
	if name == "" {
		return 0, ErrInvalidAddress
	}
	idx := 0
	for _, r := range strings.ToUpper(name) {
		if r < 'A' || r > 'Z' {
			return 0, ErrInvalidAddress
		}
		idx = idx*26 + int(r-'A'+1)
	}
	return idx - 1, nil
}

// ColumnName converts a 0-based index to its column name.
func ColumnName(col int) string {
	name := ""
	for col >= 0 {
		name = string(rune('A'+col%26)) + name
		col = col/26 - 1
	}
	return name
}

// FormatA1 renders a single cell address.
func FormatA1(sheet string, row, col int) string {
	return sheetPrefix(sheet) + ColumnName(col) + strconv.Itoa(row)
}

// FormatRowRange renders the cells fromCol..toCol of one row.
func FormatRowRange(sheet string, row, fromCol, toCol int) string {
	return fmt.Sprintf("%s%s%d:%s%d", sheetPrefix(sheet), ColumnName(fromCol), row, ColumnName(toCol), row)
}

// SheetOf returns the sheet part of a range such as "Sheet1!A:H".
func SheetOf(rng string) string {
	if i := strings.LastIndex(rng, "!"); i >= 0 {
		return strings.Trim(rng[:i], "'")
	}
	return ""
}

func sheetPrefix(sheet string) string {
	switch {
	case sheet == "":
		return ""
	case strings.ContainsAny(sheet, " '"):
		return "'" + strings.ReplaceAll(sheet, "'", "''") + "'!"
	default:
		return sheet + "!"
	}
}
