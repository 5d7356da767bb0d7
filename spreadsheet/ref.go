package spreadsheet

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var refPattern = regexp.MustCompile(`^([A-Za-z]+)([0-9]+)$`)

// IsCellRef reports whether s is a cell reference such as "B3" or "aa34".
func IsCellRef(s string) bool {
	return refPattern.MatchString(s)
}

// Resolve parses a cell reference like "A1" or "AA34" into 0-indexed column
// and row numbers.
func Resolve(ref string) (x, y int, err error) {
	m := refPattern.FindStringSubmatch(ref)
	if m == nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	row, err := strconv.Atoi(m[2])
	if err != nil || row < 1 {
		return 0, 0, fmt.Errorf("%w: invalid row in %q", ErrInvalidRef, ref)
	}
	return ColumnIndex(m[1]), row - 1, nil
}

// ColumnIndex converts column letters to a 0-indexed column number.
// A=0, B=1, ..., Z=25, AA=26, etc. It returns -1 for non letters.
func ColumnIndex(letters string) int {
	result := 0
	for _, c := range strings.ToUpper(letters) {
		if c < 'A' || c > 'Z' {
			return -1
		}
		result = result*26 + int(c-'A') + 1
	}
	return result - 1
}

// ColumnName converts a 0-indexed column number to its letters.
// 0=A, 25=Z, 26=AA, etc.
func ColumnName(index int) string {
	if index < 0 {
		return ""
	}
	result := ""
	index++
	for index > 0 {
		index--
		result = string(rune('A'+index%26)) + result
		index /= 26
	}
	return result
}

// CellRef creates a cell reference from 0-indexed column and row numbers.
func CellRef(x, y int) string {
	return fmt.Sprintf("%s%d", ColumnName(x), y+1)
}

// splitAddress splits a base cell address like "$Invoice.$H$34" into its
// sheet name and cell reference.
func splitAddress(addr string) (sheet, ref string, err error) {
	addr = strings.ReplaceAll(addr, "$", "")
	i := strings.LastIndexByte(addr, '.')
	if i < 0 {
		return "", "", fmt.Errorf("%w: no sheet in %q", ErrInvalidRef, addr)
	}
	sheet = strings.Trim(addr[:i], "'")
	return sheet, addr[i+1:], nil
}
