package entities

import "strings"

// NormalizeSymbols trims and upper-cases symbols, dropping blanks and
// duplicates while keeping the first occurrence order.
func NormalizeSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	return out
}

// ParseSymbols splits a comma separated symbol list.
func ParseSymbols(csv string) []string {
	return NormalizeSymbols(strings.Split(csv, ","))
}
