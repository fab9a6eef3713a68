package timesheet

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/timesheet-engine/generic"
)

// ProgramTotal is one line of the program totals: a program, or a merged
// reporting category, with its summed adjusted hours.
type ProgramTotal struct {
	Program string
	Hours   decimal.Decimal
}

// Aggregate sums adjusted hours of closed entries per program, merges
// programs that share a reporting category, and orders the result by hours
// descending then name ascending. Empty input yields an empty slice.
func Aggregate(entries []Entry, categories map[Program]string) []ProgramTotal {
	totals := mergeCategories(groupByProgram(entries), categories)

	out := make([]ProgramTotal, 0, len(totals))
	for name, hours := range totals {
		out = append(out, ProgramTotal{Program: name, Hours: hours})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Hours.Cmp(out[j].Hours); c != 0 {
			return c > 0
		}
		return out[i].Program < out[j].Program
	})
	return out
}

func groupByProgram(entries []Entry) map[Program]decimal.Decimal {
	totals := make(map[Program]decimal.Decimal)
	for _, e := range entries {
		if e.IsOpen() {
			continue
		}
		totals[e.Program] = totals[e.Program].Add(e.AdjustedHours)
	}
	return totals
}

// mergeCategories folds grouped totals into their reporting categories.
// Programs without a category keep their own name.
func mergeCategories(totals map[Program]decimal.Decimal, categories map[Program]string) map[string]decimal.Decimal {
	merged := make(map[string]decimal.Decimal, len(totals))
	for program, hours := range totals {
		label := string(program)
		if c, ok := categories[program]; ok && c != "" {
			label = c
		}
		merged[label] = merged[label].Add(hours)
	}
	return merged
}

// TotalHours sums the totals.
func TotalHours(totals []ProgramTotal) decimal.Decimal {
	hours := make([]decimal.Decimal, len(totals))
	for i, t := range totals {
		hours[i] = t.Hours
	}
	return generic.SumHours(hours...)
}
