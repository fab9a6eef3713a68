/*
Package generic provides the domain-agnostic building blocks of the timesheet engine.

PURPOSE:
  Everything in here is independent of programs, workers and sessions:
  decimal hour arithmetic, calendar dates, reporting windows and the
  row-store contract the engine persists through. The timesheet package
  layers the domain rules on top.

KEY CONCEPTS IN THIS FILE (types.go):
  - Hours: decimal.Decimal quantities, always written with two decimals
  - Elapsed: conversion from a wall-clock duration to fractional hours

DESIGN PRINCIPLES:
  1. Precision: hours are decimal.Decimal, never float64, so 0.25 buckets
     and 2-decimal rounding are exact
  2. Storage agnostic: the row store is an interface (store.go)
  3. Pure date math: windows are values, computed from an explicit "today"

SEE ALSO:
  - time.go: TimePoint (calendar date) and Clock
  - period.go: reporting windows (monthly, payroll, custom)
  - store.go: row store contract
*/
package generic

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// HoursScale is the number of decimals hours are written with.
const HoursScale = 2

// MustParseHours parses s and panics on malformed input. Test helper.
func MustParseHours(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ParseHours parses a stored hours cell. An empty cell is zero.
func ParseHours(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// FormatHours renders hours the way they are written to the store.
func FormatHours(d decimal.Decimal) string { return d.StringFixed(HoursScale) }

// RoundHours rounds to the stored precision.
func RoundHours(d decimal.Decimal) decimal.Decimal { return d.Round(HoursScale) }

// Elapsed converts a duration to fractional hours at second precision.
func Elapsed(d time.Duration) decimal.Decimal {
	seconds := int64(d / time.Second)
	return decimal.NewFromInt(seconds).Div(decimal.NewFromInt(3600))
}

// SumHours adds up hour quantities.
func SumHours(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
