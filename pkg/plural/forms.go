package plural

import (
	"strconv"
	"strings"
)

// Forms holds the text variants of a plural line. Other is required; every
// other form falls back to it when empty.
type Forms struct {
	Zero  string `yaml:"zero" json:"zero,omitempty"`
	One   string `yaml:"one" json:"one,omitempty"`
	Two   string `yaml:"two" json:"two,omitempty"`
	Few   string `yaml:"few" json:"few,omitempty"`
	Many  string `yaml:"many" json:"many,omitempty"`
	Other string `yaml:"other" json:"other"`
}

// Select returns the form for c.
func (f Forms) Select(c Case) string {
	var s string
	switch c {
	case Zero:
		s = f.Zero
	case One:
		s = f.One
	case Two:
		s = f.Two
	case Few:
		s = f.Few
	case Many:
		s = f.Many
	}
	if s == "" {
		return f.Other
	}
	return s
}

// Format picks the cardinal form of n and substitutes "{n}". A non-empty Zero
// form is used for n == 0 even in languages without a zero category.
func (f Forms) Format(sel *Selector, n int) string {
	c := sel.Cardinal(n)
	if n == 0 && f.Zero != "" {
		c = Zero
	}
	return strings.ReplaceAll(f.Select(c), "{n}", strconv.Itoa(n))
}

// Longest returns the length of the longest form, for capacity checks.
func (f Forms) Longest() int {
	n := 0
	for _, s := range []string{f.Zero, f.One, f.Two, f.Few, f.Many, f.Other} {
		n = max(n, len(s))
	}
	return n
}
