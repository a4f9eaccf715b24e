// Package plural selects grammatical plural forms for generated dialogue code
// and hashes select-markup keys the way the script compiler does.
package plural

import (
	"math"

	xplural "golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
)

// Case is a CLDR plural category.
type Case int

const (
	Zero Case = iota
	One
	Two
	Few
	Many
	Other
)

func (c Case) String() string {
	switch c {
	case Zero:
		return "zero"
	case One:
		return "one"
	case Two:
		return "two"
	case Few:
		return "few"
	case Many:
		return "many"
	}
	return "other"
}

// Selector picks plural cases for one language.
type Selector struct {
	lang language.Tag
}

// NewSelector returns a selector for lang.
func NewSelector(lang language.Tag) *Selector {
	return &Selector{lang: lang}
}

// English is the selector used when a story declares no locale.
var English = NewSelector(language.English)

// Cardinal returns the cardinal case of n ("1 apple", "2 apples").
func (s *Selector) Cardinal(n int) Case {
	i := abs(n)
	return fromForm(xplural.Cardinal.MatchPlural(s.lang, i, 0, 0, 0, 0))
}

// Ordinal returns the ordinal case of n ("1st", "2nd", "3rd", "4th").
func (s *Selector) Ordinal(n int) Case {
	i := abs(n)
	return fromForm(xplural.Ordinal.MatchPlural(s.lang, i, 0, 0, 0, 0))
}

// CardinalFloat returns the cardinal case of a fractional quantity shown with
// the given number of decimal digits.
func (s *Selector) CardinalFloat(v float64, digits int) Case {
	v = math.Abs(v)
	scale := math.Pow10(digits)
	frac := int(math.Round((v-math.Trunc(v))*scale))
	f, t := frac, frac
	w := digits
	for t != 0 && t%10 == 0 {
		t /= 10
		w--
	}
	if t == 0 {
		w = 0
	}
	return fromForm(xplural.Cardinal.MatchPlural(s.lang, int(v), digits, w, f, t))
}

func fromForm(f xplural.Form) Case {
	switch f {
	case xplural.Zero:
		return Zero
	case xplural.One:
		return One
	case xplural.Two:
		return Two
	case xplural.Few:
		return Few
	case xplural.Many:
		return Many
	}
	return Other
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
