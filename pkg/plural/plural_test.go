package plural_test

import (
	"testing"

	"github.com/aretw0/threadbare/pkg/plural"
	"github.com/stretchr/testify/assert"
)

func TestEnglishCardinal(t *testing.T) {
	assert.Equal(t, plural.One, plural.English.Cardinal(1))
	assert.Equal(t, plural.One, plural.English.Cardinal(-1))
	assert.Equal(t, plural.Other, plural.English.Cardinal(0))
	assert.Equal(t, plural.Other, plural.English.Cardinal(2))
	assert.Equal(t, plural.Other, plural.English.CardinalFloat(1.5, 1))
}

func TestEnglishOrdinal(t *testing.T) {
	cases := map[int]plural.Case{
		1:   plural.One,
		2:   plural.Two,
		3:   plural.Few,
		4:   plural.Other,
		11:  plural.Other,
		12:  plural.Other,
		13:  plural.Other,
		21:  plural.One,
		22:  plural.Two,
		23:  plural.Few,
		101: plural.One,
		111: plural.Other,
	}
	for n, want := range cases {
		assert.Equal(t, want, plural.English.Ordinal(n), "ordinal %d", n)
	}
}

func TestHash(t *testing.T) {
	assert.Equal(t, uint32(0x811C9DC5), plural.Hash(""))
	assert.Equal(t, plural.Hash("apple"), plural.Hash("apple"))
	assert.NotEqual(t, plural.Hash("apple"), plural.Hash("apply"))
	// One tail byte: basis*prime ^ 'a'.
	basis, prime := uint32(0x811C9DC5), uint32(0x01000193)
	assert.Equal(t, basis*prime^uint32('a'), plural.Hash("a"))
}

func TestForms_Format(t *testing.T) {
	f := plural.Forms{
		Zero:  "You have never been here.",
		One:   "You came once.",
		Other: "You came {n} times.",
	}
	assert.Equal(t, "You have never been here.", f.Format(plural.English, 0))
	assert.Equal(t, "You came once.", f.Format(plural.English, 1))
	assert.Equal(t, "You came 7 times.", f.Format(plural.English, 7))

	noZero := plural.Forms{Other: "{n} coins"}
	assert.Equal(t, "0 coins", noZero.Format(plural.English, 0))
	assert.Equal(t, "1 coins", noZero.Format(plural.English, 1), "missing forms fall back to Other")
	assert.Equal(t, len("You have never been here."), f.Longest())
}
