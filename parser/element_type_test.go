package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestElementTypeFromBytes(t *testing.T) {
	tests := []struct {
		in   string
		want elementType
	}{
		{"html", html},
		{"HTML", html},
		{"TaBLe", table},
		{"b", b},
		{"u", u},
		{"address", address},
		{"wbr", wbr},
		{"svg", svg},
		{"frobnicator", unknown},
		{"", unknown},
	}

	for _, test := range tests {
		assert.Equal(t, test.want, elementTypeFromBytes([]byte(test.in)), test.in)
	}
}

func TestClassifierRanges(t *testing.T) {
	// The enumeration is ordered so each predicate is a contiguous
	// range; spot-check the boundaries.
	assert.True(t, isSpecialElement(address))
	assert.True(t, isSpecialElement(wbr))
	assert.False(t, isSpecialElement(applet))

	assert.True(t, isScopingElement(applet))
	assert.True(t, isScopingElement(th))
	assert.True(t, isScopingElement(html))
	assert.True(t, isScopingElement(table))
	assert.False(t, isScopingElement(a))
	assert.False(t, isScopingElement(wbr))

	assert.True(t, isFormattingElement(a))
	assert.True(t, isFormattingElement(u))
	assert.False(t, isFormattingElement(th))
	assert.False(t, isFormattingElement(math))

	assert.True(t, isPhrasingElement(math))
	assert.True(t, isPhrasingElement(unknown))
	assert.False(t, isPhrasingElement(u))
}

func TestHTMLDoesNotMapToZero(t *testing.T) {
	// Slot 0 of the element stack uses type zero for "unused".
	assert.NotEqual(t, elementType(0), html)
}

func TestImpliedEndTagSet(t *testing.T) {
	for _, et := range []elementType{dd, dt, li, option, optgroup, p, rp, rt} {
		assert.True(t, impliedEndTag(et), et.String())
	}
	for _, et := range []elementType{div, body, table, a, unknown} {
		assert.False(t, impliedEndTag(et), et.String())
	}
}
