package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormattingListAppendRemove(t *testing.T) {
	l := &formattingList{}

	e1 := l.append(b, "b1", 1)
	e2 := l.append(i, "i1", 2)
	e3 := l.append(em, "em1", 3)

	assert.Same(t, e1, l.head)
	assert.Same(t, e3, l.tail)
	assert.Same(t, e2, e1.next)
	assert.Same(t, e2, e3.prev)

	et, node, idx := l.remove(e2)
	assert.Equal(t, i, et)
	assert.Equal(t, "i1", node)
	assert.Equal(t, 2, idx)
	assert.Same(t, e3, e1.next)
	assert.Same(t, e1, e3.prev)

	l.remove(e1)
	assert.Same(t, e3, l.head)
	l.remove(e3)
	assert.Nil(t, l.head)
	assert.Nil(t, l.tail)
}

func TestFormattingListInsert(t *testing.T) {
	l := &formattingList{}
	e1 := l.append(b, nil, 1)
	e3 := l.append(em, nil, 3)

	e2 := l.insert(e1, e3, i, nil, 2)
	assert.Same(t, e2, e1.next)
	assert.Same(t, e2, e3.prev)

	front := l.insert(nil, e1, u, nil, 0)
	assert.Same(t, front, l.head)

	back := l.insert(e3, nil, s, nil, 0)
	assert.Same(t, back, l.tail)
}

func TestFormattingListInsertNonAdjacentPanics(t *testing.T) {
	l := &formattingList{}
	e1 := l.append(b, nil, 1)
	l.append(i, nil, 2)
	e3 := l.append(em, nil, 3)

	assert.Panics(t, func() { l.insert(e1, e3, u, nil, 0) })
}

func TestFormattingListReplace(t *testing.T) {
	l := &formattingList{}
	entry := l.append(b, "old", 4)

	et, node, idx := l.replace(entry, b, "new", 7)
	assert.Equal(t, b, et)
	assert.Equal(t, "old", node)
	assert.Equal(t, 4, idx)
	assert.Equal(t, "new", entry.node)
	assert.Equal(t, 7, entry.stackIndex)
}

func TestFormattingListInvalidateAndShift(t *testing.T) {
	l := &formattingList{}
	e1 := l.append(b, nil, 2)
	e2 := l.append(i, nil, 4)
	e3 := l.append(em, nil, 5)

	l.invalidate(4)
	assert.Equal(t, 2, e1.stackIndex)
	assert.Equal(t, 0, e2.stackIndex)
	assert.Equal(t, 5, e3.stackIndex)

	l.shiftIndices(3, -1)
	assert.Equal(t, 2, e1.stackIndex)
	assert.Equal(t, 0, e2.stackIndex)
	assert.Equal(t, 4, e3.stackIndex)
}

func TestFormattingListMarkers(t *testing.T) {
	l := &formattingList{}
	l.append(b, nil, 1)
	marker := l.append(td, nil, 2)
	inner := l.append(i, nil, 3)

	assert.True(t, marker.isMarker())
	assert.False(t, inner.isMarker())

	// The backwards search for a formatting entry stops at markers.
	assert.Same(t, inner, l.lastMatching(i))
	assert.Nil(t, l.lastMatching(b))
}

func TestReconstructIsNoOpWhenNothingDetached(t *testing.T) {
	tb, err := NewTreeBuilder(&nullTokenizer{})
	require.NoError(t, err)

	// Empty list.
	tb.reconstructActiveFormattingElements()
	assert.Nil(t, tb.ctx.fmtList.head)

	// Tail still on the stack.
	tb.ctx.stack.setRoot(NamespaceHTML, nil)
	tb.ctx.stack.push(NamespaceHTML, b, nil)
	entry := tb.ctx.fmtList.append(b, nil, 1)
	tb.reconstructActiveFormattingElements()
	assert.Equal(t, 1, entry.stackIndex)
	assert.Same(t, entry, tb.ctx.fmtList.tail)

	// Tail is a marker.
	marker := tb.ctx.fmtList.append(td, nil, 0)
	tb.reconstructActiveFormattingElements()
	assert.Same(t, marker, tb.ctx.fmtList.tail)
}

func TestCloseImpliedEndTagsIdempotentOutsideImpliedSet(t *testing.T) {
	tb, err := NewTreeBuilder(&nullTokenizer{})
	require.NoError(t, err)
	tb.ctx.stack.setRoot(NamespaceHTML, nil)
	tb.ctx.stack.push(NamespaceHTML, body, nil)
	tb.ctx.stack.push(NamespaceHTML, div, nil)

	tb.closeImpliedEndTags(unknown)
	assert.Equal(t, 2, tb.ctx.stack.current)
	tb.closeImpliedEndTags(unknown)
	assert.Equal(t, 2, tb.ctx.stack.current)
}
