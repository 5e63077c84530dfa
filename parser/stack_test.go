package parser

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStackPushPop(t *testing.T) {
	s := newElementStack()
	assert.Equal(t, 0, s.current)
	assert.False(t, s.rootInUse())

	s.setRoot(NamespaceHTML, nil)
	assert.True(t, s.rootInUse())
	assert.Equal(t, 0, s.current)
	assert.Equal(t, html, s.currentNode())

	s.push(NamespaceHTML, body, "body")
	s.push(NamespaceHTML, div, "div")
	assert.Equal(t, 2, s.current)
	assert.Equal(t, div, s.currentNode())
	assert.Equal(t, body, s.prevNode())

	frame := s.pop()
	assert.Equal(t, div, frame.elemType)
	assert.Equal(t, "div", frame.node)
	assert.Equal(t, body, s.currentNode())
}

func TestStackPrevNodeSingleFrame(t *testing.T) {
	s := newElementStack()
	s.setRoot(NamespaceHTML, nil)
	assert.Equal(t, unknown, s.prevNode())
}

func TestStackUnderflowPanics(t *testing.T) {
	s := newElementStack()
	s.setRoot(NamespaceHTML, nil)
	assert.Panics(t, func() { s.pop() })
}

func TestStackChunkGrowthPreservesFrames(t *testing.T) {
	s := newElementStack()
	s.setRoot(NamespaceHTML, nil)

	const n = elementStackChunk*2 + 7
	for j := 0; j < n; j++ {
		s.push(NamespaceHTML, div, fmt.Sprintf("node-%d", j))
	}
	require.Equal(t, n, s.current)

	for j := n - 1; j >= 0; j-- {
		frame := s.pop()
		assert.Equal(t, fmt.Sprintf("node-%d", j), frame.node)
	}
}

func TestStackCurrentTable(t *testing.T) {
	s := newElementStack()
	s.setRoot(NamespaceHTML, nil)
	s.push(NamespaceHTML, body, nil)
	assert.Equal(t, 0, s.currentTable)

	s.push(NamespaceHTML, table, "outer")
	assert.Equal(t, 2, s.currentTable)

	s.push(NamespaceHTML, td, nil)
	s.push(NamespaceHTML, table, "inner")
	assert.Equal(t, 4, s.currentTable)

	s.pop()
	assert.Equal(t, 2, s.currentTable)

	s.pop()
	s.pop()
	assert.Equal(t, 0, s.currentTable)
}

func TestElementInScope(t *testing.T) {
	s := newElementStack()
	s.setRoot(NamespaceHTML, nil)
	s.push(NamespaceHTML, body, nil)
	s.push(NamespaceHTML, p, nil)

	assert.Equal(t, 2, s.elementInScope(p, false))
	assert.Equal(t, 1, s.elementInScope(body, false))
	assert.Equal(t, 0, s.elementInScope(table, false))

	// A table is a scope barrier in both flavours.
	s.push(NamespaceHTML, table, nil)
	s.push(NamespaceHTML, td, nil)
	assert.Equal(t, 0, s.elementInScope(p, false))
	assert.Equal(t, 0, s.elementInScope(p, true))
	assert.Equal(t, 4, s.elementInScope(td, false))

	// Non-table scoping elements only block regular scope.
	s.push(NamespaceHTML, div, nil)
	s.push(NamespaceHTML, marquee, nil)
	s.push(NamespaceHTML, unknown, nil)
	assert.Equal(t, 0, s.elementInScope(div, false))
	assert.Equal(t, 5, s.elementInScope(div, true))
}

func TestPopElementInvalidatesFormattingEntries(t *testing.T) {
	tokenizer := &nullTokenizer{}
	tb, err := NewTreeBuilder(tokenizer)
	require.NoError(t, err)

	tb.ctx.stack.setRoot(NamespaceHTML, nil)
	tb.ctx.stack.push(NamespaceHTML, body, nil)
	tb.ctx.stack.push(NamespaceHTML, b, "bold")
	entry := tb.ctx.fmtList.append(b, "bold", 2)

	frame := tb.popElement()
	assert.Equal(t, b, frame.elemType)
	assert.Equal(t, 0, entry.stackIndex)

	// The node stays on the list until removed or replaced.
	assert.Equal(t, "bold", entry.node)
}

func TestPopNonFormattingLeavesEntriesAlone(t *testing.T) {
	tokenizer := &nullTokenizer{}
	tb, err := NewTreeBuilder(tokenizer)
	require.NoError(t, err)

	tb.ctx.stack.setRoot(NamespaceHTML, nil)
	tb.ctx.stack.push(NamespaceHTML, b, "bold")
	entry := tb.ctx.fmtList.append(b, "bold", 1)
	tb.ctx.stack.push(NamespaceHTML, div, nil)

	tb.popElement()
	assert.Equal(t, 1, entry.stackIndex)
}

type nullTokenizer struct {
	model ContentModel
}

func (n *nullTokenizer) SetContentModel(model ContentModel) {
	n.model = model
}

func TestResetInsertionModeIsPureFunctionOfStack(t *testing.T) {
	tests := []struct {
		stack []elementType
		want  insertionMode
	}{
		{[]elementType{body}, inBody},
		{[]elementType{body, table}, inTable},
		{[]elementType{body, table, tbody}, inTableBody},
		{[]elementType{body, table, tbody, tr}, inRow},
		{[]elementType{body, table, tbody, tr, td}, inCell},
		{[]elementType{body, table, caption}, inCaption},
		// Fragment-only frames fall through to the next frame down.
		{[]elementType{body, table, colgroup}, inTable},
		{[]elementType{body, selectType}, inBody},
	}

	for _, test := range tests {
		tb, err := NewTreeBuilder(&nullTokenizer{})
		require.NoError(t, err)
		tb.ctx.stack.setRoot(NamespaceHTML, nil)
		for _, et := range test.stack {
			tb.ctx.stack.push(NamespaceHTML, et, nil)
		}

		tb.ctx.mode = inBody
		tb.resetInsertionMode()
		first := tb.ctx.mode

		tb.resetInsertionMode()
		assert.Equal(t, first, tb.ctx.mode, "mode reset must be deterministic")
		assert.Equal(t, test.want, first)
	}
}
