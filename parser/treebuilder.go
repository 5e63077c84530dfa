package parser

import (
	"github.com/sirupsen/logrus"
)

type insertionMode uint

const (
	initial insertionMode = iota
	beforeHTML
	beforeHead
	inHead
	inHeadNoscript
	afterHead
	inBody
	inTable
	inCaption
	inColumnGroup
	inTableBody
	inRow
	inCell
	inSelect
	inSelectInTable
	inForeignContent
	afterBody
	inFrameset
	afterFrameset
	afterAfterBody
	afterAfterFrameset
	genericRCDATA
	scriptCollectCharacters
)

var insertionModeNames = map[insertionMode]string{
	initial:                 "initial",
	beforeHTML:              "before html",
	beforeHead:              "before head",
	inHead:                  "in head",
	inHeadNoscript:          "in head noscript",
	afterHead:               "after head",
	inBody:                  "in body",
	inTable:                 "in table",
	inCaption:               "in caption",
	inColumnGroup:           "in column group",
	inTableBody:             "in table body",
	inRow:                   "in row",
	inCell:                  "in cell",
	inSelect:                "in select",
	inSelectInTable:         "in select in table",
	inForeignContent:        "in foreign content",
	afterBody:               "after body",
	inFrameset:              "in frameset",
	afterFrameset:           "after frameset",
	afterAfterBody:          "after after body",
	afterAfterFrameset:      "after after frameset",
	genericRCDATA:           "generic rcdata",
	scriptCollectCharacters: "script collect characters",
}

func (m insertionMode) String() string {
	if name, ok := insertionModeNames[m]; ok {
		return name
	}
	return "unknown mode"
}

// collectState is the sub-state of the generic (R)CDATA and script
// collection side modes: the element receiving the collected text, the
// mode to restore, and the bytes gathered so far.
type collectState struct {
	mode     insertionMode
	elemType elementType
	node     NodeHandle
	data     []byte
}

// treebuilderContext is the mutable parsing state reachable from the
// builder.
type treebuilderContext struct {
	mode       insertionMode
	secondMode insertionMode // mode to return to from foreign content

	stack   *elementStack
	fmtList *formattingList

	document    NodeHandle
	headElement NodeHandle
	formElement NodeHandle

	collect collectState

	stripLeadingLR bool
	inTableFoster  bool
	quirksMode     QuirksMode
}

// TreeBuilder consumes the token stream of an HTML tokenizer and emits
// tree mutation calls against a TreeHandler, following the HTML5 tree
// construction algorithm.
type TreeBuilder struct {
	tokenizer Tokenizer

	inputBuffer []byte

	treeHandler   TreeHandler
	bufferHandler BufferHandler
	errorHandler  ErrorHandler

	ctx treebuilderContext

	log *logrus.Entry
}

// NewTreeBuilder creates a builder bound to the given tokenizer. The
// builder starts in the initial insertion mode with an empty stack and
// formatting list; tokens are discarded until a document node and a
// tree handler are configured.
func NewTreeBuilder(tokenizer Tokenizer) (*TreeBuilder, error) {
	if tokenizer == nil {
		return nil, ErrBadParameter
	}

	tb := &TreeBuilder{
		tokenizer: tokenizer,
		log:       logrus.WithField("component", "treebuilder"),
	}
	tb.ctx.mode = initial
	tb.ctx.stack = newElementStack()
	tb.ctx.fmtList = &formattingList{}

	return tb, nil
}

// SetTreeHandler installs the document sink.
func (tb *TreeBuilder) SetTreeHandler(handler TreeHandler) {
	tb.treeHandler = handler
}

// SetDocumentNode supplies the document root handle. The builder takes
// over the caller's reference.
func (tb *TreeBuilder) SetDocumentNode(document NodeHandle) {
	tb.ctx.document = document
}

// SetErrorHandler installs the parse-error observer.
func (tb *TreeBuilder) SetErrorHandler(handler ErrorHandler) {
	tb.errorHandler = handler
}

// SetBufferHandler installs a client observer for input buffer moves.
// The observer is immediately told the current base.
func (tb *TreeBuilder) SetBufferHandler(handler BufferHandler) {
	tb.bufferHandler = handler
	if handler != nil {
		handler(tb.inputBuffer)
	}
}

// BufferHandler is the tokenizer-facing buffer callback: all
// offset-typed strings in subsequent tokens resolve against this base
// until the next call.
func (tb *TreeBuilder) BufferHandler(data []byte) {
	tb.inputBuffer = data

	if tb.bufferHandler != nil {
		tb.bufferHandler(data)
	}
}

// TokenHandler is the tokenizer-facing token callback. Each token is
// routed to the current mode's handler, looping while the handler
// asks for the token to be reprocessed under a new mode.
func (tb *TreeBuilder) TokenHandler(token *Token) {
	if tb.ctx.document == nil || tb.treeHandler == nil {
		return
	}

	for reprocess := true; reprocess; {
		tb.log.WithField("mode", tb.ctx.mode).Debug("process token")

		switch tb.ctx.mode {
		case initial:
			reprocess = tb.handleInitial(token)
		case beforeHTML:
			reprocess = tb.handleBeforeHTML(token)
		case beforeHead:
			reprocess = tb.handleBeforeHead(token)
		case inHead:
			reprocess = tb.handleInHead(token)
		case inHeadNoscript:
			reprocess = tb.handleInHeadNoscript(token)
		case afterHead:
			reprocess = tb.handleAfterHead(token)
		case inBody:
			reprocess = tb.handleInBody(token)
		case inTable:
			reprocess = tb.handleInTable(token)
		case inCaption:
			reprocess = tb.handleInCaption(token)
		case inColumnGroup:
			reprocess = tb.handleInColumnGroup(token)
		case inTableBody:
			reprocess = tb.handleInTableBody(token)
		case inRow:
			reprocess = tb.handleInRow(token)
		case inCell:
			reprocess = tb.handleInCell(token)
		case inSelect:
			reprocess = tb.handleInSelect(token)
		case inSelectInTable:
			reprocess = tb.handleInSelectInTable(token)
		case inForeignContent:
			reprocess = tb.handleInForeignContent(token)
		case afterBody:
			reprocess = tb.handleAfterBody(token)
		case inFrameset:
			reprocess = tb.handleInFrameset(token)
		case afterFrameset:
			reprocess = tb.handleAfterFrameset(token)
		case afterAfterBody:
			reprocess = tb.handleAfterAfterBody(token)
		case afterAfterFrameset:
			reprocess = tb.handleAfterAfterFrameset(token)
		case genericRCDATA:
			reprocess = tb.handleGenericRCDATA(token)
		case scriptCollectCharacters:
			reprocess = tb.handleScriptCollectCharacters(token)
		}
	}
}

// Destroy releases every node handle the builder still holds: the
// document, head and form pointers, every live stack frame including
// the root slot, and every formatting list entry. The tokenizer must
// have detached first.
func (tb *TreeBuilder) Destroy() {
	if tb.treeHandler != nil {
		if tb.ctx.headElement != nil {
			tb.treeHandler.UnrefNode(tb.ctx.headElement)
		}
		if tb.ctx.formElement != nil {
			tb.treeHandler.UnrefNode(tb.ctx.formElement)
		}
		if tb.ctx.document != nil {
			tb.treeHandler.UnrefNode(tb.ctx.document)
		}
		if tb.ctx.collect.node != nil {
			tb.treeHandler.UnrefNode(tb.ctx.collect.node)
		}

		for n := tb.ctx.stack.current; n > 0; n-- {
			tb.treeHandler.UnrefNode(tb.ctx.stack.frames[n].node)
		}
		if tb.ctx.stack.rootInUse() {
			tb.treeHandler.UnrefNode(tb.ctx.stack.frames[0].node)
		}

		for entry := tb.ctx.fmtList.head; entry != nil; entry = entry.next {
			tb.treeHandler.UnrefNode(entry.node)
		}
	}

	tb.ctx.headElement = nil
	tb.ctx.formElement = nil
	tb.ctx.document = nil
	tb.ctx.collect.node = nil
	tb.ctx.stack = newElementStack()
	tb.ctx.fmtList = &formattingList{}
}

// QuirksMode reports the mode derived from DOCTYPE handling.
func (tb *TreeBuilder) QuirksMode() QuirksMode {
	return tb.ctx.quirksMode
}

// parseError reports a soft error and continues parsing.
func (tb *TreeBuilder) parseError(msg string) {
	err := &ParseError{Mode: tb.ctx.mode, Msg: msg}
	tb.log.WithField("mode", tb.ctx.mode).Debug(err.Error())
	if tb.errorHandler != nil {
		tb.errorHandler(err)
	}
}

// sinkError reports a recoverable sink failure; the insertion that
// provoked it is abandoned.
func (tb *TreeBuilder) sinkError(err error) {
	tb.log.WithError(err).Debug("tree handler failure")
	if tb.errorHandler != nil {
		tb.errorHandler(err)
	}
}
