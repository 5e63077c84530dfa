package parser

import "strings"

// processWithFoster routes mis-nested table content through the in
// body rules with foster parenting armed.
func (tb *TreeBuilder) processWithFoster(token *Token) bool {
	tb.ctx.inTableFoster = true
	reprocess := tb.handleInBody(token)
	tb.ctx.inTableFoster = false
	return reprocess
}

// clearStackBackToTableContext pops until the current node is a table
// or the root.
func (tb *TreeBuilder) clearStackBackToTableContext() {
	for tb.ctx.stack.current > 0 && tb.ctx.stack.currentNode() != table {
		tb.popAndUnref()
	}
}

// clearStackBackToTableBodyContext pops until the current node is a
// table section or the root.
func (tb *TreeBuilder) clearStackBackToTableBodyContext() {
	for tb.ctx.stack.current > 0 {
		switch tb.ctx.stack.currentNode() {
		case tbody, tfoot, thead:
			return
		}
		tb.popAndUnref()
	}
}

// clearStackBackToRowContext pops until the current node is a row or
// the root.
func (tb *TreeBuilder) clearStackBackToRowContext() {
	for tb.ctx.stack.current > 0 && tb.ctx.stack.currentNode() != tr {
		tb.popAndUnref()
	}
}

// https://html.spec.whatwg.org/multipage/parsing.html#parsing-main-intable
func (tb *TreeBuilder) handleInTable(token *Token) bool {
	switch token.Type {
	case CharacterToken:
		if !tb.processCharactersExpectWhitespace(token, true) {
			return false
		}
		tb.parseError("characters in table")
		return tb.processWithFoster(token)
	case CommentToken:
		tb.processCommentAppend(token, tb.ctx.stack.top().node)
		return false
	case DoctypeToken:
		tb.parseError("unexpected doctype")
		return false
	case StartTagToken:
		switch tb.elementTypeForTag(&token.Tag) {
		case caption:
			tb.clearStackBackToTableContext()
			if node, ok := tb.insertElement(&token.Tag); ok {
				tb.pushFormatting(caption, node)
			}
			tb.ctx.mode = inCaption
			return false
		case colgroup:
			tb.clearStackBackToTableContext()
			tb.insertElement(&token.Tag)
			tb.ctx.mode = inColumnGroup
			return false
		case col:
			tb.clearStackBackToTableContext()
			tb.insertElement(syntheticTag("colgroup"))
			tb.ctx.mode = inColumnGroup
			return true
		case tbody, tfoot, thead:
			tb.clearStackBackToTableContext()
			tb.insertElement(&token.Tag)
			tb.ctx.mode = inTableBody
			return false
		case td, th, tr:
			tb.clearStackBackToTableContext()
			tb.insertElement(syntheticTag("tbody"))
			tb.ctx.mode = inTableBody
			return true
		case table:
			tb.parseError("table inside table")
			if tb.ctx.stack.elementInScope(table, true) == 0 {
				return false
			}
			tb.popUntil(table)
			tb.resetInsertionMode()
			return true
		case style, script:
			return tb.handleInHead(token)
		case input:
			value, ok := tb.tagAttribute(&token.Tag, "type")
			if !ok || !strings.EqualFold(value, "hidden") {
				break
			}
			tb.parseError("hidden input in table")
			tb.insertElementNoPush(&token.Tag)
			return false
		case form:
			tb.parseError("form in table")
			if tb.ctx.formElement != nil {
				return false
			}
			if node, ok := tb.insertElementNoPush(&token.Tag); ok {
				tb.treeHandler.RefNode(node)
				tb.ctx.formElement = node
			}
			return false
		}

		tb.parseError("start tag fostered out of table")
		return tb.processWithFoster(token)
	case EndTagToken:
		switch tb.elementTypeForTag(&token.Tag) {
		case table:
			if tb.ctx.stack.elementInScope(table, true) == 0 {
				tb.parseError("stray table end tag")
				return false
			}
			tb.popUntil(table)
			tb.resetInsertionMode()
			return false
		case body, caption, col, colgroup, html, tbody, td, tfoot, th, thead, tr:
			tb.parseError("stray end tag in table")
			return false
		}

		tb.parseError("end tag fostered out of table")
		return tb.processWithFoster(token)
	default:
		if tb.ctx.stack.current != 0 {
			tb.parseError("eof in table")
		}
		return false
	}
}

// endCaption closes the open caption, reporting whether it could.
func (tb *TreeBuilder) endCaption() bool {
	if tb.ctx.stack.elementInScope(caption, true) == 0 {
		tb.parseError("stray caption end tag")
		return false
	}

	tb.closeImpliedEndTags(unknown)
	if tb.ctx.stack.currentNode() != caption {
		tb.parseError("unclosed element in caption")
	}
	tb.popUntil(caption)
	tb.clearActiveFormattingListToMarker()
	tb.ctx.mode = inTable
	return true
}

// https://html.spec.whatwg.org/multipage/parsing.html#parsing-main-incaption
func (tb *TreeBuilder) handleInCaption(token *Token) bool {
	switch token.Type {
	case StartTagToken:
		switch tb.elementTypeForTag(&token.Tag) {
		case caption, col, colgroup, tbody, td, tfoot, th, thead, tr:
			tb.parseError("table structure inside caption")
			return tb.endCaption()
		}
	case EndTagToken:
		switch tb.elementTypeForTag(&token.Tag) {
		case caption:
			tb.endCaption()
			return false
		case table:
			tb.parseError("table end tag inside caption")
			return tb.endCaption()
		case body, col, colgroup, html, tbody, td, tfoot, th, thead, tr:
			tb.parseError("stray end tag in caption")
			return false
		}
	}
	return tb.handleInBody(token)
}

// https://html.spec.whatwg.org/multipage/parsing.html#parsing-main-incolgroup
func (tb *TreeBuilder) handleInColumnGroup(token *Token) bool {
	endColgroup := func() bool {
		if tb.ctx.stack.current == 0 {
			tb.parseError("stray colgroup end tag")
			return false
		}
		tb.popAndUnref()
		tb.ctx.mode = inTable
		return true
	}

	switch token.Type {
	case CharacterToken:
		if !tb.processCharactersExpectWhitespace(token, true) {
			return false
		}
		return endColgroup()
	case CommentToken:
		tb.processCommentAppend(token, tb.ctx.stack.top().node)
		return false
	case DoctypeToken:
		tb.parseError("unexpected doctype")
		return false
	case StartTagToken:
		switch tb.elementTypeForTag(&token.Tag) {
		case html:
			return tb.handleInBody(token)
		case col:
			tb.insertElementNoPush(&token.Tag)
			return false
		}
		return endColgroup()
	case EndTagToken:
		switch tb.elementTypeForTag(&token.Tag) {
		case colgroup:
			endColgroup()
			return false
		case col:
			tb.parseError("stray col end tag")
			return false
		}
		return endColgroup()
	default:
		if tb.ctx.stack.currentNode() == colgroup {
			return endColgroup()
		}
		return false
	}
}

func (tb *TreeBuilder) anyTableSectionInScope() bool {
	return tb.ctx.stack.elementInScope(tbody, true) != 0 ||
		tb.ctx.stack.elementInScope(tfoot, true) != 0 ||
		tb.ctx.stack.elementInScope(thead, true) != 0
}

// https://html.spec.whatwg.org/multipage/parsing.html#parsing-main-intbody
func (tb *TreeBuilder) handleInTableBody(token *Token) bool {
	endSection := func() bool {
		if !tb.anyTableSectionInScope() {
			tb.parseError("no table section in scope")
			return false
		}
		tb.clearStackBackToTableBodyContext()
		tb.popAndUnref()
		tb.ctx.mode = inTable
		return true
	}

	switch token.Type {
	case StartTagToken:
		switch t := tb.elementTypeForTag(&token.Tag); t {
		case tr:
			tb.clearStackBackToTableBodyContext()
			tb.insertElement(&token.Tag)
			tb.ctx.mode = inRow
			return false
		case td, th:
			tb.parseError("cell outside row")
			tb.clearStackBackToTableBodyContext()
			tb.insertElement(syntheticTag("tr"))
			tb.ctx.mode = inRow
			return true
		case caption, col, colgroup, tbody, tfoot, thead:
			return endSection()
		}
	case EndTagToken:
		switch t := tb.elementTypeForTag(&token.Tag); t {
		case tbody, tfoot, thead:
			if tb.ctx.stack.elementInScope(t, true) == 0 {
				tb.parseError("stray table section end tag")
				return false
			}
			tb.clearStackBackToTableBodyContext()
			tb.popAndUnref()
			tb.ctx.mode = inTable
			return false
		case table:
			return endSection()
		case body, caption, col, colgroup, html, td, th, tr:
			tb.parseError("stray end tag in table body")
			return false
		}
	}
	return tb.handleInTable(token)
}

// https://html.spec.whatwg.org/multipage/parsing.html#parsing-main-intr
func (tb *TreeBuilder) handleInRow(token *Token) bool {
	endRow := func() bool {
		if tb.ctx.stack.elementInScope(tr, true) == 0 {
			tb.parseError("no row in scope")
			return false
		}
		tb.clearStackBackToRowContext()
		tb.popAndUnref()
		tb.ctx.mode = inTableBody
		return true
	}

	switch token.Type {
	case StartTagToken:
		switch t := tb.elementTypeForTag(&token.Tag); t {
		case td, th:
			tb.clearStackBackToRowContext()
			if node, ok := tb.insertElement(&token.Tag); ok {
				tb.pushFormatting(t, node)
			}
			tb.ctx.mode = inCell
			return false
		case caption, col, colgroup, tbody, tfoot, thead, tr:
			return endRow()
		}
	case EndTagToken:
		switch t := tb.elementTypeForTag(&token.Tag); t {
		case tr:
			endRow()
			return false
		case table:
			return endRow()
		case tbody, tfoot, thead:
			if tb.ctx.stack.elementInScope(t, true) == 0 {
				tb.parseError("stray table section end tag")
				return false
			}
			return endRow()
		case body, caption, col, colgroup, html, td, th:
			tb.parseError("stray end tag in row")
			return false
		}
	}
	return tb.handleInTable(token)
}

// closeCell closes the open td or th and returns to the row mode.
func (tb *TreeBuilder) closeCell() bool {
	cell := td
	if tb.ctx.stack.elementInScope(td, true) == 0 {
		if tb.ctx.stack.elementInScope(th, true) == 0 {
			return false
		}
		cell = th
	}

	tb.closeImpliedEndTags(unknown)
	if tb.ctx.stack.currentNode() != cell {
		tb.parseError("unclosed element in cell")
	}
	tb.popUntil(cell)
	tb.clearActiveFormattingListToMarker()
	tb.ctx.mode = inRow
	return true
}

// https://html.spec.whatwg.org/multipage/parsing.html#parsing-main-intd
func (tb *TreeBuilder) handleInCell(token *Token) bool {
	switch token.Type {
	case StartTagToken:
		switch tb.elementTypeForTag(&token.Tag) {
		case caption, col, colgroup, tbody, td, tfoot, th, thead, tr:
			if !tb.closeCell() {
				tb.parseError("table structure outside cell")
				return false
			}
			return true
		}
	case EndTagToken:
		switch t := tb.elementTypeForTag(&token.Tag); t {
		case td, th:
			if tb.ctx.stack.elementInScope(t, true) == 0 {
				tb.parseError("stray cell end tag")
				return false
			}
			tb.closeImpliedEndTags(unknown)
			if tb.ctx.stack.currentNode() != t {
				tb.parseError("unclosed element in cell")
			}
			tb.popUntil(t)
			tb.clearActiveFormattingListToMarker()
			tb.ctx.mode = inRow
			return false
		case table, tbody, tfoot, thead, tr:
			if tb.ctx.stack.elementInScope(t, true) == 0 {
				tb.parseError("stray end tag in cell")
				return false
			}
			tb.closeCell()
			return true
		case body, caption, col, colgroup, html:
			tb.parseError("stray end tag in cell")
			return false
		}
	}
	return tb.handleInBody(token)
}
