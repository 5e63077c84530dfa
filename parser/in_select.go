package parser

// escapeSelect pops out of the open select and re-derives the mode.
func (tb *TreeBuilder) escapeSelect() bool {
	if tb.ctx.stack.elementInScope(selectType, true) == 0 {
		return false
	}
	tb.popUntil(selectType)
	tb.resetInsertionMode()
	return true
}

// https://html.spec.whatwg.org/multipage/parsing.html#parsing-main-inselect
func (tb *TreeBuilder) handleInSelect(token *Token) bool {
	switch token.Type {
	case CharacterToken:
		tb.appendText(tb.resolve(token.Data))
		return false
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
		case option:
			if tb.ctx.stack.currentNode() == option {
				tb.popAndUnref()
			}
			tb.insertElement(&token.Tag)
			return false
		case optgroup:
			if tb.ctx.stack.currentNode() == option {
				tb.popAndUnref()
			}
			if tb.ctx.stack.currentNode() == optgroup {
				tb.popAndUnref()
			}
			tb.insertElement(&token.Tag)
			return false
		case selectType:
			tb.parseError("select inside select")
			tb.escapeSelect()
			return false
		case input, textarea:
			tb.parseError("input-like tag inside select")
			if !tb.escapeSelect() {
				return false
			}
			return true
		case script:
			return tb.handleInHead(token)
		}
		tb.parseError("unexpected start tag in select")
		return false
	case EndTagToken:
		switch tb.elementTypeForTag(&token.Tag) {
		case optgroup:
			if tb.ctx.stack.currentNode() == option &&
				tb.ctx.stack.prevNode() == optgroup {
				tb.popAndUnref()
			}
			if tb.ctx.stack.currentNode() == optgroup {
				tb.popAndUnref()
			} else {
				tb.parseError("stray optgroup end tag")
			}
			return false
		case option:
			if tb.ctx.stack.currentNode() == option {
				tb.popAndUnref()
			} else {
				tb.parseError("stray option end tag")
			}
			return false
		case selectType:
			if !tb.escapeSelect() {
				tb.parseError("stray select end tag")
			}
			return false
		}
		tb.parseError("unexpected end tag in select")
		return false
	default:
		if tb.ctx.stack.current != 0 {
			tb.parseError("eof in select")
		}
		return false
	}
}

// https://html.spec.whatwg.org/multipage/parsing.html#parsing-main-inselectintable
func (tb *TreeBuilder) handleInSelectInTable(token *Token) bool {
	switch token.Type {
	case StartTagToken:
		switch tb.elementTypeForTag(&token.Tag) {
		case caption, table, tbody, tfoot, thead, tr, td, th:
			tb.parseError("table structure inside select")
			tb.escapeSelect()
			return true
		}
	case EndTagToken:
		switch t := tb.elementTypeForTag(&token.Tag); t {
		case caption, table, tbody, tfoot, thead, tr, td, th:
			tb.parseError("table end tag inside select")
			if tb.ctx.stack.elementInScope(t, true) == 0 {
				return false
			}
			tb.escapeSelect()
			return true
		}
	}
	return tb.handleInSelect(token)
}
