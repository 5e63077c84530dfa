package parser

// finishCollect flushes the collected character data into the pending
// element, releases the element, restores the saved insertion mode,
// and puts the tokenizer back into PCDATA.
func (tb *TreeBuilder) finishCollect() {
	data := tb.ctx.collect.data
	if tb.ctx.stripLeadingLR {
		if len(data) > 0 && data[0] == '\n' {
			data = data[1:]
		}
		tb.ctx.stripLeadingLR = false
	}

	if len(data) > 0 {
		tb.appendTextTo(tb.ctx.collect.node, data)
	}

	tb.treeHandler.UnrefNode(tb.ctx.collect.node)
	tb.ctx.collect.node = nil
	tb.ctx.collect.data = nil

	tb.tokenizer.SetContentModel(ContentModelPCDATA)
	tb.ctx.mode = tb.ctx.collect.mode
}

// handleGenericRCDATA collects character tokens for the pending
// (R)CDATA element until the matching end tag arrives, then restores
// the saved mode.
func (tb *TreeBuilder) handleGenericRCDATA(token *Token) bool {
	switch token.Type {
	case CharacterToken:
		tb.ctx.collect.data = append(tb.ctx.collect.data, tb.resolve(token.Data)...)
		return false
	case EndTagToken:
		if tb.elementTypeForTag(&token.Tag) != tb.ctx.collect.elemType {
			tb.parseError("mismatched end tag in rcdata")
		}
		tb.finishCollect()
		return false
	case EOFToken:
		tb.parseError("eof inside rcdata element")
		tb.finishCollect()
		return true
	default:
		// The raw-text content models deliver only characters and the
		// terminating end tag.
		return false
	}
}

// handleScriptCollectCharacters is the script flavour of the
// collection mode. Scripts are never executed; their text is attached
// to the script node like any other raw text.
func (tb *TreeBuilder) handleScriptCollectCharacters(token *Token) bool {
	switch token.Type {
	case CharacterToken:
		tb.ctx.collect.data = append(tb.ctx.collect.data, tb.resolve(token.Data)...)
		return false
	case EndTagToken:
		if tb.elementTypeForTag(&token.Tag) != script {
			tb.parseError("mismatched end tag in script data")
		}
		tb.finishCollect()
		return false
	case EOFToken:
		tb.parseError("eof inside script element")
		tb.finishCollect()
		return true
	default:
		return false
	}
}
