package parser

// https://html.spec.whatwg.org/multipage/parsing.html#parsing-main-inbody
func (tb *TreeBuilder) handleInBody(token *Token) bool {
	switch token.Type {
	case CharacterToken:
		data := tb.resolve(token.Data)
		if tb.ctx.stripLeadingLR {
			// The first newline after <pre>, <textarea> or <listing>
			// is not part of the content.
			tb.ctx.stripLeadingLR = false
			if len(data) > 0 && data[0] == '\n' {
				if token.Data.Kind == StringOff {
					token.Data.Off++
				} else {
					token.Data.Ptr = token.Data.Ptr[1:]
				}
				token.Data.Len--
				data = data[1:]
			}
		}
		if len(data) == 0 {
			return false
		}
		tb.reconstructActiveFormattingElements()
		tb.appendText(data)
		return false
	case CommentToken:
		tb.processCommentAppend(token, tb.ctx.stack.top().node)
		return false
	case DoctypeToken:
		tb.parseError("unexpected doctype")
		return false
	case StartTagToken:
		return tb.inBodyStartTag(token)
	case EndTagToken:
		return tb.inBodyEndTag(token)
	default:
		tb.reportUnclosedElements()
		return false
	}
}

// closeParagraph closes an open p element in (button) scope, if any.
func (tb *TreeBuilder) closeParagraph() {
	if tb.ctx.stack.elementInScope(p, false) == 0 {
		return
	}
	tb.closeImpliedEndTags(p)
	if tb.ctx.stack.currentNode() != p {
		tb.parseError("unclosed element at paragraph boundary")
	}
	tb.popUntil(p)
}

// pushFormatting records a just-inserted formatting (or marker)
// element in the active formatting list, which takes its own
// reference.
func (tb *TreeBuilder) pushFormatting(t elementType, node NodeHandle) {
	tb.treeHandler.RefNode(node)
	tb.ctx.fmtList.append(t, node, tb.ctx.stack.current)
}

func (tb *TreeBuilder) reportUnclosedElements() {
	for idx := tb.ctx.stack.current; idx > 0; idx-- {
		switch tb.ctx.stack.frames[idx].elemType {
		case dd, dt, li, p, tbody, td, tfoot, th, thead, tr, body, html:
		default:
			tb.parseError("unclosed element")
			return
		}
	}
}

func (tb *TreeBuilder) inBodyStartTag(token *Token) bool {
	tag := &token.Tag

	switch t := tb.elementTypeForTag(tag); t {
	case html:
		tb.parseError("second html start tag")
		tb.addAttributesToStackNode(tb.ctx.stack.frames[0].node, tag)
	case base, basefont, bgsound, link, meta, noframes, script, style, title:
		return tb.handleInHead(token)
	case body:
		tb.parseError("second body start tag")
		if tb.ctx.stack.current >= 1 && tb.ctx.stack.frames[1].elemType == body {
			tb.addAttributesToStackNode(tb.ctx.stack.frames[1].node, tag)
		}
	case frameset:
		// Every frameset start tag in body is dropped, whether or not
		// the body has content; frameset documents enter IN_FRAMESET
		// only from after head.
		tb.parseError("frameset after body content")
	case address, blockquote, center, dir, div, dl, fieldset, menu, ol, p, ul:
		tb.closeParagraph()
		tb.insertElement(tag)
	case h1, h2, h3, h4, h5, h6:
		tb.closeParagraph()
		if isHeadingElement(tb.ctx.stack.currentNode()) {
			tb.parseError("nested heading")
			tb.popAndUnref()
		}
		tb.insertElement(tag)
	case pre, listing:
		tb.closeParagraph()
		tb.insertElement(tag)
		tb.ctx.stripLeadingLR = true
	case form:
		if tb.ctx.formElement != nil {
			tb.parseError("nested form")
			return false
		}
		tb.closeParagraph()
		if node, ok := tb.insertElement(tag); ok {
			tb.treeHandler.RefNode(node)
			tb.ctx.formElement = node
		}
	case li:
		tb.closeOpenListItem(li, li)
		tb.closeParagraph()
		tb.insertElement(tag)
	case dd, dt:
		tb.closeOpenListItem(dd, dt)
		tb.closeParagraph()
		tb.insertElement(tag)
	case plaintext:
		tb.closeParagraph()
		tb.insertElement(tag)
		tb.tokenizer.SetContentModel(ContentModelPlaintext)
	case button:
		if tb.ctx.stack.elementInScope(button, false) != 0 {
			tb.parseError("nested button")
			tb.closeImpliedEndTags(unknown)
			tb.popUntil(button)
		}
		tb.reconstructActiveFormattingElements()
		if node, ok := tb.insertElement(tag); ok {
			tb.pushFormatting(button, node)
		}
	case a:
		if entry := tb.ctx.fmtList.lastMatching(a); entry != nil {
			tb.parseError("a inside a")
			tb.removeFormattingElement(entry)
		}
		tb.reconstructActiveFormattingElements()
		if node, ok := tb.insertElement(tag); ok {
			tb.pushFormatting(a, node)
		}
	case b, big, code, em, font, i, s, small, strike, strong, tt, u:
		tb.reconstructActiveFormattingElements()
		if node, ok := tb.insertElement(tag); ok {
			tb.pushFormatting(t, node)
		}
	case nobr:
		tb.reconstructActiveFormattingElements()
		if tb.ctx.stack.elementInScope(nobr, false) != 0 {
			tb.parseError("nested nobr")
			tb.adoptionAgency(nobr)
			tb.reconstructActiveFormattingElements()
		}
		if node, ok := tb.insertElement(tag); ok {
			tb.pushFormatting(nobr, node)
		}
	case applet, marquee, object:
		tb.reconstructActiveFormattingElements()
		if node, ok := tb.insertElement(tag); ok {
			// Scoping entries double as markers.
			tb.pushFormatting(t, node)
		}
	case table:
		if tb.ctx.quirksMode != Quirks {
			tb.closeParagraph()
		}
		tb.insertElement(tag)
		tb.ctx.mode = inTable
	case area, br, embed, img, wbr:
		tb.reconstructActiveFormattingElements()
		tb.insertElementNoPush(tag)
	case image:
		tb.parseError("image treated as img")
		token.Tag.Name = MakeString([]byte("img"))
		return true
	case input:
		tb.reconstructActiveFormattingElements()
		tb.insertElementNoPush(tag)
	case param, spacer:
		tb.insertElementNoPush(tag)
	case isindex:
		tb.parseError("isindex is not supported")
	case hr:
		tb.closeParagraph()
		tb.insertElementNoPush(tag)
	case textarea:
		tb.parseGenericRCData(token, ContentModelRCDATA, genericRCDATA)
		tb.ctx.stripLeadingLR = true
	case iframe, noembed:
		tb.parseGenericRCData(token, ContentModelCDATA, genericRCDATA)
	case selectType:
		tb.reconstructActiveFormattingElements()
		tb.insertElement(tag)
		switch tb.ctx.mode {
		case inTable, inCaption, inTableBody, inRow, inCell:
			tb.ctx.mode = inSelectInTable
		default:
			tb.ctx.mode = inSelect
		}
	case optgroup, option:
		if tb.ctx.stack.currentNode() == option {
			tb.popAndUnref()
		}
		tb.reconstructActiveFormattingElements()
		tb.insertElement(tag)
	case math:
		tb.reconstructActiveFormattingElements()
		tb.adjustForeignAttributes(tag)
		tag.NS = NamespaceMathML
		if tag.SelfClosing {
			tb.insertElementNoPush(tag)
			return false
		}
		tb.insertElement(tag)
		tb.ctx.secondMode = tb.ctx.mode
		tb.ctx.mode = inForeignContent
	case svg:
		tb.reconstructActiveFormattingElements()
		tb.adjustForeignAttributes(tag)
		tag.NS = NamespaceSVG
		if tag.SelfClosing {
			tb.insertElementNoPush(tag)
			return false
		}
		tb.insertElement(tag)
		tb.ctx.secondMode = tb.ctx.mode
		tb.ctx.mode = inForeignContent
	case caption, col, colgroup, frame, head, tbody, td, tfoot, th, thead, tr:
		tb.parseError("table structure tag outside table")
	default:
		tb.reconstructActiveFormattingElements()
		tb.insertElement(tag)
	}

	return false
}

// closeOpenListItem implements the li/dd/dt start-tag loop: an open
// item of the same family is closed before the new one opens, unless a
// special element (other than address, div or p) intervenes.
func (tb *TreeBuilder) closeOpenListItem(first, second elementType) {
	for idx := tb.ctx.stack.current; idx > 0; idx-- {
		t := tb.ctx.stack.frames[idx].elemType

		if t == first || t == second {
			tb.closeImpliedEndTags(t)
			if tb.ctx.stack.currentNode() != t {
				tb.parseError("unclosed element in list item")
			}
			tb.popUntil(t)
			return
		}

		if (isSpecialElement(t) || isScopingElement(t)) &&
			t != address && t != div && t != p {
			return
		}
	}
}

// removeFormattingElement runs the adoption agency for a duplicated
// formatting element and scrubs any leftover list entry and stack
// frame for the original node.
func (tb *TreeBuilder) removeFormattingElement(entry *formattingEntry) {
	node := entry.node
	tb.adoptionAgency(entry.elemType)

	if leftover := tb.ctx.fmtList.entryFor(node); leftover != nil {
		_, n, _ := tb.ctx.fmtList.remove(leftover)
		tb.treeHandler.UnrefNode(n)
	}
	if idx := tb.ctx.stack.indexOf(node); idx != 0 {
		tb.ctx.fmtList.invalidate(idx)
		frame := tb.ctx.stack.removeAt(idx)
		tb.ctx.fmtList.shiftIndices(idx+1, -1)
		tb.treeHandler.UnrefNode(frame.node)
	}
}

func (tb *TreeBuilder) inBodyEndTag(token *Token) bool {
	tag := &token.Tag

	switch t := tb.elementTypeForTag(tag); t {
	case body:
		if tb.ctx.stack.elementInScope(body, false) == 0 {
			tb.parseError("stray body end tag")
			return false
		}
		tb.reportUnclosedElements()
		tb.ctx.mode = afterBody
	case html:
		if tb.ctx.stack.elementInScope(body, false) == 0 {
			tb.parseError("stray html end tag")
			return false
		}
		tb.ctx.mode = afterBody
		return true
	case address, blockquote, center, dir, div, dl, fieldset, listing, menu, ol, pre, ul:
		if tb.ctx.stack.elementInScope(t, false) == 0 {
			tb.parseError("stray end tag")
			return false
		}
		tb.closeImpliedEndTags(unknown)
		if tb.ctx.stack.currentNode() != t {
			tb.parseError("unclosed element")
		}
		tb.popUntil(t)
	case form:
		node := tb.ctx.formElement
		tb.ctx.formElement = nil
		if node == nil || tb.ctx.stack.elementInScope(form, false) == 0 {
			tb.parseError("stray form end tag")
		} else {
			tb.closeImpliedEndTags(unknown)
			if tb.ctx.stack.currentNode() != form {
				tb.parseError("unclosed element in form")
			}
			tb.popUntil(form)
		}
		if node != nil {
			tb.treeHandler.UnrefNode(node)
		}
	case p:
		if tb.ctx.stack.elementInScope(p, false) == 0 {
			tb.parseError("stray p end tag")
			tb.insertElement(syntheticTag("p"))
			tb.popAndUnref()
			return false
		}
		tb.closeImpliedEndTags(p)
		if tb.ctx.stack.currentNode() != p {
			tb.parseError("unclosed element in paragraph")
		}
		tb.popUntil(p)
	case li, dd, dt:
		if tb.ctx.stack.elementInScope(t, false) == 0 {
			tb.parseError("stray end tag")
			return false
		}
		tb.closeImpliedEndTags(t)
		if tb.ctx.stack.currentNode() != t {
			tb.parseError("unclosed element in list item")
		}
		tb.popUntil(t)
	case h1, h2, h3, h4, h5, h6:
		if tb.ctx.stack.anyHeadingInScope() == 0 {
			tb.parseError("stray heading end tag")
			return false
		}
		tb.closeImpliedEndTags(unknown)
		if tb.ctx.stack.currentNode() != t {
			tb.parseError("misnested heading end tag")
		}
		tb.popUntilHeading()
	case a, b, big, code, em, font, i, nobr, s, small, strike, strong, tt, u:
		tb.adoptionAgency(t)
	case applet, button, marquee, object:
		if tb.ctx.stack.elementInScope(t, false) == 0 {
			tb.parseError("stray end tag")
			return false
		}
		tb.closeImpliedEndTags(unknown)
		if tb.ctx.stack.currentNode() != t {
			tb.parseError("unclosed element")
		}
		tb.popUntil(t)
		tb.clearActiveFormattingListToMarker()
	case br:
		tb.parseError("br end tag treated as start tag")
		tb.reconstructActiveFormattingElements()
		tb.insertElementNoPush(syntheticTag("br"))
	default:
		tb.anyOtherEndTag(t)
	}

	return false
}

// anyOtherEndTag walks the stack looking for a matching open element;
// a special element found first means the end tag is stray.
func (tb *TreeBuilder) anyOtherEndTag(t elementType) {
	for idx := tb.ctx.stack.current; idx > 0; idx-- {
		nt := tb.ctx.stack.frames[idx].elemType

		if nt == t {
			tb.closeImpliedEndTags(t)
			if tb.ctx.stack.currentNode() != t {
				tb.parseError("unclosed element")
			}
			for tb.ctx.stack.current >= idx {
				tb.popAndUnref()
			}
			return
		}

		if isSpecialElement(nt) || isScopingElement(nt) {
			tb.parseError("stray end tag")
			return
		}
	}
	tb.parseError("stray end tag")
}
