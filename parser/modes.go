package parser

import "github.com/pkg/errors"

func isASCIIWhitespace(c byte) bool {
	return c == 0x09 || c == 0x0A || c == 0x0C || c == 0x20
}

func allWhitespace(data []byte) bool {
	for _, c := range data {
		if !isASCIIWhitespace(c) {
			return false
		}
	}
	return true
}

// https://html.spec.whatwg.org/multipage/parsing.html#the-initial-insertion-mode
func (tb *TreeBuilder) handleInitial(token *Token) bool {
	switch token.Type {
	case CharacterToken:
		if !tb.processCharactersExpectWhitespace(token, false) {
			return false
		}
		tb.parseError("content before doctype")
		tb.ctx.quirksMode = Quirks
		tb.treeHandler.SetQuirksMode(Quirks)
		tb.ctx.mode = beforeHTML
		return true
	case CommentToken:
		tb.processCommentAppend(token, tb.ctx.document)
		return false
	case DoctypeToken:
		doctype := &DoctypeData{
			Name:          string(tb.resolve(token.Doctype.Name)),
			PublicID:      string(tb.resolve(token.Doctype.PublicID)),
			SystemID:      string(tb.resolve(token.Doctype.SystemID)),
			PublicMissing: token.Doctype.PublicMissing,
			SystemMissing: token.Doctype.SystemMissing,
		}

		if doctype.Name != "html" || !doctype.PublicMissing ||
			(!doctype.SystemMissing && doctype.SystemID != "about:legacy-compat") {
			tb.parseError("unexpected doctype")
		}

		node, err := tb.treeHandler.CreateDoctype(doctype)
		if err != nil {
			tb.sinkError(errors.Wrap(err, "create doctype"))
		} else {
			appended, err := tb.treeHandler.AppendChild(tb.ctx.document, node)
			if err != nil {
				tb.sinkError(errors.Wrap(err, "append doctype"))
			} else {
				tb.treeHandler.UnrefNode(appended)
			}
			tb.treeHandler.UnrefNode(node)
		}

		switch {
		case token.Doctype.ForceQuirks || forcesQuirks(doctype):
			tb.ctx.quirksMode = Quirks
		case forcesLimitedQuirks(doctype):
			tb.ctx.quirksMode = LimitedQuirks
		default:
			tb.ctx.quirksMode = NoQuirks
		}
		tb.treeHandler.SetQuirksMode(tb.ctx.quirksMode)

		tb.ctx.mode = beforeHTML
		return false
	default:
		tb.parseError("missing doctype")
		tb.ctx.quirksMode = Quirks
		tb.treeHandler.SetQuirksMode(Quirks)
		tb.ctx.mode = beforeHTML
		return true
	}
}

// openRoot creates the html root element (from the given tag, or an
// implied one), appends it to the document, and installs it into the
// reserved stack slot. A sink failure here is unrecoverable for the
// document; the token is dropped rather than reprocessed.
func (tb *TreeBuilder) openRoot(tag *Tag) bool {
	if tag == nil {
		tag = syntheticTag("html")
	}

	node, err := tb.treeHandler.CreateElement(tb.materializeTag(tag))
	if err != nil {
		tb.sinkError(errors.Wrap(err, "create html root"))
		return false
	}

	appended, err := tb.treeHandler.AppendChild(tb.ctx.document, node)
	if err != nil {
		tb.sinkError(errors.Wrap(err, "append html root"))
		tb.treeHandler.UnrefNode(node)
		return false
	}
	tb.treeHandler.UnrefNode(appended)

	tb.ctx.stack.setRoot(NamespaceHTML, node)
	tb.ctx.mode = beforeHead
	return true
}

// https://html.spec.whatwg.org/multipage/parsing.html#the-before-html-insertion-mode
func (tb *TreeBuilder) handleBeforeHTML(token *Token) bool {
	switch token.Type {
	case DoctypeToken:
		tb.parseError("doctype after initial mode")
		return false
	case CommentToken:
		tb.processCommentAppend(token, tb.ctx.document)
		return false
	case CharacterToken:
		if !tb.processCharactersExpectWhitespace(token, false) {
			return false
		}
		return tb.openRoot(nil)
	case StartTagToken:
		if tb.elementTypeForTag(&token.Tag) == html {
			tb.openRoot(&token.Tag)
			return false
		}
		return tb.openRoot(nil)
	case EndTagToken:
		switch tb.elementTypeForTag(&token.Tag) {
		case head, body, html, br:
			return tb.openRoot(nil)
		}
		tb.parseError("stray end tag before html")
		return false
	default:
		return tb.openRoot(nil)
	}
}

// openHead inserts a head element (implied unless a tag is given),
// records the head pointer, and enters the in head mode.
func (tb *TreeBuilder) openHead(tag *Tag) bool {
	if tag == nil {
		tag = syntheticTag("head")
	}

	node, ok := tb.insertElement(tag)
	if !ok {
		return false
	}

	tb.treeHandler.RefNode(node)
	tb.ctx.headElement = node
	tb.ctx.mode = inHead
	return true
}

// https://html.spec.whatwg.org/multipage/parsing.html#the-before-head-insertion-mode
func (tb *TreeBuilder) handleBeforeHead(token *Token) bool {
	switch token.Type {
	case CharacterToken:
		if !tb.processCharactersExpectWhitespace(token, false) {
			return false
		}
		return tb.openHead(nil)
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
		case head:
			tb.openHead(&token.Tag)
			return false
		}
		return tb.openHead(nil)
	case EndTagToken:
		switch tb.elementTypeForTag(&token.Tag) {
		case head, body, html, br:
			return tb.openHead(nil)
		}
		tb.parseError("stray end tag before head")
		return false
	default:
		return tb.openHead(nil)
	}
}

// closeHead pops the head element and moves to after head.
func (tb *TreeBuilder) closeHead() {
	tb.popAndUnref()
	tb.ctx.mode = afterHead
}

// https://html.spec.whatwg.org/multipage/parsing.html#parsing-main-inhead
func (tb *TreeBuilder) handleInHead(token *Token) bool {
	switch token.Type {
	case CharacterToken:
		if !tb.processCharactersExpectWhitespace(token, true) {
			return false
		}
		tb.closeHead()
		return true
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
		case base, basefont, bgsound, link, meta:
			tb.insertElementNoPush(&token.Tag)
			return false
		case title:
			tb.parseGenericRCData(token, ContentModelRCDATA, genericRCDATA)
			return false
		case noframes, style:
			tb.parseGenericRCData(token, ContentModelCDATA, genericRCDATA)
			return false
		case noscript:
			tb.insertElement(&token.Tag)
			tb.ctx.mode = inHeadNoscript
			return false
		case script:
			tb.parseGenericRCData(token, ContentModelScript, scriptCollectCharacters)
			return false
		case head:
			tb.parseError("head inside head")
			return false
		}
		tb.closeHead()
		return true
	case EndTagToken:
		switch tb.elementTypeForTag(&token.Tag) {
		case head:
			tb.closeHead()
			return false
		case body, html, br:
			tb.closeHead()
			return true
		}
		tb.parseError("stray end tag in head")
		return false
	default:
		tb.closeHead()
		return true
	}
}

// https://html.spec.whatwg.org/multipage/parsing.html#parsing-main-inheadnoscript
func (tb *TreeBuilder) handleInHeadNoscript(token *Token) bool {
	escape := func() bool {
		tb.parseError("unexpected content in noscript")
		tb.popAndUnref()
		tb.ctx.mode = inHead
		return true
	}

	switch token.Type {
	case CharacterToken:
		if !tb.processCharactersExpectWhitespace(token, true) {
			return false
		}
		return escape()
	case CommentToken:
		return tb.handleInHead(token)
	case DoctypeToken:
		tb.parseError("unexpected doctype")
		return false
	case StartTagToken:
		switch tb.elementTypeForTag(&token.Tag) {
		case html:
			return tb.handleInBody(token)
		case basefont, bgsound, link, meta, noframes, style:
			return tb.handleInHead(token)
		case head, noscript:
			tb.parseError("unexpected start tag in noscript")
			return false
		}
		return escape()
	case EndTagToken:
		switch tb.elementTypeForTag(&token.Tag) {
		case noscript:
			tb.popAndUnref()
			tb.ctx.mode = inHead
			return false
		case br:
			return escape()
		}
		tb.parseError("stray end tag in noscript")
		return false
	default:
		return escape()
	}
}

// openBody inserts a body element (implied unless a tag is given) and
// enters the in body mode.
func (tb *TreeBuilder) openBody(tag *Tag) bool {
	if tag == nil {
		tag = syntheticTag("body")
	}
	if _, ok := tb.insertElement(tag); !ok {
		return false
	}
	tb.ctx.mode = inBody
	return true
}

// https://html.spec.whatwg.org/multipage/parsing.html#the-after-head-insertion-mode
func (tb *TreeBuilder) handleAfterHead(token *Token) bool {
	switch token.Type {
	case CharacterToken:
		if !tb.processCharactersExpectWhitespace(token, true) {
			return false
		}
		return tb.openBody(nil)
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
		case body:
			tb.openBody(&token.Tag)
			return false
		case frameset:
			tb.insertElement(&token.Tag)
			tb.ctx.mode = inFrameset
			return false
		case base, basefont, bgsound, link, meta, noframes, script, style, title:
			// Stray head content: reopen the head element and let the
			// in head rules run; its fallthrough closes it again.
			tb.parseError("head content after head")
			tb.treeHandler.RefNode(tb.ctx.headElement)
			tb.ctx.stack.push(NamespaceHTML, head, tb.ctx.headElement)
			tb.ctx.mode = inHead
			return true
		case head:
			tb.parseError("head after head")
			return false
		}
		return tb.openBody(nil)
	case EndTagToken:
		switch tb.elementTypeForTag(&token.Tag) {
		case body, html, br:
			return tb.openBody(nil)
		}
		tb.parseError("stray end tag after head")
		return false
	default:
		return tb.openBody(nil)
	}
}

// appendWhitespaceRuns inserts the whitespace in a character run and
// drops everything else, reporting one parse error if any byte was
// dropped. The frameset family accepts only whitespace text.
func (tb *TreeBuilder) appendWhitespaceRuns(token *Token) {
	data := tb.resolve(token.Data)
	dropped := false

	for len(data) > 0 {
		c := 0
		for ; c < len(data); c++ {
			if !isASCIIWhitespace(data[c]) {
				break
			}
		}
		if c > 0 {
			tb.appendText(data[:c])
		}
		data = data[c:]
		for len(data) > 0 && !isASCIIWhitespace(data[0]) {
			dropped = true
			data = data[1:]
		}
	}

	if dropped {
		tb.parseError("unexpected characters")
	}
}

// https://html.spec.whatwg.org/multipage/parsing.html#parsing-main-afterbody
func (tb *TreeBuilder) handleAfterBody(token *Token) bool {
	switch token.Type {
	case CharacterToken:
		if allWhitespace(tb.resolve(token.Data)) {
			return tb.handleInBody(token)
		}
		tb.parseError("characters after body")
		tb.ctx.mode = inBody
		return true
	case CommentToken:
		tb.processCommentAppend(token, tb.ctx.stack.frames[0].node)
		return false
	case DoctypeToken:
		tb.parseError("unexpected doctype")
		return false
	case StartTagToken:
		if tb.elementTypeForTag(&token.Tag) == html {
			return tb.handleInBody(token)
		}
		tb.parseError("start tag after body")
		tb.ctx.mode = inBody
		return true
	case EndTagToken:
		if tb.elementTypeForTag(&token.Tag) == html {
			tb.ctx.mode = afterAfterBody
			return false
		}
		tb.parseError("end tag after body")
		tb.ctx.mode = inBody
		return true
	default:
		return false
	}
}

// https://html.spec.whatwg.org/multipage/parsing.html#parsing-main-inframeset
func (tb *TreeBuilder) handleInFrameset(token *Token) bool {
	switch token.Type {
	case CharacterToken:
		tb.appendWhitespaceRuns(token)
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
		case frameset:
			tb.insertElement(&token.Tag)
			return false
		case frame:
			tb.insertElementNoPush(&token.Tag)
			return false
		case noframes:
			return tb.handleInHead(token)
		}
		tb.parseError("unexpected start tag in frameset")
		return false
	case EndTagToken:
		if tb.elementTypeForTag(&token.Tag) == frameset {
			if tb.ctx.stack.current == 0 {
				tb.parseError("stray frameset end tag")
				return false
			}
			tb.popAndUnref()
			if tb.ctx.stack.currentNode() != frameset {
				tb.ctx.mode = afterFrameset
			}
			return false
		}
		tb.parseError("unexpected end tag in frameset")
		return false
	default:
		if tb.ctx.stack.current != 0 {
			tb.parseError("eof in frameset")
		}
		return false
	}
}

// https://html.spec.whatwg.org/multipage/parsing.html#parsing-main-afterframeset
func (tb *TreeBuilder) handleAfterFrameset(token *Token) bool {
	switch token.Type {
	case CharacterToken:
		tb.appendWhitespaceRuns(token)
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
		case noframes:
			return tb.handleInHead(token)
		}
		tb.parseError("unexpected start tag after frameset")
		return false
	case EndTagToken:
		if tb.elementTypeForTag(&token.Tag) == html {
			tb.ctx.mode = afterAfterFrameset
			return false
		}
		tb.parseError("unexpected end tag after frameset")
		return false
	default:
		return false
	}
}

// https://html.spec.whatwg.org/multipage/parsing.html#the-after-after-body-insertion-mode
func (tb *TreeBuilder) handleAfterAfterBody(token *Token) bool {
	switch token.Type {
	case CommentToken:
		tb.processCommentAppend(token, tb.ctx.document)
		return false
	case DoctypeToken:
		tb.parseError("unexpected doctype")
		return false
	case CharacterToken:
		if allWhitespace(tb.resolve(token.Data)) {
			return tb.handleInBody(token)
		}
		tb.parseError("characters after document end")
		tb.ctx.mode = inBody
		return true
	case StartTagToken:
		if tb.elementTypeForTag(&token.Tag) == html {
			return tb.handleInBody(token)
		}
		tb.parseError("start tag after document end")
		tb.ctx.mode = inBody
		return true
	case EndTagToken:
		tb.parseError("end tag after document end")
		tb.ctx.mode = inBody
		return true
	default:
		return false
	}
}

// https://html.spec.whatwg.org/multipage/parsing.html#the-after-after-frameset-insertion-mode
func (tb *TreeBuilder) handleAfterAfterFrameset(token *Token) bool {
	switch token.Type {
	case CommentToken:
		tb.processCommentAppend(token, tb.ctx.document)
		return false
	case DoctypeToken:
		tb.parseError("unexpected doctype")
		return false
	case CharacterToken:
		tb.appendWhitespaceRuns(token)
		return false
	case StartTagToken:
		switch tb.elementTypeForTag(&token.Tag) {
		case html:
			return tb.handleInBody(token)
		case noframes:
			return tb.handleInHead(token)
		}
		tb.parseError("start tag after document end")
		return false
	case EndTagToken:
		tb.parseError("end tag after document end")
		return false
	default:
		return false
	}
}
