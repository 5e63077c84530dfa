package parser

import (
	"bytes"

	"github.com/pkg/errors"
)

// resolve yields the bytes behind a string reference. Offset-typed
// references are resolved against the current input buffer base and
// must not be retained across a token boundary.
func (tb *TreeBuilder) resolve(s String) []byte {
	if s.Kind == StringOff {
		return tb.inputBuffer[s.Off : s.Off+s.Len]
	}
	return s.Ptr[:s.Len]
}

func (tb *TreeBuilder) elementTypeForTag(tag *Tag) elementType {
	return elementTypeFromBytes(tb.resolve(tag.Name))
}

// materializeTag resolves every string in a tag eagerly, so nothing
// handed to the sink survives a buffer move. Name case is the
// tokenizer's business; foreign-content adjustment may have set
// camelCase names that must survive.
func (tb *TreeBuilder) materializeTag(tag *Tag) *ElementData {
	data := &ElementData{
		Namespace: tag.NS,
		Name:      string(tb.resolve(tag.Name)),
	}
	if len(tag.Attributes) > 0 {
		data.Attributes = make([]AttributeData, 0, len(tag.Attributes))
		for _, attr := range tag.Attributes {
			data.Attributes = append(data.Attributes, AttributeData{
				Namespace: attr.NS,
				Name:      string(tb.resolve(attr.Name)),
				Value:     string(tb.resolve(attr.Value)),
			})
		}
	}
	return data
}

// tagAttribute returns the value of the named attribute, if present.
func (tb *TreeBuilder) tagAttribute(tag *Tag, name string) (string, bool) {
	for _, attr := range tag.Attributes {
		if bytes.EqualFold(tb.resolve(attr.Name), []byte(name)) {
			return string(tb.resolve(attr.Value)), true
		}
	}
	return "", false
}

// syntheticTag builds an attribute-less HTML tag for implied elements
// (html, head, body, tbody, colgroup, tr, p).
func syntheticTag(name string) *Tag {
	return &Tag{NS: NamespaceHTML, Name: MakeString([]byte(name))}
}

// popElement pops the stack and maintains the formatting-list cross
// invariant: entries whose stack index named the popped slot are reset
// to 0. The popped node's stack reference is NOT released here.
func (tb *TreeBuilder) popElement() elementFrame {
	slot := tb.ctx.stack.current
	frame := tb.ctx.stack.pop()

	if isFormattingElement(frame.elemType) ||
		(isScopingElement(frame.elemType) &&
			frame.elemType != html && frame.elemType != table) {
		tb.ctx.fmtList.invalidate(slot)
	}

	return frame
}

// popAndUnref pops the top frame and releases the stack's reference.
func (tb *TreeBuilder) popAndUnref() elementFrame {
	frame := tb.popElement()
	tb.treeHandler.UnrefNode(frame.node)
	return frame
}

// popUntil pops elements until one of the given type has been popped,
// releasing each. Callers ensure such a frame exists.
func (tb *TreeBuilder) popUntil(t elementType) {
	for {
		frame := tb.popAndUnref()
		if frame.elemType == t {
			return
		}
	}
}

// popUntilHeading pops until any h1..h6 has been popped.
func (tb *TreeBuilder) popUntilHeading() {
	for {
		frame := tb.popAndUnref()
		if isHeadingElement(frame.elemType) {
			return
		}
	}
}

// fosterTarget computes the foster-parenting insertion point: the
// parent of the current table with the table as the reference child,
// or the element just below the table on the stack when the table has
// no parent yet.
func (tb *TreeBuilder) fosterTarget() (parent, ref NodeHandle, err error) {
	tableIdx := tb.ctx.stack.currentTable
	if tableIdx == 0 {
		top := tb.ctx.stack.top().node
		tb.treeHandler.RefNode(top)
		return top, nil, nil
	}

	tableNode := tb.ctx.stack.frames[tableIdx].node
	parent, err = tb.treeHandler.GetParent(tableNode, true)
	if err != nil {
		return nil, nil, errors.Wrap(err, "get table parent")
	}
	if parent != nil {
		return parent, tableNode, nil
	}

	prev := tb.ctx.stack.frames[tableIdx-1].node
	tb.treeHandler.RefNode(prev)
	return prev, nil, nil
}

// appendNode links child into the tree at the appropriate place: under
// the current node, or at the foster parent when the foster flag is
// set. Returns the effective node, carrying a reference.
func (tb *TreeBuilder) appendNode(child NodeHandle) (NodeHandle, error) {
	if !tb.ctx.inTableFoster {
		appended, err := tb.treeHandler.AppendChild(tb.ctx.stack.top().node, child)
		if err != nil {
			return nil, errors.Wrap(err, "append child")
		}
		return appended, nil
	}

	parent, ref, err := tb.fosterTarget()
	if err != nil {
		return nil, err
	}

	var appended NodeHandle
	if ref != nil {
		appended, err = tb.treeHandler.InsertBefore(parent, child, ref)
	} else {
		appended, err = tb.treeHandler.AppendChild(parent, child)
	}
	tb.treeHandler.UnrefNode(parent)
	if err != nil {
		return nil, errors.Wrap(err, "foster insert")
	}
	return appended, nil
}

// insertElement creates an element for the tag, links it in, and
// pushes it onto the stack of open elements. The stack keeps the
// creation reference.
func (tb *TreeBuilder) insertElement(tag *Tag) (NodeHandle, bool) {
	node, err := tb.treeHandler.CreateElement(tb.materializeTag(tag))
	if err != nil {
		tb.sinkError(errors.Wrap(err, "create element"))
		return nil, false
	}

	appended, err := tb.appendNode(node)
	if err != nil {
		tb.sinkError(err)
		tb.treeHandler.UnrefNode(node)
		return nil, false
	}
	tb.treeHandler.UnrefNode(appended)

	tb.ctx.stack.push(tag.NS, tb.elementTypeForTag(tag), node)
	return node, true
}

// insertElementNoPush creates and links an element without opening it,
// used for void elements (br, img, meta, link, …). Both references are
// released before returning; callers that need the node (form capture)
// take their own.
func (tb *TreeBuilder) insertElementNoPush(tag *Tag) (NodeHandle, bool) {
	node, err := tb.treeHandler.CreateElement(tb.materializeTag(tag))
	if err != nil {
		tb.sinkError(errors.Wrap(err, "create element"))
		return nil, false
	}

	appended, err := tb.appendNode(node)
	if err != nil {
		tb.sinkError(err)
		tb.treeHandler.UnrefNode(node)
		return nil, false
	}
	tb.treeHandler.UnrefNode(appended)
	tb.treeHandler.UnrefNode(node)
	return node, true
}

// appendText inserts character data at the appropriate place. The
// sink coalesces with a preceding text node and returns the effective
// node.
func (tb *TreeBuilder) appendText(data []byte) {
	text, err := tb.treeHandler.CreateText(string(data))
	if err != nil {
		tb.sinkError(errors.Wrap(err, "create text"))
		return
	}

	appended, err := tb.appendNode(text)
	if err != nil {
		tb.sinkError(err)
		tb.treeHandler.UnrefNode(text)
		return
	}

	tb.treeHandler.UnrefNode(appended)
	tb.treeHandler.UnrefNode(text)
}

// appendTextTo appends character data under a specific parent,
// bypassing foster logic. Used by the collection side modes.
func (tb *TreeBuilder) appendTextTo(parent NodeHandle, data []byte) {
	text, err := tb.treeHandler.CreateText(string(data))
	if err != nil {
		tb.sinkError(errors.Wrap(err, "create text"))
		return
	}

	appended, err := tb.treeHandler.AppendChild(parent, text)
	if err != nil {
		tb.sinkError(errors.Wrap(err, "append text"))
		tb.treeHandler.UnrefNode(text)
		return
	}

	tb.treeHandler.UnrefNode(appended)
	tb.treeHandler.UnrefNode(text)
}

// processCommentAppend creates a comment node and appends it to the
// given parent (the document, the current node, or the root element,
// depending on mode).
func (tb *TreeBuilder) processCommentAppend(token *Token, parent NodeHandle) {
	comment, err := tb.treeHandler.CreateComment(string(tb.resolve(token.Data)))
	if err != nil {
		tb.sinkError(errors.Wrap(err, "create comment"))
		return
	}

	appended, err := tb.treeHandler.AppendChild(parent, comment)
	if err != nil {
		tb.sinkError(errors.Wrap(err, "append comment"))
		tb.treeHandler.UnrefNode(comment)
		return
	}

	tb.treeHandler.UnrefNode(appended)
	tb.treeHandler.UnrefNode(comment)
}

// processCharactersExpectWhitespace scans a character run. A run of
// pure ASCII whitespace is consumed. Otherwise the leading whitespace
// is optionally inserted as text, the token is advanced past it, and
// the residue is left for reprocessing.
func (tb *TreeBuilder) processCharactersExpectWhitespace(token *Token, insert bool) bool {
	data := tb.resolve(token.Data)

	c := 0
	for ; c < len(data); c++ {
		if data[c] != 0x09 && data[c] != 0x0A && data[c] != 0x0C && data[c] != 0x20 {
			break
		}
	}
	if c == len(data) {
		return false
	}

	if c > 0 && insert {
		tb.appendText(data[:c])
	}

	// Strip the leading whitespace so reprocessing sees the residue.
	if token.Data.Kind == StringOff {
		token.Data.Off += c
	} else {
		token.Data.Ptr = token.Data.Ptr[c:]
	}
	token.Data.Len -= c

	return true
}

// closeImpliedEndTags pops dd, dt, li, option, optgroup, p, rp and rt
// elements off the stack, stopping at the excluded type. Pass unknown
// to exclude nothing.
func (tb *TreeBuilder) closeImpliedEndTags(except elementType) {
	for {
		t := tb.ctx.stack.currentNode()
		if !impliedEndTag(t) {
			return
		}
		if except != unknown && t == except {
			return
		}
		tb.popAndUnref()
	}
}

// resetInsertionMode walks the stack from the top selecting the mode
// mandated by HTML5. The select/colgroup/head/frameset/html rows are
// fragment cases; document parsing keeps walking.
func (tb *TreeBuilder) resetInsertionMode() {
	for node := tb.ctx.stack.current; node > 0; node-- {
		switch tb.ctx.stack.frames[node].elemType {
		case selectType:
			// fragment case
		case td, th:
			tb.ctx.mode = inCell
			return
		case tr:
			tb.ctx.mode = inRow
			return
		case tbody, tfoot, thead:
			tb.ctx.mode = inTableBody
			return
		case caption:
			tb.ctx.mode = inCaption
			return
		case colgroup:
			// fragment case
		case table:
			tb.ctx.mode = inTable
			return
		case head:
			// fragment case
		case body:
			tb.ctx.mode = inBody
			return
		case frameset:
			// fragment case
		case html:
			// fragment case
		}
	}
}

// reconstructActiveFormattingElements reopens formatting elements that
// were implicitly closed, per HTML5. Entries already on the stack, and
// markers, stop the rewind; everything after the stop point is cloned,
// re-linked under the current node, pushed, and its list entry
// replaced with the clone.
func (tb *TreeBuilder) reconstructActiveFormattingElements() {
	entry := tb.ctx.fmtList.tail
	if entry == nil {
		return
	}

	if entry.isMarker() || entry.stackIndex != 0 {
		return
	}

	for entry.prev != nil {
		entry = entry.prev
		if entry.isMarker() || entry.stackIndex != 0 {
			entry = entry.next
			break
		}
	}

	for ; entry != nil; entry = entry.next {
		clone, err := tb.treeHandler.CloneNode(entry.node, false)
		if err != nil {
			tb.sinkError(errors.Wrap(err, "clone formatting element"))
			return
		}

		appended, err := tb.treeHandler.AppendChild(tb.ctx.stack.top().node, clone)
		if err != nil {
			tb.sinkError(errors.Wrap(err, "reopen formatting element"))
			tb.treeHandler.UnrefNode(clone)
			return
		}

		tb.ctx.stack.push(NamespaceHTML, entry.elemType, appended)

		_, prevNode, _ := tb.ctx.fmtList.replace(entry,
			entry.elemType, clone, tb.ctx.stack.current)
		tb.treeHandler.UnrefNode(prevNode)
	}
}

// clearActiveFormattingListToMarker pops list entries, releasing each
// node, up to and including the most recent marker.
func (tb *TreeBuilder) clearActiveFormattingListToMarker() {
	for tb.ctx.fmtList.tail != nil {
		entry := tb.ctx.fmtList.tail
		done := entry.isMarker()

		_, node, _ := tb.ctx.fmtList.remove(entry)
		tb.treeHandler.UnrefNode(node)

		if done {
			return
		}
	}
}

// parseGenericRCData inserts the element, switches the tokenizer into
// the requested raw-text model, and enters the collection side mode.
// Textarea is associated with the open form, if any.
func (tb *TreeBuilder) parseGenericRCData(token *Token, model ContentModel, nextMode insertionMode) {
	t := tb.elementTypeForTag(&token.Tag)

	node, err := tb.treeHandler.CreateElement(tb.materializeTag(&token.Tag))
	if err != nil {
		tb.sinkError(errors.Wrap(err, "create element"))
		return
	}

	if t == textarea && tb.ctx.formElement != nil {
		if err := tb.treeHandler.FormAssociate(tb.ctx.formElement, node); err != nil {
			tb.sinkError(errors.Wrap(err, "associate textarea with form"))
		}
	}

	appended, err := tb.appendNode(node)
	if err != nil {
		tb.sinkError(err)
		tb.treeHandler.UnrefNode(node)
		return
	}
	tb.treeHandler.UnrefNode(appended)

	tb.tokenizer.SetContentModel(model)

	tb.ctx.collect.mode = tb.ctx.mode
	tb.ctx.collect.elemType = t
	tb.ctx.collect.node = node
	tb.ctx.collect.data = nil

	tb.ctx.mode = nextMode
}

// addAttributesToStackNode merges a stray tag's attributes onto an
// already-open element (second <html> or <body> tags).
func (tb *TreeBuilder) addAttributesToStackNode(node NodeHandle, tag *Tag) {
	data := tb.materializeTag(tag)
	if len(data.Attributes) == 0 {
		return
	}
	if err := tb.treeHandler.AddAttributes(node, data.Attributes); err != nil {
		tb.sinkError(errors.Wrap(err, "merge attributes"))
	}
}
