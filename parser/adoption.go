package parser

import "github.com/pkg/errors"

// stackIndexInScope reports whether the element at the given slot is
// in stack scope: no scope barrier sits above it.
func (tb *TreeBuilder) stackIndexInScope(slot int) bool {
	for idx := tb.ctx.stack.current; idx > slot; idx-- {
		if isScopingElement(tb.ctx.stack.frames[idx].elemType) {
			return false
		}
	}
	return true
}

// detachNode unlinks a node from its parent, if it has one.
func (tb *TreeBuilder) detachNode(node NodeHandle) {
	parent, err := tb.treeHandler.GetParent(node, false)
	if err != nil {
		tb.sinkError(errors.Wrap(err, "get parent"))
		return
	}
	if parent == nil {
		return
	}

	removed, err := tb.treeHandler.RemoveChild(parent, node)
	if err != nil {
		tb.sinkError(errors.Wrap(err, "remove child"))
	} else {
		tb.treeHandler.UnrefNode(removed)
	}
	tb.treeHandler.UnrefNode(parent)
}

// detachAndAppend moves a node under a new parent.
func (tb *TreeBuilder) detachAndAppend(parent, node NodeHandle) {
	tb.detachNode(node)

	appended, err := tb.treeHandler.AppendChild(parent, node)
	if err != nil {
		tb.sinkError(errors.Wrap(err, "reattach node"))
		return
	}
	tb.treeHandler.UnrefNode(appended)
}

// removeStackSlot deletes a stack frame outright (adoption surgery,
// not a pop): entries pointing at the slot are detached and every
// higher index is renumbered, keeping the list/stack cross invariant.
// The stack's reference on the removed node is released.
func (tb *TreeBuilder) removeStackSlot(slot int) {
	tb.ctx.fmtList.invalidate(slot)
	frame := tb.ctx.stack.removeAt(slot)
	tb.ctx.fmtList.shiftIndices(slot+1, -1)
	tb.treeHandler.UnrefNode(frame.node)
}

// adoptionAgency is the recovery algorithm for formatting end tags
// around block content.
// https://html.spec.whatwg.org/multipage/parsing.html#adoption-agency-algorithm
func (tb *TreeBuilder) adoptionAgency(t elementType) {
	for iterations := 0; iterations < 8; iterations++ {
		entry := tb.ctx.fmtList.lastMatching(t)
		if entry == nil {
			tb.anyOtherEndTag(t)
			return
		}

		if entry.stackIndex == 0 {
			tb.parseError("formatting element no longer open")
			_, node, _ := tb.ctx.fmtList.remove(entry)
			tb.treeHandler.UnrefNode(node)
			return
		}

		fi := entry.stackIndex
		if !tb.stackIndexInScope(fi) {
			tb.parseError("formatting element not in scope")
			return
		}

		if fi != tb.ctx.stack.current {
			tb.parseError("formatting element is not the current node")
		}

		// The furthest block: the lowest special element above the
		// formatting element.
		fb := 0
		for idx := fi + 1; idx <= tb.ctx.stack.current; idx++ {
			nt := tb.ctx.stack.frames[idx].elemType
			if isSpecialElement(nt) || isScopingElement(nt) {
				fb = idx
				break
			}
		}

		// No block content to adopt: plain pop through the formatting
		// element.
		if fb == 0 {
			for tb.ctx.stack.current >= fi {
				tb.popAndUnref()
			}
			_, node, _ := tb.ctx.fmtList.remove(entry)
			tb.treeHandler.UnrefNode(node)
			return
		}

		caNode := tb.ctx.stack.frames[fi-1].node
		caType := tb.ctx.stack.frames[fi-1].elemType
		fbNode := tb.ctx.stack.frames[fb].node
		fmtNode := entry.node

		// Bookmark: the list position the replacement entry will take,
		// expressed as an insert-after anchor (nil means the head).
		anchor := entry.prev

		// Inner loop: walk from the furthest block toward the
		// formatting element, dropping or cloning the intermediate
		// nodes and re-hanging lastNode as we go.
		lastNode := fbNode
		nodeIdx := fb
		for inner := 0; ; {
			nodeIdx--
			if nodeIdx == fi {
				break
			}

			frame := tb.ctx.stack.frames[nodeIdx]
			nodeEntry := tb.ctx.fmtList.entryFor(frame.node)

			inner++
			if inner > 3 && nodeEntry != nil {
				_, n, _ := tb.ctx.fmtList.remove(nodeEntry)
				tb.treeHandler.UnrefNode(n)
				nodeEntry = nil
			}

			if nodeEntry == nil {
				tb.removeStackSlot(nodeIdx)
				continue
			}

			clone, err := tb.treeHandler.CloneNode(frame.node, false)
			if err != nil {
				tb.sinkError(errors.Wrap(err, "clone intermediate node"))
				return
			}

			// Both the stack frame and the list entry now hold the
			// clone; release their references on the original.
			tb.treeHandler.RefNode(clone)
			tb.ctx.stack.frames[nodeIdx].node = clone
			_, oldNode, _ := tb.ctx.fmtList.replace(nodeEntry, frame.elemType, clone, nodeIdx)
			tb.treeHandler.UnrefNode(frame.node)
			tb.treeHandler.UnrefNode(oldNode)

			if lastNode == fbNode {
				anchor = nodeEntry
			}

			tb.detachAndAppend(clone, lastNode)
			lastNode = clone
		}

		// Hang lastNode under the common ancestor, fostering when the
		// ancestor is table furniture.
		tb.detachNode(lastNode)
		switch caType {
		case table, tbody, tfoot, thead, tr:
			parent, ref, err := tb.fosterTarget()
			if err != nil {
				tb.sinkError(err)
				return
			}
			var appended NodeHandle
			if ref != nil {
				appended, err = tb.treeHandler.InsertBefore(parent, lastNode, ref)
			} else {
				appended, err = tb.treeHandler.AppendChild(parent, lastNode)
			}
			tb.treeHandler.UnrefNode(parent)
			if err != nil {
				tb.sinkError(errors.Wrap(err, "foster insert"))
				return
			}
			tb.treeHandler.UnrefNode(appended)
		default:
			appended, err := tb.treeHandler.AppendChild(caNode, lastNode)
			if err != nil {
				tb.sinkError(errors.Wrap(err, "reattach under common ancestor"))
				return
			}
			tb.treeHandler.UnrefNode(appended)
		}

		// Clone the formatting element, give it the furthest block's
		// children, and hang it back inside the block.
		clone, err := tb.treeHandler.CloneNode(fmtNode, false)
		if err != nil {
			tb.sinkError(errors.Wrap(err, "clone formatting element"))
			return
		}

		if err := tb.treeHandler.ReparentChildren(fbNode, clone); err != nil {
			tb.sinkError(errors.Wrap(err, "reparent block children"))
			tb.treeHandler.UnrefNode(clone)
			return
		}

		appended, err := tb.treeHandler.AppendChild(fbNode, clone)
		if err != nil {
			tb.sinkError(errors.Wrap(err, "append formatting clone"))
			tb.treeHandler.UnrefNode(clone)
			return
		}
		tb.treeHandler.UnrefNode(appended)

		// Swap the list entry: the old one goes, the clone lands at
		// the bookmark. The clone's creation reference transfers to
		// the list.
		_, oldNode, _ := tb.ctx.fmtList.remove(entry)
		tb.treeHandler.UnrefNode(oldNode)

		// Swap the stack frame: the formatting element leaves, the
		// clone slots in just above the furthest block.
		tb.removeStackSlot(fi)
		fbIdx := tb.ctx.stack.indexOf(fbNode)

		tb.treeHandler.RefNode(clone)
		tb.ctx.fmtList.shiftIndices(fbIdx+1, 1)
		tb.ctx.stack.insertAt(fbIdx+1, NamespaceHTML, t, clone)

		var next *formattingEntry
		if anchor != nil {
			next = anchor.next
		} else {
			next = tb.ctx.fmtList.head
		}
		tb.ctx.fmtList.insert(anchor, next, t, clone, fbIdx+1)
	}
}
