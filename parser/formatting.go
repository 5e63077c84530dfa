package parser

import (
	"fmt"
	"strings"
)

// formattingEntry is one entry in the list of active formatting
// elements. stackIndex links the entry to the open-element slot
// holding the same node; 0 means the node is no longer on the stack
// (a detached element awaiting reconstruction or adoption). Markers
// are entries whose type is a scoping element.
type formattingEntry struct {
	elemType   elementType
	node       NodeHandle
	stackIndex int

	prev, next *formattingEntry
}

// isMarker reports whether the entry delimits a scoping region. html
// and table are never inserted into the list, so a scoping type here
// is always a marker (applet, button, caption, marquee, object, td,
// th).
func (e *formattingEntry) isMarker() bool {
	return isScopingElement(e.elemType)
}

// formattingList is the doubly linked list of active formatting
// elements.
type formattingList struct {
	head, tail *formattingEntry
}

// append adds an entry at the tail.
func (l *formattingList) append(t elementType, node NodeHandle, stackIndex int) *formattingEntry {
	entry := &formattingEntry{elemType: t, node: node, stackIndex: stackIndex}

	entry.prev = l.tail
	if l.tail != nil {
		l.tail.next = entry
	} else {
		l.head = entry
	}
	l.tail = entry

	return entry
}

// insert places an entry between prev and next, either of which may be
// nil to mean the corresponding end of the list.
func (l *formattingList) insert(prev, next *formattingEntry, t elementType, node NodeHandle, stackIndex int) *formattingEntry {
	if prev != nil && prev.next != next {
		panic("formatting list: prev/next not adjacent")
	}
	if next != nil && next.prev != prev {
		panic("formatting list: prev/next not adjacent")
	}

	entry := &formattingEntry{elemType: t, node: node, stackIndex: stackIndex}

	entry.prev = prev
	entry.next = next

	if prev != nil {
		prev.next = entry
	} else {
		l.head = entry
	}
	if next != nil {
		next.prev = entry
	} else {
		l.tail = entry
	}

	return entry
}

// remove unlinks the entry and returns its contents.
func (l *formattingList) remove(entry *formattingEntry) (elementType, NodeHandle, int) {
	if entry.prev == nil {
		l.head = entry.next
	} else {
		entry.prev.next = entry.next
	}
	if entry.next == nil {
		l.tail = entry.prev
	} else {
		entry.next.prev = entry.prev
	}

	entry.prev, entry.next = nil, nil
	return entry.elemType, entry.node, entry.stackIndex
}

// replace swaps the entry's contents in place, returning the old ones.
func (l *formattingList) replace(entry *formattingEntry, t elementType, node NodeHandle, stackIndex int) (elementType, NodeHandle, int) {
	oldType, oldNode, oldIndex := entry.elemType, entry.node, entry.stackIndex

	entry.elemType = t
	entry.node = node
	entry.stackIndex = stackIndex

	return oldType, oldNode, oldIndex
}

// invalidate resets the stack index of every entry pointing at the
// given slot. Called when that slot is popped; the nodes stay
// referenced by the list until removed or replaced.
func (l *formattingList) invalidate(slot int) {
	for entry := l.tail; entry != nil; entry = entry.prev {
		if entry.stackIndex == slot {
			entry.stackIndex = 0
		}
	}
}

// shiftIndices renumbers stack indices after structural stack surgery:
// every index >= from moves by delta.
func (l *formattingList) shiftIndices(from, delta int) {
	for entry := l.tail; entry != nil; entry = entry.prev {
		if entry.stackIndex >= from {
			entry.stackIndex += delta
		}
	}
}

// lastMatching walks backwards from the tail, stopping at the first
// marker, and returns the most recent entry of the given type.
func (l *formattingList) lastMatching(t elementType) *formattingEntry {
	for entry := l.tail; entry != nil; entry = entry.prev {
		if entry.isMarker() {
			return nil
		}
		if entry.elemType == t {
			return entry
		}
	}
	return nil
}

// entryFor finds the entry holding the given node handle.
func (l *formattingList) entryFor(node NodeHandle) *formattingEntry {
	for entry := l.tail; entry != nil; entry = entry.prev {
		if entry.node == node {
			return entry
		}
	}
	return nil
}

// String dumps the list for debug logging.
func (l *formattingList) String() string {
	var sb strings.Builder
	for entry := l.head; entry != nil; entry = entry.next {
		fmt.Fprintf(&sb, "%v %v %d\n", entry.elemType, entry.node, entry.stackIndex)
	}
	return sb.String()
}
