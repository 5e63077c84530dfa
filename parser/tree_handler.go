package parser

// NodeHandle is an opaque reference to a node owned by the sink. The
// builder never inspects node contents; it only routes handles between
// sink calls, balancing every acquisition with a release through
// RefNode/UnrefNode.
type NodeHandle interface{}

// QuirksMode is the per-document rendering mode derived from the
// DOCTYPE.
type QuirksMode uint

const (
	NoQuirks QuirksMode = iota
	LimitedQuirks
	Quirks
)

func (q QuirksMode) String() string {
	switch q {
	case Quirks:
		return "quirks"
	case LimitedQuirks:
		return "limited-quirks"
	}
	return "no-quirks"
}

// AttributeData is a fully materialized attribute, resolved against
// the input buffer before it crosses the sink boundary.
type AttributeData struct {
	Namespace Namespace
	Name      string
	Value     string
}

// ElementData is a fully materialized element description.
type ElementData struct {
	Namespace  Namespace
	Name       string
	Attributes []AttributeData
}

// DoctypeData is a fully materialized DOCTYPE description.
type DoctypeData struct {
	Name          string
	PublicID      string
	SystemID      string
	PublicMissing bool
	SystemMissing bool
}

// TreeHandler is the capability set the builder requires of the
// document sink. Creation calls return a handle holding one reference;
// linking calls return the effective node (the sink may merge adjacent
// text nodes and hand back the coalesced one) also holding a
// reference. The caller releases what it does not keep.
type TreeHandler interface {
	CreateComment(data string) (NodeHandle, error)
	CreateDoctype(doctype *DoctypeData) (NodeHandle, error)
	CreateElement(element *ElementData) (NodeHandle, error)
	CreateText(data string) (NodeHandle, error)

	RefNode(node NodeHandle)
	UnrefNode(node NodeHandle)

	AppendChild(parent, child NodeHandle) (NodeHandle, error)
	InsertBefore(parent, child, ref NodeHandle) (NodeHandle, error)
	RemoveChild(parent, child NodeHandle) (NodeHandle, error)
	CloneNode(node NodeHandle, deep bool) (NodeHandle, error)
	ReparentChildren(src, dst NodeHandle) error
	GetParent(node NodeHandle, elementOnly bool) (NodeHandle, error)
	HasChildren(node NodeHandle) (bool, error)

	FormAssociate(form, node NodeHandle) error
	AddAttributes(node NodeHandle, attributes []AttributeData) error
	SetQuirksMode(mode QuirksMode)
}
