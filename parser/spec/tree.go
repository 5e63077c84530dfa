package spec

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/heathj/treebuilder/parser"
)

// Tree is a reference implementation of the builder's sink. It tracks
// every node it creates and keeps ref/unref totals so tests can check
// the reference balance.
type Tree struct {
	Document *Node
	Quirks   parser.QuirksMode

	nodes []*Node

	refs, unrefs int

	log *logrus.Entry
}

var _ parser.TreeHandler = (*Tree)(nil)

func NewTree() *Tree {
	return &Tree{
		log: logrus.WithField("component", "spec tree"),
	}
}

// CreateDocument makes the document node; the returned handle carries
// the reference handed to the builder via SetDocumentNode.
func (t *Tree) CreateDocument() parser.NodeHandle {
	node := t.track(&Node{Type: DocumentNode})
	t.Document = node
	return node
}

func (t *Tree) track(node *Node) *Node {
	node.refcnt = 1
	t.refs++
	t.nodes = append(t.nodes, node)
	return node
}

func asNode(h parser.NodeHandle) *Node {
	if h == nil {
		return nil
	}
	return h.(*Node)
}

// OutstandingRefs sums the reference counts over every node ever
// created; zero after the builder is destroyed.
func (t *Tree) OutstandingRefs() int {
	total := 0
	for _, node := range t.nodes {
		total += node.refcnt
	}
	return total
}

// RefBalance returns total ref calls minus total unref calls,
// creation references included.
func (t *Tree) RefBalance() int {
	return t.refs - t.unrefs
}

func (t *Tree) CreateComment(data string) (parser.NodeHandle, error) {
	return t.track(&Node{Type: CommentNode, Data: data}), nil
}

func (t *Tree) CreateDoctype(doctype *parser.DoctypeData) (parser.NodeHandle, error) {
	return t.track(&Node{
		Type:          DoctypeNode,
		Name:          doctype.Name,
		PublicID:      doctype.PublicID,
		SystemID:      doctype.SystemID,
		PublicMissing: doctype.PublicMissing,
		SystemMissing: doctype.SystemMissing,
	}), nil
}

func (t *Tree) CreateElement(element *parser.ElementData) (parser.NodeHandle, error) {
	return t.track(&Node{
		Type:       ElementNode,
		Namespace:  element.Namespace,
		Name:       element.Name,
		Attributes: append([]parser.AttributeData(nil), element.Attributes...),
	}), nil
}

func (t *Tree) CreateText(data string) (parser.NodeHandle, error) {
	return t.track(&Node{Type: TextNode, Data: data}), nil
}

func (t *Tree) RefNode(h parser.NodeHandle) {
	node := asNode(h)
	node.refcnt++
	t.refs++
}

func (t *Tree) UnrefNode(h parser.NodeHandle) {
	node := asNode(h)
	if node.refcnt == 0 {
		panic("spec: node reference count underflow")
	}
	node.refcnt--
	t.unrefs++
}

// AppendChild links child as the last child of parent, merging
// adjacent text nodes. The effective node is returned with a fresh
// reference.
func (t *Tree) AppendChild(parentH, childH parser.NodeHandle) (parser.NodeHandle, error) {
	parent, child := asNode(parentH), asNode(childH)

	if child.Type == TextNode {
		if last := parent.LastChild(); last != nil && last.Type == TextNode {
			last.Data += child.Data
			t.RefNode(last)
			return last, nil
		}
	}

	child.Parent = parent
	parent.Children = append(parent.Children, child)
	t.RefNode(child)
	return child, nil
}

// InsertBefore links child just before ref, merging a text child with
// a preceding text sibling.
func (t *Tree) InsertBefore(parentH, childH, refH parser.NodeHandle) (parser.NodeHandle, error) {
	parent, child, ref := asNode(parentH), asNode(childH), asNode(refH)

	idx := -1
	for j, c := range parent.Children {
		if c == ref {
			idx = j
			break
		}
	}
	if idx == -1 {
		return nil, errors.New("reference node is not a child")
	}

	if child.Type == TextNode && idx > 0 && parent.Children[idx-1].Type == TextNode {
		prev := parent.Children[idx-1]
		prev.Data += child.Data
		t.RefNode(prev)
		return prev, nil
	}

	child.Parent = parent
	parent.Children = append(parent.Children, nil)
	copy(parent.Children[idx+1:], parent.Children[idx:])
	parent.Children[idx] = child
	t.RefNode(child)
	return child, nil
}

func (t *Tree) RemoveChild(parentH, childH parser.NodeHandle) (parser.NodeHandle, error) {
	parent, child := asNode(parentH), asNode(childH)

	for j, c := range parent.Children {
		if c == child {
			parent.Children = append(parent.Children[:j], parent.Children[j+1:]...)
			child.Parent = nil
			t.RefNode(child)
			return child, nil
		}
	}
	return nil, errors.New("node is not a child")
}

func (t *Tree) CloneNode(h parser.NodeHandle, deep bool) (parser.NodeHandle, error) {
	node := asNode(h)

	clone := t.track(&Node{
		Type:          node.Type,
		Namespace:     node.Namespace,
		Name:          node.Name,
		Data:          node.Data,
		PublicID:      node.PublicID,
		SystemID:      node.SystemID,
		PublicMissing: node.PublicMissing,
		SystemMissing: node.SystemMissing,
		Attributes:    append([]parser.AttributeData(nil), node.Attributes...),
	})

	if deep {
		for _, child := range node.Children {
			childClone, err := t.CloneNode(child, true)
			if err != nil {
				return nil, err
			}
			cc := asNode(childClone)
			cc.Parent = clone
			clone.Children = append(clone.Children, cc)
			// The subtree link owns the child; drop the handle ref.
			t.UnrefNode(cc)
		}
	}

	return clone, nil
}

func (t *Tree) ReparentChildren(srcH, dstH parser.NodeHandle) error {
	src, dst := asNode(srcH), asNode(dstH)

	for _, child := range src.Children {
		child.Parent = dst
		dst.Children = append(dst.Children, child)
	}
	src.Children = nil
	return nil
}

func (t *Tree) GetParent(h parser.NodeHandle, elementOnly bool) (parser.NodeHandle, error) {
	node := asNode(h)

	parent := node.Parent
	if parent == nil {
		return nil, nil
	}
	if elementOnly && parent.Type != ElementNode {
		return nil, nil
	}
	t.RefNode(parent)
	return parent, nil
}

func (t *Tree) HasChildren(h parser.NodeHandle) (bool, error) {
	return asNode(h).HasChildren(), nil
}

func (t *Tree) FormAssociate(formH, nodeH parser.NodeHandle) error {
	asNode(nodeH).FormOwner = asNode(formH)
	return nil
}

func (t *Tree) AddAttributes(h parser.NodeHandle, attributes []parser.AttributeData) error {
	node := asNode(h)

	for _, attr := range attributes {
		present := false
		for _, existing := range node.Attributes {
			if existing.Name == attr.Name && existing.Namespace == attr.Namespace {
				present = true
				break
			}
		}
		if !present {
			node.Attributes = append(node.Attributes, attr)
		}
	}
	return nil
}

func (t *Tree) SetQuirksMode(mode parser.QuirksMode) {
	t.Quirks = mode
	t.log.WithField("mode", mode).Debug("quirks mode set")
}

// String renders the whole document.
func (t *Tree) String() string {
	if t.Document == nil {
		return ""
	}
	return t.Document.String()
}
