package spec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heathj/treebuilder/parser"
)

func TestAppendChildCoalescesText(t *testing.T) {
	tree := NewTree()
	doc := tree.CreateDocument()

	body, err := tree.CreateElement(&parser.ElementData{Namespace: parser.NamespaceHTML, Name: "body"})
	require.NoError(t, err)
	_, err = tree.AppendChild(doc, body)
	require.NoError(t, err)

	first, _ := tree.CreateText("foo")
	effective, err := tree.AppendChild(body, first)
	require.NoError(t, err)
	assert.Same(t, first, effective)

	second, _ := tree.CreateText("bar")
	effective, err = tree.AppendChild(body, second)
	require.NoError(t, err)
	assert.Same(t, first, effective, "adjacent text merges into the prior node")
	assert.Equal(t, "foobar", asNode(first).Data)
	assert.Len(t, asNode(body).Children, 1)
}

func TestInsertBeforeCoalescesWithPrecedingText(t *testing.T) {
	tree := NewTree()
	doc := tree.CreateDocument()

	body, _ := tree.CreateElement(&parser.ElementData{Namespace: parser.NamespaceHTML, Name: "body"})
	tree.AppendChild(doc, body)

	text, _ := tree.CreateText("A")
	tree.AppendChild(body, text)
	table, _ := tree.CreateElement(&parser.ElementData{Namespace: parser.NamespaceHTML, Name: "table"})
	tree.AppendChild(body, table)

	fostered, _ := tree.CreateText("B")
	effective, err := tree.InsertBefore(body, fostered, table)
	require.NoError(t, err)
	assert.Same(t, text, effective)
	assert.Equal(t, "AB", asNode(text).Data)
	assert.Len(t, asNode(body).Children, 2)
}

func TestRemoveAndReparent(t *testing.T) {
	tree := NewTree()

	parent, _ := tree.CreateElement(&parser.ElementData{Name: "div"})
	child, _ := tree.CreateElement(&parser.ElementData{Name: "span"})
	tree.AppendChild(parent, child)

	removed, err := tree.RemoveChild(parent, child)
	require.NoError(t, err)
	assert.Same(t, child, removed)
	assert.Empty(t, asNode(parent).Children)
	assert.Nil(t, asNode(child).Parent)

	other, _ := tree.CreateElement(&parser.ElementData{Name: "p"})
	a, _ := tree.CreateText("a")
	b, _ := tree.CreateText("b")
	asNode(other).Children = []*Node{asNode(a), asNode(b)}

	require.NoError(t, tree.ReparentChildren(other, parent))
	assert.Empty(t, asNode(other).Children)
	assert.Len(t, asNode(parent).Children, 2)
	assert.Same(t, asNode(parent), asNode(a).Parent)
}

func TestSerializeDocument(t *testing.T) {
	tree := NewTree()
	doc := tree.CreateDocument()

	doctype, _ := tree.CreateDoctype(&parser.DoctypeData{
		Name: "html", PublicMissing: true, SystemMissing: true,
	})
	tree.AppendChild(doc, doctype)

	root, _ := tree.CreateElement(&parser.ElementData{Namespace: parser.NamespaceHTML, Name: "html"})
	tree.AppendChild(doc, root)

	body, _ := tree.CreateElement(&parser.ElementData{
		Namespace:  parser.NamespaceHTML,
		Name:       "body",
		Attributes: []parser.AttributeData{{Name: "id", Value: "x"}},
	})
	tree.AppendChild(root, body)

	text, _ := tree.CreateText("hi")
	tree.AppendChild(body, text)
	comment, _ := tree.CreateComment("c")
	tree.AppendChild(body, comment)

	expected := `#document
| <!DOCTYPE html>
| <html>
|   <body>
|     id="x"
|     "hi"
|     <!-- c -->`
	assert.Equal(t, expected, tree.String())
}

func TestRefBalanceTracking(t *testing.T) {
	tree := NewTree()
	node, _ := tree.CreateText("x")

	assert.Equal(t, 1, tree.OutstandingRefs())
	tree.RefNode(node)
	assert.Equal(t, 2, tree.OutstandingRefs())
	tree.UnrefNode(node)
	tree.UnrefNode(node)
	assert.Zero(t, tree.OutstandingRefs())
	assert.Zero(t, tree.RefBalance())

	assert.Panics(t, func() { tree.UnrefNode(node) })
}

func TestCloneNode(t *testing.T) {
	tree := NewTree()

	orig, _ := tree.CreateElement(&parser.ElementData{
		Namespace:  parser.NamespaceHTML,
		Name:       "b",
		Attributes: []parser.AttributeData{{Name: "class", Value: "x"}},
	})
	child, _ := tree.CreateText("t")
	tree.AppendChild(orig, child)

	shallow, err := tree.CloneNode(orig, false)
	require.NoError(t, err)
	assert.Equal(t, "b", asNode(shallow).Name)
	assert.Empty(t, asNode(shallow).Children)
	assert.Equal(t, asNode(orig).Attributes, asNode(shallow).Attributes)

	deep, err := tree.CloneNode(orig, true)
	require.NoError(t, err)
	require.Len(t, asNode(deep).Children, 1)
	assert.Equal(t, "t", asNode(deep).Children[0].Data)
}
