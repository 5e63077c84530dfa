package spec

import (
	"fmt"
	"sort"
	"strings"

	"github.com/heathj/treebuilder/parser"
)

type NodeType uint

const (
	ElementNode NodeType = iota + 1
	TextNode
	CommentNode
	DocumentNode
	DoctypeNode
)

// Node is the reference DOM node used by the test sink and the CLI.
// Reference counts are owned by the sink; the builder only ever sees
// opaque handles.
type Node struct {
	Type      NodeType
	Namespace parser.Namespace
	Name      string
	Data      string

	PublicID      string
	SystemID      string
	PublicMissing bool
	SystemMissing bool

	Attributes []parser.AttributeData

	Parent   *Node
	Children []*Node

	// FormOwner records the form set by FormAssociate; the builder
	// associates textarea elements only.
	FormOwner *Node

	refcnt int
}

func (n *Node) HasChildren() bool {
	return len(n.Children) > 0
}

func (n *Node) LastChild() *Node {
	if len(n.Children) == 0 {
		return nil
	}
	return n.Children[len(n.Children)-1]
}

func namespacePrefix(ns parser.Namespace) string {
	switch ns {
	case parser.NamespaceSVG:
		return "svg "
	case parser.NamespaceMathML:
		return "math "
	case parser.NamespaceXLink:
		return "xlink "
	case parser.NamespaceXML:
		return "xml "
	case parser.NamespaceXMLNS:
		return "xmlns "
	}
	return ""
}

func (n *Node) serializeSelf(indent string) string {
	switch n.Type {
	case ElementNode:
		out := "<" + namespacePrefix(n.Namespace) + n.Name + ">"
		if len(n.Attributes) > 0 {
			attrs := append([]parser.AttributeData(nil), n.Attributes...)
			sort.Slice(attrs, func(a, b int) bool {
				return attrs[a].Name < attrs[b].Name
			})
			for _, attr := range attrs {
				out += "\n" + indent + "  " + namespacePrefix(attr.Namespace) +
					attr.Name + "=\"" + attr.Value + "\""
			}
		}
		return out
	case TextNode:
		return "\"" + n.Data + "\""
	case CommentNode:
		return "<!-- " + n.Data + " -->"
	case DoctypeNode:
		out := "<!DOCTYPE " + n.Name
		if !n.PublicMissing || !n.SystemMissing {
			out += " \"" + n.PublicID + "\" \"" + n.SystemID + "\""
		}
		return out + ">"
	case DocumentNode:
		return "#document"
	}
	return fmt.Sprintf("#unknown(%d)", n.Type)
}

func (n *Node) serialize(sb *strings.Builder, depth int) {
	indent := "| " + strings.Repeat("  ", depth-1)
	sb.WriteString(indent)
	sb.WriteString(n.serializeSelf(indent))
	sb.WriteString("\n")
	for _, child := range n.Children {
		child.serialize(sb, depth+1)
	}
}

// String renders the subtree in the html5lib "|"-indented format.
func (n *Node) String() string {
	var sb strings.Builder
	if n.Type == DocumentNode {
		sb.WriteString("#document\n")
		for _, child := range n.Children {
			child.serialize(&sb, 1)
		}
	} else {
		n.serialize(&sb, 1)
	}
	return strings.TrimRight(sb.String(), "\n")
}
