package parser_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heathj/treebuilder/parser"
	"github.com/heathj/treebuilder/parser/spec"
)

// scriptedTokenizer is a minimal content-model-aware tokenizer used to
// drive the builder in tests. It emits offset-form strings against a
// single published buffer, mirroring the production contract.
type scriptedTokenizer struct {
	model        parser.ContentModel
	lastStartTag string
}

func (s *scriptedTokenizer) SetContentModel(model parser.ContentModel) {
	s.model = model
}

func off(start, length int) parser.String {
	return parser.String{Kind: parser.StringOff, Off: start, Len: length}
}

func indexFold(data []byte, needle string) int {
	return bytes.Index(bytes.ToLower(data), []byte(strings.ToLower(needle)))
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\f' || c == '\r'
}

func (s *scriptedTokenizer) feed(tb *parser.TreeBuilder, input string) {
	data := []byte(input)
	tb.BufferHandler(data)

	i := 0
	for i < len(data) {
		switch s.model {
		case parser.ContentModelPlaintext:
			tb.TokenHandler(&parser.Token{Type: parser.CharacterToken, Data: off(i, len(data)-i)})
			i = len(data)
		case parser.ContentModelRCDATA, parser.ContentModelCDATA, parser.ContentModelScript:
			end := indexFold(data[i:], "</"+s.lastStartTag)
			if end == -1 {
				tb.TokenHandler(&parser.Token{Type: parser.CharacterToken, Data: off(i, len(data)-i)})
				i = len(data)
				break
			}
			if end > 0 {
				tb.TokenHandler(&parser.Token{Type: parser.CharacterToken, Data: off(i, end)})
			}
			nameStart := i + end + 2
			i = nameStart + len(s.lastStartTag)
			for i < len(data) && data[i] != '>' {
				i++
			}
			i++
			tb.TokenHandler(&parser.Token{
				Type: parser.EndTagToken,
				Tag:  parser.Tag{NS: parser.NamespaceHTML, Name: off(nameStart, len(s.lastStartTag))},
			})
		default:
			if data[i] != '<' {
				end := bytes.IndexByte(data[i:], '<')
				if end == -1 {
					end = len(data) - i
				}
				tb.TokenHandler(&parser.Token{Type: parser.CharacterToken, Data: off(i, end)})
				i += end
				break
			}
			i = s.feedMarkup(tb, data, i)
		}
	}

	tb.TokenHandler(&parser.Token{Type: parser.EOFToken})
}

func (s *scriptedTokenizer) feedMarkup(tb *parser.TreeBuilder, data []byte, i int) int {
	if bytes.HasPrefix(data[i:], []byte("<!--")) {
		end := bytes.Index(data[i+4:], []byte("-->"))
		tb.TokenHandler(&parser.Token{Type: parser.CommentToken, Data: off(i+4, end)})
		return i + 4 + end + 3
	}

	if bytes.HasPrefix(data[i:], []byte("<!")) {
		end := bytes.IndexByte(data[i:], '>')
		nameStart := i + len("<!doctype")
		for nameStart < i+end && isSpace(data[nameStart]) {
			nameStart++
		}
		nameEnd := nameStart
		for nameEnd < i+end && !isSpace(data[nameEnd]) {
			nameEnd++
		}
		tb.TokenHandler(&parser.Token{
			Type: parser.DoctypeToken,
			Doctype: parser.Doctype{
				Name:          off(nameStart, nameEnd-nameStart),
				PublicMissing: true,
				SystemMissing: true,
			},
		})
		return i + end + 1
	}

	if bytes.HasPrefix(data[i:], []byte("</")) {
		nameStart := i + 2
		end := bytes.IndexByte(data[i:], '>')
		tb.TokenHandler(&parser.Token{
			Type: parser.EndTagToken,
			Tag:  parser.Tag{NS: parser.NamespaceHTML, Name: off(nameStart, i+end-nameStart)},
		})
		return i + end + 1
	}

	// Start tag with optional attributes.
	nameStart := i + 1
	j := nameStart
	for j < len(data) && data[j] != '>' && data[j] != '/' && !isSpace(data[j]) {
		j++
	}
	tag := parser.Tag{NS: parser.NamespaceHTML, Name: off(nameStart, j-nameStart)}

	for j < len(data) && data[j] != '>' {
		for j < len(data) && isSpace(data[j]) {
			j++
		}
		if data[j] == '/' {
			tag.SelfClosing = true
			j++
			continue
		}
		if data[j] == '>' {
			break
		}

		attrStart := j
		for j < len(data) && data[j] != '=' && data[j] != '>' && data[j] != '/' && !isSpace(data[j]) {
			j++
		}
		attr := parser.Attribute{Name: off(attrStart, j-attrStart)}

		if j < len(data) && data[j] == '=' {
			j++
			if data[j] == '"' || data[j] == '\'' {
				quote := data[j]
				j++
				valStart := j
				for data[j] != quote {
					j++
				}
				attr.Value = off(valStart, j-valStart)
				j++
			} else {
				valStart := j
				for j < len(data) && data[j] != '>' && !isSpace(data[j]) {
					j++
				}
				attr.Value = off(valStart, j-valStart)
			}
		}
		tag.Attributes = append(tag.Attributes, attr)
	}

	s.lastStartTag = strings.ToLower(string(data[nameStart : nameStart+tag.Name.Len]))
	tb.TokenHandler(&parser.Token{Type: parser.StartTagToken, Tag: tag})
	return j + 1
}

func parseDocument(t *testing.T, input string) (*spec.Tree, *parser.TreeBuilder) {
	t.Helper()

	tokenizer := &scriptedTokenizer{}
	tb, err := parser.NewTreeBuilder(tokenizer)
	require.NoError(t, err)

	tree := spec.NewTree()
	tb.SetTreeHandler(tree)
	tb.SetDocumentNode(tree.CreateDocument())

	tokenizer.feed(tb, input)
	return tree, tb
}

func TestTreeConstructionScenarios(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{
			name: "implicit skeleton",
			in:   "<p>X",
			expected: `#document
| <html>
|   <head>
|   <body>
|     <p>
|       "X"`,
		},
		{
			name: "adoption agency",
			in:   "<b>1<p>2</b>3",
			expected: `#document
| <html>
|   <head>
|   <body>
|     <b>
|       "1"
|     <p>
|       <b>
|         "2"
|       "3"`,
		},
		{
			name: "adoption agency with a",
			in:   "<a>1<p>2</a>3</p>",
			expected: `#document
| <html>
|   <head>
|   <body>
|     <a>
|       "1"
|     <p>
|       <a>
|         "2"
|       "3"`,
		},
		{
			name: "implied tbody",
			in:   "<table><tr><td>X</td></tr></table>",
			expected: `#document
| <html>
|   <head>
|   <body>
|     <table>
|       <tbody>
|         <tr>
|           <td>
|             "X"`,
		},
		{
			name: "foster parented text",
			in:   "A<table>B</table>",
			expected: `#document
| <html>
|   <head>
|   <body>
|     "AB"
|     <table>`,
		},
		{
			name: "foster parented element",
			in:   "<table><div></div></table>",
			expected: `#document
| <html>
|   <head>
|   <body>
|     <div>
|     <table>`,
		},
		{
			name: "pre strips leading newline",
			in:   "<!DOCTYPE html><html><head></head><body><pre>\nHi</pre>",
			expected: `#document
| <!DOCTYPE html>
| <html>
|   <head>
|   <body>
|     <pre>
|       "Hi"`,
		},
		{
			name: "option closes option",
			in:   "<select><option>a<option>b</select>",
			expected: `#document
| <html>
|   <head>
|   <body>
|     <select>
|       <option>
|         "a"
|       <option>
|         "b"`,
		},
		{
			name: "heading closes heading",
			in:   "<h1>a<h2>b",
			expected: `#document
| <html>
|   <head>
|   <body>
|     <h1>
|       "a"
|     <h2>
|       "b"`,
		},
		{
			name: "list item closes list item",
			in:   "<ul><li>a<li>b</ul>",
			expected: `#document
| <html>
|   <head>
|   <body>
|     <ul>
|       <li>
|         "a"
|       <li>
|         "b"`,
		},
		{
			name: "title collects rcdata",
			in:   "<title>Hi</title>",
			expected: `#document
| <html>
|   <head>
|     <title>
|       "Hi"
|   <body>`,
		},
		{
			name: "script text is collected not executed",
			in:   "<script>var a = 1 < 2;</script>x",
			expected: `#document
| <html>
|   <head>
|     <script>
|       "var a = 1 < 2;"
|   <body>
|     "x"`,
		},
		{
			name: "textarea strips leading newline",
			in:   "<body><textarea>\nab</textarea>",
			expected: `#document
| <html>
|   <head>
|   <body>
|     <textarea>
|       "ab"`,
		},
		{
			name: "comment before root",
			in:   "<!--x--><p>y",
			expected: `#document
| <!-- x -->
| <html>
|   <head>
|   <body>
|     <p>
|       "y"`,
		},
		{
			name: "attributes are sorted in the dump",
			in:   `<p id="a" class=b>`,
			expected: `#document
| <html>
|   <head>
|   <body>
|     <p>
|       class="b"
|       id="a"`,
		},
		{
			name: "hidden input stays in table",
			in:   "<table><input type=hidden></table>",
			expected: `#document
| <html>
|   <head>
|   <body>
|     <table>
|       <input>
|         type="hidden"`,
		},
		{
			name: "svg with xlink attribute",
			in:   `<body><svg xlink:href="#a"><circle/></svg>x`,
			expected: `#document
| <html>
|   <head>
|   <body>
|     <svg svg>
|       xlink href="#a"
|       <svg circle>
|     "x"`,
		},
		{
			name: "paragraph closed by block",
			in:   "<p>a<div>b",
			expected: `#document
| <html>
|   <head>
|   <body>
|     <p>
|       "a"
|     <div>
|       "b"`,
		},
		{
			name: "formatting element stays open across blocks",
			in:   "<b>a<div>b",
			expected: `#document
| <html>
|   <head>
|   <body>
|     <b>
|       "a"
|       <div>
|         "b"`,
		},
		{
			name: "stray caption end tag ignored",
			in:   "<table><tr><td>a</caption></td></tr></table>",
			expected: `#document
| <html>
|   <head>
|   <body>
|     <table>
|       <tbody>
|         <tr>
|           <td>
|             "a"`,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tree, tb := parseDocument(t, test.in)
			assert.Equal(t, test.expected, tree.String())

			tb.Destroy()
			assert.Zero(t, tree.OutstandingRefs(), "all node references released after destroy")
		})
	}
}

func TestQuirksModeFromDoctype(t *testing.T) {
	tree, tb := parseDocument(t, "<!DOCTYPE html><p>x")
	assert.Equal(t, parser.NoQuirks, tree.Quirks)
	tb.Destroy()

	tree, tb = parseDocument(t, "<p>x")
	assert.Equal(t, parser.Quirks, tree.Quirks)
	tb.Destroy()
}

func TestTokensDiscardedBeforeDocumentNode(t *testing.T) {
	tokenizer := &scriptedTokenizer{}
	tb, err := parser.NewTreeBuilder(tokenizer)
	require.NoError(t, err)

	tree := spec.NewTree()
	tb.SetTreeHandler(tree)
	// No document node configured.

	tokenizer.feed(tb, "<p>X")
	assert.Nil(t, tree.Document)
	assert.Zero(t, tree.OutstandingRefs())
	tb.Destroy()
}

func TestEOFTerminatesCleanly(t *testing.T) {
	inputs := []string{
		"",
		"<table>",
		"<table><tr>",
		"<select><option>",
		"<frameset>",
		"<body><svg>",
		"<title>never closed",
		"<p><b><i>",
	}

	for _, in := range inputs {
		tree, tb := parseDocument(t, in)
		tb.Destroy()
		assert.Zero(t, tree.OutstandingRefs(), "input %q", in)
	}
}

func TestWhitespaceStraddlingRun(t *testing.T) {
	// One character run with a whitespace prefix: the prefix is
	// consumed, the residue opens the body and is inserted there.
	tree, tb := parseDocument(t, "   X")
	expected := `#document
| <html>
|   <head>
|   <body>
|     "X"`
	assert.Equal(t, expected, tree.String())
	tb.Destroy()
}

func TestBufferRelocationBetweenTokens(t *testing.T) {
	tokenizer := &scriptedTokenizer{}
	tb, err := parser.NewTreeBuilder(tokenizer)
	require.NoError(t, err)

	tree := spec.NewTree()
	tb.SetTreeHandler(tree)
	tb.SetDocumentNode(tree.CreateDocument())

	var observed []byte
	tb.SetBufferHandler(func(data []byte) { observed = data })

	first := []byte("<body>he")
	tb.BufferHandler(first)
	assert.Equal(t, first, observed)

	tb.TokenHandler(&parser.Token{
		Type: parser.StartTagToken,
		Tag:  parser.Tag{NS: parser.NamespaceHTML, Name: off(1, 4)},
	})
	tb.TokenHandler(&parser.Token{Type: parser.CharacterToken, Data: off(6, 2)})

	// The tokenizer relocates its buffer; offsets now resolve against
	// the new base.
	second := []byte("llo")
	tb.BufferHandler(second)
	assert.Equal(t, second, observed)

	tb.TokenHandler(&parser.Token{Type: parser.CharacterToken, Data: off(0, 3)})
	tb.TokenHandler(&parser.Token{Type: parser.EOFToken})

	expected := `#document
| <html>
|   <head>
|   <body>
|     "hello"`
	assert.Equal(t, expected, tree.String())

	tb.Destroy()
	assert.Zero(t, tree.OutstandingRefs())
}

func TestParseErrorsAreReportedNotFatal(t *testing.T) {
	tokenizer := &scriptedTokenizer{}
	tb, err := parser.NewTreeBuilder(tokenizer)
	require.NoError(t, err)

	tree := spec.NewTree()
	tb.SetTreeHandler(tree)
	tb.SetDocumentNode(tree.CreateDocument())

	var reported []error
	tb.SetErrorHandler(func(err error) { reported = append(reported, err) })

	tokenizer.feed(tb, "</b><p>x")

	assert.NotEmpty(t, reported)
	var parseErr *parser.ParseError
	assert.ErrorAs(t, reported[0], &parseErr)

	expected := `#document
| <html>
|   <head>
|   <body>
|     <p>
|       "x"`
	assert.Equal(t, expected, tree.String())
	tb.Destroy()
}

func TestNewTreeBuilderRequiresTokenizer(t *testing.T) {
	_, err := parser.NewTreeBuilder(nil)
	assert.ErrorIs(t, err, parser.ErrBadParameter)
}
