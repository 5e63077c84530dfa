// Package lex drives a TreeBuilder from the tdewolff HTML lexer. The
// lexer special-cases the raw-text elements itself, so the builder's
// content-model switches are recorded but need no lexer-side action.
package lex

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/html"

	"github.com/heathj/treebuilder/parser"
)

// Source adapts the lexer token stream to the builder's token
// contract. All payloads are materialized, so no buffer handler
// traffic is required.
type Source struct {
	lexer *html.Lexer
	model parser.ContentModel
}

func New(r io.Reader) *Source {
	return &Source{
		lexer: html.NewLexer(parse.NewInput(r)),
	}
}

// SetContentModel implements parser.Tokenizer.
func (s *Source) SetContentModel(model parser.ContentModel) {
	s.model = model
}

func str(data []byte) parser.String {
	return parser.MakeString(append([]byte(nil), data...))
}

func stripQuotes(val []byte) []byte {
	if len(val) >= 2 && (val[0] == '"' || val[0] == '\'') && val[len(val)-1] == val[0] {
		return val[1 : len(val)-1]
	}
	return val
}

// collectTag reads attribute tokens up to the start-tag close. HTML
// names are case folded here, ahead of any foreign-content
// adjustment.
func (s *Source) collectTag(name []byte) (parser.Tag, error) {
	tag := parser.Tag{NS: parser.NamespaceHTML, Name: str(bytes.ToLower(name))}

	for {
		tt, _ := s.lexer.Next()
		switch tt {
		case html.AttributeToken:
			tag.Attributes = append(tag.Attributes, parser.Attribute{
				Name:  str(bytes.ToLower(s.lexer.Text())),
				Value: str(stripQuotes(s.lexer.AttrVal())),
			})
		case html.StartTagCloseToken:
			return tag, nil
		case html.StartTagVoidToken:
			tag.SelfClosing = true
			return tag, nil
		case html.ErrorToken:
			return tag, s.lexer.Err()
		}
	}
}

// doctypeFrom extracts the doctype name from the raw token bytes.
func doctypeFrom(data []byte) parser.Doctype {
	body := bytes.TrimSuffix(data, []byte(">"))
	if idx := bytes.IndexByte(body, ' '); idx >= 0 {
		body = bytes.TrimSpace(body[idx:])
	} else {
		body = nil
	}

	// Public and system identifiers are not extracted: only the name
	// is kept, and the doctype is reported with both identifiers
	// missing. A bare name is the overwhelmingly common case.
	name := body
	if idx := bytes.IndexAny(name, " \t\n\f"); idx >= 0 {
		name = name[:idx]
	}

	return parser.Doctype{
		Name:          str(bytes.ToLower(name)),
		PublicMissing: true,
		SystemMissing: true,
	}
}

// Run lexes the input to exhaustion, feeding every token to the
// builder, ending with EOF.
func (s *Source) Run(tb *parser.TreeBuilder) error {
	for {
		tt, data := s.lexer.Next()
		switch tt {
		case html.ErrorToken:
			if err := s.lexer.Err(); err != io.EOF {
				return errors.Wrap(err, "lex html")
			}
			tb.TokenHandler(&parser.Token{Type: parser.EOFToken})
			return nil
		case html.DoctypeToken:
			tb.TokenHandler(&parser.Token{
				Type:    parser.DoctypeToken,
				Doctype: doctypeFrom(data),
			})
		case html.CommentToken:
			body := bytes.TrimSuffix(bytes.TrimPrefix(data, []byte("<!--")), []byte("-->"))
			tb.TokenHandler(&parser.Token{
				Type: parser.CommentToken,
				Data: str(body),
			})
		case html.TextToken:
			tb.TokenHandler(&parser.Token{
				Type: parser.CharacterToken,
				Data: str(data),
			})
		case html.StartTagToken:
			tag, err := s.collectTag(bytes.TrimPrefix(data, []byte("<")))
			if err != nil {
				return errors.Wrap(err, "lex start tag")
			}
			tb.TokenHandler(&parser.Token{Type: parser.StartTagToken, Tag: tag})
		case html.EndTagToken:
			name := bytes.TrimSuffix(bytes.TrimPrefix(data, []byte("</")), []byte(">"))
			tb.TokenHandler(&parser.Token{
				Type: parser.EndTagToken,
				Tag:  parser.Tag{NS: parser.NamespaceHTML, Name: str(bytes.ToLower(bytes.TrimSpace(name)))},
			})
		case html.SvgToken, html.MathToken:
			// The lexer hands foreign content over as one raw blob;
			// resynthesize it as open tag, raw text, close tag.
			name := "svg"
			if tt == html.MathToken {
				name = "math"
			}
			if err := s.emitForeignBlob(tb, name, data); err != nil {
				return err
			}
		}
	}
}

func (s *Source) emitForeignBlob(tb *parser.TreeBuilder, name string, data []byte) error {
	open := bytes.IndexByte(data, '>')
	close := bytes.LastIndexByte(data, '<')
	if open < 0 || close <= open {
		return errors.Errorf("malformed %s block", name)
	}

	tb.TokenHandler(&parser.Token{
		Type: parser.StartTagToken,
		Tag:  parser.Tag{NS: parser.NamespaceHTML, Name: str([]byte(name))},
	})
	if inner := data[open+1 : close]; len(inner) > 0 {
		tb.TokenHandler(&parser.Token{
			Type: parser.CharacterToken,
			Data: str(inner),
		})
	}
	tb.TokenHandler(&parser.Token{
		Type: parser.EndTagToken,
		Tag:  parser.Tag{NS: parser.NamespaceHTML, Name: str([]byte(name))},
	})
	return nil
}
