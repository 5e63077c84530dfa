package parser

import "bytes"

// elementType is a closed enumeration of the element names the tree
// construction stage cares about. The ordering is load-bearing: the
// special elements come first, then the scoping elements, then the
// formatting elements, so that the classification predicates are
// constant-time range tests. Everything above U is phrasing, including
// unknown names.
//
// Slot 0 of the open element stack uses a type of zero to mean
// "unused", so html must not map to zero; it sits in the scoping
// range, well away from address.
type elementType uint

const (
	// Special elements.
	address elementType = iota
	area
	base
	basefont
	bgsound
	blockquote
	body
	br
	center
	col
	colgroup
	dd
	dir
	div
	dl
	dt
	embed
	fieldset
	form
	frame
	frameset
	h1
	h2
	h3
	h4
	h5
	h6
	head
	hr
	iframe
	image
	img
	input
	isindex
	li
	link
	listing
	menu
	meta
	noembed
	noframes
	noscript
	ol
	optgroup
	option
	p
	param
	plaintext
	pre
	script
	selectType
	spacer
	style
	tbody
	textarea
	tfoot
	thead
	title
	tr
	ul
	wbr

	// Scoping elements.
	applet
	button
	caption
	html
	marquee
	object
	table
	td
	th

	// Formatting elements.
	a
	b
	big
	code
	em
	font
	i
	nobr
	s
	small
	strike
	strong
	tt
	u

	// Phrasing elements (everything above u, unknown included).
	math
	svg
	rp
	rt
	unknown
)

var nameTypeMap = map[string]elementType{
	"address": address, "area": area,
	"base": base, "basefont": basefont,
	"bgsound": bgsound, "blockquote": blockquote,
	"body": body, "br": br,
	"center": center, "col": col,
	"colgroup": colgroup, "dd": dd,
	"dir": dir, "div": div,
	"dl": dl, "dt": dt,
	"embed": embed, "fieldset": fieldset,
	"form": form, "frame": frame,
	"frameset": frameset, "h1": h1,
	"h2": h2, "h3": h3,
	"h4": h4, "h5": h5,
	"h6": h6, "head": head,
	"hr": hr, "iframe": iframe,
	"image": image, "img": img,
	"input": input, "isindex": isindex,
	"li": li, "link": link,
	"listing": listing, "menu": menu,
	"meta": meta, "noembed": noembed,
	"noframes": noframes, "noscript": noscript,
	"ol": ol, "optgroup": optgroup,
	"option": option, "p": p,
	"param": param, "plaintext": plaintext,
	"pre": pre, "script": script,
	"select": selectType, "spacer": spacer,
	"style": style, "tbody": tbody,
	"textarea": textarea, "tfoot": tfoot,
	"thead": thead, "title": title,
	"tr": tr, "ul": ul,
	"wbr":    wbr,
	"applet": applet, "button": button,
	"caption": caption, "html": html,
	"marquee": marquee, "object": object,
	"table": table, "td": td,
	"th": th,
	"a":  a, "b": b,
	"big": big, "code": code,
	"em": em, "font": font,
	"i": i, "nobr": nobr,
	"s": s, "small": small,
	"strike": strike, "strong": strong,
	"tt": tt, "u": u,
	"math": math, "svg": svg,
	"rp": rp, "rt": rt,
}

var typeNameMap = func() map[elementType]string {
	m := make(map[elementType]string, len(nameTypeMap))
	for name, t := range nameTypeMap {
		m[t] = name
	}
	return m
}()

// elementTypeFromBytes maps a tag name to its element type, comparing
// ASCII case-insensitively. Names outside the enumeration map to
// unknown.
func elementTypeFromBytes(name []byte) elementType {
	if t, ok := nameTypeMap[string(bytes.ToLower(name))]; ok {
		return t
	}
	return unknown
}

func (t elementType) String() string {
	if name, ok := typeNameMap[t]; ok {
		return name
	}
	return "unknown"
}

func isSpecialElement(t elementType) bool {
	return t <= wbr
}

func isScopingElement(t elementType) bool {
	return t >= applet && t <= th
}

func isFormattingElement(t elementType) bool {
	return t >= a && t <= u
}

func isPhrasingElement(t elementType) bool {
	return t > u
}

func isHeadingElement(t elementType) bool {
	return t >= h1 && t <= h6
}

// impliedEndTag reports whether an open element of this type is closed
// implicitly when a block boundary is reached.
func impliedEndTag(t elementType) bool {
	switch t {
	case dd, dt, li, option, optgroup, p, rp, rt:
		return true
	}
	return false
}
