package parser

import "bytes"

// xlinkAttrSuffixes, xmlAttrSuffixes: the recognised suffixes for
// namespaced foreign attributes.
var xlinkAttrSuffixes = []string{
	"actuate", "arcrole", "href", "role", "show", "title", "type",
}

var xmlAttrSuffixes = []string{"base", "lang", "space"}

func matchesAny(name []byte, candidates []string) bool {
	for _, c := range candidates {
		if bytes.Equal(name, []byte(c)) {
			return true
		}
	}
	return false
}

func stripStringPrefix(s *String, n int) {
	if s.Kind == StringOff {
		s.Off += n
	} else {
		s.Ptr = s.Ptr[n:]
	}
	s.Len -= n
}

// adjustForeignAttributes rewrites xlink:*, xml:* and xmlns attributes
// into their proper namespaces, stripping the prefix from the name.
// https://html.spec.whatwg.org/multipage/parsing.html#adjust-foreign-attributes
func (tb *TreeBuilder) adjustForeignAttributes(tag *Tag) {
	for idx := range tag.Attributes {
		attr := &tag.Attributes[idx]
		name := tb.resolve(attr.Name)

		switch {
		case len(name) >= 10 && bytes.HasPrefix(name, []byte("xlink:")):
			if matchesAny(name[6:], xlinkAttrSuffixes) {
				attr.NS = NamespaceXLink
				stripStringPrefix(&attr.Name, 6)
			}
		case len(name) >= 8 && bytes.HasPrefix(name, []byte("xml:")):
			if matchesAny(name[4:], xmlAttrSuffixes) {
				attr.NS = NamespaceXML
				stripStringPrefix(&attr.Name, 4)
			}
		case bytes.Equal(name, []byte("xmlns")):
			attr.NS = NamespaceXMLNS
		case bytes.Equal(name, []byte("xmlns:xlink")):
			attr.NS = NamespaceXMLNS
			stripStringPrefix(&attr.Name, 6)
		}
	}
}

// adjustMathMLAttributes fixes the case of definitionURL.
func (tb *TreeBuilder) adjustMathMLAttributes(tag *Tag) {
	for idx := range tag.Attributes {
		if bytes.Equal(tb.resolve(tag.Attributes[idx].Name), []byte("definitionurl")) {
			tag.Attributes[idx].Name = MakeString([]byte("definitionURL"))
		}
	}
}

// svgAttrAdjustments maps lowercased SVG attribute names back to
// their camelCase forms.
var svgAttrAdjustments = map[string]string{
	"attributename":       "attributeName",
	"attributetype":       "attributeType",
	"basefrequency":       "baseFrequency",
	"baseprofile":         "baseProfile",
	"calcmode":            "calcMode",
	"clippathunits":       "clipPathUnits",
	"diffuseconstant":     "diffuseConstant",
	"edgemode":            "edgeMode",
	"filterunits":         "filterUnits",
	"glyphref":            "glyphRef",
	"gradienttransform":   "gradientTransform",
	"gradientunits":       "gradientUnits",
	"kernelmatrix":        "kernelMatrix",
	"kernelunitlength":    "kernelUnitLength",
	"keypoints":           "keyPoints",
	"keysplines":          "keySplines",
	"keytimes":            "keyTimes",
	"lengthadjust":        "lengthAdjust",
	"limitingconeangle":   "limitingConeAngle",
	"markerheight":        "markerHeight",
	"markerunits":         "markerUnits",
	"markerwidth":         "markerWidth",
	"maskcontentunits":    "maskContentUnits",
	"maskunits":           "maskUnits",
	"numoctaves":          "numOctaves",
	"pathlength":          "pathLength",
	"patterncontentunits": "patternContentUnits",
	"patterntransform":    "patternTransform",
	"patternunits":        "patternUnits",
	"pointsatx":           "pointsAtX",
	"pointsaty":           "pointsAtY",
	"pointsatz":           "pointsAtZ",
	"preservealpha":       "preserveAlpha",
	"preserveaspectratio": "preserveAspectRatio",
	"primitiveunits":      "primitiveUnits",
	"refx":                "refX",
	"refy":                "refY",
	"repeatcount":         "repeatCount",
	"repeatdur":           "repeatDur",
	"requiredextensions":  "requiredExtensions",
	"requiredfeatures":    "requiredFeatures",
	"specularconstant":    "specularConstant",
	"specularexponent":    "specularExponent",
	"spreadmethod":        "spreadMethod",
	"startoffset":         "startOffset",
	"stddeviation":        "stdDeviation",
	"stitchtiles":         "stitchTiles",
	"surfacescale":        "surfaceScale",
	"systemlanguage":      "systemLanguage",
	"tablevalues":         "tableValues",
	"targetx":             "targetX",
	"targety":             "targetY",
	"textlength":          "textLength",
	"viewbox":             "viewBox",
	"viewtarget":          "viewTarget",
	"xchannelselector":    "xChannelSelector",
	"ychannelselector":    "yChannelSelector",
	"zoomandpan":          "zoomAndPan",
}

func (tb *TreeBuilder) adjustSVGAttributes(tag *Tag) {
	for idx := range tag.Attributes {
		name := bytes.ToLower(tb.resolve(tag.Attributes[idx].Name))
		if fixed, ok := svgAttrAdjustments[string(name)]; ok {
			tag.Attributes[idx].Name = MakeString([]byte(fixed))
		}
	}
}

// svgTagAdjustments maps lowercased SVG element names back to their
// camelCase forms.
var svgTagAdjustments = map[string]string{
	"altglyph":            "altGlyph",
	"altglyphdef":         "altGlyphDef",
	"altglyphitem":        "altGlyphItem",
	"animatecolor":        "animateColor",
	"animatemotion":       "animateMotion",
	"animatetransform":    "animateTransform",
	"clippath":            "clipPath",
	"feblend":             "feBlend",
	"fecolormatrix":       "feColorMatrix",
	"fecomponenttransfer": "feComponentTransfer",
	"fecomposite":         "feComposite",
	"feconvolvematrix":    "feConvolveMatrix",
	"fediffuselighting":   "feDiffuseLighting",
	"fedisplacementmap":   "feDisplacementMap",
	"fedistantlight":      "feDistantLight",
	"feflood":             "feFlood",
	"fefunca":             "feFuncA",
	"fefuncb":             "feFuncB",
	"fefuncg":             "feFuncG",
	"fefuncr":             "feFuncR",
	"fegaussianblur":      "feGaussianBlur",
	"feimage":             "feImage",
	"femerge":             "feMerge",
	"femergenode":         "feMergeNode",
	"femorphology":        "feMorphology",
	"feoffset":            "feOffset",
	"fepointlight":        "fePointLight",
	"fespecularlighting":  "feSpecularLighting",
	"fespotlight":         "feSpotLight",
	"fetile":              "feTile",
	"feturbulence":        "feTurbulence",
	"foreignobject":       "foreignObject",
	"glyphref":            "glyphRef",
	"lineargradient":      "linearGradient",
	"radialgradient":      "radialGradient",
	"textpath":            "textPath",
}

func (tb *TreeBuilder) adjustSVGTagName(tag *Tag) {
	name := bytes.ToLower(tb.resolve(tag.Name))
	if fixed, ok := svgTagAdjustments[string(name)]; ok {
		tag.Name = MakeString([]byte(fixed))
	}
}

// breakoutTag reports whether an HTML start tag forces an exit from
// foreign content.
func (tb *TreeBuilder) breakoutTag(tag *Tag) bool {
	switch tb.elementTypeForTag(tag) {
	case b, big, blockquote, body, br, center, code, dd, div, dl, dt,
		em, embed, h1, h2, h3, h4, h5, h6, head, hr, i, img, li,
		listing, menu, meta, nobr, ol, p, pre, s, small, strike,
		strong, table, tt, u, ul:
		return true
	case font:
		for _, attr := range tag.Attributes {
			switch string(bytes.ToLower(tb.resolve(attr.Name))) {
			case "color", "face", "size":
				return true
			}
		}
	}
	return false
}

// https://html.spec.whatwg.org/multipage/parsing.html#parsing-main-inforeign
func (tb *TreeBuilder) handleInForeignContent(token *Token) bool {
	switch token.Type {
	case CharacterToken:
		tb.appendText(tb.resolve(token.Data))
		return false
	case CommentToken:
		tb.processCommentAppend(token, tb.ctx.stack.top().node)
		return false
	case DoctypeToken:
		tb.parseError("unexpected doctype")
		return false
	case StartTagToken:
		if tb.breakoutTag(&token.Tag) {
			tb.parseError("html content breaks out of foreign content")
			for tb.ctx.stack.current > 0 &&
				tb.ctx.stack.currentNodeNS() != NamespaceHTML {
				tb.popAndUnref()
			}
			tb.ctx.mode = tb.ctx.secondMode
			return true
		}

		ns := tb.ctx.stack.currentNodeNS()
		if ns == NamespaceSVG {
			tb.adjustSVGTagName(&token.Tag)
			tb.adjustSVGAttributes(&token.Tag)
		} else if ns == NamespaceMathML {
			tb.adjustMathMLAttributes(&token.Tag)
		}
		tb.adjustForeignAttributes(&token.Tag)
		token.Tag.NS = ns

		if token.Tag.SelfClosing {
			tb.insertElementNoPush(&token.Tag)
		} else {
			tb.insertElement(&token.Tag)
		}
		return false
	case EndTagToken:
		t := tb.elementTypeForTag(&token.Tag)

		matched := 0
		for idx := tb.ctx.stack.current; idx > 0 &&
			tb.ctx.stack.frames[idx].ns != NamespaceHTML; idx-- {
			if tb.ctx.stack.frames[idx].elemType == t {
				matched = idx
				break
			}
		}
		if matched == 0 {
			tb.parseError("stray end tag in foreign content")
			return false
		}

		for tb.ctx.stack.current >= matched {
			tb.popAndUnref()
		}
		if tb.ctx.stack.currentNodeNS() == NamespaceHTML {
			tb.ctx.mode = tb.ctx.secondMode
		}
		return false
	default:
		tb.parseError("eof in foreign content")
		for tb.ctx.stack.current > 0 &&
			tb.ctx.stack.currentNodeNS() != NamespaceHTML {
			tb.popAndUnref()
		}
		tb.ctx.mode = tb.ctx.secondMode
		return true
	}
}
