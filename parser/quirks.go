package parser

import "strings"

// Public identifier prefixes that force full quirks mode.
// https://html.spec.whatwg.org/multipage/parsing.html#the-initial-insertion-mode
var quirksPublicIDPrefixes = []string{
	"+//Silmaril//dtd html Pro v0r11 19970101//",
	"-//AS//DTD HTML 3.0 asWedit + extensions//",
	"-//AdvaSoft Ltd//DTD HTML 3.0 asWedit + extensions//",
	"-//IETF//DTD HTML 2.0 Level 1//",
	"-//IETF//DTD HTML 2.0 Level 2//",
	"-//IETF//DTD HTML 2.0 Strict Level 1//",
	"-//IETF//DTD HTML 2.0 Strict Level 2//",
	"-//IETF//DTD HTML 2.0 Strict//",
	"-//IETF//DTD HTML 2.0//",
	"-//IETF//DTD HTML 2.1E//",
	"-//IETF//DTD HTML 3.0//",
	"-//IETF//DTD HTML 3.2 Final//",
	"-//IETF//DTD HTML 3.2//",
	"-//IETF//DTD HTML 3//",
	"-//IETF//DTD HTML Level 0//",
	"-//IETF//DTD HTML Level 1//",
	"-//IETF//DTD HTML Level 2//",
	"-//IETF//DTD HTML Level 3//",
	"-//IETF//DTD HTML Strict Level 0//",
	"-//IETF//DTD HTML Strict Level 1//",
	"-//IETF//DTD HTML Strict Level 2//",
	"-//IETF//DTD HTML Strict Level 3//",
	"-//IETF//DTD HTML Strict//",
	"-//IETF//DTD HTML//",
	"-//Metrius//DTD Metrius Presentational//",
	"-//Microsoft//DTD Internet Explorer 2.0 HTML Strict//",
	"-//Microsoft//DTD Internet Explorer 2.0 HTML//",
	"-//Microsoft//DTD Internet Explorer 2.0 Tables//",
	"-//Microsoft//DTD Internet Explorer 3.0 HTML Strict//",
	"-//Microsoft//DTD Internet Explorer 3.0 HTML//",
	"-//Microsoft//DTD Internet Explorer 3.0 Tables//",
	"-//Netscape Comm. Corp.//DTD HTML//",
	"-//Netscape Comm. Corp.//DTD Strict HTML//",
	"-//O'Reilly and Associates//DTD HTML 2.0//",
	"-//O'Reilly and Associates//DTD HTML Extended 1.0//",
	"-//O'Reilly and Associates//DTD HTML Extended Relaxed 1.0//",
	"-//SQ//DTD HTML 2.0 HoTMetaL + extensions//",
	"-//SoftQuad Software//DTD HoTMetaL PRO 6.0::19990601::extensions to HTML 4.0//",
	"-//SoftQuad//DTD HoTMetaL PRO 4.0::19971010::extensions to HTML 4.0//",
	"-//Spyglass//DTD HTML 2.0 Extended//",
	"-//Sun Microsystems Corp.//DTD HotJava HTML//",
	"-//Sun Microsystems Corp.//DTD HotJava Strict HTML//",
	"-//W3C//DTD HTML 3 1995-03-24//",
	"-//W3C//DTD HTML 3.2 Draft//",
	"-//W3C//DTD HTML 3.2 Final//",
	"-//W3C//DTD HTML 3.2//",
	"-//W3C//DTD HTML 3.2S Draft//",
	"-//W3C//DTD HTML 4.0 Frameset//",
	"-//W3C//DTD HTML 4.0 Transitional//",
	"-//W3C//DTD HTML Experimental 19960712//",
	"-//W3C//DTD HTML Experimental 970421//",
	"-//W3C//DTD W3 HTML//",
	"-//W3O//DTD W3 HTML 3.0//",
	"-//WebTechs//DTD Mozilla HTML 2.0//",
	"-//WebTechs//DTD Mozilla HTML//",
}

const (
	quirksSystemID = "http://www.ibm.com/data/dtd/v11/ibmxhtml1-transitional.dtd"

	html401FramesetPublicID     = "-//W3C//DTD HTML 4.01 Frameset//"
	html401TransitionalPublicID = "-//W3C//DTD HTML 4.01 Transitional//"
	xhtml1FramesetPublicID      = "-//W3C//DTD XHTML 1.0 Frameset//"
	xhtml1TransitionalPublicID  = "-//W3C//DTD XHTML 1.0 Transitional//"
)

// Public identifiers that force quirks mode on an exact match.
var quirksPublicIDs = []string{
	"-//W3O//DTD W3 HTML Strict 3.0//EN//",
	"-/W3C/DTD HTML 4.0 Transitional/EN",
	"HTML",
}

func forcesQuirks(d *DoctypeData) bool {
	if !strings.EqualFold(d.Name, "html") {
		return true
	}

	if !d.PublicMissing {
		for _, id := range quirksPublicIDs {
			if strings.EqualFold(d.PublicID, id) {
				return true
			}
		}
		for _, prefix := range quirksPublicIDPrefixes {
			if hasPrefixFold(d.PublicID, prefix) {
				return true
			}
		}
		if d.SystemMissing &&
			(hasPrefixFold(d.PublicID, html401FramesetPublicID) ||
				hasPrefixFold(d.PublicID, html401TransitionalPublicID)) {
			return true
		}
	}

	if !d.SystemMissing && strings.EqualFold(d.SystemID, quirksSystemID) {
		return true
	}

	return false
}

func forcesLimitedQuirks(d *DoctypeData) bool {
	if hasPrefixFold(d.PublicID, xhtml1FramesetPublicID) ||
		hasPrefixFold(d.PublicID, xhtml1TransitionalPublicID) {
		return true
	}

	if !d.SystemMissing &&
		(hasPrefixFold(d.PublicID, html401FramesetPublicID) ||
			hasPrefixFold(d.PublicID, html401TransitionalPublicID)) {
		return true
	}

	return false
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
