// Package style exports cartographic style payloads (QML and SLD) with
// attribute field references rewritten to sanitized names.
package style

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/maviz991/gpkgclean/internal/sanitize"
)

// Format identifies one of the two style payload representations.
type Format int

const (
	// QML is the desktop GIS native style document.
	QML Format = iota
	// SLD is the OGC Styled Layer Descriptor document.
	SLD
)

// RewriteFieldReferences returns doc with every field reference that matches
// a rename rewritten to the new name. Matching is structural, via the XML
// token stream, so a field name appearing as a substring of unrelated text is
// left alone.
//
// Recognized reference shapes per format:
//
//	QML: any attribute named "field"; the "name" attribute of a <field>
//	     element; element character data exactly equal to the old name.
//	SLD: the text of an ogc:PropertyName element.
func RewriteFieldReferences(doc string, format Format, renames sanitize.RenameMap) (string, error) {
	changed := renames.Changed()
	if len(changed) == 0 || doc == "" {
		return doc, nil
	}
	lookup := make(map[string]string, len(changed))
	for _, r := range changed {
		lookup[r.From] = r.To
	}

	decoder := xml.NewDecoder(strings.NewReader(doc))
	// Raw tokens keep namespace prefixes as written, so the document can be
	// re-serialized without rewriting its namespace declarations.
	var out strings.Builder
	var elemStack []xml.Name

	for {
		tok, err := decoder.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse style payload: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			elemStack = append(elemStack, t.Name)
			writeStartElement(&out, t, format, lookup)
		case xml.EndElement:
			if len(elemStack) > 0 {
				elemStack = elemStack[:len(elemStack)-1]
			}
			out.WriteString("</")
			writeName(&out, t.Name)
			out.WriteByte('>')
		case xml.CharData:
			text := string(t)
			if newName, ok := lookup[text]; ok && replaceText(format, current(elemStack)) {
				text = newName
			}
			escapeInto(&out, text, false)
		case xml.Comment:
			out.WriteString("<!--")
			out.Write(t)
			out.WriteString("-->")
		case xml.ProcInst:
			out.WriteString("<?")
			out.WriteString(t.Target)
			out.WriteByte(' ')
			out.Write(t.Inst)
			out.WriteString("?>")
		case xml.Directive:
			out.WriteString("<!")
			out.Write(t)
			out.WriteByte('>')
		}
	}
	return out.String(), nil
}

func current(stack []xml.Name) xml.Name {
	if len(stack) == 0 {
		return xml.Name{}
	}
	return stack[len(stack)-1]
}

// replaceText reports whether character data inside elem is a recognized
// field reference for the format.
func replaceText(format Format, elem xml.Name) bool {
	switch format {
	case SLD:
		return elem.Local == "PropertyName"
	default:
		// The QML serializer emits bare field names as element text in a few
		// marker shapes; an exact text match is treated as a reference.
		return elem.Local != ""
	}
}

func writeStartElement(out *strings.Builder, t xml.StartElement, format Format, lookup map[string]string) {
	out.WriteByte('<')
	writeName(out, t.Name)
	for _, attr := range t.Attr {
		value := attr.Value
		if format == QML && isFieldAttr(t.Name, attr.Name) {
			if newName, ok := lookup[value]; ok {
				value = newName
			}
		}
		out.WriteByte(' ')
		writeName(out, attr.Name)
		out.WriteString(`="`)
		escapeInto(out, value, true)
		out.WriteByte('"')
	}
	out.WriteByte('>')
}

// isFieldAttr recognizes the QML attribute shapes that carry a field name.
func isFieldAttr(elem, attr xml.Name) bool {
	if attr.Local == "field" {
		return true
	}
	return elem.Local == "field" && attr.Local == "name"
}

func writeName(out *strings.Builder, name xml.Name) {
	if name.Space != "" {
		out.WriteString(name.Space)
		out.WriteByte(':')
	}
	out.WriteString(name.Local)
}

// escapeInto writes s with the XML special characters escaped. Whitespace is
// written literally so the document layout survives the round trip.
func escapeInto(out *strings.Builder, s string, attr bool) {
	for _, r := range s {
		switch r {
		case '&':
			out.WriteString("&amp;")
		case '<':
			out.WriteString("&lt;")
		case '>':
			out.WriteString("&gt;")
		case '"':
			if attr {
				out.WriteString("&quot;")
			} else {
				out.WriteByte('"')
			}
		default:
			out.WriteRune(r)
		}
	}
}
