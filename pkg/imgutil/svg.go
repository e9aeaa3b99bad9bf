package imgutil

import (
	"bytes"
)

var (
	utf8BOM     = []byte{0xef, 0xbb, 0xbf}
	xmlDeclOpen = []byte("<?xml")
	commentOpen = []byte("<!--")
	doctypeOpen = []byte("<!doctype")
	svgOpen     = []byte("<svg")
)

// IsSVG reports whether buf looks like the start of an SVG document. An
// optional BOM, XML declaration, comments and doctype may precede the
// root element; the root element itself must be <svg.
func IsSVG(buf []byte) bool {
	b := bytes.TrimPrefix(buf, utf8BOM)
	for {
		b = bytes.TrimLeft(b, " \t\r\n")
		if len(b) == 0 {
			return false
		}
		lower := bytes.ToLower(b[:min(len(b), len(doctypeOpen))])
		switch {
		case bytes.HasPrefix(lower, svgOpen):
			return len(b) == len(svgOpen) || isNameEnd(b[len(svgOpen)])
		case bytes.HasPrefix(lower, xmlDeclOpen):
			b = skipPast(b, []byte("?>"))
		case bytes.HasPrefix(lower, commentOpen):
			b = skipPast(b, []byte("-->"))
		case bytes.HasPrefix(lower, doctypeOpen):
			end := bytes.IndexByte(b, '>')
			if end < 0 || !bytes.Contains(bytes.ToLower(b[:end]), []byte("svg")) {
				return false
			}
			b = b[end+1:]
		default:
			return false
		}
		if b == nil {
			return false
		}
	}
}

// skipPast returns the remainder of b after the first occurrence of
// marker, or nil when the marker is not within b.
func skipPast(b, marker []byte) []byte {
	idx := bytes.Index(b, marker)
	if idx < 0 {
		return nil
	}
	return b[idx+len(marker):]
}

func isNameEnd(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '>', '/':
		return true
	}
	return false
}
