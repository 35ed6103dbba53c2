package htmlproc

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// Sanitize removes a fixed set of dangerous constructs from HTML:
//
//   - <script> elements without a src attribute (whole subtree)
//   - <object> and <embed> elements (whole subtree)
//   - <iframe> elements without a src attribute (whole subtree)
//   - every attribute whose name starts with "on", on any element
//
// This is a denylist filter, not a full HTML security policy. Sanitize fails
// open: if the input cannot be parsed or re-serialized, the original string
// is returned as an Unchanged outcome and the caller is expected to log it
// as a soft failure.
func Sanitize(raw string) Outcome {
	if !utf8.ValidString(raw) {
		return unchanged(raw)
	}

	root, fragment, err := parseTree(raw)
	if err != nil {
		return unchanged(raw)
	}

	stripDangerous(root)

	out, err := renderTree(root, fragment)
	if err != nil {
		return unchanged(raw)
	}
	return transformed(out)
}

// stripDangerous removes denylisted subtrees and on* attributes in one pass.
func stripDangerous(root *html.Node) {
	var doomed []*html.Node

	walk(root, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		if isDangerousElement(n) {
			doomed = append(doomed, n)
			return
		}
		if len(n.Attr) > 0 {
			kept := n.Attr[:0]
			for _, a := range n.Attr {
				if !strings.HasPrefix(strings.ToLower(a.Key), "on") {
					kept = append(kept, a)
				}
			}
			n.Attr = kept
		}
	})

	for _, n := range doomed {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
}

func isDangerousElement(n *html.Node) bool {
	switch strings.ToLower(n.Data) {
	case "object", "embed":
		return true
	case "script", "iframe":
		return !hasAttr(n, "src")
	default:
		return false
	}
}
