package htmlproc

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// looksLikeDocument reports whether raw appears to be a full HTML document
// rather than a fragment.
func looksLikeDocument(raw string) bool {
	lower := strings.ToLower(raw)
	return strings.Contains(lower, "<html") || strings.Contains(lower, "<!doctype")
}

// parseTree parses raw HTML tolerantly into a single rooted tree. Full
// documents go through the regular document parser; everything else is parsed
// as a body fragment so the parser does not force an implied
// <html>/<head>/<body> wrapper around the caller's actual markup. Fragment
// roots are reattached under a synthetic body element so every parsed node,
// including top-level fragment nodes, has a parent and can be removed by tree
// rewrites. The returned fragment flag tells renderTree to serialize only the
// synthetic root's children.
func parseTree(raw string) (root *html.Node, fragment bool, err error) {
	if looksLikeDocument(raw) {
		doc, err := html.Parse(strings.NewReader(raw))
		if err != nil {
			return nil, false, err
		}
		return doc, false, nil
	}

	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(raw), ctx)
	if err != nil {
		return nil, false, err
	}

	root = &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root, true, nil
}

// renderTree serializes a parsed tree back to an HTML string. For fragments
// only the synthetic root's children are rendered, so the wrapper introduced
// by parseTree never leaks into output.
func renderTree(root *html.Node, fragment bool) (string, error) {
	var buf bytes.Buffer
	if fragment {
		for c := root.FirstChild; c != nil; c = c.NextSibling {
			if err := html.Render(&buf, c); err != nil {
				return "", err
			}
		}
		return buf.String(), nil
	}
	if err := html.Render(&buf, root); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// walk visits n and every descendant in document order.
func walk(n *html.Node, visit func(*html.Node)) {
	visit(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

// walkTree visits every node of a parseTree result, skipping the synthetic
// fragment root itself.
func walkTree(root *html.Node, fragment bool, visit func(*html.Node)) {
	if fragment {
		for c := root.FirstChild; c != nil; c = c.NextSibling {
			walk(c, visit)
		}
		return
	}
	walk(root, visit)
}

// hasAttr reports whether the element carries the named attribute (any value).
func hasAttr(n *html.Node, name string) bool {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return true
		}
	}
	return false
}
