package htmlproc

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

var whitespaceRunRe = regexp.MustCompile(`\s+`)

// rawTextTags hold content whose whitespace is significant and must not be
// touched by the minifier.
var rawTextTags = map[string]struct{}{
	"pre":      {},
	"textarea": {},
	"script":   {},
	"style":    {},
}

// Minify performs best-effort whitespace and comment compaction: comments are
// stripped, runs of whitespace inside text collapse to a single space, and
// whitespace-only text between tags is dropped. Minification is an
// optimization, never a correctness requirement: on any failure the original
// input is returned as an Unchanged outcome.
func Minify(raw string) Outcome {
	if !utf8.ValidString(raw) {
		return unchanged(raw)
	}

	root, fragment, err := parseTree(raw)
	if err != nil {
		return unchanged(raw)
	}

	compact(root, false)

	out, err := renderTree(root, fragment)
	if err != nil {
		return unchanged(raw)
	}
	return transformed(out)
}

// compact rewrites the subtree in place. inRawText is true inside elements
// whose textual content must be preserved verbatim.
func compact(n *html.Node, inRawText bool) {
	var doomed []*html.Node

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.CommentNode:
			doomed = append(doomed, c)
		case html.TextNode:
			if inRawText {
				continue
			}
			if strings.TrimSpace(c.Data) == "" {
				doomed = append(doomed, c)
				continue
			}
			c.Data = whitespaceRunRe.ReplaceAllString(c.Data, " ")
		case html.ElementNode:
			_, raw := rawTextTags[strings.ToLower(c.Data)]
			compact(c, inRawText || raw)
		default:
			compact(c, inRawText)
		}
	}

	for _, c := range doomed {
		n.RemoveChild(c)
	}
}
