package htmlproc

import (
	"regexp"
	"strings"
)

var (
	// The "html" fence tag is matched case-sensitively; agents that follow the
	// prompt templates emit it lowercase.
	htmlFenceRe    = regexp.MustCompile("(?s)```html\\s*(.*?)\\s*```")
	genericFenceRe = regexp.MustCompile("(?s)```\\s*(.*?)\\s*```")
)

// fragmentShell wraps a bare fragment in a minimal document.
const (
	fragmentShellHead = "<html>\n<head>\n<title>Generated Page</title>\n</head>\n<body>\n"
	fragmentShellTail = "\n</body>\n</html>"
)

// Extract pulls a single HTML document or fragment out of raw agent text.
// Fenced ```html blocks win over generic fences; surrounding prose is
// discarded and the fenced content is returned verbatim. When the response
// carries no fence at all, the trimmed text itself is the candidate, and a
// bare fragment (no <html> and no <body> tag) is wrapped in a minimal
// document shell. Extract never fails: the worst case is an empty string,
// which downstream validation reports as invalid.
func Extract(raw string) string {
	if m := htmlFenceRe.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := genericFenceRe.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}

	out := strings.TrimSpace(raw)
	if out == "" {
		return out
	}

	if !strings.Contains(out, "<html") && !strings.Contains(out, "<HTML") {
		if !strings.Contains(out, "<body") && !strings.Contains(out, "<BODY") {
			out = fragmentShellHead + out + fragmentShellTail
		}
	}
	return out
}
