package htmlproc

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// TagSet is an immutable set of lowercase tag names.
type TagSet map[string]struct{}

// NewTagSet builds a TagSet from a list of tag names, lowercasing each.
func NewTagSet(tags []string) TagSet {
	s := make(TagSet, len(tags))
	for _, t := range tags {
		s[strings.ToLower(t)] = struct{}{}
	}
	return s
}

// Contains reports whether the set holds the given tag name.
func (s TagSet) Contains(tag string) bool {
	_, ok := s[strings.ToLower(tag)]
	return ok
}

// ValidationReport is the structured outcome of a validation pass. It is
// purely informational: an invalid report never aborts downstream processing.
type ValidationReport struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

const (
	warnInlineScripts  = "Inline scripts detected - potential security risk"
	warnInlineHandlers = "Inline event handlers detected - potential security risk"
)

// handlerAttrs are the inline event handler attributes the validator flags.
// The sanitizer removes the full on* class; the validator only warns about
// the common ones.
var handlerAttrs = []string{"onclick", "onload", "onerror", "onmouseover"}

// Validate parses HTML and produces a structured report of errors and
// warnings. It is a pure function: it tolerates malformed input, never
// panics, and never blocks the pipeline. Tags outside allowed produce
// advisory warnings, not rejections.
func Validate(raw string, allowed TagSet) ValidationReport {
	var errs, warnings []string

	if strings.TrimSpace(raw) == "" {
		errs = append(errs, "Empty HTML content")
		return ValidationReport{Valid: false, Errors: errs, Warnings: []string{}}
	}

	root, fragment, err := parseTree(raw)
	if err != nil {
		errs = append(errs, fmt.Sprintf("Failed to parse HTML: %v", err))
		return ValidationReport{Valid: false, Errors: dedupe(errs), Warnings: []string{}}
	}

	walkTree(root, fragment, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		tag := strings.ToLower(n.Data)
		if !allowed.Contains(tag) {
			warnings = append(warnings, fmt.Sprintf("Potentially unsafe or disallowed tag: %s", tag))
		}
		if tag == "script" && !hasAttr(n, "src") {
			warnings = append(warnings, warnInlineScripts)
		}
		for _, h := range handlerAttrs {
			if hasAttr(n, h) {
				warnings = append(warnings, warnInlineHandlers)
				break
			}
		}
	})

	errs = dedupe(errs)
	warnings = dedupe(warnings)
	return ValidationReport{
		Valid:    len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
	}
}

// dedupe removes duplicates while preserving first-occurrence order.
func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
