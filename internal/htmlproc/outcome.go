package htmlproc

// Outcome is the result of a best-effort transformation. Sanitization and
// minification never fail hard: when they cannot process their input they
// fall back to it unchanged, and that fallback is a visible branch rather
// than a swallowed error.
type Outcome struct {
	HTML        string
	Transformed bool
}

// Transformed marks a successfully rewritten document.
func transformed(html string) Outcome {
	return Outcome{HTML: html, Transformed: true}
}

// Unchanged marks the fail-open branch: the original input passes through.
func unchanged(original string) Outcome {
	return Outcome{HTML: original, Transformed: false}
}
