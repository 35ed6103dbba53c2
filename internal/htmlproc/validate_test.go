package htmlproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTagSet(extra ...string) TagSet {
	base := []string{"html", "head", "body", "title", "div", "span", "p", "a", "ul", "li"}
	return NewTagSet(append(base, extra...))
}

func TestValidateCleanFragment(t *testing.T) {
	report := Validate("<div><p>hello</p></div>", testTagSet())

	assert.True(t, report.Valid)
	assert.Empty(t, report.Errors)
	assert.Empty(t, report.Warnings)
}

func TestValidateEmptyInput(t *testing.T) {
	for _, raw := range []string{"", "   \n\t"} {
		report := Validate(raw, testTagSet())
		assert.False(t, report.Valid)
		require.Len(t, report.Errors, 1)
	}
}

func TestValidateDisallowedTagWarnings(t *testing.T) {
	t.Run("flags tags outside the allowlist", func(t *testing.T) {
		report := Validate("<div><marquee>old</marquee></div>", testTagSet())

		assert.True(t, report.Valid, "disallowed tags are advisory, not errors")
		assert.Contains(t, report.Warnings, "Potentially unsafe or disallowed tag: marquee")
	})

	t.Run("repeated offenders collapse to one warning", func(t *testing.T) {
		raw := "<div><marquee>a</marquee><marquee>b</marquee><marquee>c</marquee></div>"
		report := Validate(raw, testTagSet())

		count := 0
		for _, w := range report.Warnings {
			if w == "Potentially unsafe or disallowed tag: marquee" {
				count++
			}
		}
		assert.Equal(t, 1, count, "warnings must be deduplicated")
	})
}

func TestValidateInlineScripts(t *testing.T) {
	allowed := testTagSet("script")

	t.Run("inline script warns", func(t *testing.T) {
		report := Validate("<div><script>alert(1)</script></div>", allowed)
		assert.Contains(t, report.Warnings, warnInlineScripts)
	})

	t.Run("external script does not warn", func(t *testing.T) {
		report := Validate(`<div><script src="/app.js"></script></div>`, allowed)
		assert.NotContains(t, report.Warnings, warnInlineScripts)
	})
}

func TestValidateInlineEventHandlers(t *testing.T) {
	t.Run("flagged handler attributes warn once", func(t *testing.T) {
		raw := `<div onclick="x()"><p onload="y()">text</p></div>`
		report := Validate(raw, testTagSet())

		count := 0
		for _, w := range report.Warnings {
			if w == warnInlineHandlers {
				count++
			}
		}
		assert.Equal(t, 1, count)
	})

	t.Run("unlisted on attribute is not the validator's concern", func(t *testing.T) {
		report := Validate(`<div onfocus="x()">text</div>`, testTagSet())
		assert.NotContains(t, report.Warnings, warnInlineHandlers)
	})
}

func TestValidateFullDocument(t *testing.T) {
	raw := "<html><head><title>t</title></head><body><p>hi</p></body></html>"
	report := Validate(raw, testTagSet())

	assert.True(t, report.Valid)
	assert.Empty(t, report.Warnings, "document structure tags are in the allowlist")
}

func TestValidateFragmentDoesNotInventStructure(t *testing.T) {
	// A fragment must not pick up implied <html>/<head>/<body> wrappers that
	// would mask the caller's actual markup.
	report := Validate("<p>hi</p>", NewTagSet([]string{"p"}))

	assert.True(t, report.Valid)
	assert.Empty(t, report.Warnings)
}

func TestDedupePreservesOrder(t *testing.T) {
	got := dedupe([]string{"b", "a", "b", "c", "a"})
	assert.Equal(t, []string{"b", "a", "c"}, got)
}
