package htmlproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinifyStripsCommentsAndWhitespace(t *testing.T) {
	raw := "<div>\n    <!-- navigation -->\n    <p>hello     world</p>\n</div>"

	out := Minify(raw)
	require.True(t, out.Transformed)

	assert.NotContains(t, out.HTML, "navigation")
	assert.NotContains(t, out.HTML, "<!--")
	assert.Contains(t, out.HTML, "<p>hello world</p>")
	assert.NotContains(t, out.HTML, "\n    ")
}

func TestMinifyDropsInterTagWhitespace(t *testing.T) {
	raw := "<ul>\n  <li>one</li>\n  <li>two</li>\n</ul>"

	out := Minify(raw)
	require.True(t, out.Transformed)
	assert.Equal(t, "<ul><li>one</li><li>two</li></ul>", out.HTML)
}

func TestMinifyStripsTopLevelCommentsAndWhitespace(t *testing.T) {
	// Comments and inter-tag whitespace at the top level of a fragment are
	// not children of any element; compaction must still reach them.
	raw := "<p>a</p> <!-- secret --> <p>b</p>"

	out := Minify(raw)
	require.True(t, out.Transformed)
	assert.Equal(t, "<p>a</p><p>b</p>", out.HTML)
}

func TestMinifyPreservesRawTextContent(t *testing.T) {
	raw := "<pre>line one\n    indented</pre>"

	out := Minify(raw)
	require.True(t, out.Transformed)
	assert.Contains(t, out.HTML, "line one\n    indented")
}

func TestMinifyFailsOpen(t *testing.T) {
	raw := "\xff\xfe<div>   broken   </div>"

	out := Minify(raw)

	assert.False(t, out.Transformed)
	assert.Equal(t, raw, out.HTML, "must return the original input, not empty output")
}

func TestMinifyFullDocument(t *testing.T) {
	raw := "<html>\n<head>\n<title>Generated Page</title>\n</head>\n<body>\n<p>hi</p>\n</body>\n</html>"

	out := Minify(raw)
	require.True(t, out.Transformed)
	assert.Contains(t, out.HTML, "<p>hi</p>")
	assert.NotContains(t, out.HTML, "\n")
}
