package build

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStripHTML(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Empty", input: "", expected: ""},
		{name: "Tags", input: "<p>Hello <strong>world</strong></p>", expected: "Hello world"},
		{name: "Whitespace", input: "  <p>a\n\n\tb</p>  <br/> c ", expected: "a b c"},
		{name: "TypographicEntities", input: "It&#8217;s &#8220;fine&#8221; &#8211; really&#8212;yes", expected: "It's \"fine\" - really—yes"},
		{name: "BasicEntities", input: "a&nbsp;&amp;&nbsp;b &lt;tag&gt; &quot;q&quot; &#039;s", expected: "a & b <tag> \"q\" 's"},
		{name: "SequentialDecoding", input: "&amp;lt;", expected: "<"},
		{name: "UnknownEntityKept", input: "caf&eacute;", expected: "caf&eacute;"},
		{name: "DecodedTagsAreText", input: "&lt;b&gt;bold&lt;/b&gt;", expected: "<b>bold</b>"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert := require.New(t)
			assert.Equal(testCase.expected, StripHTML(testCase.input))
		})
	}
}

func TestConvertContent(t *testing.T) {
	assert := require.New(t)

	input := "  <p>Intro</p><p>&nbsp;</p>[gallery ids=\"1,2\"]<p>  </p><p>Body</p>\n"
	assert.Equal("<p>Intro</p><p>Body</p>", ConvertContent(input))
}

func TestSlugify(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{input: "Ace Your Job Interview!", expected: "ace-your-job-interview"},
		{input: "--Already--dashed--", expected: "already-dashed"},
		{input: "Café & Résumé", expected: "caf-r-sum"},
		{input: "!!!", expected: ""},
		{input: strings.Repeat("ab", 80), expected: strings.Repeat("ab", 50)},
	}

	for _, testCase := range testCases {
		t.Run(testCase.input, func(t *testing.T) {
			assert := require.New(t)
			assert.Equal(testCase.expected, Slugify(testCase.input))
		})
	}
}

func TestFormatDate(t *testing.T) {
	assert := require.New(t)

	assert.Equal("January 15, 2024", FormatDate("2024-01-15T09:30:00"))
	assert.Equal("March 1, 2023", FormatDate("2023-03-01T23:59:59Z"))
	assert.Equal("not a date", FormatDate("not a date"))
	assert.Equal("2024-01-15T09:30:00.000Z", formatISODate("2024-01-15T09:30:00"))
}

func TestTruncateCountsRunes(t *testing.T) {
	assert := require.New(t)

	assert.Equal("héll", truncate("héllo", 4))
	assert.Equal("short", truncate("short", 500))
}
