package build

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	tagRegex           = regexp.MustCompile(`<[^>]*>`)
	shortcodeRegex     = regexp.MustCompile(`\[.*?\]`)
	emptyParagraph     = regexp.MustCompile(`<p>\s*</p>`)
	slugSeparatorRegex = regexp.MustCompile(`[^a-z0-9]+`)
)

// entities are decoded one after another in this order, so "&amp;lt;" ends up as "<".
var entities = []struct {
	entity string
	text   string
}{
	{"&nbsp;", " "},
	{"&amp;", "&"},
	{"&lt;", "<"},
	{"&gt;", ">"},
	{"&quot;", `"`},
	{"&#039;", "'"},
	{"&#8217;", "'"},
	{"&#8220;", `"`},
	{"&#8221;", `"`},
	{"&#8211;", "-"},
	{"&#8212;", "—"},
}

const maxSlugLength = 100

// StripHTML turns rendered WordPress markup into plain text. It is a
// projection, not a parser: tags are dropped, a fixed set of entities is
// decoded and whitespace is collapsed.
func StripHTML(markup string) string {
	text := tagRegex.ReplaceAllString(markup, "")
	for _, e := range entities {
		text = strings.ReplaceAll(text, e.entity, e.text)
	}
	return strings.Join(strings.Fields(text), " ")
}

// ConvertContent cleans a post body for the rendered page: shortcodes and
// empty paragraphs are removed, everything else is kept as is.
func ConvertContent(markup string) string {
	content := shortcodeRegex.ReplaceAllString(markup, "")
	content = strings.ReplaceAll(content, "<p>&nbsp;</p>", "")
	content = emptyParagraph.ReplaceAllString(content, "")
	return strings.TrimSpace(content)
}

func Slugify(s string) string {
	slug := slugSeparatorRegex.ReplaceAllString(strings.ToLower(s), "-")
	slug = strings.TrimPrefix(slug, "-")
	slug = strings.TrimSuffix(slug, "-")
	return truncate(slug, maxSlugLength)
}

// truncate keeps at most n runes of s.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

var wordPressDateLayouts = []string{
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseDate reads WordPress timestamps. Dates without a zone are taken as UTC.
func parseDate(value string) (time.Time, bool) {
	for _, layout := range wordPressDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders a WordPress date as "January 2, 2006". Unparseable
// input is returned unchanged.
func FormatDate(value string) string {
	t, ok := parseDate(value)
	if !ok {
		return value
	}
	return t.Format("January 2, 2006")
}

func formatISODate(value string) string {
	t, ok := parseDate(value)
	if !ok {
		return value
	}
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
