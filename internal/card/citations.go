package card

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	citationRe    = regexp.MustCompile(`\[(\d+)\]`)
	sourceEntryRe = regexp.MustCompile(`^\s*(\d+)\.`)
)

// sourcesHeading separates generated answer text from its source list.
const sourcesHeading = "Sources:"

// SplitBlanks splits a fill-in-the-blank question around each blank
// marker. A question with n blanks yields n+1 parts.
func SplitBlanks(question string) []string {
	return strings.Split(question, BlankMarker)
}

// BlankCount returns the number of blanks in question.
func BlankCount(question string) int {
	return strings.Count(question, BlankMarker)
}

// Annotated is answer text with its citations resolved.
type Annotated struct {
	// Body is the answer text without the trailing sources section.
	Body string

	// Footnotes lists the known sources referenced by the body or the
	// sources section, in first-reference order.
	Footnotes []Source
}

// Annotate splits off the "Sources:" section of text and resolves every
// [n] citation against sources. Unknown citation numbers stay in the body
// untouched and produce no footnote.
func Annotate(text string, sources []Source) Annotated {
	body, section, _ := strings.Cut(text, sourcesHeading)
	out := Annotated{Body: strings.TrimRight(body, " \n")}
	if len(sources) == 0 {
		if section != "" {
			out.Body = strings.TrimRight(text, " \n")
		}
		return out
	}

	byNumber := make(map[int]Source, len(sources))
	for _, s := range sources {
		byNumber[s.Number] = s
	}
	seen := make(map[int]bool)
	add := func(num string) {
		n, err := strconv.Atoi(num)
		if err != nil || seen[n] {
			return
		}
		if s, ok := byNumber[n]; ok {
			seen[n] = true
			out.Footnotes = append(out.Footnotes, s)
		}
	}

	for _, m := range citationRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	for _, line := range strings.Split(section, "\n") {
		if m := sourceEntryRe.FindStringSubmatch(line); m != nil {
			add(m[1])
		}
	}
	return out
}
