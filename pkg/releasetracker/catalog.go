package releasetracker

import (
	"io"
	"strings"

	"github.com/variantdev/buildmaster/pkg/release"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// catalogEntries returns the text of every <a> element in page that names a release entry,
// in document order. Whitespace inside the link text is collapsed before matching.
func catalogEntries(page string) ([]string, error) {
	z := html.NewTokenizer(strings.NewReader(page))

	var (
		entries []string
		depth   int
		text    strings.Builder
	)

	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return nil, err
			}
			return entries, nil
		case html.StartTagToken:
			name, _ := z.TagName()
			if atom.Lookup(name) == atom.A {
				if depth == 0 {
					text.Reset()
				}
				depth++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if atom.Lookup(name) == atom.A && depth > 0 {
				depth--
				if depth == 0 {
					if t := text.String(); MatchEntry(t) {
						entries = append(entries, collapse(t))
					}
				}
			}
		case html.TextToken:
			if depth > 0 {
				text.Write(z.Text())
			}
		}
	}
}

// MatchEntry reports whether the text of a catalog link names a release entry.
func MatchEntry(text string) bool {
	return release.IsEntry(collapse(text))
}

func collapse(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
