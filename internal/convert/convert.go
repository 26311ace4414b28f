// Package convert translates note bodies between the HTML stored by the
// Notes application and plain text shown to and typed by the user.
package convert

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	xhtml "golang.org/x/net/html"
)

// policy is the sanitizer applied to every body pulled from the mailbox.
var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("div", "span", "p", "br", "b", "i", "u", "s", "strike", "tt")
	p.AllowElements("h1", "h2", "h3", "ul", "ol", "li", "blockquote", "pre")
	p.AllowAttrs("style").OnElements("span", "div", "p")
	p.AllowURLSchemes("http", "https", "mailto")
	return p
}

// blockElements end a line when they close.
var blockElements = map[string]bool{
	"div": true, "p": true, "li": true, "tr": true, "blockquote": true,
	"pre": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// skipElements have content that is never displayed.
var skipElements = map[string]bool{
	"head": true, "script": true, "style": true, "title": true,
}

// Sanitize strips active content from a remote note body.
func Sanitize(body string) string {
	return policy.Sanitize(body)
}

// HTMLToPlain renders an HTML note body as plain text. Block elements and
// <br> produce line breaks; entities are decoded. Input that is not HTML
// passes through unchanged apart from entity decoding.
func HTMLToPlain(body string) string {
	if body == "" {
		return ""
	}

	var b strings.Builder
	skip := 0
	z := xhtml.NewTokenizer(strings.NewReader(body))
	for {
		switch z.Next() {
		case xhtml.ErrorToken:
			return tidy(b.String())
		case xhtml.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case xhtml.StartTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if skipElements[tag] {
				skip++
			}
			if tag == "br" {
				b.WriteByte('\n')
			}
		case xhtml.SelfClosingTagToken:
			name, _ := z.TagName()
			if string(name) == "br" {
				b.WriteByte('\n')
			}
		case xhtml.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if skipElements[tag] && skip > 0 {
				skip--
			}
			if blockElements[tag] && !strings.HasSuffix(b.String(), "\n") {
				b.WriteByte('\n')
			}
		}
	}
}

// tidy collapses runs of blank lines and trims trailing whitespace.
func tidy(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return strings.TrimRight(s, " \n\t")
}

// PlainToHTML wraps each line of plain text in a <div>, the way the Notes
// application stores them. Empty lines become <div><br></div>.
func PlainToHTML(plain string) string {
	plain = strings.ReplaceAll(plain, "\r\n", "\n")
	plain = strings.TrimRight(plain, "\n")
	if plain == "" {
		return ""
	}

	var b strings.Builder
	b.WriteString("<html><head></head><body>")
	for _, line := range strings.Split(plain, "\n") {
		if strings.TrimSpace(line) == "" {
			b.WriteString("<div><br></div>")
			continue
		}
		b.WriteString("<div>")
		b.WriteString(html.EscapeString(line))
		b.WriteString("</div>")
	}
	b.WriteString("</body></html>")
	return b.String()
}
