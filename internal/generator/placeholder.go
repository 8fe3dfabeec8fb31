package generator

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"unicode"
)

var palette = []string{"#0ea5e9", "#6366f1", "#14b8a6", "#f97316", "#a855f7", "#64748b"}

// PlaceholderSVG renders a labelled wireframe image for a page
func PlaceholderSVG(label string, rng *RNG) []byte {
	var b bytes.Buffer
	fill := palette[rng.Intn(len(palette))]
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" width="1280" height="800" viewBox="0 0 1280 800">`)
	b.WriteString(`<rect width="1280" height="800" fill="#f8fafc"/>`)
	fmt.Fprintf(&b, `<rect x="0" y="0" width="1280" height="96" fill="%s"/>`, fill)
	blocks := 3 + rng.Intn(4)
	for i := 0; i < blocks; i++ {
		fmt.Fprintf(&b, `<rect x="%d" y="%d" width="%d" height="%d" rx="8" fill="#e2e8f0"/>`,
			80+rng.Intn(200), 160+i*140, 400+rng.Intn(600), 96)
	}
	fmt.Fprintf(&b, `<text x="640" y="60" font-family="sans-serif" font-size="36" fill="#fff" text-anchor="middle">%s</text>`,
		html.EscapeString(label))
	b.WriteString(`</svg>`)
	return b.Bytes()
}

// OutlineText renders a plain-text slide outline for a deck
func OutlineText(title string, rng *RNG) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n", title, strings.Repeat("=", len(title)))
	slides := 2 + rng.Intn(5)
	for i := 1; i <= slides; i++ {
		fmt.Fprintf(&b, "Slide %d: %s\n", i, pageNames[rng.Intn(len(pageNames))])
	}
	return []byte(b.String())
}

// slug lowercases name and joins its words with dashes
func slug(name string) string {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(fields) == 0 {
		return "item"
	}
	return strings.Join(fields, "-")
}
