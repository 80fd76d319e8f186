// Package imageresolver derives the ordered image candidates of a product and
// walks them with a cursor until one loads or the list is exhausted.
package imageresolver

import (
	"strings"

	"pos-catalog-browser/internal/domain"
)

// Extensions are tried in this order after the explicit image reference.
var Extensions = []string{"jpg", "jpeg", "png", "gif"}

// GenericGlyph is the placeholder shown when the product has no code.
const GenericGlyph = "📦"

// Resolver builds candidate lists against a fixed image base location.
type Resolver struct {
	base string
}

// NewResolver creates a Resolver for the given image base, e.g. "http://localhost:8080/images/products".
func NewResolver(base string) *Resolver {
	return &Resolver{base: strings.TrimRight(base, "/")}
}

// Base returns the image base location without a trailing slash.
func (r *Resolver) Base() string {
	return r.base
}

// Candidates returns the ordered, duplicate-free image locations for p:
// the explicit reference first, then one location per extension built from the trimmed code.
// The result is empty when p has neither an explicit reference nor a code.
func (r *Resolver) Candidates(p domain.Product) []string {
	out := make([]string, 0, len(Extensions)+1)
	seen := make(map[string]struct{}, len(Extensions)+1)
	add := func(loc string) {
		if _, dup := seen[loc]; dup {
			return
		}
		seen[loc] = struct{}{}
		out = append(out, loc)
	}

	if ref := p.ImageRef(); ref != "" {
		add(ref)
	}
	if code := strings.TrimSpace(p.Code); code != "" {
		for _, ext := range Extensions {
			add(r.base + "/" + code + "." + ext)
		}
	}
	return out
}

// Placeholder is the text rendered instead of an image once no candidate is left.
func Placeholder(code string) string {
	if c := strings.TrimSpace(code); c != "" {
		return c
	}
	return GenericGlyph
}
