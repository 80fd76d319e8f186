package imageresolver

import (
	"testing"

	"pos-catalog-browser/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func PtrTo[T any](v T) *T {
	return &v
}

func TestCandidates_CodeOnly(t *testing.T) {
	r := NewResolver("http://img.local/products/")

	got := r.Candidates(domain.Product{ID: 1, Code: "  AX1 "})

	assert.Equal(t, []string{
		"http://img.local/products/AX1.jpg",
		"http://img.local/products/AX1.jpeg",
		"http://img.local/products/AX1.png",
		"http://img.local/products/AX1.gif",
	}, got)
}

func TestCandidates_ExplicitImageFirst(t *testing.T) {
	r := NewResolver("/img")

	got := r.Candidates(domain.Product{Code: "B2", Image: PtrTo("https://cdn.local/b2.webp")})

	require.Len(t, got, 5)
	assert.Equal(t, "https://cdn.local/b2.webp", got[0])
	assert.Equal(t, "/img/B2.jpg", got[1])
}

func TestCandidates_ExplicitImageWithoutCode(t *testing.T) {
	r := NewResolver("/img")

	got := r.Candidates(domain.Product{Code: "   ", Image: PtrTo("/img/x.png")})

	assert.Equal(t, []string{"/img/x.png"}, got)
}

func TestCandidates_Deduplicates(t *testing.T) {
	r := NewResolver("/img")

	got := r.Candidates(domain.Product{Code: "C3", Image: PtrTo("/img/C3.png")})

	assert.Equal(t, []string{"/img/C3.png", "/img/C3.jpg", "/img/C3.jpeg", "/img/C3.gif"}, got)
}

func TestCandidates_EmptyImageTreatedAsAbsent(t *testing.T) {
	r := NewResolver("/img")

	assert.Empty(t, r.Candidates(domain.Product{Image: PtrTo("")}))
	assert.Empty(t, r.Candidates(domain.Product{}))
}

func TestCandidates_Deterministic(t *testing.T) {
	r := NewResolver("/img")
	p := domain.Product{Code: "D4", Image: PtrTo("/x.jpg")}

	assert.Equal(t, r.Candidates(p), r.Candidates(p))
}

func TestPlaceholder(t *testing.T) {
	assert.Equal(t, "AX1", Placeholder(" AX1 "))
	assert.Equal(t, GenericGlyph, Placeholder(""))
	assert.Equal(t, GenericGlyph, Placeholder("  "))
}
