package tool

import (
	"math"
	"strings"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	t.Parallel()

	if got := cosineSimilarity([]float64{1, 0}, []float64{1, 0}); math.Abs(got-1) > 1e-9 {
		t.Fatalf("identical vectors: got %f", got)
	}
	if got := cosineSimilarity([]float64{1, 0}, []float64{0, 1}); math.Abs(got) > 1e-9 {
		t.Fatalf("orthogonal vectors: got %f", got)
	}
	if got := cosineSimilarity([]float64{0, 0}, []float64{1, 1}); got != 0 {
		t.Fatalf("zero vector must score 0, got %f", got)
	}
}

func TestTermOverlap(t *testing.T) {
	t.Parallel()

	doc := "Premium savings account with high interest rates"

	if got := termOverlap("savings account", doc); got != 1 {
		t.Fatalf("full overlap: got %f", got)
	}
	if got := termOverlap("savings loans", doc); got != 0.5 {
		t.Fatalf("half overlap: got %f", got)
	}
	if got := termOverlap("mortgage", doc); got != 0 {
		t.Fatalf("no overlap: got %f", got)
	}
	if got := termOverlap("", doc); got != 0 {
		t.Fatalf("empty query: got %f", got)
	}
	if got := termOverlap("PREMIUM", doc); got != 1 {
		t.Fatalf("matching is case-insensitive: got %f", got)
	}
}

func TestSnippet(t *testing.T) {
	t.Parallel()

	short := "a short document"
	if got := snippet(short); got != short {
		t.Fatalf("short content must pass through: %q", got)
	}

	long := strings.Repeat("x", 500)
	got := snippet(long)
	if len(got) != 283 || !strings.HasSuffix(got, "...") {
		t.Fatalf("long content must be truncated with ellipsis, len=%d", len(got))
	}
}
