package lang

import (
	"fmt"
	"strings"
	"testing"
)

// BenchmarkParse_Caching measures the impact of caching on repeated parses.
func BenchmarkParse_Caching(b *testing.B) {
	source := "items | filter:query | orderBy:'-price' | limitTo:10"

	tests := []struct {
		name  string
		cache bool
	}{
		{"cached", true},
		{"uncached", false},
	}

	for _, tt := range tests {
		b.Run(tt.name, func(b *testing.B) {
			p := NewParser(WithCache(tt.cache))

			for b.Loop() {
				_, err := p.Parse(b.Context(), source)
				if err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkParse_Sizes measures uncached compilation across input sizes.
func BenchmarkParse_Sizes(b *testing.B) {
	sizes := []struct {
		name  string
		count int
	}{
		{"small", 10},
		{"medium", 100},
		{"large", 1000},
	}

	for _, size := range sizes {
		var sb strings.Builder
		for i := range size.count {
			fmt.Fprintf(&sb, "v%d = a.b%d + %d;", i, i, i)
		}

		source := sb.String()

		b.Run(size.name, func(b *testing.B) {
			p := NewParser(WithCache(false))

			for b.Loop() {
				_, err := p.Parse(b.Context(), source)
				if err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkWhere_Caching measures repeated where filters, which share a
// compiled predicate for each distinct source.
func BenchmarkWhere_Caching(b *testing.B) {
	items := make([]any, 100)
	for i := range items {
		items[i] = map[string]any{"name": fmt.Sprint("item", i), "price": float64(i)}
	}

	e, err := NewParser().Parse(b.Context(), "items | where:'price > limit':{limit: 50}")
	if err != nil {
		b.Fatal(err)
	}

	ctx := mapContext{"items": items}

	for b.Loop() {
		_, err := e.Eval(ctx, nil)
		if err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkEval measures evaluation of a compiled expression.
func BenchmarkEval(b *testing.B) {
	e, err := NewParser().Parse(b.Context(), "a.b.c = (n > 1 ? n * 2 : n) + 1")
	if err != nil {
		b.Fatal(err)
	}

	ctx := mapContext{"n": 3.0}

	for b.Loop() {
		_, err := e.Eval(ctx, nil)
		if err != nil {
			b.Fatal(err)
		}
	}
}
