package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/kaiwa-dev/kaiwa/pkg/query"
)

func TestFindPagedProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("row count is min(size, remaining)", prop.ForAll(
		func(total, size, page int) bool {
			p := pagedOver(t, total, size, page)
			remaining := total - size*(page-1)
			if remaining < 0 {
				remaining = 0
			}
			want := remaining
			if size < want {
				want = size
			}
			return len(p.Rows) == want
		},
		gen.IntRange(0, 120),
		gen.IntRange(1, 25),
		gen.IntRange(1, 12),
	))

	properties.Property("page count is ceil(total/size)", prop.ForAll(
		func(total, size, page int) bool {
			p := pagedOver(t, total, size, page)
			if total == 0 {
				return p.PageCount == 0
			}
			return p.PageCount == (total+size-1)/size
		},
		gen.IntRange(0, 120),
		gen.IntRange(1, 25),
		gen.IntRange(1, 12),
	))

	properties.Property("pages partition the collection without overlap", prop.ForAll(
		func(total, size int) bool {
			seen := make(map[any]bool)
			for page := 1; ; page++ {
				p := pagedOver(t, total, size, page)
				if len(p.Rows) == 0 {
					break
				}
				for _, row := range p.Rows {
					if seen[row["id"]] {
						return false
					}
					seen[row["id"]] = true
				}
			}
			return len(seen) == total
		},
		gen.IntRange(0, 60),
		gen.IntRange(1, 25),
	))

	properties.TestingRun(t)
}

func pagedOver(t *testing.T, total, size, page int) Page {
	t.Helper()
	store := newFakeStore()
	for i := 0; i < total; i++ {
		store.seed("dev_chat", Document{"id": fmt.Sprintf("c%d", i)})
	}
	repo := newTestRepository(t, store, nil)

	p, err := repo.FindPaged(context.Background(), NewCollection("chat"), query.Query{Size: size, Page: page})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p
}
