package scroll

import (
	"context"

	"github.com/zeebo/xxh3"
)

// Source is a paginated provider of items. FetchPage returns up to size items
// starting at offset, in logical list order (skip/limit semantics). It must be
// safe to call repeatedly with the same arguments. A result shorter than size
// signals that the source is exhausted in the forward direction.
type Source[T any] interface {
	FetchPage(ctx context.Context, size, offset int) ([]T, error)
}

// SourceFunc adapts a plain function to a Source.
type SourceFunc[T any] func(ctx context.Context, size, offset int) ([]T, error)

func (f SourceFunc[T]) FetchPage(ctx context.Context, size, offset int) ([]T, error) {
	return f(ctx, size, offset)
}

// Identity derives a stable source-identity token from the pieces of a source
// configuration. Equal configurations map to equal tokens, so reinstalling an
// unchanged source keeps the window while any configuration change resets it.
func Identity(parts ...string) uint64 {
	h := xxh3.New()
	for _, p := range parts {
		_, _ = h.WriteString(p)
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}
