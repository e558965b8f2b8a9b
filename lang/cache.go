package lang

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"github.com/zeebo/xxh3"
)

// entry is a cached compilation result. The source confirms that a hash
// match is not a collision.
type entry struct {
	once   sync.Once
	source string
	expr   *Expression
	err    error
}

func (p *Parser) cached(ctx context.Context, source string) (*Expression, error) {
	hash := xxh3.HashString(source)

	value, hit := p.entries.LoadOrStore(hash, &entry{source: source})

	e, ok := value.(*entry)
	if !ok || e.source != source {
		p.logger.TraceContext(ctx, "cache collision",
			slog.String("source_hash", strconv.FormatUint(hash, 16)))

		return compile(source, p.filters)
	}

	p.logger.TraceContext(ctx, "cache lookup",
		slog.String("source_hash", strconv.FormatUint(hash, 16)),
		slog.Bool("cache_hit", hit))

	e.once.Do(func() {
		e.expr, e.err = compile(source, p.filters)
		if e.err != nil {
			e.err = WrapError(e.err).With(slog.Int("source_length", len(source)))
		}
	})

	return e.expr, e.err
}

// ClearCache removes every cached compilation.
func (p *Parser) ClearCache() {
	p.entries.Clear()
}
