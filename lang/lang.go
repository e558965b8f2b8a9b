package lang

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/klauspost/readahead"

	"github.com/ardnew/digest/log"
)

// Parser compiles expression source into [Expression] values.
// A Parser is safe for concurrent use.
type Parser struct {
	filters FilterRegistry
	logger  log.Logger
	cache   bool
	entries *sync.Map
}

// Option configures a [Parser].
type Option func(*Parser)

// WithFilters sets the registry used to resolve filter names.
// The default is [Builtins].
func WithFilters(filters FilterRegistry) Option {
	return func(p *Parser) {
		p.filters = filters
	}
}

// WithLogger sets the structured logger for trace-level debugging.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(p *Parser) {
		p.logger = logger.Named("lang")
	}
}

// WithCache enables or disables the compiled expression cache.
// The cache is enabled by default.
func WithCache(enable bool) Option {
	return func(p *Parser) {
		p.cache = enable
	}
}

// NewParser returns a Parser configured by opts.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		filters: Builtins(),
		cache:   true,
		entries: new(sync.Map),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Filters returns the registry used to resolve filter names.
func (p *Parser) Filters() FilterRegistry { return p.filters }

// Parse compiles source. Identical sources share one compiled
// [Expression] while the cache is enabled.
func (p *Parser) Parse(ctx context.Context, source string) (*Expression, error) {
	if !p.cache {
		p.logger.TraceContext(ctx, "compile",
			slog.String("source", source),
			slog.Bool("cache", false))

		return compile(source, p.filters)
	}

	return p.cached(ctx, source)
}

// ParseReader reads all of r and compiles it.
func (p *Parser) ParseReader(ctx context.Context, r io.Reader) (*Expression, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).
			With(slog.String("source", "reader"))
	}

	p.logger.TraceContext(ctx, "read input",
		slog.Int("source_bytes", len(data)),
		slog.Bool("read_ahead", true))

	return p.Parse(ctx, string(data))
}

// Compile analyzes and compiles a syntax tree built without source text,
// such as one made with a [Builder]. The tree is annotated in place and
// must not be shared with another compilation.
func (p *Parser) Compile(ctx context.Context, prog *Program) (*Expression, error) {
	source := FormatString(prog)

	p.logger.TraceContext(ctx, "compile tree", slog.String("source", source))

	return compileProgram(source, prog, false, p.filters)
}

//nolint:gochecknoglobals
var defaultParser = NewParser()

// Parse compiles source with the builtin filters.
func Parse(source string) (*Expression, error) {
	return defaultParser.Parse(log.DefaultContextProvider(), source)
}

// MustParse is like [Parse] but panics if source does not compile.
func MustParse(source string) *Expression {
	e, err := Parse(source)
	if err != nil {
		panic(err)
	}

	return e
}
