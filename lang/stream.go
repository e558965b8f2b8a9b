package lang

import (
	"bufio"
	"context"
	"io"
	"iter"
	"log/slog"
	"strings"
	"sync"

	"github.com/klauspost/readahead"
)

// Stream provides lazy access to the expressions of a script.
//
// A script holds one expression per line. Blank lines and lines starting
// with '#' are skipped. The reader is not consumed until the first
// expression is requested.
type Stream struct {
	parser *Parser
	reader io.Reader
	once   sync.Once
	lines  []line
	err    error
}

type line struct {
	number int
	source string
}

// NewStream creates a Stream that reads its script from r and compiles
// with p. A nil p uses the default parser.
func NewStream(r io.Reader, p *Parser) *Stream {
	if p == nil {
		p = defaultParser
	}

	return &Stream{parser: p, reader: r}
}

// NewStreamFromString creates a Stream over a script held in memory.
func NewStreamFromString(source string, p *Parser) *Stream {
	return NewStream(strings.NewReader(source), p)
}

// ensureRead reads and splits the script once.
func (s *Stream) ensureRead() error {
	s.once.Do(func() {
		ra := readahead.NewReader(s.reader)
		defer ra.Close()

		scanner := bufio.NewScanner(ra)
		number := 0

		for scanner.Scan() {
			number++

			text := strings.TrimSpace(scanner.Text())
			if text == "" || strings.HasPrefix(text, "#") {
				continue
			}

			s.lines = append(s.lines, line{number: number, source: text})
		}

		if err := scanner.Err(); err != nil {
			s.err = ErrReadInput.Wrap(err).With(slog.String("source", "reader"))
		}
	})

	return s.err
}

// Len returns the number of expressions in the script.
func (s *Stream) Len() (int, error) {
	if err := s.ensureRead(); err != nil {
		return 0, err
	}

	return len(s.lines), nil
}

// Expressions returns an iterator over the compiled expressions of the
// script. Iteration stops after the first error, which is yielded with a
// nil expression.
func (s *Stream) Expressions(ctx context.Context) iter.Seq2[*Expression, error] {
	return func(yield func(*Expression, error) bool) {
		if err := s.ensureRead(); err != nil {
			yield(nil, err)

			return
		}

		for _, ln := range s.lines {
			expr, err := s.parser.Parse(ctx, ln.source)
			if err != nil {
				yield(nil, WrapError(err).With(slog.Int("line", ln.number)))

				return
			}

			if !yield(expr, nil) {
				return
			}
		}
	}
}

// ExpressionsFrom returns an iterator over the expressions of the script
// read from r using the default parser.
func ExpressionsFrom(ctx context.Context, r io.Reader) iter.Seq2[*Expression, error] {
	return NewStream(r, nil).Expressions(ctx)
}
