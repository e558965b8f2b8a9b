package lang

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestStream_Expressions(t *testing.T) {
	script := `# seed a counter
count = 0

count = count + 1
   # indented comment
count | json
`

	s := NewStreamFromString(script, nil)

	n, err := s.Len()
	if err != nil {
		t.Fatalf("Len failed: %v", err)
	}

	if n != 3 {
		t.Fatalf("Len = %d, want 3", n)
	}

	ctx := mapContext{}

	var last any

	for e, err := range s.Expressions(t.Context()) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if last, err = e.Eval(ctx, nil); err != nil {
			t.Fatalf("eval %q failed: %v", e.Source, err)
		}
	}

	if last != "1" {
		t.Errorf("last value = %#v, want \"1\"", last)
	}
}

func TestStream_ErrorReportsLine(t *testing.T) {
	s := NewStreamFromString("a\n\nb +\nc\n", NewParser())

	var (
		seen    int
		lastErr error
	)

	for e, err := range s.Expressions(t.Context()) {
		if err != nil {
			lastErr = err

			continue
		}

		if e != nil {
			seen++
		}
	}

	if seen != 1 {
		t.Errorf("compiled %d expressions before the error, want 1", seen)
	}

	if !errors.Is(lastErr, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", lastErr)
	}

	var ee *Error
	if !errors.As(lastErr, &ee) {
		t.Fatalf("expected *Error, got %T", lastErr)
	}

	found := false

	for _, a := range ee.Attrs() {
		if a.Key == "line" && a.Value.Kind() == slog.KindInt64 && a.Value.Int64() == 3 {
			found = true
		}
	}

	if !found {
		t.Errorf("error attrs %v missing line 3", ee.Attrs())
	}
}

func TestStream_EarlyBreak(t *testing.T) {
	count := 0

	for range ExpressionsFrom(t.Context(), strings.NewReader("a\nb\nc\n")) {
		count++

		if count == 2 {
			break
		}
	}

	if count != 2 {
		t.Errorf("iterated %d times, want 2", count)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestStream_ReadError(t *testing.T) {
	s := NewStream(failingReader{}, nil)

	if _, err := s.Len(); !errors.Is(err, ErrReadInput) {
		t.Errorf("expected ErrReadInput, got %v", err)
	}
}
