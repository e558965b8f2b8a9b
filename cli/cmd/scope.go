package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/goccy/go-yaml"
	"github.com/klauspost/readahead"

	"github.com/ardnew/digest/lang"
	"github.com/ardnew/digest/log"
	"github.com/ardnew/digest/scope"
)

// Output formats accepted by the --output flags.
const (
	formatNative = "native"
	formatJSON   = "json"
	formatYAML   = "yaml"
)

// newRoot builds a root scope driven by its own [scope.Loop]. The root is
// seeded with the host namespace followed by every scope document in ctx.
func newRoot(
	ctx context.Context,
	opts ...scope.Option,
) (*scope.Scope, *scope.Loop, error) {
	loop := scope.NewLoop()
	logger := log.Default()

	root := scope.NewRoot(append([]scope.Option{
		scope.WithLogger(logger),
		scope.WithScheduler(loop),
		scope.WithParser(lang.NewParser(lang.WithLogger(logger))),
	}, opts...)...)

	root.Set(lang.HostNamespace, lang.Host())

	files := scopeFilesFrom(ctx)
	if files == nil {
		return root, loop, nil
	}

	err := files.Each(func(name string, r io.Reader) error {
		doc, err := decodeDocument(ctx, r)
		if err != nil {
			return ErrReadScope.With(slog.String("file", name)).Wrap(err)
		}

		root.SetAll(doc)

		log.DebugContext(ctx, "scope document loaded",
			slog.String("file", name),
			slog.Int("keys", len(doc)),
		)

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return root, loop, nil
}

// decodeDocument reads a YAML or JSON mapping from r. An empty document
// decodes to an empty map.
func decodeDocument(ctx context.Context, r io.Reader) (map[string]any, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	var doc map[string]any

	err := yaml.NewDecoder(ra).DecodeContext(ctx, &doc)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	if doc == nil {
		return map[string]any{}, nil
	}

	m, _ := lang.Normalize(doc).(map[string]any)

	return m, nil
}

// writeValue prints v to w in the given format.
func writeValue(ctx context.Context, w io.Writer, v any, format string) error {
	switch format {
	case "", formatNative:
		_, err := fmt.Fprintln(w, lang.FormatValue(v))

		return err

	case formatJSON:
		data, err := json.MarshalIndent(lang.Plain(v), "", "  ")
		if err != nil {
			return ErrJSONMarshal.Wrap(err)
		}

		_, err = fmt.Fprintln(w, string(data))

		return err

	case formatYAML:
		data, err := yaml.MarshalContext(ctx, lang.Plain(v))
		if err != nil {
			return ErrYAMLMarshal.Wrap(err)
		}

		if !bytes.HasSuffix(data, []byte("\n")) {
			data = append(data, '\n')
		}

		_, err = w.Write(data)

		return err
	}

	return ErrInvalidFormat.With(slog.String("format", format))
}
