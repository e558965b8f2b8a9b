package cli

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
	"github.com/klauspost/readahead"
)

// resolve returns a [kong.ConfigurationLoader] that reads YAML config files.
//
// It can be used with [kong.Configuration] like this:
//
//	kong.Configuration(resolve(ctx, "config"), "/path/to/config.yaml")
//
// The document is converted as follows:
//   - If the document holds a mapping under name, that mapping is used;
//     otherwise the whole document is used
//   - Nested mappings are flattened by joining keys with '-', so
//     "log: {level: debug}" sets --log-level
//   - Flag names may use underscores in place of hyphens
//     (e.g., "log_level")
//   - Numbers are passed to Kong as strings
//
// Example config file:
//
//	log-level: debug
//	log:
//	  format: text
//	  pretty: false
//
// Command-line flags override config file values. A document that fails to
// decode yields an empty configuration.
func resolve(
	ctx context.Context,
	name string,
) func(r io.Reader) (kong.Resolver, error) {
	return func(r io.Reader) (kong.Resolver, error) {
		ra := readahead.NewReader(r)
		defer ra.Close()

		var doc map[string]any

		err := yaml.NewDecoder(ra).DecodeContext(ctx, &doc)
		if err != nil {
			return config{}, nil
		}

		if sub, ok := doc[name].(map[string]any); ok {
			doc = sub
		}

		cfg := make(config, len(doc))
		cfg.flatten("", doc)

		return cfg, nil
	}
}

// config implements [kong.Resolver] for YAML config files.
type config map[string]any

// flatten copies m into r, joining nested keys with '-'.
func (r config) flatten(prefix string, m map[string]any) {
	for key, value := range m {
		if prefix != "" {
			key = prefix + "-" + key
		}

		switch v := value.(type) {
		case map[string]any:
			r.flatten(key, v)

		case int:
			r[key] = strconv.Itoa(v)

		case int64:
			r[key] = strconv.FormatInt(v, 10)

		case uint64:
			r[key] = strconv.FormatUint(v, 10)

		case float64:
			r[key] = strconv.FormatFloat(v, 'f', -1, 64)

		default:
			r[key] = v
		}
	}
}

// Validate implements [kong.Resolver].
func (r config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (r config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	if value, ok := r[flag.Name]; ok {
		return value, nil
	}

	if value, ok := r[strings.ReplaceAll(flag.Name, "-", "_")]; ok {
		return value, nil
	}

	return nil, nil
}
