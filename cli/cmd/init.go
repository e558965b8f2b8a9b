package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"reflect"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/digest/log"
	"github.com/ardnew/digest/profile"
)

const configIndent = 2

// flagsNotSaved are the prefixes of flags init leaves out of the file.
var flagsNotSaved = []string{"help", "version", profile.Tag}

// Init writes the configuration file from the current flag values.
type Init struct {
	Force bool `help:"Overwrite existing configuration file" short:"f"`
}

func (i *Init) Run(ctx context.Context) error {
	path := kongVar(ctx, ConfigIdentifier)
	if path == "" {
		panic("internal error: config path undefined")
	}

	fail := ErrWriteConfig.With(slog.String("file", path))

	switch _, err := os.Stat(path); {
	case err == nil && !i.Force:
		return fail.With(slog.Bool("exists", true)).Wrap(ErrFileExists)
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return fail.Wrap(err)
	}

	cfg := i.buildConfig(ctx)

	data, err := yaml.MarshalContext(ctx, cfg, yaml.Indent(configIndent))
	if err != nil {
		return ErrYAMLMarshal.With(slog.String("file", path)).Wrap(err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fail.Wrap(err)
	}

	log.DebugContext(ctx, "wrote configuration",
		slog.String("file", path),
		slog.Int("keys", len(cfg)),
	)

	return nil
}

// buildConfig maps each visible flag with a value to that value.
func (i *Init) buildConfig(ctx context.Context) map[string]any {
	cfg := make(map[string]any)

	ktx := kongContextFrom(ctx)
	if ktx == nil {
		return cfg
	}

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden || unsaved(flag.Name) {
			continue
		}

		if v := flagValue(ktx, flag); v != nil {
			cfg[flag.Name] = v
		}
	}

	return cfg
}

func unsaved(name string) bool {
	for _, prefix := range flagsNotSaved {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}

	return false
}

// flagValue returns the value of flag as YAML should hold it, or nil when
// it is unset or empty. Named types reduce to their kind, so an enum flag
// such as --log-level is written as a string.
func flagValue(ktx *kong.Context, flag *kong.Flag) any {
	v := ktx.FlagValue(flag)
	if v == nil {
		return nil
	}

	rv := reflect.ValueOf(v)

	switch k := rv.Kind(); {
	case k == reflect.String, k == reflect.Slice, k == reflect.Map:
		if rv.Len() == 0 {
			return nil
		}

		if k == reflect.String {
			return rv.String()
		}

		return v

	case k == reflect.Bool:
		return rv.Bool()

	case rv.CanInt():
		return rv.Int()

	case rv.CanUint():
		return rv.Uint()

	case rv.CanFloat():
		return rv.Float()
	}

	return fmt.Sprint(v)
}
