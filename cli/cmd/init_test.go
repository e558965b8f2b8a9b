package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
)

// initContext returns a context carrying a kong.Context parsed from args
// against cli, with the config file variable set to confPath.
func initContext(t *testing.T, cli any, confPath string, args ...string) context.Context {
	t.Helper()

	parser, err := kong.New(cli, kong.Vars{ConfigIdentifier: confPath})
	if err != nil {
		t.Fatal(err)
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		t.Fatal(err)
	}

	return WithContext(t.Context(), kctx)
}

// TestInitRun tests the Init.Run command.
func TestInitRun(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		force   bool
		exists  bool
		wantErr error
	}{
		{name: "create_new_config"},
		{name: "overwrite_existing_with_force", force: true, exists: true},
		{name: "fail_without_force", exists: true, wantErr: ErrFileExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			confPath := filepath.Join(t.TempDir(), "config.yaml")

			if tt.exists {
				if err := os.WriteFile(confPath, []byte("existing: true\n"), 0o644); err != nil {
					t.Fatal(err)
				}
			}

			var cli struct {
				Name string `default:"digest"`
			}

			ctx := initContext(t, &cli, confPath)

			err := (&Init{Force: tt.force}).Run(ctx)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Init.Run() error = %v, want %v", err, tt.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatalf("Init.Run() unexpected error = %v", err)
			}

			content, err := os.ReadFile(confPath)
			if err != nil {
				t.Fatal(err)
			}

			var doc map[string]any
			if err := yaml.Unmarshal(content, &doc); err != nil {
				t.Fatalf("generated config is not valid YAML: %v\n%s", err, content)
			}

			if doc["name"] != "digest" {
				t.Errorf("name = %v, want %q", doc["name"], "digest")
			}

			if _, ok := doc["existing"]; ok {
				t.Error("existing content was not overwritten")
			}
		})
	}
}

func TestInitBuildConfig(t *testing.T) {
	t.Parallel()

	var cli struct {
		Verbose bool     `help:"Enable verbose output"`
		Output  string   `help:"Output file"`
		Count   int      `help:"Number of items"`
		Empty   string   `help:"Unset string"`
		Tags    []string `help:"Tags"`
		Secret  string   `default:"x"                  hidden:""`
	}

	ctx := initContext(t, &cli, "", "--verbose", "--output=test.txt", "--count=5")

	cfg := (&Init{}).buildConfig(ctx)

	want := map[string]any{
		"verbose": true,
		"output":  "test.txt",
		"count":   int64(5),
	}

	if len(cfg) != len(want) {
		t.Errorf("buildConfig() = %v, want %v", cfg, want)
	}

	for k, v := range want {
		if cfg[k] != v {
			t.Errorf("buildConfig()[%q] = %#v, want %#v", k, cfg[k], v)
		}
	}

	for _, k := range []string{"help", "empty", "tags", "secret"} {
		if _, ok := cfg[k]; ok {
			t.Errorf("buildConfig() should omit %q", k)
		}
	}
}

func TestInitBuildConfig_NoContext(t *testing.T) {
	t.Parallel()

	if cfg := (&Init{}).buildConfig(context.Background()); len(cfg) != 0 {
		t.Errorf("buildConfig() without kong context = %v, want empty", cfg)
	}
}

func TestInitFlagValue(t *testing.T) {
	t.Parallel()

	type level string

	var cli struct {
		Bool   bool     `name:"flag-bool"`
		Str    string   `name:"flag-string"`
		Empty  string   `name:"flag-empty"`
		Int    int      `name:"flag-int"`
		Uint   uint     `name:"flag-uint"`
		Float  float64  `name:"flag-float"`
		Slice  []string `name:"flag-strings"`
		NoList []string `name:"flag-empty-slice"`
		Level  level    `name:"flag-level"`
	}

	ctx := initContext(t, &cli, "",
		"--flag-bool",
		"--flag-string=test",
		"--flag-int=42",
		"--flag-uint=7",
		"--flag-float=3.5",
		"--flag-strings=a,b",
		"--flag-level=warn",
	)
	ktx := kongContextFrom(ctx)

	flags := map[string]*kong.Flag{}
	for _, f := range ktx.Model.Flags {
		flags[f.Name] = f
	}

	tests := []struct {
		flag string
		want any
	}{
		{"flag-bool", true},
		{"flag-string", "test"},
		{"flag-empty", nil},
		{"flag-int", int64(42)},
		{"flag-uint", uint64(7)},
		{"flag-float", 3.5},
		{"flag-empty-slice", nil},
		{"flag-level", "warn"},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			t.Parallel()

			f, ok := flags[tt.flag]
			if !ok {
				t.Fatalf("flag %q not in model", tt.flag)
			}

			if got := flagValue(ktx, f); got != tt.want {
				t.Errorf("flagValue(%s) = %#v, want %#v", tt.flag, got, tt.want)
			}
		})
	}

	got, ok := flagValue(ktx, flags["flag-strings"]).([]string)
	if !ok || len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("flagValue(flag-strings) = %#v, want [a b]", got)
	}
}

// TestInitWithInvalidPath tests init with an invalid file path.
func TestInitWithInvalidPath(t *testing.T) {
	t.Parallel()

	var cli struct{}

	ctx := initContext(t, &cli, "/nonexistent/directory/config.yaml")

	err := (&Init{}).Run(ctx)
	if !errors.Is(err, ErrWriteConfig) {
		t.Errorf("Init.Run() error = %v, want %v", err, ErrWriteConfig)
	}
}
