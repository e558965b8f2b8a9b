package pkg

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMetadata(t *testing.T) {
	if Name != "digest" {
		t.Errorf("Name = %q, want digest", Name)
	}

	if Description == "" {
		t.Error("Description is empty")
	}

	if len(Author) == 0 || Author[0].Name == "" {
		t.Errorf("Author = %v, want at least one named author", Author)
	}
}

func TestVersion(t *testing.T) {
	buf, err := os.ReadFile("VERSION")
	if err != nil {
		t.Fatalf("read VERSION: %v", err)
	}

	want := strings.TrimSpace(string(buf))
	if want == "" {
		t.Fatal("VERSION file is empty")
	}

	if strings.TrimSpace(Version) != want {
		t.Errorf("Version = %q, want %q", Version, want)
	}
}

func TestPrefixOf(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/usr/local/bin/digest", "digest"},
		{`digest.exe`, "digest"},
		{"/tmp/pkg.test", "pkg"},
		{"/home/me/.digest", "digest"},
		{"/tmp/__debug_bin3381", Name},
		{"/tmp/...", Name},
	}

	for _, tt := range tests {
		if got := prefixOf(tt.path); got != tt.want {
			t.Errorf("prefixOf(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestUserDir(t *testing.T) {
	const env = "DIGEST_TEST_DIR"

	fail := func() (string, error) { return "", errors.New("no platform dir") }
	platform := func() (string, error) { return "/platform", nil }

	t.Setenv(env, "")

	if got, want := userDir(env, platform, ".cfg"), filepath.Join("/platform", Prefix()); got != want {
		t.Errorf("platform dir = %q, want %q", got, want)
	}

	home := t.TempDir()
	t.Setenv("HOME", home)

	if got, want := userDir(env, fail, ".cfg"), filepath.Join(home, ".cfg", Prefix()); got != want {
		t.Errorf("home fallback = %q, want %q", got, want)
	}

	t.Setenv(env, "/override")

	if got := userDir(env, platform, ".cfg"); got != "/override" {
		t.Errorf("override = %q, want /override", got)
	}
}

func TestDirs(t *testing.T) {
	prefix := Prefix()
	if prefix == "" || strings.HasPrefix(prefix, ".") {
		t.Fatalf("Prefix() = %q", prefix)
	}

	for name, dir := range map[string]string{
		"ConfigDir": ConfigDir(),
		"CacheDir":  CacheDir(),
	} {
		if os.Getenv("DIGEST_CONFIG_DIR")+os.Getenv("DIGEST_CACHE_DIR") != "" {
			t.Skip("directory overrides are set")
		}

		if filepath.Base(dir) != prefix {
			t.Errorf("%s() = %q, want base name %q", name, dir, prefix)
		}
	}
}
