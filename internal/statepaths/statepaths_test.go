package statepaths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveChildDir(t *testing.T) {
	parent := filepath.Join(string(filepath.Separator), "srv", "bot")
	cases := []struct {
		raw  string
		want string
	}{
		{raw: "", want: filepath.Join(parent, "backups")},
		{raw: "snap", want: filepath.Join(parent, "snap")},
		{raw: "/var/backups/bot", want: "/var/backups/bot"},
	}
	for _, tc := range cases {
		if got := resolveChildDir(parent, tc.raw, defaultBackupDir); got != tc.want {
			t.Fatalf("resolveChildDir(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestResolveDirExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}
	if got := resolveDir("", defaultDataDir); got != filepath.Join(home, ".responder") {
		t.Fatalf("resolveDir() = %q, want %q", got, filepath.Join(home, ".responder"))
	}
	if got := resolveDir(" ./data/ ", defaultDataDir); got != "data" {
		t.Fatalf("resolveDir() = %q, want data", got)
	}
}
