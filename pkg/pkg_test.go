package pkg

import (
	_ "embed"
	"strings"
	"testing"

	"golang.org/x/mod/semver"
)

func TestVersion(t *testing.T) {
	if Version != strings.TrimSpace(version) {
		t.Errorf("Version = %q, want trimmed %q", Version, version)
	}

	if !semver.IsValid("v" + Version) {
		t.Errorf("Version %q is not a semantic version", Version)
	}
}

func TestAuthor(t *testing.T) {
	if len(Author) == 0 {
		t.Fatal("Author is empty")
	}

	for _, a := range Author {
		if a.Name == "" || !strings.Contains(a.Email, "@") {
			t.Errorf("incomplete author %+v", a)
		}
	}
}
