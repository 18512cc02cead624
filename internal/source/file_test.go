package source

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestFromFile_SkipsBlanksAndComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repos.txt")
	content := `# cookbooks to process
https://gitlab.example.com/team/one.git

  https://gitlab.example.com/team/two.git
# trailing comment
git@gitlab.example.com:team/three.git
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	refs, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile: %v", err)
	}

	want := []Ref{
		{URL: "https://gitlab.example.com/team/one.git"},
		{URL: "https://gitlab.example.com/team/two.git"},
		{URL: "git@gitlab.example.com:team/three.git"},
	}
	if !reflect.DeepEqual(refs, want) {
		t.Fatalf("refs = %v, want %v", refs, want)
	}
}

func TestFromFile_MissingFileIsFatal(t *testing.T) {
	if _, err := FromFile(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatal("expected error, got nil")
	}
}
