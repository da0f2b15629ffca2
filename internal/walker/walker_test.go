package walker

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// makeTree writes files (relative path -> content) under a temp dir.
func makeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func relPaths(files []FileInfo) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.RelPath
	}
	return out
}

func TestWalk_FiltersByFormat(t *testing.T) {
	root := makeTree(t, map[string]string{
		"handbook.pdf":        "%PDF-1.4",
		"notes/policy.PDF":    "%PDF-1.4",
		"notes/readme.md":     "# hi",
		"images/logo.png":     "\x89PNG",
		".git/objects/x.pdf":  "%PDF",
		"node_modules/a.pdf":  "%PDF",
		"archive/old/tax.pdf": "%PDF",
	})

	files, err := Walk(Config{RootDir: root, Formats: []string{"pdf"}})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}

	got := strings.Join(relPaths(files), ",")
	want := "archive/old/tax.pdf,handbook.pdf,notes/policy.PDF"
	if got != want {
		t.Errorf("Walk() = %s, want %s", got, want)
	}
	for _, f := range files {
		if f.Format != "pdf" {
			t.Errorf("%s: format = %q, want pdf", f.RelPath, f.Format)
		}
		if len(f.ContentHash) != 64 {
			t.Errorf("%s: hash = %q", f.RelPath, f.ContentHash)
		}
		if !filepath.IsAbs(f.Path) {
			t.Errorf("%s: path %q is not absolute", f.RelPath, f.Path)
		}
	}
}

func TestWalk_IncludeExclude(t *testing.T) {
	root := makeTree(t, map[string]string{
		"hr/leave.md":      "a",
		"hr/drafts/new.md": "b",
		"eng/runbook.md":   "c",
		"eng/oncall.txt":   "d",
	})

	files, err := Walk(Config{
		RootDir: root,
		Formats: []string{"md", "txt"},
		Include: []string{"hr/**", "eng/*.txt"},
		Exclude: []string{"**/drafts/**"},
	})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}

	got := strings.Join(relPaths(files), ",")
	if got != "eng/oncall.txt,hr/leave.md" {
		t.Errorf("Walk() = %s", got)
	}
}

func TestWalk_Gitignore(t *testing.T) {
	root := makeTree(t, map[string]string{
		".gitignore":        "# scratch\nscratch/\n*.tmp.md\nprivate/secret.md\n",
		"keep.md":           "a",
		"draft.tmp.md":      "b",
		"scratch/x.md":      "c",
		"private/secret.md": "d",
		"private/ok.md":     "e",
	})

	files, err := Walk(Config{RootDir: root, Formats: []string{"md"}})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}

	got := strings.Join(relPaths(files), ",")
	if got != "keep.md,private/ok.md" {
		t.Errorf("Walk() = %s", got)
	}
}

func TestWalk_MaxFileSize(t *testing.T) {
	root := makeTree(t, map[string]string{
		"small.txt": "tiny",
		"large.txt": strings.Repeat("x", 100),
	})

	files, err := Walk(Config{RootDir: root, MaxFileSize: 10})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	if got := strings.Join(relPaths(files), ","); got != "small.txt" {
		t.Errorf("Walk() = %s", got)
	}
}

func TestExpand(t *testing.T) {
	root := makeTree(t, map[string]string{
		"a.pdf":      "%PDF",
		"docs/b.pdf": "%PDF",
		"docs/c.txt": "text",
		"d.docx":     "zip",
	})
	cfg := Config{Formats: []string{"pdf"}}

	t.Run("directory", func(t *testing.T) {
		files, err := Expand([]string{filepath.Join(root, "docs")}, cfg)
		if err != nil {
			t.Fatal(err)
		}
		if got := strings.Join(relPaths(files), ","); got != "b.pdf" {
			t.Errorf("Expand() = %s", got)
		}
	})

	t.Run("glob", func(t *testing.T) {
		files, err := Expand([]string{filepath.Join(root, "**", "*.pdf")}, cfg)
		if err != nil {
			t.Fatal(err)
		}
		if len(files) != 2 {
			t.Errorf("Expand() = %v, want 2 files", relPaths(files))
		}
	})

	t.Run("explicit file bypasses format filter", func(t *testing.T) {
		files, err := Expand([]string{filepath.Join(root, "d.docx")}, cfg)
		if err != nil {
			t.Fatal(err)
		}
		if len(files) != 1 || files[0].Format != "docx" {
			t.Errorf("Expand() = %+v", files)
		}
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		files, err := Expand([]string{root, filepath.Join(root, "a.pdf")}, cfg)
		if err != nil {
			t.Fatal(err)
		}
		if len(files) != 2 {
			t.Errorf("Expand() = %v, want 2 files", relPaths(files))
		}
	})

	t.Run("no match", func(t *testing.T) {
		if _, err := Expand([]string{filepath.Join(root, "*.xlsx")}, cfg); err == nil {
			t.Error("expected error for a pattern with no matches")
		}
	})
}

func TestMatchesInclude(t *testing.T) {
	tests := []struct {
		path     string
		patterns []string
		want     bool
	}{
		{"any.pdf", nil, true},
		{"hr/leave.pdf", []string{"hr/**"}, true},
		{"eng/leave.pdf", []string{"hr/**"}, false},
		{"deep/nested/file.pdf", []string{"*.pdf"}, true},
	}
	for _, tt := range tests {
		if got := MatchesInclude(tt.path, tt.patterns); got != tt.want {
			t.Errorf("MatchesInclude(%q, %v) = %v, want %v", tt.path, tt.patterns, got, tt.want)
		}
	}
}

func TestMatchesExclude(t *testing.T) {
	if MatchesExclude("a.pdf", nil) {
		t.Error("empty exclude list should match nothing")
	}
	if !MatchesExclude("drafts/a.pdf", []string{"drafts/**"}) {
		t.Error("expected drafts/** to exclude drafts/a.pdf")
	}
}
