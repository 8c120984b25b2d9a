package export

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	git "github.com/go-git/go-git/v5"
)

func sampleFiles() map[string]string {
	return map[string]string{
		"src/App.tsx":  "export default function App() {}\n",
		"src/index.ts": "import App from './App'\n",
		"package.json": `{"name":"demo"}` + "\n",
	}
}

func TestInitRepo(t *testing.T) {
	dir := t.TempDir()

	hash, err := InitRepo(dir, sampleFiles())
	if err != nil {
		t.Fatalf("InitRepo() failed: %v", err)
	}
	if len(hash) != 40 {
		t.Errorf("Expected full commit hash, got %q", hash)
	}

	repo, err := git.PlainOpen(dir)
	if err != nil {
		t.Fatalf("PlainOpen() failed: %v", err)
	}

	head, err := repo.Head()
	if err != nil {
		t.Fatalf("Head() failed: %v", err)
	}
	if head.Name().Short() != "main" {
		t.Errorf("Expected main branch, got %q", head.Name().Short())
	}
	if head.Hash().String() != hash {
		t.Errorf("HEAD %s does not match returned hash %s", head.Hash(), hash)
	}

	// Worktree is clean after the commit
	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree() failed: %v", err)
	}
	status, err := worktree.Status()
	if err != nil {
		t.Fatalf("Status() failed: %v", err)
	}
	if !status.IsClean() {
		t.Errorf("Expected clean worktree, got %v", status)
	}

	// Files landed on disk
	content, err := os.ReadFile(filepath.Join(dir, "src", "App.tsx"))
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	if string(content) != "export default function App() {}\n" {
		t.Errorf("Unexpected file content %q", content)
	}
}

func TestInitRepo_EmptyProject(t *testing.T) {
	if _, err := InitRepo(t.TempDir(), nil); err == nil {
		t.Fatal("Expected error for empty project")
	}
}

func TestPush_RequiresCredentials(t *testing.T) {
	dir := t.TempDir()
	if _, err := InitRepo(dir, sampleFiles()); err != nil {
		t.Fatalf("InitRepo() failed: %v", err)
	}

	err := Push(context.Background(), dir, PushOptions{AccessToken: "tok"})
	if err == nil {
		t.Error("Expected error without clone URL")
	}

	err = Push(context.Background(), dir, PushOptions{CloneURL: "https://github.com/o/r.git"})
	if err == nil {
		t.Error("Expected error without access token")
	}
}

func TestWriteZip(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "project.zip")

	if err := WriteZip(dest, sampleFiles()); err != nil {
		t.Fatalf("WriteZip() failed: %v", err)
	}

	r, err := zip.OpenReader(dest)
	if err != nil {
		t.Fatalf("OpenReader() failed: %v", err)
	}
	defer r.Close()

	if len(r.File) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(r.File))
	}

	// Sorted entry order
	want := []string{"package.json", "src/App.tsx", "src/index.ts"}
	for i, entry := range r.File {
		if entry.Name != want[i] {
			t.Errorf("Entry %d = %q, want %q", i, entry.Name, want[i])
		}
	}

	rc, err := r.File[1].Open()
	if err != nil {
		t.Fatalf("Open entry failed: %v", err)
	}
	defer rc.Close()
	content, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll() failed: %v", err)
	}
	if string(content) != "export default function App() {}\n" {
		t.Errorf("Unexpected entry content %q", content)
	}
}

func TestWriteZip_EmptyProject(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "project.zip")
	if err := WriteZip(dest, nil); err == nil {
		t.Fatal("Expected error for empty project")
	}
}

func TestWriteDir(t *testing.T) {
	dest := t.TempDir()

	if err := WriteDir(dest, sampleFiles()); err != nil {
		t.Fatalf("WriteDir() failed: %v", err)
	}

	for path, want := range sampleFiles() {
		got, err := os.ReadFile(filepath.Join(dest, filepath.FromSlash(path)))
		if err != nil {
			t.Fatalf("ReadFile(%q) failed: %v", path, err)
		}
		if string(got) != want {
			t.Errorf("File %q = %q, want %q", path, got, want)
		}
	}
}
