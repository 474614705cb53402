package migrate

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestSQLFilesSortedAndFiltered(t *testing.T) {
	dir := t.TempDir()

	// 乱序创建，混入非 .sql 文件和子目录
	for _, name := range []string{"0002_short_links.sql", "0001_users.SQL", "README.md", "0010_later.sql"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("-- noop"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "archive.sql"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got, err := sqlFiles(dir)
	if err != nil {
		t.Fatalf("sqlFiles: %v", err)
	}
	// 大小写不敏感地收 .sql，子目录和其它文件不收，结果按文件名排序
	want := []string{"0001_users.SQL", "0002_short_links.sql", "0010_later.sql"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("sqlFiles: got %v, want %v", got, want)
	}
}

func TestSQLFilesMissingDir(t *testing.T) {
	if _, err := sqlFiles(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing dir")
	}
}

func TestLocateDirExplicit(t *testing.T) {
	got, err := locateDir("some/dir//migrations")
	if err != nil {
		t.Fatalf("locateDir: %v", err)
	}
	if got != filepath.Clean("some/dir/migrations") {
		t.Fatalf("locateDir: got %q", got)
	}
}

func TestLocateDirPrefersWorkingDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "migrations"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	t.Chdir(dir)

	got, err := locateDir("")
	if err != nil {
		t.Fatalf("locateDir: %v", err)
	}
	want, _ := filepath.Abs("migrations")
	if got != want {
		t.Fatalf("locateDir: got %q, want %q", got, want)
	}
}
