package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalUpload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocal(dir, "http://localhost:8080/")
	if err != nil {
		t.Fatalf("local storage error: %v", err)
	}

	url, err := store.Upload(context.Background(), "abc-video.mp4", strings.NewReader("payload"))
	if err != nil {
		t.Fatalf("upload error: %v", err)
	}
	if url != "http://localhost:8080/uploads/abc-video.mp4" {
		t.Fatalf("unexpected url: %s", url)
	}

	data, err := os.ReadFile(filepath.Join(dir, "abc-video.mp4"))
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if string(data) != "payload" {
		t.Fatalf("unexpected contents: %s", data)
	}
}

func TestLocalUploadStripsPath(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocal(dir, "http://localhost:8080")
	if err != nil {
		t.Fatalf("local storage error: %v", err)
	}
	if _, err := store.Upload(context.Background(), "../../etc/passwd", strings.NewReader("x")); err != nil {
		t.Fatalf("upload error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "passwd")); err != nil {
		t.Fatalf("expected file inside the media dir: %v", err)
	}
}
