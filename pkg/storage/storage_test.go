package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalUploadAndPublicURL(t *testing.T) {
	root := t.TempDir()
	s := NewLocal(root, "http://localhost:8080/storage/")

	err := s.Upload(context.Background(), "stickers", "stickers/u1/1.jpg", []byte("data"), "image/jpeg", true)
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(root, "stickers", "stickers", "u1", "1.jpg"))
	if err != nil || string(b) != "data" {
		t.Fatalf("stored object wrong: %q err=%v", b, err)
	}
	url := s.PublicURL("stickers", "stickers/u1/1.jpg")
	want := "http://localhost:8080/storage/stickers/stickers/u1/1.jpg"
	if url != want {
		t.Fatalf("public url = %q want %q", url, want)
	}
}

func TestLocalUpsertSemantics(t *testing.T) {
	root := t.TempDir()
	s := NewLocal(root, "http://x")
	ctx := context.Background()

	if err := s.Upload(ctx, "b", "p.jpg", []byte("one"), "image/jpeg", false); err != nil {
		t.Fatalf("first upload: %v", err)
	}
	if err := s.Upload(ctx, "b", "p.jpg", []byte("two"), "image/jpeg", false); err != ErrExists {
		t.Fatalf("expected ErrExists without upsert, got %v", err)
	}
	if err := s.Upload(ctx, "b", "p.jpg", []byte("two"), "image/jpeg", true); err != nil {
		t.Fatalf("upsert overwrite: %v", err)
	}
	b, _ := os.ReadFile(filepath.Join(root, "b", "p.jpg"))
	if string(b) != "two" {
		t.Fatalf("overwrite lost: %q", b)
	}
}

func TestLocalCancelledContext(t *testing.T) {
	s := NewLocal(t.TempDir(), "http://x")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Upload(ctx, "b", "p.jpg", []byte("x"), "image/jpeg", true); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	m := NewMemory("https://cdn")
	ctx := context.Background()
	if err := m.Upload(ctx, "b", "k.jpg", []byte("v"), "image/jpeg", false); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if err := m.Upload(ctx, "b", "k.jpg", []byte("v2"), "image/jpeg", false); err != ErrExists {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	if err := m.Upload(ctx, "b", "k.jpg", []byte("v2"), "image/jpeg", true); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, ok := m.Bytes("b", "k.jpg")
	if !ok || string(got) != "v2" {
		t.Fatalf("bytes = %q ok=%v", got, ok)
	}
	if m.PublicURL("b", "k.jpg") != "https://cdn/b/k.jpg" {
		t.Fatalf("public url wrong: %s", m.PublicURL("b", "k.jpg"))
	}
}
