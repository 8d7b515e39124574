package fs

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"assurecore/internal/blob/core"
)

func newTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestPutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)

	put, err := store.Put(ctx, "evidence/b1/license.pdf", strings.NewReader("license-bytes"), core.PutOptions{
		ContentType: "application/pdf",
		Metadata:    map[string]string{"evidence_id": "e1"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if put.ETag == "" {
		t.Fatal("expected checksum etag")
	}

	info, rc, err := store.Get(ctx, "evidence/b1/license.pdf")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "license-bytes" {
		t.Fatalf("content mismatch: %q", data)
	}
	if info.ETag != put.ETag || info.Metadata["evidence_id"] != "e1" {
		t.Fatalf("sidecar metadata mismatch: %+v", info)
	}
}

func TestPutRejectsExistingKey(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	if _, err := store.Put(ctx, "doc.txt", strings.NewReader("a"), core.PutOptions{}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Put(ctx, "doc.txt", strings.NewReader("b"), core.PutOptions{}); err == nil {
		t.Fatal("expected create-only rejection")
	}
}

func TestKeySanitization(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	for _, key := range []string{"", "  ", "/abs/path", "../escape", "a/../../b"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); err == nil {
			t.Fatalf("expected rejection of key %q", key)
		}
	}
}

func TestMissingKeyIsNotFound(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	if _, _, err := store.Get(ctx, "missing.pdf"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Head(ctx, "missing.pdf"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteRemovesDataAndSidecar(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	if _, err := store.Put(ctx, "gone.txt", strings.NewReader("x"), core.PutOptions{}); err != nil {
		t.Fatal(err)
	}
	existed, err := store.Delete(ctx, "gone.txt")
	if err != nil || !existed {
		t.Fatalf("delete: existed=%v err=%v", existed, err)
	}
	if _, err := store.Head(ctx, "gone.txt"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected sidecar removed, got %v", err)
	}
	existed, err = store.Delete(ctx, "gone.txt")
	if err != nil || existed {
		t.Fatalf("second delete: existed=%v err=%v", existed, err)
	}
}

func TestListOrdersAndFilters(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	for _, key := range []string{"evidence/b2/z.pdf", "evidence/b1/a.pdf", "evidence/b1/m.pdf"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); err != nil {
			t.Fatal(err)
		}
	}
	infos, err := store.List(ctx, "evidence/b1/")
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 2 || infos[0].Key != "evidence/b1/a.pdf" || infos[1].Key != "evidence/b1/m.pdf" {
		t.Fatalf("unexpected listing: %+v", infos)
	}
}

func TestPresignReturnsLocalURL(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	url, err := store.PresignURL(ctx, "evidence/b1/a.pdf", core.SignedURLOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(url, "local.evidence") {
		t.Fatalf("unexpected url %q", url)
	}
	if _, err := store.PresignURL(ctx, "k", core.SignedURLOptions{Method: "PUT"}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported for PUT, got %v", err)
	}
}
