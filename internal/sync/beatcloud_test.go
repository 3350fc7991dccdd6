/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package sync

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// fakeStore is an in-memory ObjectStore.
type fakeStore struct {
	objects map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (f *fakeStore) List(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	for key := range f.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *fakeStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("no such key %s", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeStore) Put(_ context.Context, key string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestUploadMusic(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "alpha.mp3"), "alpha")
	writeFile(t, filepath.Join(root, "crates", "beta.mp3"), "beta")
	writeFile(t, filepath.Join(root, ".hidden.mp3"), "nope")

	store := newFakeStore()
	store.objects["dj/music/alpha.mp3"] = []byte("alpha")

	syncer := New(store, "alice", zerolog.Nop())
	uploaded, err := syncer.UploadMusic(context.Background(), root)
	if err != nil {
		t.Fatalf("UploadMusic() error: %v", err)
	}
	if uploaded != 1 {
		t.Fatalf("uploaded = %d, want 1", uploaded)
	}
	if got := string(store.objects["dj/music/crates/beta.mp3"]); got != "beta" {
		t.Errorf("beta content = %q", got)
	}
	if _, ok := store.objects["dj/music/.hidden.mp3"]; ok {
		t.Error("hidden file was uploaded")
	}
}

func TestDownloadMusic(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "alpha.mp3"), "alpha")

	store := newFakeStore()
	store.objects["dj/music/alpha.mp3"] = []byte("alpha")
	store.objects["dj/music/crates/beta.mp3"] = []byte("beta")

	syncer := New(store, "alice", zerolog.Nop())
	added, err := syncer.DownloadMusic(context.Background(), root)
	if err != nil {
		t.Fatalf("DownloadMusic() error: %v", err)
	}

	expected := []string{filepath.Join(root, "crates", "beta.mp3")}
	if !reflect.DeepEqual(added, expected) {
		t.Fatalf("added = %v, want %v", added, expected)
	}
	data, err := os.ReadFile(expected[0])
	if err != nil || string(data) != "beta" {
		t.Errorf("downloaded content = %q, err %v", data, err)
	}
}

func TestCollectionRoundTrip(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "collection.xml")
	writeFile(t, source, "<DJ_PLAYLISTS/>")

	store := newFakeStore()
	syncer := New(store, "alice", zerolog.Nop())

	if err := syncer.UploadCollection(context.Background(), source); err != nil {
		t.Fatalf("UploadCollection() error: %v", err)
	}
	if got := string(store.objects["dj/collections/alice/collection.xml"]); got != "<DJ_PLAYLISTS/>" {
		t.Fatalf("stored collection = %q", got)
	}

	dest := filepath.Join(dir, "import")
	path, err := syncer.DownloadCollection(context.Background(), "alice", dest)
	if err != nil {
		t.Fatalf("DownloadCollection() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "<DJ_PLAYLISTS/>" {
		t.Errorf("downloaded collection = %q, err %v", data, err)
	}
}

func TestDownloadCollectionMissingUser(t *testing.T) {
	syncer := New(newFakeStore(), "alice", zerolog.Nop())
	if _, err := syncer.DownloadCollection(context.Background(), "bob", t.TempDir()); err == nil {
		t.Fatal("expected error for missing collection")
	}
}
