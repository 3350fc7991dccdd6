/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package sync moves collections and audio between the local library and
// the beatcloud, an S3-compatible object store shared between DJs. The
// playlist builder itself never touches the network; this package is the
// collaborator the CLI wires around it.
package sync

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Beatcloud key layout.
const (
	musicPrefix       = "dj/music/"
	collectionsPrefix = "dj/collections/"
)

// ObjectStore abstracts the object storage operations the syncer needs, so
// tests run against a fake.
type ObjectStore interface {
	List(ctx context.Context, prefix string) ([]string, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Put(ctx context.Context, key string, body io.Reader) error
}

// Syncer copies collections and audio between a local library and the
// beatcloud.
type Syncer struct {
	store  ObjectStore
	user   string
	logger zerolog.Logger
}

// New creates a syncer for the given user.
func New(store ObjectStore, user string, logger zerolog.Logger) *Syncer {
	session := uuid.NewString()
	return &Syncer{
		store:  store,
		user:   user,
		logger: logger.With().Str("sync_session", session).Logger(),
	}
}

func collectionKey(user string) string {
	return collectionsPrefix + user + "/collection.xml"
}

// UploadCollection pushes the serialized collection at localPath to the
// user's beatcloud slot.
func (s *Syncer) UploadCollection(ctx context.Context, localPath string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open collection: %w", err)
	}
	defer file.Close()

	key := collectionKey(s.user)
	if err := s.store.Put(ctx, key, file); err != nil {
		return fmt.Errorf("upload collection: %w", err)
	}
	s.logger.Info().Str("key", key).Msg("collection uploaded")
	return nil
}

// DownloadCollection fetches another user's collection into destDir and
// returns the local path it was written to.
func (s *Syncer) DownloadCollection(ctx context.Context, importUser, destDir string) (string, error) {
	if importUser == "" {
		importUser = s.user
	}
	body, err := s.store.Get(ctx, collectionKey(importUser))
	if err != nil {
		return "", fmt.Errorf("download collection for %s: %w", importUser, err)
	}
	defer body.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", err
	}
	dest := filepath.Join(destDir, importUser+"_collection.xml")
	file, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if _, err := io.Copy(file, body); err != nil {
		return "", fmt.Errorf("write collection: %w", err)
	}
	s.logger.Info().Str("path", dest).Msg("collection downloaded")
	return dest, nil
}

// UploadMusic pushes audio files under root that are missing from the
// beatcloud. Hidden files are skipped. Returns the number of uploads.
func (s *Syncer) UploadMusic(ctx context.Context, root string) (int, error) {
	remote, err := s.store.List(ctx, musicPrefix)
	if err != nil {
		return 0, fmt.Errorf("list beatcloud music: %w", err)
	}
	existing := make(map[string]struct{}, len(remote))
	for _, key := range remote {
		existing[key] = struct{}{}
	}

	uploaded := 0
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		key := musicPrefix + filepath.ToSlash(rel)
		if _, ok := existing[key]; ok {
			return nil
		}

		if err := s.putFile(ctx, key, p); err != nil {
			return fmt.Errorf("upload %s: %w", rel, err)
		}
		s.logger.Debug().Str("key", key).Msg("uploaded")
		uploaded++
		return nil
	})
	if err != nil {
		return uploaded, err
	}
	s.logger.Info().Int("files", uploaded).Msg("music upload finished")
	return uploaded, nil
}

func (s *Syncer) putFile(ctx context.Context, key, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return s.store.Put(ctx, key, file)
}

// DownloadMusic fetches audio files present in the beatcloud but missing
// locally. Returns the local paths of the new files, sorted.
func (s *Syncer) DownloadMusic(ctx context.Context, root string) ([]string, error) {
	remote, err := s.store.List(ctx, musicPrefix)
	if err != nil {
		return nil, fmt.Errorf("list beatcloud music: %w", err)
	}

	var added []string
	for _, key := range remote {
		rel := strings.TrimPrefix(key, musicPrefix)
		if rel == "" {
			continue
		}
		dest := filepath.Join(root, filepath.FromSlash(rel))
		if _, err := os.Stat(dest); err == nil {
			continue
		}

		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return added, err
		}
		body, err := s.store.Get(ctx, key)
		if err != nil {
			return added, fmt.Errorf("download %s: %w", key, err)
		}
		file, err := os.Create(dest)
		if err != nil {
			body.Close()
			return added, err
		}
		_, err = io.Copy(file, body)
		body.Close()
		file.Close()
		if err != nil {
			return added, fmt.Errorf("write %s: %w", dest, err)
		}
		s.logger.Debug().Str("path", dest).Msg("downloaded")
		added = append(added, dest)
	}
	sort.Strings(added)
	s.logger.Info().Int("files", len(added)).Msg("music download finished")
	return added, nil
}
