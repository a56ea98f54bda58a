package storage

import (
	"context"
	"net/url"
	"sync"
	"time"
)

// StoredObject is an attachment kept by StubAttachmentStore
type StoredObject struct {
	Data        []byte
	ContentType string
}

// StubAttachmentStore keeps attachments in memory and builds fake download links.
// Use this for development and tests when no S3-compatible backend is configured.
type StubAttachmentStore struct {
	// BaseURL is the base of generated download links.
	// Defaults to "https://storage.example.com".
	BaseURL string

	mu      sync.RWMutex
	objects map[string]StoredObject
	now     func() time.Time
}

// NewStubAttachmentStore creates a new StubAttachmentStore
func NewStubAttachmentStore() *StubAttachmentStore {
	return &StubAttachmentStore{
		BaseURL: "https://storage.example.com",
		objects: make(map[string]StoredObject),
		now:     time.Now,
	}
}

// Upload keeps a copy of data under storageKey
func (s *StubAttachmentStore) Upload(ctx context.Context, storageKey string, data []byte, contentType string) error {
	if storageKey == "" {
		return ErrStorageKeyRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[storageKey] = StoredObject{
		Data:        append([]byte(nil), data...),
		ContentType: contentType,
	}
	return nil
}

// GenerateDownloadURL builds a fake download link for storageKey
func (s *StubAttachmentStore) GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, ErrStorageKeyRequired
	}
	if expiresIn <= 0 {
		expiresIn = 15 * time.Minute
	}
	expiresAt := s.now().Add(expiresIn)
	link := s.BaseURL + "/download/" + storageKey + "?expires=" + url.QueryEscape(expiresAt.UTC().Format(time.RFC3339))
	return link, expiresAt, nil
}

// Object returns an uploaded attachment
func (s *StubAttachmentStore) Object(storageKey string) (StoredObject, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[storageKey]
	return obj, ok
}
