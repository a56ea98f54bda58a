package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubAttachmentStore(t *testing.T) {
	s := NewStubAttachmentStore()
	ctx := context.Background()
	assert.Equal(t, "https://storage.example.com", s.BaseURL)

	fixed := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	t.Run("upload keeps a copy", func(t *testing.T) {
		data := []byte("xlsx-bytes")
		require.NoError(t, s.Upload(ctx, "reports/a.xlsx", data, "application/octet-stream"))
		data[0] = 'X'

		obj, ok := s.Object("reports/a.xlsx")
		require.True(t, ok)
		assert.Equal(t, "xlsx-bytes", string(obj.Data))
		assert.Equal(t, "application/octet-stream", obj.ContentType)

		_, ok = s.Object("missing")
		assert.False(t, ok)
	})

	t.Run("download link", func(t *testing.T) {
		link, expiresAt, err := s.GenerateDownloadURL(ctx, "reports/a.xlsx", time.Hour)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(link, "https://storage.example.com/download/reports/a.xlsx?expires="))
		assert.Equal(t, fixed.Add(time.Hour), expiresAt)

		_, expiresAt, err = s.GenerateDownloadURL(ctx, "reports/a.xlsx", 0)
		require.NoError(t, err)
		assert.Equal(t, fixed.Add(15*time.Minute), expiresAt)
	})

	t.Run("empty key", func(t *testing.T) {
		assert.ErrorIs(t, s.Upload(ctx, "", nil, ""), ErrStorageKeyRequired)
		_, _, err := s.GenerateDownloadURL(ctx, "", time.Minute)
		assert.ErrorIs(t, err, ErrStorageKeyRequired)
	})
}
