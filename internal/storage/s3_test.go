package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestS3(t *testing.T, endpoint string) *S3Storage {
	t.Helper()

	store, err := NewS3Storage(context.Background(), S3Config{
		Region:          "us-east-1",
		Endpoint:        endpoint,
		AccessKeyID:     "test-access-key",
		SecretAccessKey: "test-secret-key",
	})
	require.NoError(t, err)
	return store
}

func TestNewS3Storage_MissingCredentials(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		secret string
	}{
		{"no key", "", "secret"},
		{"no secret", "key", ""},
		{"neither", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewS3Storage(context.Background(), S3Config{
				AccessKeyID:     tt.key,
				SecretAccessKey: tt.secret,
			})
			assert.Nil(t, store)
			assert.True(t, errors.Is(err, ErrCredentialsMissing))
		})
	}
}

func TestNewS3Storage_DefaultRegion(t *testing.T) {
	store, err := NewS3Storage(context.Background(), S3Config{
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultRegion, store.Region())
}

func TestS3Storage_UploadFile_MockServer(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT method, got %s", r.Method)
		}
		gotPath = r.URL.Path

		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("failed to read body: %v", err)
		}
		if !strings.Contains(string(body), "clip bytes") {
			t.Errorf("unexpected body: %s", string(body))
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	src := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(src, []byte("clip bytes"), 0600))

	store := newTestS3(t, server.URL)
	err := store.UploadFile(context.Background(), "test-bucket", "job-1/clip.mp4", src)
	require.NoError(t, err)
	assert.Equal(t, "/test-bucket/job-1/clip.mp4", gotPath)
}

func TestS3Storage_UploadFile_MissingSource(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store := newTestS3(t, server.URL)
	err := store.UploadFile(context.Background(), "test-bucket", "k", "/non/existent/file.mp4")
	require.Error(t, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestS3Storage_UploadFile_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>AccessDenied</Code><Message>denied</Message></Error>`)
	}))
	defer server.Close()

	src := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(src, []byte("clip bytes"), 0600))

	store := newTestS3(t, server.URL)
	err := store.UploadFile(context.Background(), "test-bucket", "k", src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload to S3")
}

const listPageOne = `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
  <Name>test-bucket</Name>
  <KeyCount>2</KeyCount>
  <MaxKeys>2</MaxKeys>
  <IsTruncated>true</IsTruncated>
  <NextContinuationToken>page-2</NextContinuationToken>
  <Contents><Key>job-a/video_metadata.json</Key><LastModified>2024-05-01T10:00:00.000Z</LastModified><Size>120</Size></Contents>
  <Contents><Key>job-a/video_clip_1.mp4</Key><LastModified>2024-05-01T10:00:01.000Z</LastModified><Size>2048</Size></Contents>
</ListBucketResult>`

const listPageTwo = `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
  <Name>test-bucket</Name>
  <KeyCount>1</KeyCount>
  <MaxKeys>2</MaxKeys>
  <IsTruncated>false</IsTruncated>
  <Contents><Key>job-b/other_metadata.json</Key><LastModified>2024-06-01T10:00:00.000Z</LastModified><Size>90</Size></Contents>
</ListBucketResult>`

func TestS3Storage_ListObjects_Paginates(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		if r.Method != http.MethodGet {
			t.Errorf("expected GET method, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/xml")
		if r.URL.Query().Get("continuation-token") == "page-2" {
			_, _ = io.WriteString(w, listPageTwo)
			return
		}
		_, _ = io.WriteString(w, listPageOne)
	}))
	defer server.Close()

	store := newTestS3(t, server.URL)
	objects, err := store.ListObjects(context.Background(), "test-bucket")
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&requests))
	require.Len(t, objects, 3)
	assert.Equal(t, "job-a/video_metadata.json", objects[0].Key)
	assert.Equal(t, int64(120), objects[0].Size)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), objects[0].LastModified.UTC())
	assert.Equal(t, "job-b/other_metadata.json", objects[2].Key)
}

func TestS3Storage_ListObjects_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchBucket</Code><Message>missing</Message></Error>`)
	}))
	defer server.Close()

	store := newTestS3(t, server.URL)
	_, err := store.ListObjects(context.Background(), "missing-bucket")
	require.Error(t, err)
}

func TestS3Storage_GetObject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/test-bucket/job-a/video_metadata.json" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"shorts": []}`)
	}))
	defer server.Close()

	store := newTestS3(t, server.URL)
	body, err := store.GetObject(context.Background(), "test-bucket", "job-a/video_metadata.json")
	require.NoError(t, err)
	defer func() { _ = body.Close() }()

	content, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, `{"shorts": []}`, string(content))
}

func TestS3Storage_PresignGet(t *testing.T) {
	store := newTestS3(t, "http://localhost:4566")

	url, err := store.PresignGet(context.Background(), "test-bucket", "job-a/video_clip_1.mp4", 2*time.Hour)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, "http://localhost:4566/test-bucket/job-a/video_clip_1.mp4?"), url)
	assert.Contains(t, url, "X-Amz-Expires=7200")
	assert.Contains(t, url, "X-Amz-Signature=")
	assert.Contains(t, url, fmt.Sprintf("X-Amz-Credential=%s", "test-access-key"))
}
