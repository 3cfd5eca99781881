// Package gallery publishes generated clips to object storage and lists them
// back, with presigned URLs, for the dashboard gallery.
package gallery

import (
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
)

// Storage layout.
const (
	// MetadataSuffix marks per-video metadata objects: {jobID}/{base}_metadata.json.
	MetadataSuffix = "_metadata.json"
	// UnknownJobID is used for metadata objects stored at the bucket root.
	UnknownJobID = "unknown"
	// DefaultTitle is used when a clip has no title.
	DefaultTitle = "Untitled Clip"
)

// Clip is one published clip as shown in the gallery.
type Clip struct {
	JobID      string    `json:"job_id"`
	Index      int       `json:"index"`
	URL        string    `json:"url"`
	Title      string    `json:"title"`
	TikTokDesc string    `json:"tiktok_desc"`
	InstaDesc  string    `json:"insta_desc"`
	CreatedAt  time.Time `json:"created_at"`
	Duration   float64   `json:"duration"`
}

// metadata is the document written next to a job's clips.
type metadata struct {
	Shorts []short `json:"shorts"`
}

type short struct {
	Title     *string `json:"video_title_for_youtube_short"`
	TikTok    string  `json:"video_description_for_tiktok"`
	Instagram string  `json:"video_description_for_instagram"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
}

func (s short) title() string {
	if s.Title == nil {
		return DefaultTitle
	}
	return *s.Title
}

// decodeMetadata parses a metadata document. Comments and trailing commas
// are tolerated.
func decodeMetadata(r io.Reader) (metadata, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return metadata{}, fmt.Errorf("read metadata: %w", err)
	}

	var m metadata
	if err := json.Unmarshal(jsonc.ToJSON(raw), &m); err != nil {
		return metadata{}, fmt.Errorf("decode metadata: %w", err)
	}
	return m, nil
}

// jobIDFromKey returns the first path segment of key, or UnknownJobID for
// keys without a directory.
func jobIDFromKey(key string) string {
	parts := strings.Split(key, "/")
	if len(parts) > 1 {
		return parts[0]
	}
	return UnknownJobID
}

// baseNameFromKey strips the directory and metadata suffix from key.
func baseNameFromKey(key string) string {
	return strings.TrimSuffix(path.Base(key), MetadataSuffix)
}

// ClipKey returns the object key of the index-th (zero-based) clip.
func ClipKey(jobID, baseName string, index int) string {
	return fmt.Sprintf("%s/%s_clip_%d.mp4", jobID, baseName, index+1)
}

// ArtifactKey returns the object key for a job artifact file.
func ArtifactKey(jobID, filename string) string {
	return jobID + "/" + filename
}
