package gallery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/maauso/openshorts-hooks/internal/storage"
)

// Defaults.
const (
	DefaultBucket    = "openshorts.app-clips"
	DefaultListLimit = 50
	DefaultCacheTTL  = 5 * time.Minute
	DefaultURLExpiry = 2 * time.Hour
)

// Status describes how a listing was produced.
type Status string

// Listing outcomes.
const (
	// StatusScanned means the bucket was scanned.
	StatusScanned Status = "scanned"
	// StatusCached means the result came from the cache.
	StatusCached Status = "cached"
	// StatusCredentialsMissing means no scan was possible.
	StatusCredentialsMissing Status = "credentials_missing"
	// StatusFailed means the bucket could not be enumerated.
	StatusFailed Status = "failed"
)

// ListOptions controls a clip listing.
type ListOptions struct {
	// Bucket overrides the publisher's default bucket.
	Bucket string
	// Limit caps the number of clips. Zero or less means DefaultListLimit.
	Limit int
	// ForceRefresh bypasses the cache.
	ForceRefresh bool
}

// ListResult is the outcome of a listing. Clips is never nil.
type ListResult struct {
	Clips  []Clip
	Status Status
	// Skipped counts metadata objects that could not be read or parsed.
	Skipped int
	// Err is set for StatusCredentialsMissing and StatusFailed.
	Err error
}

// UploadReport lists the keys uploaded by a bulk upload.
type UploadReport struct {
	Uploaded []string
	Failed   []string
}

// Publisher uploads job artifacts and lists published clips.
type Publisher struct {
	store     storage.ObjectStore
	bucket    string
	cache     *Cache
	cacheTTL  time.Duration
	urlExpiry time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithBucket sets the default bucket.
func WithBucket(bucket string) Option {
	return func(p *Publisher) {
		if bucket != "" {
			p.bucket = bucket
		}
	}
}

// WithCache shares a cache between publishers.
func WithCache(c *Cache) Option {
	return func(p *Publisher) {
		p.cache = c
	}
}

// WithCacheTTL sets how long a scan is reused.
func WithCacheTTL(ttl time.Duration) Option {
	return func(p *Publisher) {
		if ttl > 0 {
			p.cacheTTL = ttl
		}
	}
}

// WithURLExpiry sets the lifetime of presigned clip URLs.
func WithURLExpiry(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.urlExpiry = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		p.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPublisher creates a Publisher. A nil store means credentials are not
// configured: every operation then fails with storage.ErrCredentialsMissing
// without touching the network.
func NewPublisher(store storage.ObjectStore, opts ...Option) *Publisher {
	p := &Publisher{
		store:     store,
		bucket:    DefaultBucket,
		cacheTTL:  DefaultCacheTTL,
		urlExpiry: DefaultURLExpiry,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.cache == nil {
		p.cache = NewCache()
	}
	return p
}

// Enabled reports whether storage credentials are configured.
func (p *Publisher) Enabled() bool {
	return p.store != nil
}

// Bucket returns the default bucket.
func (p *Publisher) Bucket() string {
	return p.bucket
}

// Upload uploads localPath to bucket/key. An empty bucket means the default.
func (p *Publisher) Upload(ctx context.Context, localPath, bucket, key string) error {
	if p.store == nil {
		return storage.ErrCredentialsMissing
	}
	if bucket == "" {
		bucket = p.bucket
	}

	if err := p.store.UploadFile(ctx, bucket, key, localPath); err != nil {
		p.logger.Error("upload failed",
			slog.String("bucket", bucket),
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("upload %s: %w", key, err)
	}

	p.logger.Debug("uploaded", slog.String("bucket", bucket), slog.String("key", key))
	return nil
}

// isArtifact reports whether a job directory entry should be published.
// Extensions match case-sensitively.
func isArtifact(name string) bool {
	if strings.HasPrefix(name, "temp_") {
		return false
	}
	return strings.HasSuffix(name, ".mp4") || strings.HasSuffix(name, ".json")
}

// UploadJobArtifacts uploads every clip and metadata file in dir under
// {jobID}/. A missing dir is a no-op. Individual failures are reported, not
// returned.
func (p *Publisher) UploadJobArtifacts(ctx context.Context, dir, jobID string) (UploadReport, error) {
	var report UploadReport

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return report, nil
		}
		return report, fmt.Errorf("read job dir: %w", err)
	}
	if p.store == nil {
		return report, storage.ErrCredentialsMissing
	}

	for _, entry := range entries {
		if entry.IsDir() || !isArtifact(entry.Name()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}

		key := ArtifactKey(jobID, entry.Name())
		if err := p.Upload(ctx, filepath.Join(dir, entry.Name()), p.bucket, key); err != nil {
			report.Failed = append(report.Failed, key)
			continue
		}
		report.Uploaded = append(report.Uploaded, key)
	}

	if len(report.Uploaded) > 0 {
		p.cache.Invalidate()
	}

	p.logger.Info("job artifacts published",
		slog.String("job_id", jobID),
		slog.Int("uploaded", len(report.Uploaded)),
		slog.Int("failed", len(report.Failed)),
	)
	return report, nil
}

// ListClips returns the newest published clips, newest metadata first.
func (p *Publisher) ListClips(ctx context.Context, opts ListOptions) ListResult {
	bucket := opts.Bucket
	if bucket == "" {
		bucket = p.bucket
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	now := p.now()
	if !opts.ForceRefresh {
		if clips, ok := p.cache.Get(bucket, limit, now, p.cacheTTL); ok {
			return ListResult{Clips: clips, Status: StatusCached}
		}
	}

	if p.store == nil {
		return ListResult{Clips: []Clip{}, Status: StatusCredentialsMissing, Err: storage.ErrCredentialsMissing}
	}

	clips, skipped, exhaustive, err := p.scan(ctx, bucket, limit)
	if err != nil {
		p.logger.Error("listing bucket failed", slog.String("bucket", bucket), slog.String("error", err.Error()))
		return ListResult{Clips: []Clip{}, Status: StatusFailed, Err: err}
	}

	p.cache.Put(bucket, clips, exhaustive, now)
	return ListResult{Clips: prefix(clips, limit), Status: StatusScanned, Skipped: skipped}
}

// scan walks metadata objects newest first until limit clips are collected.
// exhaustive is false when the walk stopped early.
func (p *Publisher) scan(ctx context.Context, bucket string, limit int) (clips []Clip, skipped int, exhaustive bool, err error) {
	objects, err := p.store.ListObjects(ctx, bucket)
	if err != nil {
		return nil, 0, false, fmt.Errorf("list objects: %w", err)
	}

	var metas []storage.Object
	for _, obj := range objects {
		if strings.HasSuffix(obj.Key, MetadataSuffix) {
			metas = append(metas, obj)
		}
	}
	sort.SliceStable(metas, func(i, j int) bool {
		return metas[i].LastModified.After(metas[j].LastModified)
	})

	clips = []Clip{}
	for i, meta := range metas {
		if err := ctx.Err(); err != nil {
			return nil, 0, false, err
		}

		found, truncated, err := p.clipsFromMetadata(ctx, bucket, meta, limit-len(clips))
		if err != nil {
			p.logger.Warn("skipping metadata",
				slog.String("key", meta.Key),
				slog.String("error", err.Error()),
			)
			skipped++
			continue
		}
		clips = append(clips, found...)

		if len(clips) >= limit {
			return clips, skipped, i == len(metas)-1 && !truncated, nil
		}
	}

	return clips, skipped, true, nil
}

// clipsFromMetadata builds up to remaining clip records from one metadata
// object. Clips whose URL cannot be presigned are left out. truncated is true
// when entries were left unread.
func (p *Publisher) clipsFromMetadata(ctx context.Context, bucket string, meta storage.Object, remaining int) (clips []Clip, truncated bool, err error) {
	body, err := p.store.GetObject(ctx, bucket, meta.Key)
	if err != nil {
		return nil, false, fmt.Errorf("get metadata: %w", err)
	}
	defer func() { _ = body.Close() }()

	doc, err := decodeMetadata(body)
	if err != nil {
		return nil, false, err
	}

	jobID := jobIDFromKey(meta.Key)
	base := baseNameFromKey(meta.Key)

	for i, s := range doc.Shorts {
		key := ClipKey(jobID, base, i)
		url, err := p.store.PresignGet(ctx, bucket, key, p.urlExpiry)
		if err != nil {
			p.logger.Warn("presign failed", slog.String("key", key), slog.String("error", err.Error()))
			continue
		}

		clips = append(clips, Clip{
			JobID:      jobID,
			Index:      i,
			URL:        url,
			Title:      s.title(),
			TikTokDesc: s.TikTok,
			InstaDesc:  s.Instagram,
			CreatedAt:  meta.LastModified,
			Duration:   s.End - s.Start,
		})
		if len(clips) >= remaining {
			return clips, i < len(doc.Shorts)-1, nil
		}
	}
	return clips, false, nil
}
