package artifact

import (
	"context"
	"errors"

	"cloud.google.com/go/storage"

	"thirdcoast.systems/vidscan/internal/stage"
	"thirdcoast.systems/vidscan/internal/videoid"
)

// GCSFetcher reads stage documents from Cloud Storage, one bucket per stage.
type GCSFetcher struct {
	client  *storage.Client
	buckets Buckets
}

func NewGCSFetcher(client *storage.Client, buckets Buckets) *GCSFetcher {
	return &GCSFetcher{client: client, buckets: buckets}
}

func (f *GCSFetcher) Fetch(ctx context.Context, videoID string, kind stage.Kind) (*Document, bool, error) {
	fail := func(err error) (*Document, bool, error) {
		return nil, false, &FetchError{Stage: kind, VideoID: videoID, Err: err}
	}
	if err := videoid.Validate(videoID); err != nil {
		return fail(err)
	}
	bucket, err := f.buckets.For(kind)
	if err != nil {
		return fail(err)
	}
	name := kind.ObjectName(videoID)

	reader, err := f.client.Bucket(bucket).Object(name).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return fail(err)
	}
	defer reader.Close()

	data, err := readDocument(reader)
	if err != nil {
		return fail(err)
	}
	return &Document{Kind: kind, VideoID: videoID, Bucket: bucket, Object: name, Data: data}, true, nil
}
