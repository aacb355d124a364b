package artifact

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"thirdcoast.systems/vidscan/internal/stage"
	"thirdcoast.systems/vidscan/internal/videoid"
)

// DirFetcher reads stage documents from a local tree laid out as
// <root>/<bucket>/<video_id>/<stage>.json, the shape a bucket mirror or the
// local demo scripts leave on disk.
type DirFetcher struct {
	root    string
	buckets Buckets
}

func NewDirFetcher(root string, buckets Buckets) *DirFetcher {
	return &DirFetcher{root: root, buckets: buckets}
}

// Path returns where the document for (videoID, kind) is expected.
func (f *DirFetcher) Path(videoID string, kind stage.Kind) (string, error) {
	if err := videoid.Validate(videoID); err != nil {
		return "", err
	}
	bucket, err := f.buckets.For(kind)
	if err != nil {
		return "", err
	}
	return filepath.Join(f.root, bucket, filepath.FromSlash(kind.ObjectName(videoID))), nil
}

func (f *DirFetcher) Fetch(ctx context.Context, videoID string, kind stage.Kind) (*Document, bool, error) {
	fail := func(err error) (*Document, bool, error) {
		return nil, false, &FetchError{Stage: kind, VideoID: videoID, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	path, err := f.Path(videoID, kind)
	if err != nil {
		return fail(err)
	}

	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return fail(err)
	}
	defer file.Close()

	data, err := readDocument(file)
	if err != nil {
		return fail(err)
	}
	bucket, _ := f.buckets.For(kind)
	return &Document{Kind: kind, VideoID: videoID, Bucket: bucket, Object: kind.ObjectName(videoID), Data: data}, true, nil
}
