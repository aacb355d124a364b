package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"thirdcoast.systems/vidscan/internal/stage"
	"thirdcoast.systems/vidscan/internal/videoid"
)

var testBuckets = Buckets{
	Metadata:    "metadata",
	Transcripts: "transcripts",
	OCR:         "ocr",
	Detections:  "detections",
}

func writeDoc(t *testing.T, root, bucket, videoID, file, body string) {
	t.Helper()
	dir := filepath.Join(root, bucket, videoID)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(body), 0o644))
}

func TestDirFetcher_Present(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "transcripts", "a1", "transcript.json", `{"text":"hi"}`)

	f := NewDirFetcher(root, testBuckets)
	doc, ok, err := f.Fetch(context.Background(), "a1", stage.KindTranscript)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"text":"hi"}`, string(doc.Data))
	require.Equal(t, "transcripts", doc.Bucket)
	require.Equal(t, "a1/transcript.json", doc.Object)
	require.Equal(t, stage.KindTranscript, doc.Kind)
}

func TestDirFetcher_AbsentIsNotAnError(t *testing.T) {
	root := t.TempDir()
	// Same video, other stage's bucket.
	writeDoc(t, root, "metadata", "a1", "metadata.json", `{}`)

	f := NewDirFetcher(root, testBuckets)
	for _, k := range []stage.Kind{stage.KindTranscript, stage.KindOCR, stage.KindDetections} {
		doc, ok, err := f.Fetch(context.Background(), "a1", k)
		require.NoError(t, err, k)
		require.False(t, ok, k)
		require.Nil(t, doc, k)
	}
}

func TestDirFetcher_Corrupt(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "ocr", "a1", "ocr.json", `{"all_text": `)

	_, ok, err := NewDirFetcher(root, testBuckets).Fetch(context.Background(), "a1", stage.KindOCR)
	require.False(t, ok)
	require.ErrorIs(t, err, ErrCorrupt)

	var ferr *FetchError
	require.ErrorAs(t, err, &ferr)
	require.Equal(t, stage.KindOCR, ferr.Stage)
	require.Equal(t, "a1", ferr.VideoID)
}

func TestDirFetcher_UnreadableIsTransportFailure(t *testing.T) {
	root := t.TempDir()
	// A directory where the document should be.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "detections", "a1", "detections.json"), 0o755))

	_, ok, err := NewDirFetcher(root, testBuckets).Fetch(context.Background(), "a1", stage.KindDetections)
	require.False(t, ok)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrCorrupt)

	var ferr *FetchError
	require.ErrorAs(t, err, &ferr)
}

func TestDirFetcher_RejectsPathLikeIDs(t *testing.T) {
	f := NewDirFetcher(t.TempDir(), testBuckets)
	_, _, err := f.Fetch(context.Background(), "../etc", stage.KindMetadata)
	require.ErrorIs(t, err, videoid.ErrInvalid)
}

func TestDirFetcher_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok, err := NewDirFetcher(t.TempDir(), testBuckets).Fetch(ctx, "a1", stage.KindMetadata)
	require.False(t, ok)
	require.ErrorIs(t, err, context.Canceled)
}

func TestBuckets(t *testing.T) {
	b, err := testBuckets.For(stage.KindDetections)
	require.NoError(t, err)
	require.Equal(t, "detections", b)

	_, err = Buckets{}.For(stage.KindOCR)
	require.Error(t, err)

	k, ok := testBuckets.KindForBucket("transcripts")
	require.True(t, ok)
	require.Equal(t, stage.KindTranscript, k)

	_, ok = testBuckets.KindForBucket("videos")
	require.False(t, ok)
}
