package artifact

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"thirdcoast.systems/vidscan/internal/stage"
)

// fakeGCS serves objects keyed by "bucket/object". Reads arrive either as
// XML-style /bucket/object paths or JSON-style /b/bucket/o/object paths, so
// both are matched. Objects under a denied bucket answer 403.
type fakeGCS struct {
	objects map[string]string
	denied  string
}

func (f *fakeGCS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Replace(r.URL.Path, "/o/", "/", 1)
	if f.denied != "" && strings.Contains(path, "/"+f.denied+"/") {
		http.Error(w, "access denied", http.StatusForbidden)
		return
	}
	for key, body := range f.objects {
		if strings.HasSuffix(path, "/"+key) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Goog-Generation", "1")
			w.Header().Set("X-Goog-Metageneration", "1")
			_, _ = w.Write([]byte(body))
			return
		}
	}
	http.Error(w, "not found", http.StatusNotFound)
}

func newTestGCSFetcher(t *testing.T, gcs *fakeGCS) *GCSFetcher {
	t.Helper()
	srv := httptest.NewServer(gcs)
	t.Cleanup(srv.Close)

	client, err := storage.NewClient(context.Background(),
		option.WithEndpoint(srv.URL+"/storage/v1/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewGCSFetcher(client, testBuckets)
}

func TestGCSFetcher_Present(t *testing.T) {
	f := newTestGCSFetcher(t, &fakeGCS{objects: map[string]string{
		"transcripts/a1/transcript.json": `{"text":"hi"}`,
	}})

	doc, ok, err := f.Fetch(context.Background(), "a1", stage.KindTranscript)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"text":"hi"}`, string(doc.Data))
	require.Equal(t, "transcripts", doc.Bucket)
	require.Equal(t, "a1/transcript.json", doc.Object)
}

func TestGCSFetcher_AbsentIsNotAnError(t *testing.T) {
	f := newTestGCSFetcher(t, &fakeGCS{objects: map[string]string{
		"metadata/a1/metadata.json": `{}`,
	}})

	for _, k := range []stage.Kind{stage.KindTranscript, stage.KindOCR, stage.KindDetections} {
		doc, ok, err := f.Fetch(context.Background(), "a1", k)
		require.NoError(t, err, k)
		require.False(t, ok, k)
		require.Nil(t, doc, k)
	}
}

func TestGCSFetcher_DeniedIsTransportFailure(t *testing.T) {
	f := newTestGCSFetcher(t, &fakeGCS{
		objects: map[string]string{"ocr/a1/ocr.json": `{}`},
		denied:  "ocr",
	})

	_, ok, err := f.Fetch(context.Background(), "a1", stage.KindOCR)
	require.False(t, ok)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrCorrupt)
	require.NotErrorIs(t, err, storage.ErrObjectNotExist)

	var ferr *FetchError
	require.ErrorAs(t, err, &ferr)
	require.Equal(t, stage.KindOCR, ferr.Stage)
}

func TestGCSFetcher_Corrupt(t *testing.T) {
	f := newTestGCSFetcher(t, &fakeGCS{objects: map[string]string{
		"detections/a1/detections.json": `{"frames": `,
	}})

	_, ok, err := f.Fetch(context.Background(), "a1", stage.KindDetections)
	require.False(t, ok)
	require.ErrorIs(t, err, ErrCorrupt)
}
