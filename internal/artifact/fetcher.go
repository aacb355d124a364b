package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"thirdcoast.systems/vidscan/internal/stage"
)

// MaxDocumentSize caps how much of a stage document is read.
const MaxDocumentSize = 64 << 20

// ErrCorrupt reports a stage document that exists but is not JSON.
var ErrCorrupt = errors.New("corrupt document")

// FetchError is a storage-side failure for one stage document. It is never
// returned for a missing document.
type FetchError struct {
	Stage   stage.Kind
	VideoID string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s document for %s: %v", e.Stage, e.VideoID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Document is one stage document as stored.
type Document struct {
	Kind    stage.Kind
	VideoID string
	Bucket  string
	Object  string
	Data    []byte
}

// Fetcher retrieves stage documents. present is false, with a nil error,
// when the stage has not produced its document yet.
type Fetcher interface {
	Fetch(ctx context.Context, videoID string, kind stage.Kind) (doc *Document, present bool, err error)
}

// Buckets names the bucket each stage writes into.
type Buckets struct {
	Metadata    string
	Transcripts string
	OCR         string
	Detections  string
}

func (b Buckets) For(kind stage.Kind) (string, error) {
	var name string
	switch kind {
	case stage.KindMetadata:
		name = b.Metadata
	case stage.KindTranscript:
		name = b.Transcripts
	case stage.KindOCR:
		name = b.OCR
	case stage.KindDetections:
		name = b.Detections
	default:
		return "", fmt.Errorf("unknown stage %q", kind)
	}
	if name == "" {
		return "", fmt.Errorf("no bucket configured for %s", kind)
	}
	return name, nil
}

// KindForBucket maps a bucket back to the stage writing into it.
func (b Buckets) KindForBucket(bucket string) (stage.Kind, bool) {
	for _, k := range stage.Kinds {
		if name, err := b.For(k); err == nil && name == bucket {
			return k, true
		}
	}
	return "", false
}

func readDocument(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxDocumentSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxDocumentSize {
		return nil, fmt.Errorf("%w: larger than %d bytes", ErrCorrupt, MaxDocumentSize)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: not valid json", ErrCorrupt)
	}
	return data, nil
}
