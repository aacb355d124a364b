package stage

import (
	"fmt"
	"strings"
)

// Kind tags one upstream processing stage.
type Kind string

const (
	KindMetadata   Kind = "metadata"
	KindTranscript Kind = "transcript"
	KindOCR        Kind = "ocr"
	KindDetections Kind = "detections"
)

// Kinds lists every stage in the order the engine persists them.
var Kinds = []Kind{KindMetadata, KindTranscript, KindOCR, KindDetections}

func (k Kind) Valid() bool {
	switch k {
	case KindMetadata, KindTranscript, KindOCR, KindDetections:
		return true
	}
	return false
}

func (k Kind) String() string { return string(k) }

// ObjectName is the storage path of the stage's JSON document.
func (k Kind) ObjectName(videoID string) string {
	return videoID + "/" + string(k) + ".json"
}

// TextObjectName is the plain-text companion written by the transcript and
// OCR stages, or "" for stages that do not produce one.
func (k Kind) TextObjectName(videoID string) string {
	switch k {
	case KindTranscript, KindOCR:
		return videoID + "/" + string(k) + ".txt"
	}
	return ""
}

// KindFromObjectName reverses ObjectName. It reports false for objects that
// are not stage documents (videos, thumbnails, annotated frames).
func KindFromObjectName(name string) (videoID string, kind Kind, ok bool) {
	dir, file, found := strings.Cut(name, "/")
	if !found || dir == "" || strings.Contains(file, "/") {
		return "", "", false
	}
	base, isJSON := strings.CutSuffix(file, ".json")
	if !isJSON {
		return "", "", false
	}
	k := Kind(base)
	if !k.Valid() {
		return "", "", false
	}
	return dir, k, true
}

// DetectionFrameObject is the path of the annotated frame image the detector
// uploads for a frame.
func DetectionFrameObject(videoID string, frameNumber int32, timestamp float64) string {
	return fmt.Sprintf("%s/detected_frames/frame_%04d_%.2fs_detected.jpg", videoID, frameNumber, timestamp)
}
