package stage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKind_ObjectNames(t *testing.T) {
	require.Equal(t, "a1/metadata.json", KindMetadata.ObjectName("a1"))
	require.Equal(t, "a1/detections.json", KindDetections.ObjectName("a1"))
	require.Equal(t, "a1/transcript.txt", KindTranscript.TextObjectName("a1"))
	require.Equal(t, "a1/ocr.txt", KindOCR.TextObjectName("a1"))
	require.Empty(t, KindMetadata.TextObjectName("a1"))
}

func TestKindFromObjectName(t *testing.T) {
	id, k, ok := KindFromObjectName("a1b2/transcript.json")
	require.True(t, ok)
	require.Equal(t, "a1b2", id)
	require.Equal(t, KindTranscript, k)

	for _, name := range []string{
		"a1b2/video.mp4",
		"a1b2/transcript.txt",
		"a1b2/detected_frames/frame_0001_0.03s_detected.jpg",
		"transcript.json",
		"/transcript.json",
		"a1b2/thumbnail.json",
	} {
		_, _, ok := KindFromObjectName(name)
		require.False(t, ok, name)
	}
}

func TestDetectionFrameObject(t *testing.T) {
	require.Equal(t, "a1/detected_frames/frame_0030_1.00s_detected.jpg", DetectionFrameObject("a1", 30, 1))
	require.Equal(t, "a1/detected_frames/frame_12345_416.15s_detected.jpg", DetectionFrameObject("a1", 12345, 416.149))
}
