package videoid

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	require.NoError(t, Validate("a1b2c3"))
	require.NoError(t, Validate("ggLajT7aMMk"))

	require.ErrorIs(t, Validate(""), ErrEmpty)
	require.ErrorIs(t, Validate("   "), ErrEmpty)
	require.ErrorIs(t, Validate("a/b"), ErrInvalid)
	require.ErrorIs(t, Validate(`a\b`), ErrInvalid)
	require.ErrorIs(t, Validate(".."), ErrInvalid)
	require.ErrorIs(t, Validate(" abc"), ErrInvalid)
}

func TestFromURL_MD5Hex(t *testing.T) {
	id, err := FromURL("https://example.com/v.mp4")
	require.NoError(t, err)
	require.Len(t, id, 32)
	require.NoError(t, Validate(id))

	again, err := FromURL("  https://example.com/v.mp4\n")
	require.NoError(t, err)
	require.Equal(t, id, again)

	// md5("abc")
	id, err = FromURL("abc")
	require.NoError(t, err)
	require.Equal(t, "900150983cd24fb0d6963f7d28e17f72", id)

	_, err = FromURL(" ")
	require.Error(t, err)
}

func TestVideoUUID_Deterministic(t *testing.T) {
	a := VideoUUID("a1b2c3")
	require.Equal(t, a, VideoUUID("a1b2c3"))
	require.NotEqual(t, a, VideoUUID("a1b2c4"))
	require.Equal(t, uuid.Version(5), a.Version())
}

func TestChildUUID_DistinctPerKindAndSeq(t *testing.T) {
	parent := VideoUUID("a1b2c3")

	seg0 := ChildUUID(parent, "segment", 0)
	require.Equal(t, seg0, ChildUUID(parent, "segment", 0))
	require.NotEqual(t, seg0, ChildUUID(parent, "segment", 1))
	require.NotEqual(t, seg0, ChildUUID(parent, "ocr_frame", 0))
	require.NotEqual(t, seg0, ChildUUID(VideoUUID("other"), "segment", 0))

	require.Equal(t, NamedChildUUID(parent, "hashtag", "#x"), NamedChildUUID(parent, "hashtag", "#x"))
	require.NotEqual(t, NamedChildUUID(parent, "hashtag", "#x"), NamedChildUUID(parent, "hashtag", "#y"))
}

func TestLockKey(t *testing.T) {
	require.Equal(t, LockKey("aggregate", "a1"), LockKey("aggregate", "a1"))
	require.NotEqual(t, LockKey("aggregate", "a1"), LockKey("aggregate", "a2"))
	require.NotEqual(t, LockKey("aggregate", "a1"), LockKey("report", "a1"))
}
