package videoid

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrEmpty   = errors.New("video id is empty")
	ErrInvalid = errors.New("video id contains path characters")
)

// rowNamespace scopes every child row id derived by ChildUUID.
var rowNamespace = uuid.NewSHA1(uuid.NameSpaceDNS, []byte("rows.vidscan.thirdcoast.systems"))

// Validate checks that id is usable both as a natural key and as the first
// segment of an object name.
func Validate(id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrEmpty
	}
	if id != strings.TrimSpace(id) {
		return fmt.Errorf("%w: %q has surrounding whitespace", ErrInvalid, id)
	}
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return fmt.Errorf("%w: %q", ErrInvalid, id)
	}
	return nil
}

// FromURL returns the id the download stage assigns to a source URL: the
// lowercase hex MD5 of the URL exactly as submitted.
func FromURL(raw string) (string, error) {
	u := strings.TrimSpace(raw)
	if u == "" {
		return "", errors.New("empty url")
	}
	sum := md5.Sum([]byte(u))
	return hex.EncodeToString(sum[:]), nil
}

// VideoUUID returns the surrogate key for a video row.
//
// The name string is exactly "video:{videoID}".
func VideoUUID(videoID string) uuid.UUID {
	return uuid.NewSHA1(rowNamespace, []byte("video:"+videoID))
}

// ChildUUID derives the surrogate key of a child row from its parent, its
// table kind and its position. Re-running the same input yields the same ids.
func ChildUUID(parent uuid.UUID, kind string, seq int) uuid.UUID {
	return uuid.NewSHA1(parent, fmt.Appendf(nil, "%s:%d", kind, seq))
}

// NamedChildUUID is ChildUUID for rows keyed by a value rather than a position.
func NamedChildUUID(parent uuid.UUID, kind string, name string) uuid.UUID {
	return uuid.NewSHA1(parent, []byte(kind+":"+name))
}

// LockKey maps a (scope, videoID) pair onto a Postgres advisory lock key.
func LockKey(scope string, videoID string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(scope))
	_, _ = h.Write([]byte{':'})
	_, _ = h.Write([]byte(videoID))
	return int64(h.Sum64())
}
