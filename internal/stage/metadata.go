package stage

import (
	"regexp"
	"strings"
	"time"
)

// Metadata is the normalized form of metadata.json.
type Metadata struct {
	VideoURL        string
	Title           string
	Description     string
	Channel         string
	ChannelID       string
	Account         string
	Duration        float64
	ViewCount       int64
	LikeCount       int64
	UploadDate      *time.Time
	Hashtags        []string
	ThumbnailURL    string
	VideoObject     string
	MetadataObject  string
	ThumbnailObject string
	Extractor       string
	WebpageURL      string
	DownloadedAt    time.Time
}

func (*Metadata) Kind() Kind { return KindMetadata }

var hashtagPattern = regexp.MustCompile(`#[\p{L}\p{M}\p{N}_]+`)

// ExtractHashtags finds #tags in free text, lowercased, in first-seen order.
func ExtractHashtags(text string) []string {
	return dedupe(hashtagPattern.FindAllString(strings.ToLower(text), -1))
}

func normalizeMetadata(doc object, now time.Time) (*Metadata, error) {
	m := &Metadata{
		VideoURL:        doc.str("video_url"),
		Title:           doc.str("title"),
		Description:     doc.str("description"),
		Channel:         doc.str("channel"),
		ChannelID:       doc.str("channel_id"),
		Account:         doc.str("account"),
		Duration:        doc.f64("duration"),
		ViewCount:       doc.i64("view_count"),
		LikeCount:       doc.i64("like_count"),
		UploadDate:      doc.compactDate("upload_date"),
		ThumbnailURL:    doc.str("thumbnail_url"),
		VideoObject:     doc.str("video_object"),
		MetadataObject:  doc.str("metadata_object"),
		ThumbnailObject: doc.str("thumbnail_object"),
		Extractor:       doc.str("extractor"),
		WebpageURL:      doc.str("webpage_url"),
		DownloadedAt:    doc.timestamp("downloaded_at", now),
	}

	tags, present, err := doc.stringList("hashtags")
	if err != nil {
		return nil, &ValidationError{Kind: KindMetadata, Field: "hashtags", Err: err}
	}
	if present {
		m.Hashtags = dedupe(tags)
	} else {
		m.Hashtags = ExtractHashtags(m.Description)
	}
	return m, nil
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
