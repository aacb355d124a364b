package report

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"thirdcoast.systems/vidscan/internal/db"
	"thirdcoast.systems/vidscan/pkg/utils/language"
)

// ErrNotFound is returned for a video that has never been aggregated.
var ErrNotFound = errors.New("video not found")

// Reader is the read surface Build needs.
type Reader interface {
	GetVideoByVideoID(ctx context.Context, videoID string) (*db.Video, error)
	ListHashtagsByVideo(ctx context.Context, videoID pgtype.UUID) ([]string, error)
	GetTranscriptByVideo(ctx context.Context, videoID pgtype.UUID) (*db.Transcript, error)
	ListTranscriptSegments(ctx context.Context, transcriptID pgtype.UUID) ([]*db.TranscriptSegment, error)
	GetOcrResultByVideo(ctx context.Context, videoID pgtype.UUID) (*db.OcrResult, error)
	ListOcrFrames(ctx context.Context, ocrResultID pgtype.UUID) ([]*db.OcrFrame, error)
	GetObjectDetectionByVideo(ctx context.Context, videoID pgtype.UUID) (*db.ObjectDetection, error)
	ListDetectedProducts(ctx context.Context, detectionID pgtype.UUID) ([]string, error)
	ListDetectedClassNames(ctx context.Context, detectionID pgtype.UUID) ([]string, error)
	ListDetectionFrames(ctx context.Context, detectionID pgtype.UUID) ([]*db.DetectionFrame, error)
}

var _ Reader = (*db.Queries)(nil)

// Source hands out one consistent view of the aggregated rows at a time.
type Source interface {
	Snapshot(ctx context.Context, fn func(r Reader) error) error
}

// DBSource reads through a repeatable-read, read-only transaction so a
// report never mixes rows from two aggregation runs.
type DBSource struct {
	Conn *db.DatabaseConnection
}

func (s DBSource) Snapshot(ctx context.Context, fn func(r Reader) error) error {
	return s.Conn.InReadTx(ctx, func(q *db.Queries) error { return fn(q) })
}

// Load builds the report for videoID from a single snapshot of src.
func Load(ctx context.Context, src Source, videoID string) (*Report, error) {
	var r *Report
	err := src.Snapshot(ctx, func(q Reader) error {
		var err error
		r, err = Build(ctx, q, videoID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Report is the consolidated view of one aggregated video.
type Report struct {
	VideoID     string     `json:"video_id"`
	VideoURL    string     `json:"video_url,omitempty"`
	Title       string     `json:"title"`
	Channel     string     `json:"channel"`
	Account     string     `json:"account"`
	Duration    float64    `json:"duration"`
	ViewCount   int64      `json:"view_count"`
	LikeCount   int64      `json:"like_count"`
	UploadDate  *time.Time `json:"upload_date,omitempty"`
	Hashtags    []string   `json:"hashtags"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`

	Transcript *TranscriptSection `json:"transcript,omitempty"`
	OCR        *OCRSection        `json:"ocr,omitempty"`
	Detections *DetectionSection  `json:"detections,omitempty"`
}

type TranscriptSection struct {
	Language      string     `json:"language"`
	LanguageName  string     `json:"language_name"`
	Text          string     `json:"text"`
	SegmentCount  int        `json:"segment_count"`
	TranscribedAt *time.Time `json:"transcribed_at,omitempty"`
}

type OCRSection struct {
	TextOnVideo    string     `json:"text_on_video"`
	TotalFrames    int32      `json:"total_frames"`
	FramesWithText int32      `json:"frames_with_text"`
	FrameCount     int        `json:"frame_count"`
	ProcessedAt    *time.Time `json:"processed_at,omitempty"`
}

type DetectionSection struct {
	Model                string     `json:"model"`
	ConfidenceThreshold  float64    `json:"confidence_threshold"`
	TotalFramesProcessed int32      `json:"total_frames_processed"`
	TotalDetections      int32      `json:"total_detections"`
	Objects              []string   `json:"detected_objects"`
	Products             []string   `json:"detected_products"`
	FrameCount           int        `json:"frame_count"`
	ProcessedAt          *time.Time `json:"processed_at,omitempty"`
}

// Build reads everything aggregated for videoID. Stages never aggregated
// come back as nil sections.
func Build(ctx context.Context, q Reader, videoID string) (*Report, error) {
	v, err := q.GetVideoByVideoID(ctx, videoID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get video: %w", err)
	}

	r := &Report{
		VideoID:    v.VideoID,
		Title:      v.Title,
		Channel:    v.Channel,
		Account:    v.Account,
		Duration:   v.Duration,
		ViewCount:  v.ViewCount,
		LikeCount:  v.LikeCount,
		UploadDate: db.NilDatePtr(v.UploadDate),
		UpdatedAt:  db.NilTimePtr(v.UpdatedAt),
	}
	if v.VideoUrl != nil {
		r.VideoURL = *v.VideoUrl
	}

	if r.Hashtags, err = q.ListHashtagsByVideo(ctx, v.ID); err != nil {
		return nil, fmt.Errorf("list hashtags: %w", err)
	}
	r.Hashtags = nonNil(r.Hashtags)
	if r.Transcript, err = buildTranscript(ctx, q, v.ID); err != nil {
		return nil, err
	}
	if r.OCR, err = buildOCR(ctx, q, v.ID); err != nil {
		return nil, err
	}
	if r.Detections, err = buildDetections(ctx, q, v.ID); err != nil {
		return nil, err
	}
	return r, nil
}

func buildTranscript(ctx context.Context, q Reader, vid pgtype.UUID) (*TranscriptSection, error) {
	t, err := q.GetTranscriptByVideo(ctx, vid)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get transcript: %w", err)
	}
	segs, err := q.ListTranscriptSegments(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("list transcript segments: %w", err)
	}
	return &TranscriptSection{
		Language:      t.Language,
		LanguageName:  language.DisplayName(t.Language),
		Text:          strings.TrimSpace(t.Text),
		SegmentCount:  len(segs),
		TranscribedAt: db.NilTimePtr(t.TranscribedAt),
	}, nil
}

func buildOCR(ctx context.Context, q Reader, vid pgtype.UUID) (*OCRSection, error) {
	o, err := q.GetOcrResultByVideo(ctx, vid)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ocr result: %w", err)
	}
	frames, err := q.ListOcrFrames(ctx, o.ID)
	if err != nil {
		return nil, fmt.Errorf("list ocr frames: %w", err)
	}
	return &OCRSection{
		TextOnVideo:    TextOnVideo(o.AllText),
		TotalFrames:    o.TotalFrames,
		FramesWithText: o.FramesWithText,
		FrameCount:     len(frames),
		ProcessedAt:    db.NilTimePtr(o.ProcessedAt),
	}, nil
}

func buildDetections(ctx context.Context, q Reader, vid pgtype.UUID) (*DetectionSection, error) {
	d, err := q.GetObjectDetectionByVideo(ctx, vid)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get object detection: %w", err)
	}
	products, err := q.ListDetectedProducts(ctx, d.ID)
	if err != nil {
		return nil, fmt.Errorf("list detected products: %w", err)
	}
	classes, err := q.ListDetectedClassNames(ctx, d.ID)
	if err != nil {
		return nil, fmt.Errorf("list detected classes: %w", err)
	}
	frames, err := q.ListDetectionFrames(ctx, d.ID)
	if err != nil {
		return nil, fmt.Errorf("list detection frames: %w", err)
	}
	return &DetectionSection{
		Model:                d.Model,
		ConfidenceThreshold:  d.ConfidenceThreshold,
		TotalFramesProcessed: d.TotalFramesProcessed,
		TotalDetections:      d.TotalDetections,
		Objects:              nonNil(classes),
		Products:             nonNil(products),
		FrameCount:           len(frames),
		ProcessedAt:          db.NilTimePtr(d.ProcessedAt),
	}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var ocrLinePrefix = regexp.MustCompile(`^\[\d+(?:\.\d+)?s\]\s*`)

// TextOnVideo flattens the OCR stage's timestamped text ("[1.00s] SALE")
// into one line with the timestamps removed.
func TextOnVideo(allText string) string {
	var parts []string
	for _, line := range strings.Split(allText, "\n") {
		line = strings.TrimSpace(ocrLinePrefix.ReplaceAllString(strings.TrimSpace(line), ""))
		if line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}
