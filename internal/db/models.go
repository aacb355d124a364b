package db

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type AggregateJobStatus string

const (
	AggregateJobStatusQueued     AggregateJobStatus = "queued"
	AggregateJobStatusProcessing AggregateJobStatus = "processing"
	AggregateJobStatusSucceeded  AggregateJobStatus = "succeeded"
	AggregateJobStatusFailed     AggregateJobStatus = "failed"
)

type AggregateJob struct {
	ID         pgtype.UUID        `json:"id"`
	VideoID    string             `json:"video_id"`
	Status     AggregateJobStatus `json:"status"`
	Attempts   int32              `json:"attempts"`
	LastError  *string            `json:"last_error"`
	RunAfter   pgtype.Timestamptz `json:"run_after"`
	StartedAt  pgtype.Timestamptz `json:"started_at"`
	FinishedAt pgtype.Timestamptz `json:"finished_at"`
	CreatedAt  pgtype.Timestamptz `json:"created_at"`
	UpdatedAt  pgtype.Timestamptz `json:"updated_at"`
}

type Video struct {
	ID              pgtype.UUID        `json:"id"`
	VideoID         string             `json:"video_id"`
	VideoUrl        *string            `json:"video_url"`
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	Channel         string             `json:"channel"`
	ChannelID       *string            `json:"channel_id"`
	Account         string             `json:"account"`
	Duration        float64            `json:"duration"`
	ViewCount       int64              `json:"view_count"`
	LikeCount       int64              `json:"like_count"`
	UploadDate      pgtype.Date        `json:"upload_date"`
	ThumbnailUrl    *string            `json:"thumbnail_url"`
	VideoObject     *string            `json:"video_object"`
	MetadataObject  *string            `json:"metadata_object"`
	ThumbnailObject *string            `json:"thumbnail_object"`
	Extractor       *string            `json:"extractor"`
	WebpageUrl      *string            `json:"webpage_url"`
	DownloadedAt    pgtype.Timestamptz `json:"downloaded_at"`
	CreatedAt       pgtype.Timestamptz `json:"created_at"`
	UpdatedAt       pgtype.Timestamptz `json:"updated_at"`
}

type Hashtag struct {
	ID        pgtype.UUID        `json:"id"`
	VideoID   pgtype.UUID        `json:"video_id"`
	Hashtag   string             `json:"hashtag"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}

type Transcript struct {
	ID                   pgtype.UUID        `json:"id"`
	VideoID              pgtype.UUID        `json:"video_id"`
	Text                 string             `json:"text"`
	Language             string             `json:"language"`
	TranscriptJsonObject string             `json:"transcript_json_object"`
	TranscriptTxtObject  string             `json:"transcript_txt_object"`
	TranscribedAt        pgtype.Timestamptz `json:"transcribed_at"`
	CreatedAt            pgtype.Timestamptz `json:"created_at"`
	UpdatedAt            pgtype.Timestamptz `json:"updated_at"`
}

type TranscriptSegment struct {
	ID           pgtype.UUID `json:"id"`
	TranscriptID pgtype.UUID `json:"transcript_id"`
	Seq          int32       `json:"seq"`
	Start        float64     `json:"start"`
	End          float64     `json:"end"`
	Text         string      `json:"text"`
}

type OcrResult struct {
	ID             pgtype.UUID        `json:"id"`
	VideoID        pgtype.UUID        `json:"video_id"`
	AllText        string             `json:"all_text"`
	TotalFrames    int32              `json:"total_frames"`
	FramesWithText int32              `json:"frames_with_text"`
	OcrJsonObject  string             `json:"ocr_json_object"`
	OcrTxtObject   string             `json:"ocr_txt_object"`
	ProcessedAt    pgtype.Timestamptz `json:"processed_at"`
	CreatedAt      pgtype.Timestamptz `json:"created_at"`
	UpdatedAt      pgtype.Timestamptz `json:"updated_at"`
}

type OcrFrame struct {
	ID          pgtype.UUID `json:"id"`
	OcrResultID pgtype.UUID `json:"ocr_result_id"`
	Seq         int32       `json:"seq"`
	FrameNumber int32       `json:"frame_number"`
	Timestamp   float64     `json:"timestamp"`
	Filename    string      `json:"filename"`
	FrameObject string      `json:"frame_object"`
	OcrText     string      `json:"ocr_text"`
}

type ObjectDetection struct {
	ID                   pgtype.UUID        `json:"id"`
	VideoID              pgtype.UUID        `json:"video_id"`
	TotalFramesProcessed int32              `json:"total_frames_processed"`
	TotalDetections      int32              `json:"total_detections"`
	Model                string             `json:"model"`
	ConfidenceThreshold  float64            `json:"confidence_threshold"`
	DetectionsJsonObject string             `json:"detections_json_object"`
	ProcessedAt          pgtype.Timestamptz `json:"processed_at"`
	CreatedAt            pgtype.Timestamptz `json:"created_at"`
	UpdatedAt            pgtype.Timestamptz `json:"updated_at"`
}

type DetectedProduct struct {
	ID          pgtype.UUID `json:"id"`
	DetectionID pgtype.UUID `json:"detection_id"`
	Seq         int32       `json:"seq"`
	ProductName string      `json:"product_name"`
}

type DetectionFrame struct {
	ID              pgtype.UUID `json:"id"`
	DetectionID     pgtype.UUID `json:"detection_id"`
	Seq             int32       `json:"seq"`
	FrameNumber     int32       `json:"frame_number"`
	Timestamp       float64     `json:"timestamp"`
	TotalDetections int32       `json:"total_detections"`
	FrameObject     string      `json:"frame_object"`
}

type DetectionDetail struct {
	ID               pgtype.UUID `json:"id"`
	DetectionFrameID pgtype.UUID `json:"detection_frame_id"`
	Seq              int32       `json:"seq"`
	ClassID          int32       `json:"class_id"`
	ClassName        string      `json:"class_name"`
	Confidence       float64     `json:"confidence"`
	BboxX1           float64     `json:"bbox_x1"`
	BboxY1           float64     `json:"bbox_y1"`
	BboxX2           float64     `json:"bbox_x2"`
	BboxY2           float64     `json:"bbox_y2"`
}
