package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const upsertObjectDetection = `
INSERT INTO object_detections (
    id, video_id, total_frames_processed, total_detections, model,
    confidence_threshold, detections_json_object, processed_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (video_id) DO UPDATE SET
    total_frames_processed = EXCLUDED.total_frames_processed,
    total_detections       = EXCLUDED.total_detections,
    model                  = EXCLUDED.model,
    confidence_threshold   = EXCLUDED.confidence_threshold,
    detections_json_object = EXCLUDED.detections_json_object,
    processed_at           = EXCLUDED.processed_at,
    updated_at             = now()
RETURNING id
`

type UpsertObjectDetectionParams struct {
	ID                   pgtype.UUID        `json:"id"`
	VideoID              pgtype.UUID        `json:"video_id"`
	TotalFramesProcessed int32              `json:"total_frames_processed"`
	TotalDetections      int32              `json:"total_detections"`
	Model                string             `json:"model"`
	ConfidenceThreshold  float64            `json:"confidence_threshold"`
	DetectionsJsonObject string             `json:"detections_json_object"`
	ProcessedAt          pgtype.Timestamptz `json:"processed_at"`
}

func (q *Queries) UpsertObjectDetection(ctx context.Context, arg *UpsertObjectDetectionParams) (pgtype.UUID, error) {
	row := q.db.QueryRow(ctx, upsertObjectDetection,
		arg.ID,
		arg.VideoID,
		arg.TotalFramesProcessed,
		arg.TotalDetections,
		arg.Model,
		arg.ConfidenceThreshold,
		arg.DetectionsJsonObject,
		arg.ProcessedAt,
	)
	var id pgtype.UUID
	err := row.Scan(&id)
	return id, err
}

const deleteDetectedProducts = `
DELETE FROM detected_products WHERE detection_id = $1
`

func (q *Queries) DeleteDetectedProducts(ctx context.Context, detectionID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, deleteDetectedProducts, detectionID)
	return err
}

const insertDetectedProduct = `
INSERT INTO detected_products (id, detection_id, seq, product_name)
VALUES ($1, $2, $3, $4)
`

type InsertDetectedProductParams struct {
	ID          pgtype.UUID `json:"id"`
	DetectionID pgtype.UUID `json:"detection_id"`
	Seq         int32       `json:"seq"`
	ProductName string      `json:"product_name"`
}

func (q *Queries) InsertDetectedProduct(ctx context.Context, arg *InsertDetectedProductParams) error {
	_, err := q.db.Exec(ctx, insertDetectedProduct, arg.ID, arg.DetectionID, arg.Seq, arg.ProductName)
	return err
}

// Details go with their frames through ON DELETE CASCADE.
const deleteDetectionFrames = `
DELETE FROM detection_frames WHERE detection_id = $1
`

func (q *Queries) DeleteDetectionFrames(ctx context.Context, detectionID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, deleteDetectionFrames, detectionID)
	return err
}

const insertDetectionFrame = `
INSERT INTO detection_frames (id, detection_id, seq, frame_number, "timestamp", total_detections, frame_object)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id
`

type InsertDetectionFrameParams struct {
	ID              pgtype.UUID `json:"id"`
	DetectionID     pgtype.UUID `json:"detection_id"`
	Seq             int32       `json:"seq"`
	FrameNumber     int32       `json:"frame_number"`
	Timestamp       float64     `json:"timestamp"`
	TotalDetections int32       `json:"total_detections"`
	FrameObject     string      `json:"frame_object"`
}

func (q *Queries) InsertDetectionFrame(ctx context.Context, arg *InsertDetectionFrameParams) (pgtype.UUID, error) {
	row := q.db.QueryRow(ctx, insertDetectionFrame,
		arg.ID,
		arg.DetectionID,
		arg.Seq,
		arg.FrameNumber,
		arg.Timestamp,
		arg.TotalDetections,
		arg.FrameObject,
	)
	var id pgtype.UUID
	err := row.Scan(&id)
	return id, err
}

const deleteDetectionDetails = `
DELETE FROM detection_details WHERE detection_frame_id = $1
`

func (q *Queries) DeleteDetectionDetails(ctx context.Context, detectionFrameID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, deleteDetectionDetails, detectionFrameID)
	return err
}

const insertDetectionDetail = `
INSERT INTO detection_details (
    id, detection_frame_id, seq, class_id, class_name, confidence,
    bbox_x1, bbox_y1, bbox_x2, bbox_y2
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

type InsertDetectionDetailParams struct {
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

func (q *Queries) InsertDetectionDetail(ctx context.Context, arg *InsertDetectionDetailParams) error {
	_, err := q.db.Exec(ctx, insertDetectionDetail,
		arg.ID,
		arg.DetectionFrameID,
		arg.Seq,
		arg.ClassID,
		arg.ClassName,
		arg.Confidence,
		arg.BboxX1,
		arg.BboxY1,
		arg.BboxX2,
		arg.BboxY2,
	)
	return err
}

const getObjectDetectionByVideo = `
SELECT id, video_id, total_frames_processed, total_detections, model, confidence_threshold,
       detections_json_object, processed_at, created_at, updated_at
FROM object_detections
WHERE video_id = $1
`

func (q *Queries) GetObjectDetectionByVideo(ctx context.Context, videoID pgtype.UUID) (*ObjectDetection, error) {
	row := q.db.QueryRow(ctx, getObjectDetectionByVideo, videoID)
	var i ObjectDetection
	err := row.Scan(
		&i.ID,
		&i.VideoID,
		&i.TotalFramesProcessed,
		&i.TotalDetections,
		&i.Model,
		&i.ConfidenceThreshold,
		&i.DetectionsJsonObject,
		&i.ProcessedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return &i, err
}

const listDetectedProducts = `
SELECT product_name
FROM detected_products
WHERE detection_id = $1
ORDER BY seq
`

func (q *Queries) ListDetectedProducts(ctx context.Context, detectionID pgtype.UUID) ([]string, error) {
	rows, err := q.db.Query(ctx, listDetectedProducts, detectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		items = append(items, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listDetectionFrames = `
SELECT id, detection_id, seq, frame_number, "timestamp", total_detections, frame_object
FROM detection_frames
WHERE detection_id = $1
ORDER BY seq
`

func (q *Queries) ListDetectionFrames(ctx context.Context, detectionID pgtype.UUID) ([]*DetectionFrame, error) {
	rows, err := q.db.Query(ctx, listDetectionFrames, detectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []*DetectionFrame{}
	for rows.Next() {
		var i DetectionFrame
		if err := rows.Scan(
			&i.ID,
			&i.DetectionID,
			&i.Seq,
			&i.FrameNumber,
			&i.Timestamp,
			&i.TotalDetections,
			&i.FrameObject,
		); err != nil {
			return nil, err
		}
		items = append(items, &i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listDetectionDetails = `
SELECT id, detection_frame_id, seq, class_id, class_name, confidence, bbox_x1, bbox_y1, bbox_x2, bbox_y2
FROM detection_details
WHERE detection_frame_id = $1
ORDER BY seq
`

func (q *Queries) ListDetectionDetails(ctx context.Context, detectionFrameID pgtype.UUID) ([]*DetectionDetail, error) {
	rows, err := q.db.Query(ctx, listDetectionDetails, detectionFrameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []*DetectionDetail{}
	for rows.Next() {
		var i DetectionDetail
		if err := rows.Scan(
			&i.ID,
			&i.DetectionFrameID,
			&i.Seq,
			&i.ClassID,
			&i.ClassName,
			&i.Confidence,
			&i.BboxX1,
			&i.BboxY1,
			&i.BboxX2,
			&i.BboxY2,
		); err != nil {
			return nil, err
		}
		items = append(items, &i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listDetectedClassNames = `
SELECT DISTINCT dd.class_name
FROM detection_details dd
JOIN detection_frames df ON df.id = dd.detection_frame_id
WHERE df.detection_id = $1 AND dd.class_name <> ''
ORDER BY dd.class_name
`

func (q *Queries) ListDetectedClassNames(ctx context.Context, detectionID pgtype.UUID) ([]string, error) {
	rows, err := q.db.Query(ctx, listDetectedClassNames, detectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		items = append(items, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
