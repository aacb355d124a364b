package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const upsertOcrResult = `
INSERT INTO ocr_results (id, video_id, all_text, total_frames, frames_with_text, ocr_json_object, ocr_txt_object, processed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (video_id) DO UPDATE SET
    all_text         = EXCLUDED.all_text,
    total_frames     = EXCLUDED.total_frames,
    frames_with_text = EXCLUDED.frames_with_text,
    ocr_json_object  = EXCLUDED.ocr_json_object,
    ocr_txt_object   = EXCLUDED.ocr_txt_object,
    processed_at     = EXCLUDED.processed_at,
    updated_at       = now()
RETURNING id
`

type UpsertOcrResultParams struct {
	ID             pgtype.UUID        `json:"id"`
	VideoID        pgtype.UUID        `json:"video_id"`
	AllText        string             `json:"all_text"`
	TotalFrames    int32              `json:"total_frames"`
	FramesWithText int32              `json:"frames_with_text"`
	OcrJsonObject  string             `json:"ocr_json_object"`
	OcrTxtObject   string             `json:"ocr_txt_object"`
	ProcessedAt    pgtype.Timestamptz `json:"processed_at"`
}

func (q *Queries) UpsertOcrResult(ctx context.Context, arg *UpsertOcrResultParams) (pgtype.UUID, error) {
	row := q.db.QueryRow(ctx, upsertOcrResult,
		arg.ID,
		arg.VideoID,
		arg.AllText,
		arg.TotalFrames,
		arg.FramesWithText,
		arg.OcrJsonObject,
		arg.OcrTxtObject,
		arg.ProcessedAt,
	)
	var id pgtype.UUID
	err := row.Scan(&id)
	return id, err
}

const deleteOcrFrames = `
DELETE FROM ocr_frames WHERE ocr_result_id = $1
`

func (q *Queries) DeleteOcrFrames(ctx context.Context, ocrResultID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, deleteOcrFrames, ocrResultID)
	return err
}

const insertOcrFrame = `
INSERT INTO ocr_frames (id, ocr_result_id, seq, frame_number, "timestamp", filename, frame_object, ocr_text)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

type InsertOcrFrameParams struct {
	ID          pgtype.UUID `json:"id"`
	OcrResultID pgtype.UUID `json:"ocr_result_id"`
	Seq         int32       `json:"seq"`
	FrameNumber int32       `json:"frame_number"`
	Timestamp   float64     `json:"timestamp"`
	Filename    string      `json:"filename"`
	FrameObject string      `json:"frame_object"`
	OcrText     string      `json:"ocr_text"`
}

func (q *Queries) InsertOcrFrame(ctx context.Context, arg *InsertOcrFrameParams) error {
	_, err := q.db.Exec(ctx, insertOcrFrame,
		arg.ID,
		arg.OcrResultID,
		arg.Seq,
		arg.FrameNumber,
		arg.Timestamp,
		arg.Filename,
		arg.FrameObject,
		arg.OcrText,
	)
	return err
}

const getOcrResultByVideo = `
SELECT id, video_id, all_text, total_frames, frames_with_text, ocr_json_object, ocr_txt_object, processed_at, created_at, updated_at
FROM ocr_results
WHERE video_id = $1
`

func (q *Queries) GetOcrResultByVideo(ctx context.Context, videoID pgtype.UUID) (*OcrResult, error) {
	row := q.db.QueryRow(ctx, getOcrResultByVideo, videoID)
	var i OcrResult
	err := row.Scan(
		&i.ID,
		&i.VideoID,
		&i.AllText,
		&i.TotalFrames,
		&i.FramesWithText,
		&i.OcrJsonObject,
		&i.OcrTxtObject,
		&i.ProcessedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return &i, err
}

const listOcrFrames = `
SELECT id, ocr_result_id, seq, frame_number, "timestamp", filename, frame_object, ocr_text
FROM ocr_frames
WHERE ocr_result_id = $1
ORDER BY seq
`

func (q *Queries) ListOcrFrames(ctx context.Context, ocrResultID pgtype.UUID) ([]*OcrFrame, error) {
	rows, err := q.db.Query(ctx, listOcrFrames, ocrResultID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []*OcrFrame{}
	for rows.Next() {
		var i OcrFrame
		if err := rows.Scan(
			&i.ID,
			&i.OcrResultID,
			&i.Seq,
			&i.FrameNumber,
			&i.Timestamp,
			&i.Filename,
			&i.FrameObject,
			&i.OcrText,
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
