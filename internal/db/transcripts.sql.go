package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const upsertTranscript = `
INSERT INTO transcripts (id, video_id, text, language, transcript_json_object, transcript_txt_object, transcribed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (video_id) DO UPDATE SET
    text                   = EXCLUDED.text,
    language               = EXCLUDED.language,
    transcript_json_object = EXCLUDED.transcript_json_object,
    transcript_txt_object  = EXCLUDED.transcript_txt_object,
    transcribed_at         = EXCLUDED.transcribed_at,
    updated_at             = now()
RETURNING id
`

type UpsertTranscriptParams struct {
	ID                   pgtype.UUID        `json:"id"`
	VideoID              pgtype.UUID        `json:"video_id"`
	Text                 string             `json:"text"`
	Language             string             `json:"language"`
	TranscriptJsonObject string             `json:"transcript_json_object"`
	TranscriptTxtObject  string             `json:"transcript_txt_object"`
	TranscribedAt        pgtype.Timestamptz `json:"transcribed_at"`
}

func (q *Queries) UpsertTranscript(ctx context.Context, arg *UpsertTranscriptParams) (pgtype.UUID, error) {
	row := q.db.QueryRow(ctx, upsertTranscript,
		arg.ID,
		arg.VideoID,
		arg.Text,
		arg.Language,
		arg.TranscriptJsonObject,
		arg.TranscriptTxtObject,
		arg.TranscribedAt,
	)
	var id pgtype.UUID
	err := row.Scan(&id)
	return id, err
}

const deleteTranscriptSegments = `
DELETE FROM transcript_segments WHERE transcript_id = $1
`

func (q *Queries) DeleteTranscriptSegments(ctx context.Context, transcriptID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, deleteTranscriptSegments, transcriptID)
	return err
}

const insertTranscriptSegment = `
INSERT INTO transcript_segments (id, transcript_id, seq, start, "end", text)
VALUES ($1, $2, $3, $4, $5, $6)
`

type InsertTranscriptSegmentParams struct {
	ID           pgtype.UUID `json:"id"`
	TranscriptID pgtype.UUID `json:"transcript_id"`
	Seq          int32       `json:"seq"`
	Start        float64     `json:"start"`
	End          float64     `json:"end"`
	Text         string      `json:"text"`
}

func (q *Queries) InsertTranscriptSegment(ctx context.Context, arg *InsertTranscriptSegmentParams) error {
	_, err := q.db.Exec(ctx, insertTranscriptSegment,
		arg.ID,
		arg.TranscriptID,
		arg.Seq,
		arg.Start,
		arg.End,
		arg.Text,
	)
	return err
}

const getTranscriptByVideo = `
SELECT id, video_id, text, language, transcript_json_object, transcript_txt_object, transcribed_at, created_at, updated_at
FROM transcripts
WHERE video_id = $1
`

func (q *Queries) GetTranscriptByVideo(ctx context.Context, videoID pgtype.UUID) (*Transcript, error) {
	row := q.db.QueryRow(ctx, getTranscriptByVideo, videoID)
	var i Transcript
	err := row.Scan(
		&i.ID,
		&i.VideoID,
		&i.Text,
		&i.Language,
		&i.TranscriptJsonObject,
		&i.TranscriptTxtObject,
		&i.TranscribedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return &i, err
}

const listTranscriptSegments = `
SELECT id, transcript_id, seq, start, "end", text
FROM transcript_segments
WHERE transcript_id = $1
ORDER BY seq
`

func (q *Queries) ListTranscriptSegments(ctx context.Context, transcriptID pgtype.UUID) ([]*TranscriptSegment, error) {
	rows, err := q.db.Query(ctx, listTranscriptSegments, transcriptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []*TranscriptSegment{}
	for rows.Next() {
		var i TranscriptSegment
		if err := rows.Scan(
			&i.ID,
			&i.TranscriptID,
			&i.Seq,
			&i.Start,
			&i.End,
			&i.Text,
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
