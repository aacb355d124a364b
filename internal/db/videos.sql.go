package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const upsertVideo = `
INSERT INTO videos (
    id, video_id, video_url, title, description, channel, channel_id, account,
    duration, view_count, like_count, upload_date, thumbnail_url,
    video_object, metadata_object, thumbnail_object, extractor, webpage_url, downloaded_at
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19
)
ON CONFLICT (video_id) DO UPDATE SET
    title            = EXCLUDED.title,
    description      = EXCLUDED.description,
    channel          = EXCLUDED.channel,
    account          = EXCLUDED.account,
    duration         = EXCLUDED.duration,
    view_count       = EXCLUDED.view_count,
    like_count       = EXCLUDED.like_count,
    video_url        = COALESCE(videos.video_url, EXCLUDED.video_url),
    channel_id       = COALESCE(videos.channel_id, EXCLUDED.channel_id),
    upload_date      = COALESCE(videos.upload_date, EXCLUDED.upload_date),
    thumbnail_url    = COALESCE(videos.thumbnail_url, EXCLUDED.thumbnail_url),
    video_object     = COALESCE(videos.video_object, EXCLUDED.video_object),
    metadata_object  = COALESCE(videos.metadata_object, EXCLUDED.metadata_object),
    thumbnail_object = COALESCE(videos.thumbnail_object, EXCLUDED.thumbnail_object),
    extractor        = COALESCE(videos.extractor, EXCLUDED.extractor),
    webpage_url      = COALESCE(videos.webpage_url, EXCLUDED.webpage_url),
    downloaded_at    = COALESCE(videos.downloaded_at, EXCLUDED.downloaded_at),
    updated_at       = now()
RETURNING id
`

type UpsertVideoParams struct {
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
}

// UpsertVideo inserts the video or refreshes its descriptive columns. Identity
// columns (urls, object paths, extractor) are only filled while still NULL, so
// the first run that knows them wins. ID is only used on insert; the returned
// id is the stored surrogate key.
func (q *Queries) UpsertVideo(ctx context.Context, arg *UpsertVideoParams) (pgtype.UUID, error) {
	row := q.db.QueryRow(ctx, upsertVideo,
		arg.ID,
		arg.VideoID,
		arg.VideoUrl,
		arg.Title,
		arg.Description,
		arg.Channel,
		arg.ChannelID,
		arg.Account,
		arg.Duration,
		arg.ViewCount,
		arg.LikeCount,
		arg.UploadDate,
		arg.ThumbnailUrl,
		arg.VideoObject,
		arg.MetadataObject,
		arg.ThumbnailObject,
		arg.Extractor,
		arg.WebpageUrl,
		arg.DownloadedAt,
	)
	var id pgtype.UUID
	err := row.Scan(&id)
	return id, err
}

// The no-op update makes the conflicting row visible to RETURNING and takes
// its row lock, same as UpsertVideo.
const ensureVideo = `
INSERT INTO videos (id, video_id)
VALUES ($1, $2)
ON CONFLICT (video_id) DO UPDATE SET video_id = EXCLUDED.video_id
RETURNING id
`

type EnsureVideoParams struct {
	ID      pgtype.UUID `json:"id"`
	VideoID string      `json:"video_id"`
}

func (q *Queries) EnsureVideo(ctx context.Context, arg *EnsureVideoParams) (pgtype.UUID, error) {
	row := q.db.QueryRow(ctx, ensureVideo, arg.ID, arg.VideoID)
	var id pgtype.UUID
	err := row.Scan(&id)
	return id, err
}

const insertHashtag = `
INSERT INTO hashtags (id, video_id, hashtag)
VALUES ($1, $2, $3)
ON CONFLICT (video_id, hashtag) DO NOTHING
`

type InsertHashtagParams struct {
	ID      pgtype.UUID `json:"id"`
	VideoID pgtype.UUID `json:"video_id"`
	Hashtag string      `json:"hashtag"`
}

func (q *Queries) InsertHashtag(ctx context.Context, arg *InsertHashtagParams) error {
	_, err := q.db.Exec(ctx, insertHashtag, arg.ID, arg.VideoID, arg.Hashtag)
	return err
}

const getVideoByVideoID = `
SELECT id, video_id, video_url, title, description, channel, channel_id, account,
       duration, view_count, like_count, upload_date, thumbnail_url,
       video_object, metadata_object, thumbnail_object, extractor, webpage_url,
       downloaded_at, created_at, updated_at
FROM videos
WHERE video_id = $1
`

func (q *Queries) GetVideoByVideoID(ctx context.Context, videoID string) (*Video, error) {
	row := q.db.QueryRow(ctx, getVideoByVideoID, videoID)
	var i Video
	err := row.Scan(
		&i.ID,
		&i.VideoID,
		&i.VideoUrl,
		&i.Title,
		&i.Description,
		&i.Channel,
		&i.ChannelID,
		&i.Account,
		&i.Duration,
		&i.ViewCount,
		&i.LikeCount,
		&i.UploadDate,
		&i.ThumbnailUrl,
		&i.VideoObject,
		&i.MetadataObject,
		&i.ThumbnailObject,
		&i.Extractor,
		&i.WebpageUrl,
		&i.DownloadedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return &i, err
}

const listHashtagsByVideo = `
SELECT hashtag
FROM hashtags
WHERE video_id = $1
ORDER BY hashtag
`

func (q *Queries) ListHashtagsByVideo(ctx context.Context, videoID pgtype.UUID) ([]string, error) {
	rows, err := q.db.Query(ctx, listHashtagsByVideo, videoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []string{}
	for rows.Next() {
		var hashtag string
		if err := rows.Scan(&hashtag); err != nil {
			return nil, err
		}
		items = append(items, hashtag)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
