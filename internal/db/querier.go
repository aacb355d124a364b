package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type Querier interface {
	AdvisoryXactLock(ctx context.Context, key int64) error
	DeleteDetectedProducts(ctx context.Context, detectionID pgtype.UUID) error
	DeleteDetectionDetails(ctx context.Context, detectionFrameID pgtype.UUID) error
	DeleteDetectionFrames(ctx context.Context, detectionID pgtype.UUID) error
	DeleteOcrFrames(ctx context.Context, ocrResultID pgtype.UUID) error
	DeleteTranscriptSegments(ctx context.Context, transcriptID pgtype.UUID) error
	DequeueAggregateJob(ctx context.Context) (*AggregateJob, error)
	EnqueueAggregateJob(ctx context.Context, arg *EnqueueAggregateJobParams) (pgtype.UUID, error)
	EnsureVideo(ctx context.Context, arg *EnsureVideoParams) (pgtype.UUID, error)
	GetAggregateJob(ctx context.Context, id pgtype.UUID) (*AggregateJob, error)
	GetObjectDetectionByVideo(ctx context.Context, videoID pgtype.UUID) (*ObjectDetection, error)
	GetOcrResultByVideo(ctx context.Context, videoID pgtype.UUID) (*OcrResult, error)
	GetTranscriptByVideo(ctx context.Context, videoID pgtype.UUID) (*Transcript, error)
	GetVideoByVideoID(ctx context.Context, videoID string) (*Video, error)
	InsertDetectedProduct(ctx context.Context, arg *InsertDetectedProductParams) error
	InsertDetectionDetail(ctx context.Context, arg *InsertDetectionDetailParams) error
	InsertDetectionFrame(ctx context.Context, arg *InsertDetectionFrameParams) (pgtype.UUID, error)
	InsertHashtag(ctx context.Context, arg *InsertHashtagParams) error
	InsertOcrFrame(ctx context.Context, arg *InsertOcrFrameParams) error
	InsertTranscriptSegment(ctx context.Context, arg *InsertTranscriptSegmentParams) error
	ListDetectedClassNames(ctx context.Context, detectionID pgtype.UUID) ([]string, error)
	ListDetectedProducts(ctx context.Context, detectionID pgtype.UUID) ([]string, error)
	ListDetectionDetails(ctx context.Context, detectionFrameID pgtype.UUID) ([]*DetectionDetail, error)
	ListDetectionFrames(ctx context.Context, detectionID pgtype.UUID) ([]*DetectionFrame, error)
	ListHashtagsByVideo(ctx context.Context, videoID pgtype.UUID) ([]string, error)
	ListOcrFrames(ctx context.Context, ocrResultID pgtype.UUID) ([]*OcrFrame, error)
	ListTranscriptSegments(ctx context.Context, transcriptID pgtype.UUID) ([]*TranscriptSegment, error)
	ListenAggregateJobs(ctx context.Context) error
	MarkAggregateJobFailed(ctx context.Context, arg *MarkAggregateJobFailedParams) error
	MarkAggregateJobSucceeded(ctx context.Context, id pgtype.UUID) error
	RecoverStuckAggregateJobs(ctx context.Context) (int64, error)
	UpsertObjectDetection(ctx context.Context, arg *UpsertObjectDetectionParams) (pgtype.UUID, error)
	UpsertOcrResult(ctx context.Context, arg *UpsertOcrResultParams) (pgtype.UUID, error)
	UpsertTranscript(ctx context.Context, arg *UpsertTranscriptParams) (pgtype.UUID, error)
	UpsertVideo(ctx context.Context, arg *UpsertVideoParams) (pgtype.UUID, error)
}

var _ Querier = (*Queries)(nil)
