package aggregate

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"

	"thirdcoast.systems/vidscan/internal/db"
)

// Tx is the write surface the engine uses inside one transaction.
type Tx interface {
	AdvisoryXactLock(ctx context.Context, key int64) error

	UpsertVideo(ctx context.Context, arg *db.UpsertVideoParams) (pgtype.UUID, error)
	EnsureVideo(ctx context.Context, arg *db.EnsureVideoParams) (pgtype.UUID, error)
	InsertHashtag(ctx context.Context, arg *db.InsertHashtagParams) error

	UpsertTranscript(ctx context.Context, arg *db.UpsertTranscriptParams) (pgtype.UUID, error)
	DeleteTranscriptSegments(ctx context.Context, transcriptID pgtype.UUID) error
	InsertTranscriptSegment(ctx context.Context, arg *db.InsertTranscriptSegmentParams) error

	UpsertOcrResult(ctx context.Context, arg *db.UpsertOcrResultParams) (pgtype.UUID, error)
	DeleteOcrFrames(ctx context.Context, ocrResultID pgtype.UUID) error
	InsertOcrFrame(ctx context.Context, arg *db.InsertOcrFrameParams) error

	UpsertObjectDetection(ctx context.Context, arg *db.UpsertObjectDetectionParams) (pgtype.UUID, error)
	DeleteDetectedProducts(ctx context.Context, detectionID pgtype.UUID) error
	InsertDetectedProduct(ctx context.Context, arg *db.InsertDetectedProductParams) error
	DeleteDetectionFrames(ctx context.Context, detectionID pgtype.UUID) error
	InsertDetectionFrame(ctx context.Context, arg *db.InsertDetectionFrameParams) (pgtype.UUID, error)
	DeleteDetectionDetails(ctx context.Context, detectionFrameID pgtype.UUID) error
	InsertDetectionDetail(ctx context.Context, arg *db.InsertDetectionDetailParams) error
}

var _ Tx = (*db.Queries)(nil)

// Store runs fn in a transaction: committed when fn returns nil, rolled back
// otherwise.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// PostgresStore is the Store backed by the application database.
type PostgresStore struct {
	conn *db.DatabaseConnection
}

func NewPostgresStore(conn *db.DatabaseConnection) *PostgresStore {
	return &PostgresStore{conn: conn}
}

func (s *PostgresStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return s.conn.InTx(ctx, func(q *db.Queries) error {
		return fn(q)
	})
}
