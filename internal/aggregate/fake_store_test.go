package aggregate

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/jackc/pgx/v5/pgtype"

	"thirdcoast.systems/vidscan/internal/db"
)

var errInjected = errors.New("injected: connection reset by peer")

// fakeTables mirrors the relational schema closely enough to check what a
// run leaves behind. Child collections are keyed by their parent id.
type fakeTables struct {
	Videos      map[string]db.Video
	Hashtags    map[pgtype.UUID][]db.Hashtag
	Transcripts map[pgtype.UUID]db.Transcript
	Segments    map[pgtype.UUID][]db.TranscriptSegment
	OcrResults  map[pgtype.UUID]db.OcrResult
	OcrFrames   map[pgtype.UUID][]db.OcrFrame
	Detections  map[pgtype.UUID]db.ObjectDetection
	Products    map[pgtype.UUID][]db.DetectedProduct
	Frames      map[pgtype.UUID][]db.DetectionFrame
	Details     map[pgtype.UUID][]db.DetectionDetail
}

func newFakeTables() fakeTables {
	return fakeTables{
		Videos:      map[string]db.Video{},
		Hashtags:    map[pgtype.UUID][]db.Hashtag{},
		Transcripts: map[pgtype.UUID]db.Transcript{},
		Segments:    map[pgtype.UUID][]db.TranscriptSegment{},
		OcrResults:  map[pgtype.UUID]db.OcrResult{},
		OcrFrames:   map[pgtype.UUID][]db.OcrFrame{},
		Detections:  map[pgtype.UUID]db.ObjectDetection{},
		Products:    map[pgtype.UUID][]db.DetectedProduct{},
		Frames:      map[pgtype.UUID][]db.DetectionFrame{},
		Details:     map[pgtype.UUID][]db.DetectionDetail{},
	}
}

func cloneSlices[K comparable, V any](m map[K][]V) map[K][]V {
	out := make(map[K][]V, len(m))
	for k, v := range m {
		out[k] = slices.Clone(v)
	}
	return out
}

func (t fakeTables) clone() fakeTables {
	return fakeTables{
		Videos:      maps.Clone(t.Videos),
		Hashtags:    cloneSlices(t.Hashtags),
		Transcripts: maps.Clone(t.Transcripts),
		Segments:    cloneSlices(t.Segments),
		OcrResults:  maps.Clone(t.OcrResults),
		OcrFrames:   cloneSlices(t.OcrFrames),
		Detections:  maps.Clone(t.Detections),
		Products:    cloneSlices(t.Products),
		Frames:      cloneSlices(t.Frames),
		Details:     cloneSlices(t.Details),
	}
}

// fakeStore is an in-memory Store. Transactions are serialized and roll
// back to a snapshot on error. failOn makes the named Tx method fail once
// it has been called failAfter times within a transaction.
type fakeStore struct {
	mu        sync.Mutex
	tables    fakeTables
	failOn    string
	failAfter int
	locks     []int64
	commits   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{tables: newFakeTables()}
}

func (s *fakeStore) snapshot() fakeTables {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tables.clone()
}

func (s *fakeStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &fakeTx{store: s, t: s.tables.clone(), calls: map[string]int{}}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.tables = tx.t
	s.commits++
	return nil
}

type fakeTx struct {
	store *fakeStore
	t     fakeTables
	calls map[string]int
}

func (tx *fakeTx) check(ctx context.Context, method string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx.calls[method]++
	if tx.store.failOn == method && tx.calls[method] > tx.store.failAfter {
		return errInjected
	}
	return nil
}

func (tx *fakeTx) AdvisoryXactLock(ctx context.Context, key int64) error {
	if err := tx.check(ctx, "AdvisoryXactLock"); err != nil {
		return err
	}
	tx.store.locks = append(tx.store.locks, key)
	return nil
}

func (tx *fakeTx) UpsertVideo(ctx context.Context, arg *db.UpsertVideoParams) (pgtype.UUID, error) {
	if err := tx.check(ctx, "UpsertVideo"); err != nil {
		return pgtype.UUID{}, err
	}
	v, ok := tx.t.Videos[arg.VideoID]
	if !ok {
		v = db.Video{ID: arg.ID, VideoID: arg.VideoID}
	}
	v.Title = arg.Title
	v.Description = arg.Description
	v.Channel = arg.Channel
	v.Account = arg.Account
	v.Duration = arg.Duration
	v.ViewCount = arg.ViewCount
	v.LikeCount = arg.LikeCount
	if v.VideoUrl == nil {
		v.VideoUrl = arg.VideoUrl
	}
	if v.ChannelID == nil {
		v.ChannelID = arg.ChannelID
	}
	if !v.UploadDate.Valid {
		v.UploadDate = arg.UploadDate
	}
	if v.ThumbnailUrl == nil {
		v.ThumbnailUrl = arg.ThumbnailUrl
	}
	if v.VideoObject == nil {
		v.VideoObject = arg.VideoObject
	}
	if v.MetadataObject == nil {
		v.MetadataObject = arg.MetadataObject
	}
	if v.ThumbnailObject == nil {
		v.ThumbnailObject = arg.ThumbnailObject
	}
	if v.Extractor == nil {
		v.Extractor = arg.Extractor
	}
	if v.WebpageUrl == nil {
		v.WebpageUrl = arg.WebpageUrl
	}
	if !v.DownloadedAt.Valid {
		v.DownloadedAt = arg.DownloadedAt
	}
	tx.t.Videos[arg.VideoID] = v
	return v.ID, nil
}

func (tx *fakeTx) EnsureVideo(ctx context.Context, arg *db.EnsureVideoParams) (pgtype.UUID, error) {
	if err := tx.check(ctx, "EnsureVideo"); err != nil {
		return pgtype.UUID{}, err
	}
	v, ok := tx.t.Videos[arg.VideoID]
	if !ok {
		v = db.Video{ID: arg.ID, VideoID: arg.VideoID}
		tx.t.Videos[arg.VideoID] = v
	}
	return v.ID, nil
}

func (tx *fakeTx) InsertHashtag(ctx context.Context, arg *db.InsertHashtagParams) error {
	if err := tx.check(ctx, "InsertHashtag"); err != nil {
		return err
	}
	for _, h := range tx.t.Hashtags[arg.VideoID] {
		if h.Hashtag == arg.Hashtag {
			return nil
		}
	}
	tx.t.Hashtags[arg.VideoID] = append(tx.t.Hashtags[arg.VideoID], db.Hashtag{ID: arg.ID, VideoID: arg.VideoID, Hashtag: arg.Hashtag})
	return nil
}

func (tx *fakeTx) UpsertTranscript(ctx context.Context, arg *db.UpsertTranscriptParams) (pgtype.UUID, error) {
	if err := tx.check(ctx, "UpsertTranscript"); err != nil {
		return pgtype.UUID{}, err
	}
	id := arg.ID
	if prev, ok := tx.t.Transcripts[arg.VideoID]; ok {
		id = prev.ID
	}
	tx.t.Transcripts[arg.VideoID] = db.Transcript{
		ID:                   id,
		VideoID:              arg.VideoID,
		Text:                 arg.Text,
		Language:             arg.Language,
		TranscriptJsonObject: arg.TranscriptJsonObject,
		TranscriptTxtObject:  arg.TranscriptTxtObject,
		TranscribedAt:        arg.TranscribedAt,
	}
	return id, nil
}

func (tx *fakeTx) DeleteTranscriptSegments(ctx context.Context, transcriptID pgtype.UUID) error {
	if err := tx.check(ctx, "DeleteTranscriptSegments"); err != nil {
		return err
	}
	delete(tx.t.Segments, transcriptID)
	return nil
}

func (tx *fakeTx) InsertTranscriptSegment(ctx context.Context, arg *db.InsertTranscriptSegmentParams) error {
	if err := tx.check(ctx, "InsertTranscriptSegment"); err != nil {
		return err
	}
	tx.t.Segments[arg.TranscriptID] = append(tx.t.Segments[arg.TranscriptID], db.TranscriptSegment{
		ID: arg.ID, TranscriptID: arg.TranscriptID, Seq: arg.Seq, Start: arg.Start, End: arg.End, Text: arg.Text,
	})
	return nil
}

func (tx *fakeTx) UpsertOcrResult(ctx context.Context, arg *db.UpsertOcrResultParams) (pgtype.UUID, error) {
	if err := tx.check(ctx, "UpsertOcrResult"); err != nil {
		return pgtype.UUID{}, err
	}
	id := arg.ID
	if prev, ok := tx.t.OcrResults[arg.VideoID]; ok {
		id = prev.ID
	}
	tx.t.OcrResults[arg.VideoID] = db.OcrResult{
		ID:             id,
		VideoID:        arg.VideoID,
		AllText:        arg.AllText,
		TotalFrames:    arg.TotalFrames,
		FramesWithText: arg.FramesWithText,
		OcrJsonObject:  arg.OcrJsonObject,
		OcrTxtObject:   arg.OcrTxtObject,
		ProcessedAt:    arg.ProcessedAt,
	}
	return id, nil
}

func (tx *fakeTx) DeleteOcrFrames(ctx context.Context, ocrResultID pgtype.UUID) error {
	if err := tx.check(ctx, "DeleteOcrFrames"); err != nil {
		return err
	}
	delete(tx.t.OcrFrames, ocrResultID)
	return nil
}

func (tx *fakeTx) InsertOcrFrame(ctx context.Context, arg *db.InsertOcrFrameParams) error {
	if err := tx.check(ctx, "InsertOcrFrame"); err != nil {
		return err
	}
	tx.t.OcrFrames[arg.OcrResultID] = append(tx.t.OcrFrames[arg.OcrResultID], db.OcrFrame{
		ID: arg.ID, OcrResultID: arg.OcrResultID, Seq: arg.Seq, FrameNumber: arg.FrameNumber,
		Timestamp: arg.Timestamp, Filename: arg.Filename, FrameObject: arg.FrameObject, OcrText: arg.OcrText,
	})
	return nil
}

func (tx *fakeTx) UpsertObjectDetection(ctx context.Context, arg *db.UpsertObjectDetectionParams) (pgtype.UUID, error) {
	if err := tx.check(ctx, "UpsertObjectDetection"); err != nil {
		return pgtype.UUID{}, err
	}
	id := arg.ID
	if prev, ok := tx.t.Detections[arg.VideoID]; ok {
		id = prev.ID
	}
	tx.t.Detections[arg.VideoID] = db.ObjectDetection{
		ID:                   id,
		VideoID:              arg.VideoID,
		TotalFramesProcessed: arg.TotalFramesProcessed,
		TotalDetections:      arg.TotalDetections,
		Model:                arg.Model,
		ConfidenceThreshold:  arg.ConfidenceThreshold,
		DetectionsJsonObject: arg.DetectionsJsonObject,
		ProcessedAt:          arg.ProcessedAt,
	}
	return id, nil
}

func (tx *fakeTx) DeleteDetectedProducts(ctx context.Context, detectionID pgtype.UUID) error {
	if err := tx.check(ctx, "DeleteDetectedProducts"); err != nil {
		return err
	}
	delete(tx.t.Products, detectionID)
	return nil
}

func (tx *fakeTx) InsertDetectedProduct(ctx context.Context, arg *db.InsertDetectedProductParams) error {
	if err := tx.check(ctx, "InsertDetectedProduct"); err != nil {
		return err
	}
	tx.t.Products[arg.DetectionID] = append(tx.t.Products[arg.DetectionID], db.DetectedProduct{
		ID: arg.ID, DetectionID: arg.DetectionID, Seq: arg.Seq, ProductName: arg.ProductName,
	})
	return nil
}

func (tx *fakeTx) DeleteDetectionFrames(ctx context.Context, detectionID pgtype.UUID) error {
	if err := tx.check(ctx, "DeleteDetectionFrames"); err != nil {
		return err
	}
	for _, f := range tx.t.Frames[detectionID] {
		delete(tx.t.Details, f.ID)
	}
	delete(tx.t.Frames, detectionID)
	return nil
}

func (tx *fakeTx) InsertDetectionFrame(ctx context.Context, arg *db.InsertDetectionFrameParams) (pgtype.UUID, error) {
	if err := tx.check(ctx, "InsertDetectionFrame"); err != nil {
		return pgtype.UUID{}, err
	}
	tx.t.Frames[arg.DetectionID] = append(tx.t.Frames[arg.DetectionID], db.DetectionFrame{
		ID: arg.ID, DetectionID: arg.DetectionID, Seq: arg.Seq, FrameNumber: arg.FrameNumber,
		Timestamp: arg.Timestamp, TotalDetections: arg.TotalDetections, FrameObject: arg.FrameObject,
	})
	return arg.ID, nil
}

func (tx *fakeTx) DeleteDetectionDetails(ctx context.Context, detectionFrameID pgtype.UUID) error {
	if err := tx.check(ctx, "DeleteDetectionDetails"); err != nil {
		return err
	}
	delete(tx.t.Details, detectionFrameID)
	return nil
}

func (tx *fakeTx) InsertDetectionDetail(ctx context.Context, arg *db.InsertDetectionDetailParams) error {
	if err := tx.check(ctx, "InsertDetectionDetail"); err != nil {
		return err
	}
	tx.t.Details[arg.DetectionFrameID] = append(tx.t.Details[arg.DetectionFrameID], db.DetectionDetail{
		ID: arg.ID, DetectionFrameID: arg.DetectionFrameID, Seq: arg.Seq, ClassID: arg.ClassID, ClassName: arg.ClassName,
		Confidence: arg.Confidence, BboxX1: arg.BboxX1, BboxY1: arg.BboxY1, BboxX2: arg.BboxX2, BboxY2: arg.BboxY2,
	})
	return nil
}
