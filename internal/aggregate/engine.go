package aggregate

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"thirdcoast.systems/vidscan/internal/db"
	"thirdcoast.systems/vidscan/internal/stage"
	"thirdcoast.systems/vidscan/internal/videoid"
)

// lockScope namespaces the advisory locks taken by Apply.
const lockScope = "aggregate"

// PersistError is a failed write. The whole transaction it belonged to has
// been rolled back.
type PersistError struct {
	Step string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Step, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// Engine writes one video's normalized records in a single transaction.
type Engine struct {
	store Store
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// Apply upserts the video row and wholesale-replaces the child rows of every
// stage present in recs. Stages left nil keep whatever an earlier run wrote.
// Hashtags are only ever added. Runs for the same video are serialized by an
// advisory lock held until commit.
//
// Child rows get ids derived from their parent and position, so applying the
// same records twice leaves identical rows.
func (e *Engine) Apply(ctx context.Context, videoID string, recs stage.Records) error {
	if err := videoid.Validate(videoID); err != nil {
		return err
	}

	err := e.store.InTx(ctx, func(tx Tx) error {
		w := &writer{ctx: ctx, tx: tx, videoID: videoID}
		return w.apply(recs)
	})
	if err == nil {
		return nil
	}
	var perr *PersistError
	if errors.As(err, &perr) {
		return err
	}
	return &PersistError{Step: "transaction", Err: err}
}

type writer struct {
	ctx     context.Context
	tx      Tx
	videoID string
}

func (w *writer) apply(recs stage.Records) error {
	if err := w.tx.AdvisoryXactLock(w.ctx, videoid.LockKey(lockScope, w.videoID)); err != nil {
		return &PersistError{Step: "lock", Err: err}
	}

	vid, err := w.video(recs.Metadata)
	if err != nil {
		return err
	}
	if recs.Metadata != nil {
		if err := w.hashtags(vid, recs.Metadata.Hashtags); err != nil {
			return err
		}
	}
	if recs.Transcript != nil {
		if err := w.transcript(vid, recs.Transcript); err != nil {
			return err
		}
	}
	if recs.OCR != nil {
		if err := w.ocr(vid, recs.OCR); err != nil {
			return err
		}
	}
	if recs.Detections != nil {
		if err := w.detections(vid, recs.Detections); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) video(m *stage.Metadata) (pgtype.UUID, error) {
	id := db.PgUUID(videoid.VideoUUID(w.videoID))

	if m == nil {
		vid, err := w.tx.EnsureVideo(w.ctx, &db.EnsureVideoParams{ID: id, VideoID: w.videoID})
		if err != nil {
			return vid, &PersistError{Step: "video", Err: err}
		}
		return vid, nil
	}

	metadataObject := m.MetadataObject
	if metadataObject == "" {
		metadataObject = stage.KindMetadata.ObjectName(w.videoID)
	}

	vid, err := w.tx.UpsertVideo(w.ctx, &db.UpsertVideoParams{
		ID:              id,
		VideoID:         w.videoID,
		VideoUrl:        db.NullString(m.VideoURL),
		Title:           m.Title,
		Description:     m.Description,
		Channel:         m.Channel,
		ChannelID:       db.NullString(m.ChannelID),
		Account:         m.Account,
		Duration:        m.Duration,
		ViewCount:       m.ViewCount,
		LikeCount:       m.LikeCount,
		UploadDate:      db.Date(m.UploadDate),
		ThumbnailUrl:    db.NullString(m.ThumbnailURL),
		VideoObject:     db.NullString(m.VideoObject),
		MetadataObject:  db.NullString(metadataObject),
		ThumbnailObject: db.NullString(m.ThumbnailObject),
		Extractor:       db.NullString(m.Extractor),
		WebpageUrl:      db.NullString(m.WebpageURL),
		DownloadedAt:    db.Timestamptz(m.DownloadedAt),
	})
	if err != nil {
		return vid, &PersistError{Step: "video", Err: err}
	}
	return vid, nil
}

func (w *writer) hashtags(vid pgtype.UUID, tags []string) error {
	parent := db.GoogleUUID(vid)
	for _, tag := range tags {
		err := w.tx.InsertHashtag(w.ctx, &db.InsertHashtagParams{
			ID:      db.PgUUID(videoid.NamedChildUUID(parent, "hashtag", tag)),
			VideoID: vid,
			Hashtag: tag,
		})
		if err != nil {
			return &PersistError{Step: "hashtags", Err: err}
		}
	}
	return nil
}

func (w *writer) transcript(vid pgtype.UUID, t *stage.Transcript) error {
	tid, err := w.tx.UpsertTranscript(w.ctx, &db.UpsertTranscriptParams{
		ID:                   db.PgUUID(videoid.ChildUUID(db.GoogleUUID(vid), "transcript", 0)),
		VideoID:              vid,
		Text:                 t.Text,
		Language:             t.Language,
		TranscriptJsonObject: stage.KindTranscript.ObjectName(w.videoID),
		TranscriptTxtObject:  stage.KindTranscript.TextObjectName(w.videoID),
		TranscribedAt:        db.Timestamptz(t.TranscribedAt),
	})
	if err != nil {
		return &PersistError{Step: "transcript", Err: err}
	}

	if err := w.tx.DeleteTranscriptSegments(w.ctx, tid); err != nil {
		return &PersistError{Step: "transcript segments", Err: err}
	}
	parent := db.GoogleUUID(tid)
	for i, s := range t.Segments {
		err := w.tx.InsertTranscriptSegment(w.ctx, &db.InsertTranscriptSegmentParams{
			ID:           db.PgUUID(videoid.ChildUUID(parent, "segment", i)),
			TranscriptID: tid,
			Seq:          int32(i),
			Start:        s.Start,
			End:          s.End,
			Text:         s.Text,
		})
		if err != nil {
			return &PersistError{Step: "transcript segments", Err: err}
		}
	}
	return nil
}

func (w *writer) ocr(vid pgtype.UUID, o *stage.OCR) error {
	oid, err := w.tx.UpsertOcrResult(w.ctx, &db.UpsertOcrResultParams{
		ID:             db.PgUUID(videoid.ChildUUID(db.GoogleUUID(vid), "ocr", 0)),
		VideoID:        vid,
		AllText:        o.AllText,
		TotalFrames:    o.TotalFrames,
		FramesWithText: o.FramesWithText,
		OcrJsonObject:  stage.KindOCR.ObjectName(w.videoID),
		OcrTxtObject:   stage.KindOCR.TextObjectName(w.videoID),
		ProcessedAt:    db.Timestamptz(o.ProcessedAt),
	})
	if err != nil {
		return &PersistError{Step: "ocr", Err: err}
	}

	if err := w.tx.DeleteOcrFrames(w.ctx, oid); err != nil {
		return &PersistError{Step: "ocr frames", Err: err}
	}
	parent := db.GoogleUUID(oid)
	for i, f := range o.Frames {
		err := w.tx.InsertOcrFrame(w.ctx, &db.InsertOcrFrameParams{
			ID:          db.PgUUID(videoid.ChildUUID(parent, "ocr_frame", i)),
			OcrResultID: oid,
			Seq:         int32(i),
			FrameNumber: f.FrameNumber,
			Timestamp:   f.Timestamp,
			Filename:    f.Filename,
			FrameObject: f.FrameObject,
			OcrText:     f.Text,
		})
		if err != nil {
			return &PersistError{Step: "ocr frames", Err: err}
		}
	}
	return nil
}

// detections replaces the three-level cascade top-down: result, then
// products and frames, then each frame's details keyed off the frame id
// just inserted.
func (w *writer) detections(vid pgtype.UUID, d *stage.Detections) error {
	did, err := w.tx.UpsertObjectDetection(w.ctx, &db.UpsertObjectDetectionParams{
		ID:                   db.PgUUID(videoid.ChildUUID(db.GoogleUUID(vid), "detection", 0)),
		VideoID:              vid,
		TotalFramesProcessed: d.TotalFramesProcessed,
		TotalDetections:      d.TotalDetections,
		Model:                d.Model,
		ConfidenceThreshold:  d.ConfidenceThreshold,
		DetectionsJsonObject: stage.KindDetections.ObjectName(w.videoID),
		ProcessedAt:          db.Timestamptz(d.ProcessedAt),
	})
	if err != nil {
		return &PersistError{Step: "detections", Err: err}
	}
	parent := db.GoogleUUID(did)

	if err := w.tx.DeleteDetectedProducts(w.ctx, did); err != nil {
		return &PersistError{Step: "detected products", Err: err}
	}
	for i, name := range d.Products {
		err := w.tx.InsertDetectedProduct(w.ctx, &db.InsertDetectedProductParams{
			ID:          db.PgUUID(videoid.ChildUUID(parent, "product", i)),
			DetectionID: did,
			Seq:         int32(i),
			ProductName: name,
		})
		if err != nil {
			return &PersistError{Step: "detected products", Err: err}
		}
	}

	if err := w.tx.DeleteDetectionFrames(w.ctx, did); err != nil {
		return &PersistError{Step: "detection frames", Err: err}
	}
	for i, f := range d.Frames {
		fid, err := w.tx.InsertDetectionFrame(w.ctx, &db.InsertDetectionFrameParams{
			ID:              db.PgUUID(videoid.ChildUUID(parent, "detection_frame", i)),
			DetectionID:     did,
			Seq:             int32(i),
			FrameNumber:     f.FrameNumber,
			Timestamp:       f.Timestamp,
			TotalDetections: f.TotalDetections,
			FrameObject:     stage.DetectionFrameObject(w.videoID, f.FrameNumber, f.Timestamp),
		})
		if err != nil {
			return &PersistError{Step: "detection frames", Err: err}
		}
		if err := w.details(fid, f.Detections); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) details(fid pgtype.UUID, dets []stage.Detection) error {
	if err := w.tx.DeleteDetectionDetails(w.ctx, fid); err != nil {
		return &PersistError{Step: "detection details", Err: err}
	}
	parent := db.GoogleUUID(fid)
	for i, det := range dets {
		err := w.tx.InsertDetectionDetail(w.ctx, &db.InsertDetectionDetailParams{
			ID:               db.PgUUID(videoid.ChildUUID(parent, "detail", i)),
			DetectionFrameID: fid,
			Seq:              int32(i),
			ClassID:          det.ClassID,
			ClassName:        det.ClassName,
			Confidence:       det.Confidence,
			BboxX1:           det.Box.X1,
			BboxY1:           det.Box.Y1,
			BboxX2:           det.Box.X2,
			BboxY2:           det.Box.Y2,
		})
		if err != nil {
			return &PersistError{Step: "detection details", Err: err}
		}
	}
	return nil
}
