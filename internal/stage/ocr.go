package stage

import "time"

// OCR is the normalized form of ocr.json.
type OCR struct {
	AllText        string
	TotalFrames    int32
	FramesWithText int32
	ProcessedAt    time.Time
	Frames         []OCRFrame
}

type OCRFrame struct {
	FrameNumber int32
	Timestamp   float64
	Filename    string
	FrameObject string
	Text        string
}

func (*OCR) Kind() Kind { return KindOCR }

func normalizeOCR(doc object, now time.Time) (*OCR, error) {
	frames, err := doc.objects("frame_results")
	if err != nil {
		return nil, &ValidationError{Kind: KindOCR, Field: "frame_results", Err: err}
	}

	o := &OCR{
		AllText:        doc.str("all_text"),
		TotalFrames:    doc.i32("total_frames"),
		FramesWithText: doc.i32("frames_with_text"),
		ProcessedAt:    doc.timestamp("processed_at", now),
		Frames:         make([]OCRFrame, 0, len(frames)),
	}
	for _, f := range frames {
		o.Frames = append(o.Frames, OCRFrame{
			FrameNumber: f.i32("frame_number"),
			Timestamp:   f.f64("timestamp"),
			Filename:    f.str("filename"),
			FrameObject: f.str("frame_object"),
			Text:        f.str("ocr_text"),
		})
	}
	return o, nil
}
