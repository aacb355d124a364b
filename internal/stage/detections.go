package stage

import (
	"fmt"
	"time"
)

// Detections is the normalized form of detections.json.
type Detections struct {
	TotalFramesProcessed int32
	TotalDetections      int32
	Model                string
	ConfidenceThreshold  float64
	ProcessedAt          time.Time
	Products             []string
	Frames               []DetectionFrame
}

type DetectionFrame struct {
	FrameNumber     int32
	Timestamp       float64
	TotalDetections int32
	Detections      []Detection
}

type Detection struct {
	ClassID    int32
	ClassName  string
	Confidence float64
	Box        BBox
}

type BBox struct {
	X1, Y1, X2, Y2 float64
}

func (*Detections) Kind() Kind { return KindDetections }

func normalizeDetections(doc object, now time.Time) (*Detections, error) {
	products, _, err := doc.stringList("detected_products")
	if err != nil {
		return nil, &ValidationError{Kind: KindDetections, Field: "detected_products", Err: err}
	}
	frames, err := doc.objects("frame_results")
	if err != nil {
		return nil, &ValidationError{Kind: KindDetections, Field: "frame_results", Err: err}
	}

	d := &Detections{
		TotalFramesProcessed: doc.i32("total_frames_processed"),
		TotalDetections:      doc.i32("total_detections"),
		Model:                doc.str("model"),
		ConfidenceThreshold:  doc.f64("confidence_threshold"),
		ProcessedAt:          doc.timestamp("processed_at", now),
		Products:             products,
		Frames:               make([]DetectionFrame, 0, len(frames)),
	}
	if d.Products == nil {
		d.Products = []string{}
	}

	for i, f := range frames {
		dets, err := f.objects("detections")
		if err != nil {
			return nil, &ValidationError{Kind: KindDetections, Field: fmt.Sprintf("frame_results[%d].detections", i), Err: err}
		}
		frame := DetectionFrame{
			FrameNumber:     f.i32("frame_number"),
			Timestamp:       f.f64("timestamp"),
			TotalDetections: f.i32("total_detections"),
			Detections:      make([]Detection, 0, len(dets)),
		}
		for j, det := range dets {
			box, err := det.child("bbox")
			if err != nil {
				return nil, &ValidationError{Kind: KindDetections, Field: fmt.Sprintf("frame_results[%d].detections[%d].bbox", i, j), Err: err}
			}
			frame.Detections = append(frame.Detections, Detection{
				ClassID:    det.i32("class_id"),
				ClassName:  det.str("class_name"),
				Confidence: det.f64("confidence"),
				Box: BBox{
					X1: box.f64("x1"),
					Y1: box.f64("y1"),
					X2: box.f64("x2"),
					Y2: box.f64("y2"),
				},
			})
		}
		d.Frames = append(d.Frames, frame)
	}
	return d, nil
}
