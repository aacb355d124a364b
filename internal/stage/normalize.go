package stage

import (
	"fmt"
	"time"
)

// Record is a normalized stage document: *Metadata, *Transcript, *OCR or
// *Detections.
type Record interface {
	Kind() Kind
}

// Normalize maps a raw stage document onto its typed record. Missing fields
// take defaults; only a document of the wrong shape fails, with a
// *ValidationError wrapping ErrStructure. now stands in for absent
// timestamps.
func Normalize(kind Kind, raw []byte, now time.Time) (Record, error) {
	doc, err := decodeObject(raw)
	if err != nil {
		return nil, &ValidationError{Kind: kind, Err: err}
	}

	var rec Record
	switch kind {
	case KindMetadata:
		rec, err = wrap(normalizeMetadata(doc, now))
	case KindTranscript:
		rec, err = wrap(normalizeTranscript(doc, now))
	case KindOCR:
		rec, err = wrap(normalizeOCR(doc, now))
	case KindDetections:
		rec, err = wrap(normalizeDetections(doc, now))
	default:
		return nil, fmt.Errorf("unknown stage %q", kind)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// wrap keeps a failed normalizer from leaking a typed nil into Record.
func wrap[T Record](r T, err error) (Record, error) {
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Records holds at most one normalized record per stage. A nil field means
// the stage contributes nothing to this run.
type Records struct {
	Metadata   *Metadata
	Transcript *Transcript
	OCR        *OCR
	Detections *Detections
}

// Set stores r in its slot.
func (rs *Records) Set(r Record) {
	switch v := r.(type) {
	case *Metadata:
		rs.Metadata = v
	case *Transcript:
		rs.Transcript = v
	case *OCR:
		rs.OCR = v
	case *Detections:
		rs.Detections = v
	}
}

func (rs Records) Empty() bool {
	return rs.Metadata == nil && rs.Transcript == nil && rs.OCR == nil && rs.Detections == nil
}
