package stage

import (
	"time"

	"thirdcoast.systems/vidscan/pkg/utils/language"
)

// Transcript is the normalized form of transcript.json.
type Transcript struct {
	Text          string
	Language      string
	TranscribedAt time.Time
	Segments      []Segment
}

type Segment struct {
	Start float64
	End   float64
	Text  string
}

func (*Transcript) Kind() Kind { return KindTranscript }

func normalizeTranscript(doc object, now time.Time) (*Transcript, error) {
	segs, err := doc.objects("segments")
	if err != nil {
		return nil, &ValidationError{Kind: KindTranscript, Field: "segments", Err: err}
	}

	t := &Transcript{
		Text:          doc.str("text"),
		Language:      language.Canonical(doc.str("language")),
		TranscribedAt: doc.timestamp("transcribed_at", now),
		Segments:      make([]Segment, 0, len(segs)),
	}
	for _, s := range segs {
		t.Segments = append(t.Segments, Segment{
			Start: s.f64("start"),
			End:   s.f64("end"),
			Text:  s.str("text"),
		})
	}
	return t, nil
}
