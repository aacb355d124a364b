package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"thirdcoast.systems/vidscan/pkg/utils/format"
)

const textPreview = 280

// Render writes r as a plain-text summary for terminals.
func Render(w io.Writer, r *Report) error {
	b := &strings.Builder{}

	fmt.Fprintf(b, "Video %s\n", r.VideoID)
	if r.Title != "" {
		fmt.Fprintf(b, "  Title:     %s\n", r.Title)
	}
	if r.Channel != "" || r.Account != "" {
		fmt.Fprintf(b, "  Channel:   %s %s\n", r.Channel, r.Account)
	}
	fmt.Fprintf(b, "  Duration:  %s\n", format.Duration(r.Duration))
	fmt.Fprintf(b, "  Views:     %s (%s likes)\n", humanize.Comma(r.ViewCount), humanize.Comma(r.LikeCount))
	if r.UploadDate != nil {
		fmt.Fprintf(b, "  Uploaded:  %s\n", r.UploadDate.Format("2006-01-02"))
	}
	if len(r.Hashtags) > 0 {
		fmt.Fprintf(b, "  Hashtags:  %s\n", strings.Join(r.Hashtags, " "))
	}

	b.WriteString("\nSpoken content\n")
	if t := r.Transcript; t != nil {
		fmt.Fprintf(b, "  Language:  %s (%s)\n", t.LanguageName, t.Language)
		fmt.Fprintf(b, "  Segments:  %s\n", humanize.Comma(int64(t.SegmentCount)))
		fmt.Fprintf(b, "  Text:      %s\n", orNone(format.Truncate(t.Text, textPreview)))
	} else {
		b.WriteString("  not aggregated\n")
	}

	b.WriteString("\nText on video\n")
	if o := r.OCR; o != nil {
		fmt.Fprintf(b, "  Frames:    %s with text of %s sampled\n", humanize.Comma(int64(o.FramesWithText)), humanize.Comma(int64(o.TotalFrames)))
		fmt.Fprintf(b, "  Text:      %s\n", orNone(format.Truncate(o.TextOnVideo, textPreview)))
	} else {
		b.WriteString("  not aggregated\n")
	}

	b.WriteString("\nDetected objects\n")
	if d := r.Detections; d != nil {
		fmt.Fprintf(b, "  Model:     %s (threshold %s)\n", orNone(d.Model), humanize.FtoaWithDigits(d.ConfidenceThreshold, 2))
		fmt.Fprintf(b, "  Found:     %s detections in %s frames\n", humanize.Comma(int64(d.TotalDetections)), humanize.Comma(int64(d.TotalFramesProcessed)))
		fmt.Fprintf(b, "  Objects:   %s\n", orNone(strings.Join(d.Objects, ", ")))
		fmt.Fprintf(b, "  Products:  %s\n", orNone(strings.Join(d.Products, ", ")))
	} else {
		b.WriteString("  not aggregated\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "none"
	}
	return s
}
