package report

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/dustin/go-humanize"

	"thirdcoast.systems/vidscan/pkg/utils/format"
	"thirdcoast.systems/vidscan/pkg/utils/markdown"
)

// Markdown renders r as a markdown document. Every value taken from the
// stage documents is escaped.
func Markdown(r *Report) string {
	b := &strings.Builder{}
	esc := markdown.Escape

	title := r.Title
	if strings.TrimSpace(title) == "" {
		title = "Video " + r.VideoID
	}
	fmt.Fprintf(b, "# %s\n\n", esc(title))

	b.WriteString("| Field | Value |\n|---|---|\n")
	fmt.Fprintf(b, "| Video ID | %s |\n", esc(r.VideoID))
	if r.Channel != "" || r.Account != "" {
		fmt.Fprintf(b, "| Channel | %s %s |\n", esc(r.Channel), esc(r.Account))
	}
	fmt.Fprintf(b, "| Duration | %s |\n", format.Duration(r.Duration))
	fmt.Fprintf(b, "| Views | %s |\n", humanize.Comma(r.ViewCount))
	fmt.Fprintf(b, "| Likes | %s |\n", humanize.Comma(r.LikeCount))
	if r.UploadDate != nil {
		fmt.Fprintf(b, "| Uploaded | %s |\n", r.UploadDate.Format("2006-01-02"))
	}
	if len(r.Hashtags) > 0 {
		fmt.Fprintf(b, "| Hashtags | %s |\n", esc(strings.Join(r.Hashtags, " ")))
	}

	b.WriteString("\n## Spoken content\n\n")
	if t := r.Transcript; t != nil {
		fmt.Fprintf(b, "*%s, %s segments*\n\n", esc(t.LanguageName), humanize.Comma(int64(t.SegmentCount)))
		fmt.Fprintf(b, "%s\n", orNone(esc(t.Text)))
	} else {
		b.WriteString("Not aggregated.\n")
	}

	b.WriteString("\n## Text on video\n\n")
	if o := r.OCR; o != nil {
		fmt.Fprintf(b, "*%s of %s sampled frames carry text*\n\n", humanize.Comma(int64(o.FramesWithText)), humanize.Comma(int64(o.TotalFrames)))
		fmt.Fprintf(b, "%s\n", orNone(esc(o.TextOnVideo)))
	} else {
		b.WriteString("Not aggregated.\n")
	}

	b.WriteString("\n## Detected objects\n\n")
	if d := r.Detections; d != nil {
		fmt.Fprintf(b, "*%s detections in %s frames, model %s at threshold %s*\n\n",
			humanize.Comma(int64(d.TotalDetections)), humanize.Comma(int64(d.TotalFramesProcessed)),
			esc(orNone(d.Model)), humanize.FtoaWithDigits(d.ConfidenceThreshold, 2))
		writeList(b, "Objects", d.Objects)
		writeList(b, "Products", d.Products)
	} else {
		b.WriteString("Not aggregated.\n")
	}

	return b.String()
}

func writeList(b *strings.Builder, label string, items []string) {
	fmt.Fprintf(b, "**%s:**", label)
	if len(items) == 0 {
		b.WriteString(" none\n\n")
		return
	}
	b.WriteString("\n\n")
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", markdown.Escape(it))
	}
	b.WriteString("\n")
}

// HTML renders r as a sanitized HTML fragment.
func HTML(r *Report) template.HTML {
	return markdown.Render(Markdown(r))
}
