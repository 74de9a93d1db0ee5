package models

import "encoding/json"

// Record is one segment of an extraction: a PDF page, or the single unit of an image,
// audio or video input.
type Record struct {
	Page   int
	Text   string
	Source Source
	// Media is the segment preview; its MIME family decides the JSON key (image, audio or video).
	Media *Preview
	// Frames are still images sampled from a video, FrameTimestamps their offsets in seconds.
	Frames          []Preview
	FrameTimestamps []float64
}

type recordJSON struct {
	Page            int       `json:"page"`
	Text            string    `json:"text"`
	Source          Source    `json:"source"`
	Image           *Preview  `json:"image,omitempty"`
	Audio           *Preview  `json:"audio,omitempty"`
	Video           *Preview  `json:"video,omitempty"`
	Frames          []Preview `json:"frames,omitempty"`
	FrameTimestamps []float64 `json:"frameTimestamps,omitempty"`
	Thumbnail       *Preview  `json:"thumbnail,omitempty"`
}

// MarshalJSON encodes the record in the shape the web client renders.
func (r Record) MarshalJSON() ([]byte, error) {
	out := recordJSON{
		Page:            r.Page,
		Text:            r.Text,
		Source:          r.Source,
		Frames:          r.Frames,
		FrameTimestamps: r.FrameTimestamps,
	}
	if r.Media != nil {
		switch r.Media.Kind() {
		case "audio":
			out.Audio = r.Media
		case "video":
			out.Video = r.Media
		default:
			out.Image = r.Media
		}
	}
	if len(r.Frames) > 0 {
		out.Thumbnail = &r.Frames[0]
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (r *Record) UnmarshalJSON(b []byte) error {
	var in recordJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*r = Record{
		Page:            in.Page,
		Text:            in.Text,
		Source:          in.Source,
		Frames:          in.Frames,
		FrameTimestamps: in.FrameTimestamps,
	}
	switch {
	case in.Image != nil:
		r.Media = in.Image
	case in.Audio != nil:
		r.Media = in.Audio
	case in.Video != nil:
		r.Media = in.Video
	}
	return nil
}

// Result is the ordered, append-only record list produced for one input.
type Result []Record

// Append adds a record numbered after the last one.
func (res *Result) Append(rec Record) {
	rec.Page = len(*res) + 1
	*res = append(*res, rec)
}

// Single returns a one-record result.
func Single(text string, source Source, media *Preview) Result {
	return Result{{Page: 1, Text: text, Source: source, Media: media}}
}
