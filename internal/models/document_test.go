package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestPreview_DataURI(t *testing.T) {
	p := Preview{MIME: "image/png", Data: []byte("abc")}
	if got := p.DataURI(); got != "data:image/png;base64,YWJj" {
		t.Errorf("DataURI() = %q", got)
	}
	if p.Kind() != "image" {
		t.Errorf("Kind() = %q", p.Kind())
	}
}

func TestNewPreview_empty(t *testing.T) {
	if NewPreview("image/png", nil) != nil {
		t.Error("empty data should give nil preview")
	}
}

func TestRecord_MarshalJSON_mediaKey(t *testing.T) {
	tests := []struct {
		mime string
		key  string
	}{
		{"image/png", `"image":"data:image/png;base64,`},
		{"audio/mpeg", `"audio":"data:audio/mpeg;base64,`},
		{"video/mp4", `"video":"data:video/mp4;base64,`},
	}
	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			rec := Record{Page: 1, Text: "hi", Source: SourceOCR, Media: &Preview{MIME: tt.mime, Data: []byte{1}}}
			b, err := json.Marshal(rec)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(string(b), tt.key) {
				t.Errorf("json %s missing %s", b, tt.key)
			}
		})
	}
}

func TestRecord_MarshalJSON_frames(t *testing.T) {
	rec := Record{
		Page:            1,
		Text:            "t",
		Source:          SourceVideo,
		Frames:          []Preview{{MIME: "image/jpeg", Data: []byte{1}}, {MIME: "image/jpeg", Data: []byte{2}}},
		FrameTimestamps: []float64{0, 5},
	}
	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	var back Record
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if len(back.Frames) != 2 || back.FrameTimestamps[1] != 5 {
		t.Errorf("frames not preserved: %+v", back)
	}
	if !strings.Contains(string(b), `"thumbnail"`) {
		t.Errorf("expected thumbnail in %s", b)
	}
	if strings.Contains(string(b), `"video"`) {
		t.Errorf("no video preview expected in %s", b)
	}
}

func TestResult_Append(t *testing.T) {
	var res Result
	res.Append(Record{Text: "a", Source: SourceDigital})
	res.Append(Record{Page: 9, Text: "b", Source: SourceNone})
	for i, rec := range res {
		if rec.Page != i+1 {
			t.Errorf("record %d has page %d", i, rec.Page)
		}
	}
}

func TestSource_Valid(t *testing.T) {
	if !SourceSpeech.Valid() || Source("other").Valid() {
		t.Error("Valid() mismatch")
	}
}
