package ocr

import (
	"context"
	"errors"
	"testing"
)

type fakeEngine struct {
	byMode map[PageSegMode]string
	errs   map[PageSegMode]error
	calls  []Request
}

func (f *fakeEngine) Recognize(_ context.Context, _ []byte, req Request) (string, error) {
	f.calls = append(f.calls, req)
	if err := f.errs[req.Mode]; err != nil {
		return "", err
	}
	return f.byMode[req.Mode], nil
}

func TestRecognize_firstConfigWins(t *testing.T) {
	eng := &fakeEngine{byMode: map[PageSegMode]string{PSMSingleBlock: "Invoice 42\n"}}
	e := NewExtractor(eng, "", nil)
	got, err := e.Recognize(context.Background(), []byte("img"), ImageChain)
	if err != nil {
		t.Fatal(err)
	}
	if got != "Invoice 42\n" {
		t.Errorf("got %q", got)
	}
	if len(eng.calls) != 1 || eng.calls[0].Language != "eng" {
		t.Errorf("calls = %+v", eng.calls)
	}
}

func TestRecognize_fallbackOrder(t *testing.T) {
	eng := &fakeEngine{byMode: map[PageSegMode]string{PSMSingleBlock: "  ", PSMSparseText: "", PSMAuto: "found"}}
	e := NewExtractor(eng, "deu", nil)
	got, err := e.Recognize(context.Background(), nil, ImageChain)
	if err != nil {
		t.Fatal(err)
	}
	if got != "found" {
		t.Errorf("got %q", got)
	}
	want := []PageSegMode{PSMSingleBlock, PSMSparseText, PSMAuto}
	if len(eng.calls) != len(want) {
		t.Fatalf("calls = %+v", eng.calls)
	}
	for i, m := range want {
		if eng.calls[i].Mode != m || eng.calls[i].Language != "deu" {
			t.Errorf("call %d = %+v, want mode %d", i, eng.calls[i], m)
		}
	}
}

func TestRecognize_allEmpty(t *testing.T) {
	eng := &fakeEngine{}
	got, err := NewExtractor(eng, "", nil).Recognize(context.Background(), nil, PageChain)
	if err != nil || got != "" {
		t.Errorf("got %q, %v", got, err)
	}
	if len(eng.calls) != 2 {
		t.Errorf("PageChain should try 2 configs, tried %d", len(eng.calls))
	}
}

func TestRecognize_allFailed(t *testing.T) {
	boom := errors.New("tesseract missing")
	eng := &fakeEngine{errs: map[PageSegMode]error{PSMSingleBlock: boom, PSMSparseText: boom}}
	_, err := NewExtractor(eng, "", nil).Recognize(context.Background(), nil, PageChain)
	if !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
}

func TestRecognize_deterministic(t *testing.T) {
	eng := &fakeEngine{byMode: map[PageSegMode]string{PSMSparseText: "same"}}
	e := NewExtractor(eng, "", nil)
	a, _ := e.Recognize(context.Background(), []byte{1, 2}, ImageChain)
	b, _ := e.Recognize(context.Background(), []byte{1, 2}, ImageChain)
	if a != b {
		t.Errorf("%q != %q", a, b)
	}
}
