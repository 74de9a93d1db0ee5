package speech

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hyperjump/mediatext/pkg/utils"
	"go.uber.org/zap"
)

// DefaultEndpoint is the web speech API used when none is configured.
const DefaultEndpoint = "http://www.google.com/speech-api/v2/recognize"

// Recognizer turns audio into text with a single request.
type Recognizer interface {
	Recognize(ctx context.Context, audio *Audio) (string, error)
}

// HTTPRecognizer speaks the web speech API v2 protocol: raw L16 audio in, one JSON object
// per line out. It never retries.
type HTTPRecognizer struct {
	endpoint string
	apiKey   string
	language string
	client   *http.Client
	logger   *zap.Logger
}

// HTTPOptions configures an HTTPRecognizer.
type HTTPOptions struct {
	Endpoint string
	APIKey   string
	Language string // BCP-47, default "en-US"
	Client   *http.Client
}

// NewHTTPRecognizer returns a recognizer for opts.
func NewHTTPRecognizer(opts HTTPOptions, logger *zap.Logger) *HTTPRecognizer {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.Language == "" {
		opts.Language = "en-US"
	}
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	logger = utils.OrNop(logger)
	return &HTTPRecognizer{
		endpoint: opts.Endpoint,
		apiKey:   opts.APIKey,
		language: opts.Language,
		client:   opts.Client,
		logger:   logger,
	}
}

type recognizeResponse struct {
	Result []struct {
		Alternative []struct {
			Transcript string   `json:"transcript"`
			Confidence *float64 `json:"confidence"`
		} `json:"alternative"`
		Final bool `json:"final"`
	} `json:"result"`
}

// Recognize posts the samples and returns the most confident transcript.
func (r *HTTPRecognizer) Recognize(ctx context.Context, audio *Audio) (string, error) {
	u, err := url.Parse(r.endpoint)
	if err != nil {
		return "", &ServiceError{Reason: "invalid recognition endpoint", Err: err}
	}
	q := u.Query()
	q.Set("client", "chromium")
	q.Set("lang", r.language)
	q.Set("pFilter", "0")
	if r.apiKey != "" {
		q.Set("key", r.apiKey)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(encodeL16(audio.Samples)))
	if err != nil {
		return "", &ServiceError{Reason: "build recognition request", Err: err}
	}
	req.Header.Set("Content-Type", fmt.Sprintf("audio/l16; rate=%d", audio.SampleRate))

	resp, err := r.client.Do(req)
	if err != nil {
		// url.Error embeds the request URL, which carries the API key.
		cause := err
		var ue *url.Error
		if errors.As(err, &ue) {
			cause = ue.Err
		}
		return "", &ServiceError{Reason: "recognition connection failed: " + cause.Error(), Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		reason := "recognition request failed: " + resp.Status
		if msg := strings.TrimSpace(string(b)); msg != "" && !strings.HasPrefix(msg, "<") {
			reason += " (" + msg + ")"
		}
		return "", &ServiceError{Reason: reason}
	}
	text, err := parseTranscript(resp.Body)
	if err != nil {
		return "", err
	}
	r.logger.Debug("speech recognized", zap.Int("chars", len(text)), zap.Duration("audio", audio.Duration()))
	return text, nil
}

// parseTranscript picks the first non-empty result and, within it, the alternative with
// the highest confidence (or the first when none reports one).
func parseTranscript(body io.Reader) (string, error) {
	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 64<<10), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var rr recognizeResponse
		if err := json.Unmarshal([]byte(line), &rr); err != nil {
			return "", &ServiceError{Reason: "malformed recognition response", Err: err}
		}
		if len(rr.Result) == 0 {
			continue
		}
		alts := rr.Result[0].Alternative
		if len(alts) == 0 {
			return "", ErrUnintelligible
		}
		best := 0
		bestConf := -1.0
		for i, a := range alts {
			if a.Confidence != nil && *a.Confidence > bestConf {
				best, bestConf = i, *a.Confidence
			}
		}
		if utils.IsBlank(alts[best].Transcript) {
			return "", ErrUnintelligible
		}
		return alts[best].Transcript, nil
	}
	if err := sc.Err(); err != nil {
		return "", &ServiceError{Reason: "read recognition response", Err: err}
	}
	return "", ErrUnintelligible
}

func encodeL16(samples []int16) []byte {
	out := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.BigEndian.PutUint16(out[2*i:], uint16(s))
	}
	return out
}
