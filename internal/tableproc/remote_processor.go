package tableproc

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/anime-shed/table-cropper-go/internal/imaging"
	"github.com/anime-shed/table-cropper-go/pkg/models"
)

// RemoteProcessor delegates detection to an external table-cropper service.
//
// The service receives the image as multipart field "image" and answers with
//
//	{"candidates": {"<name>": "<base64 image bytes>", ...}}
type RemoteProcessor struct {
	client   *resty.Client
	endpoint string
}

type remoteResponse struct {
	Candidates map[string]string `json:"candidates"`
}

// NewRemoteProcessor creates a processor posting to endpoint, bounded by timeout
func NewRemoteProcessor(endpoint string, timeout time.Duration) *RemoteProcessor {
	return &RemoteProcessor{
		client: resty.New().
			SetTimeout(timeout).
			SetHeader("Accept", "application/json").
			SetHeader("User-Agent", "Table-Cropper/1.0"),
		endpoint: endpoint,
	}
}

func (p *RemoteProcessor) Name() string { return "remote" }

// DetectAndCorrect implements Processor
func (p *RemoteProcessor) DetectAndCorrect(ctx context.Context, data []byte, filename string) (models.CandidateSet, error) {
	res, err := p.client.R().
		SetContext(ctx).
		SetFileReader("image", SafeInputName(filename), bytes.NewReader(data)).
		Post(p.endpoint)
	if err != nil {
		return nil, fmt.Errorf("table processor request failed: %w", err)
	}
	if !res.IsSuccess() {
		return nil, fmt.Errorf("table processor returned HTTP %d: %s", res.StatusCode(), res.String())
	}

	var body remoteResponse
	if err := json.Unmarshal(res.Body(), &body); err != nil {
		return nil, fmt.Errorf("invalid table processor response: %w", err)
	}

	// Decode in a stable order so error messages don't depend on map iteration
	names := make([]string, 0, len(body.Candidates))
	for name := range body.Candidates {
		names = append(names, name)
	}
	sort.Strings(names)

	candidates := make(models.CandidateSet, len(names))
	for _, name := range names {
		raw, err := base64.StdEncoding.DecodeString(body.Candidates[name])
		if err != nil {
			return nil, fmt.Errorf("candidate %s is not valid base64: %w", name, err)
		}
		img, _, err := imaging.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("candidate %s: %w", name, err)
		}
		candidates[name] = img
	}
	return candidates, nil
}
