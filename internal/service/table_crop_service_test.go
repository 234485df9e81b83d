package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"testing"

	apperrors "github.com/anime-shed/table-cropper-go/internal/errors"
	"github.com/anime-shed/table-cropper-go/internal/imaging"
	"github.com/anime-shed/table-cropper-go/internal/observer"
	"github.com/anime-shed/table-cropper-go/internal/repository"
	"github.com/anime-shed/table-cropper-go/internal/strategy"
	"github.com/anime-shed/table-cropper-go/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProcessor struct {
	candidates models.CandidateSet
	err        error
	gotName    string
}

func (p *fakeProcessor) Name() string { return "fake" }

func (p *fakeProcessor) DetectAndCorrect(ctx context.Context, data []byte, filename string) (models.CandidateSet, error) {
	p.gotName = filename
	return p.candidates, p.err
}

type publishCall struct {
	filename string
	data     []byte
}

type fakePublisher struct {
	calls  []publishCall
	failOn int // 1-based call index that fails, 0 for never
}

func (p *fakePublisher) Name() string { return "tmpfiles.org" }

func (p *fakePublisher) Publish(ctx context.Context, filename string, data []byte) (models.PublishedAsset, error) {
	p.calls = append(p.calls, publishCall{filename: filename, data: data})
	if p.failOn == len(p.calls) {
		return models.PublishedAsset{}, apperrors.PublishFailed("tmpfiles.org", fmt.Errorf("Upload failed: quota exceeded"))
	}
	return models.PublishedAsset{
		Filename: filename,
		URL:      "https://tmpfiles.org/dl/" + fmt.Sprint(len(p.calls)) + "/" + filename,
	}, nil
}

type fakeFetcher struct {
	data []byte
	err  error
	got  string
}

func (f *fakeFetcher) FetchImage(ctx context.Context, url string) ([]byte, error) {
	f.got = url
	return f.data, f.err
}

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 7, A: 255})
		}
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func newService(proc *fakeProcessor, pub *fakePublisher, fetcher *fakeFetcher, metrics *observer.MetricsObserver) TableCropService {
	events := observer.NewEventPublisher()
	if metrics != nil {
		events.Subscribe(metrics)
	}
	if fetcher == nil {
		fetcher = &fakeFetcher{}
	}
	return NewTableCropService(
		repository.NewSourceRepository(fetcher, "tmpfiles.org"),
		proc,
		strategy.NewPrioritySelectionStrategy(nil),
		pub,
		events,
	)
}

func TestCropPreview_SelectsPriorityCandidateAndTrims(t *testing.T) {
	proc := &fakeProcessor{candidates: models.CandidateSet{
		models.CandidateOriginal:     gradient(10, 10),
		models.CandidateCroppedTable: gradient(100, 50),
	}}
	pub := &fakePublisher{}
	svc := newService(proc, pub, nil, nil)

	asset, err := svc.CropPreview(context.Background(), models.FileUpload([]byte("raw"), "scans/ledger.jpg", "image/jpeg"))
	require.NoError(t, err)

	assert.Equal(t, "ledger_preview.png", asset.Filename)
	assert.Equal(t, "scans/ledger.jpg", proc.gotName)
	require.Len(t, pub.calls, 1)

	out := decodePNG(t, pub.calls[0].data)
	// 100x50 loses 27 columns on the left and 6 rows at the bottom
	assert.Equal(t, image.Rect(27, 0, 100, 44), imaging.PreviewTrimRect(100, 50))
	assert.Equal(t, image.Rect(0, 0, 73, 44), out.Bounds())
	r, g, _, _ := out.At(0, 0).RGBA()
	assert.Equal(t, uint32(27), r>>8)
	assert.Equal(t, uint32(0), g>>8)
}

type recordingObserver struct {
	events []observer.PipelineEvent
}

func (o *recordingObserver) OnEvent(ctx context.Context, event observer.PipelineEvent) {
	o.events = append(o.events, event)
}

func (o *recordingObserver) GetObserverName() string { return "recording" }

func TestCropPreview_KeepsAlpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 100, 50))
	for y := 0; y < 50; y++ {
		for x := 0; x < 100; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: 200, G: 10, B: 10, A: 64})
		}
	}
	proc := &fakeProcessor{candidates: models.CandidateSet{models.CandidateOriginal: src}}
	pub := &fakePublisher{}
	svc := newService(proc, pub, nil, nil)

	_, err := svc.CropPreview(context.Background(), models.FileUpload([]byte("raw"), "overlay.png", "image/png"))
	require.NoError(t, err)
	require.Len(t, pub.calls, 1)

	out := decodePNG(t, pub.calls[0].data)
	assert.Equal(t, image.Rect(0, 0, 73, 44), out.Bounds())
	got := color.NRGBAModel.Convert(out.At(10, 10)).(color.NRGBA)
	assert.Equal(t, color.NRGBA{R: 200, G: 10, B: 10, A: 64}, got)
}

func TestCropPreview_CandidateSelectedEvent(t *testing.T) {
	proc := &fakeProcessor{candidates: models.CandidateSet{
		models.CandidateOriginal:     gradient(8, 8),
		models.CandidateCroppedTable: gradient(6, 6),
	}}
	recorder := &recordingObserver{}
	events := observer.NewEventPublisher()
	events.Subscribe(recorder)
	svc := NewTableCropService(
		repository.NewSourceRepository(&fakeFetcher{}, "tmpfiles.org"),
		proc,
		strategy.NewPrioritySelectionStrategy(nil),
		&fakePublisher{},
		events,
	)

	_, err := svc.CropPreview(context.Background(), models.FileUpload([]byte("raw"), "a.png", "image/png"))
	require.NoError(t, err)

	var selected *observer.PipelineEvent
	for i := range recorder.events {
		if recorder.events[i].EventType == observer.CandidateSelected {
			selected = &recorder.events[i]
		}
	}
	require.NotNil(t, selected)
	assert.Equal(t, models.CandidateCroppedTable, selected.Metadata["candidate"])
	assert.Equal(t, []string{models.CandidateCroppedTable, models.CandidateOriginal}, selected.Metadata["candidates"])
	assert.Equal(t, "priority_selection", selected.Metadata["strategy"])
	assert.Equal(t, "fake", selected.Metadata["processor"])
}

func TestCropPreview_DefaultsBaseName(t *testing.T) {
	proc := &fakeProcessor{candidates: models.CandidateSet{models.CandidateOriginal: gradient(4, 4)}}
	pub := &fakePublisher{}
	svc := newService(proc, pub, nil, nil)

	asset, err := svc.CropPreview(context.Background(), models.FileUpload([]byte("raw"), "", "image/png"))
	require.NoError(t, err)
	assert.Equal(t, "uploaded_preview.png", asset.Filename)
}

func TestCropPreview_ValidationErrorsPassThrough(t *testing.T) {
	svc := newService(&fakeProcessor{}, &fakePublisher{}, nil, nil)

	_, err := svc.CropPreview(context.Background(), models.FileUpload([]byte("raw"), "a.gif", "image/gif"))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperrors.GetStatusCode(err))
	assert.Equal(t, apperrors.UnsupportedMediaType().Message, apperrors.Detail(err))

	_, err = svc.CropPreview(context.Background(), models.FileUpload(nil, "a.png", "image/png"))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperrors.GetStatusCode(err))
	assert.Equal(t, "Empty file uploaded", apperrors.Detail(err))
}

func TestCropPreview_NoCandidate(t *testing.T) {
	proc := &fakeProcessor{candidates: models.CandidateSet{models.CandidateCroppedTable: nil}}
	svc := newService(proc, &fakePublisher{}, nil, nil)

	_, err := svc.CropPreview(context.Background(), models.FileUpload([]byte("raw"), "a.png", "image/png"))
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, apperrors.GetStatusCode(err))
	assert.Equal(t, "Processing failed to produce an output image", apperrors.Detail(err))
}

func TestCropPreview_ProcessorFailure(t *testing.T) {
	proc := &fakeProcessor{err: fmt.Errorf("table detector crashed")}
	pub := &fakePublisher{}
	svc := newService(proc, pub, nil, nil)

	_, err := svc.CropPreview(context.Background(), models.FileUpload([]byte("raw"), "a.png", "image/png"))
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, apperrors.GetStatusCode(err))
	assert.Equal(t, "Processing failed: table detector crashed", apperrors.Detail(err))
	assert.Empty(t, pub.calls)
}

func TestSplitHalves_FileRoundTrip(t *testing.T) {
	src := gradient(6, 5)
	pub := &fakePublisher{}
	metrics := observer.NewMetricsObserver()
	svc := newService(&fakeProcessor{}, pub, nil, metrics)

	top, bottom, err := svc.SplitHalves(context.Background(), models.FileUpload(pngBytes(t, src), "invoice.png", "image/png"))
	require.NoError(t, err)

	assert.Equal(t, "invoice_top_half.png", top.Filename)
	assert.Equal(t, "invoice_bottom_half.png", bottom.Filename)
	require.Len(t, pub.calls, 2)
	assert.Equal(t, top.Filename, pub.calls[0].filename, "top half is published first")

	topImg := decodePNG(t, pub.calls[0].data)
	bottomImg := decodePNG(t, pub.calls[1].data)
	assert.Equal(t, 2, topImg.Bounds().Dy())
	assert.Equal(t, 3, bottomImg.Bounds().Dy())

	for y := 0; y < 5; y++ {
		for x := 0; x < 6; x++ {
			var got color.Color
			if y < 2 {
				got = topImg.At(x, y)
			} else {
				got = bottomImg.At(x, y-2)
			}
			assert.Equal(t, color.RGBAModel.Convert(src.At(x, y)), color.RGBAModel.Convert(got), "pixel %d,%d", x, y)
		}
	}

	ops := metrics.GetMetrics()["operations"].(map[string]observer.OperationStats)
	assert.Equal(t, int64(1), ops[OperationSplitHalves].Succeeded)
	assert.Equal(t, int64(2), metrics.GetMetrics()["published_assets"])
}

func TestSplitHalves_FromURL(t *testing.T) {
	fetcher := &fakeFetcher{data: pngBytes(t, gradient(3, 4))}
	pub := &fakePublisher{}
	svc := newService(&fakeProcessor{}, pub, fetcher, nil)

	top, bottom, err := svc.SplitHalves(context.Background(), models.RemoteReference("http://tmpfiles.org/123/page.png?x=1"))
	require.NoError(t, err)

	assert.Equal(t, "https://tmpfiles.org/dl/123/page.png?x=1", fetcher.got)
	assert.Equal(t, "page_top_half.png", top.Filename)
	assert.Equal(t, "page_bottom_half.png", bottom.Filename)
}

func TestSplitHalves_DownloadFailureIsClientError(t *testing.T) {
	fetcher := &fakeFetcher{err: apperrors.NewDownloadError("Failed to download image: HTTP 404", nil)}
	pub := &fakePublisher{}
	svc := newService(&fakeProcessor{}, pub, fetcher, nil)

	_, _, err := svc.SplitHalves(context.Background(), models.RemoteReference("https://example.com/missing.png"))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperrors.GetStatusCode(err))
	assert.Equal(t, "Failed to download image: HTTP 404", apperrors.Detail(err))
	assert.Empty(t, pub.calls)
}

func TestSplitHalves_BottomPublishFailureReturnsNoAssets(t *testing.T) {
	pub := &fakePublisher{failOn: 2}
	metrics := observer.NewMetricsObserver()
	svc := newService(&fakeProcessor{}, pub, nil, metrics)

	top, bottom, err := svc.SplitHalves(context.Background(), models.FileUpload(pngBytes(t, gradient(4, 4)), "a.png", "image/png"))
	require.Error(t, err)

	assert.Equal(t, models.PublishedAsset{}, top)
	assert.Equal(t, models.PublishedAsset{}, bottom)
	assert.Equal(t, http.StatusInternalServerError, apperrors.GetStatusCode(err))
	assert.Equal(t, "Split failed: Failed to upload to tmpfiles.org: Upload failed: quota exceeded", apperrors.Detail(err))
	assert.Len(t, pub.calls, 2)

	snapshot := metrics.GetMetrics()
	assert.Equal(t, int64(1), snapshot["published_assets"])
	assert.Equal(t, int64(1), snapshot["publish_failures"])
	ops := snapshot["operations"].(map[string]observer.OperationStats)
	assert.Equal(t, int64(1), ops[OperationSplitHalves].Failed)
}

func TestSplitHalves_TopPublishFailureStopsBeforeBottom(t *testing.T) {
	pub := &fakePublisher{failOn: 1}
	svc := newService(&fakeProcessor{}, pub, nil, nil)

	_, _, err := svc.SplitHalves(context.Background(), models.FileUpload(pngBytes(t, gradient(4, 4)), "a.png", "image/png"))
	require.Error(t, err)
	assert.Len(t, pub.calls, 1)
}

func TestSplitHalves_UndecodableAndTooSmall(t *testing.T) {
	svc := newService(&fakeProcessor{}, &fakePublisher{}, nil, nil)

	_, _, err := svc.SplitHalves(context.Background(), models.FileUpload([]byte("not an image"), "a.png", "image/png"))
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, apperrors.GetStatusCode(err))
	assert.Contains(t, apperrors.Detail(err), "Split failed: ")

	_, _, err = svc.SplitHalves(context.Background(), models.FileUpload(pngBytes(t, gradient(4, 1)), "a.png", "image/png"))
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, apperrors.GetStatusCode(err))
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "scan_preview.png", outputName("scan.tiff", "_preview"))
	assert.Equal(t, "uploaded_top_half.png", outputName("", "_top_half"))
}
