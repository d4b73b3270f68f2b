package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"evicite/internal/domain"
	"evicite/internal/port"
	"evicite/internal/service"
	"evicite/mocks"
)

func newSourceService() (service.SourceService, *mocks.MockSourceFetcher, *mocks.MockTextExtractor, *mocks.MockObjectStorage, *mocks.MockSourceRepo) {
	fetcher := new(mocks.MockSourceFetcher)
	extractor := new(mocks.MockTextExtractor)
	storage := new(mocks.MockObjectStorage)
	sourceRepo := new(mocks.MockSourceRepo)
	svc := service.NewSourceService(fetcher, extractor, storage, sourceRepo, "evicite-artifacts")
	return svc, fetcher, extractor, storage, sourceRepo
}

func samplePDF() (*port.FetchOutput, *port.ExtractOutput) {
	raw := []byte("%PDF-1.7 sample bytes")
	fetched := &port.FetchOutput{
		Identity:    "deadbeef0123",
		ResolvedURL: "https://mirror.example.com/a.pdf",
		ContentType: "application/pdf",
		Bytes:       raw,
	}
	extracted := &port.ExtractOutput{
		Pages: []port.PageText{
			{Number: 1, Width: 612, Height: 792, Runs: []port.TextRun{
				{Text: "hello annotated world", X: 72, Y: 700, W: 120, H: 12, Offset: 0},
			}},
			{Number: 2, Width: 612, Height: 792},
		},
	}
	return fetched, extracted
}

func TestPrepare_FetchExtractStoreAndCache(t *testing.T) {
	svc, fetcher, extractor, storage, sourceRepo := newSourceService()
	fetched, extracted := samplePDF()

	fetcher.On("Fetch", mock.Anything, "https://example.com/a.pdf").Return(fetched, nil).Once()
	extractor.On("Extract", mock.Anything, fetched.Bytes).Return(extracted, nil).Once()
	storage.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool {
		return in.Bucket == "evicite-artifacts" &&
			in.Key == "sources/deadbeef0123/original.pdf" &&
			in.ContentType == "application/pdf" &&
			in.Size == int64(len(fetched.Bytes))
	})).Return(&port.UploadOutput{Location: "s3://evicite-artifacts/sources/deadbeef0123/original.pdf"}, nil).Once()
	sourceRepo.On("Upsert", mock.Anything, mock.MatchedBy(func(rec *domain.SourceRecord) bool {
		return rec.Identity == "deadbeef0123" &&
			rec.ResolvedURL == fetched.ResolvedURL &&
			rec.PageCount == 2 &&
			rec.OriginalKey == "sources/deadbeef0123/original.pdf"
	})).Return(nil).Once()

	src, err := svc.Prepare(context.Background(), "https://example.com/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "deadbeef0123", src.Identity)
	assert.Equal(t, "hello annotated world\n", src.Text)
	require.NotNil(t, src.Record)

	// Second call for the same locator is served from cache.
	again, err := svc.Prepare(context.Background(), "https://example.com/a.pdf")
	require.NoError(t, err)
	assert.Same(t, src, again)

	fetcher.AssertExpectations(t)
	extractor.AssertExpectations(t)
	storage.AssertExpectations(t)
	sourceRepo.AssertExpectations(t)
}

func TestPrepare_ConcurrentCallsShareOneFetch(t *testing.T) {
	svc, fetcher, extractor, storage, sourceRepo := newSourceService()
	fetched, extracted := samplePDF()

	// A single expectation per collaborator: a second fetch would fail the
	// mock. The sleep keeps all callers in flight together.
	fetcher.On("Fetch", mock.Anything, "https://example.com/a.pdf").
		Run(func(mock.Arguments) { time.Sleep(50 * time.Millisecond) }).
		Return(fetched, nil).Once()
	extractor.On("Extract", mock.Anything, fetched.Bytes).Return(extracted, nil).Once()
	storage.On("Upload", mock.Anything, mock.Anything).Return(&port.UploadOutput{}, nil).Once()
	sourceRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil).Once()

	var wg sync.WaitGroup
	results := make([]*service.PreparedSource, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			src, err := svc.Prepare(context.Background(), "https://example.com/a.pdf")
			assert.NoError(t, err)
			results[i] = src
		}(i)
	}
	wg.Wait()

	for _, src := range results {
		assert.Same(t, results[0], src)
	}
	fetcher.AssertExpectations(t)
}

func TestPrepare_FetchErrorWrapped(t *testing.T) {
	svc, fetcher, extractor, _, _ := newSourceService()

	fetcher.On("Fetch", mock.Anything, "https://dead.example.com/a.pdf").
		Return(nil, fmt.Errorf("GET https://dead.example.com/a.pdf: %w", domain.ErrSourceUnreachable))

	_, err := svc.Prepare(context.Background(), "https://dead.example.com/a.pdf")
	assert.ErrorIs(t, err, domain.ErrSourceUnreachable)
	extractor.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestPrepare_ExtractErrorWrapped(t *testing.T) {
	svc, fetcher, extractor, storage, _ := newSourceService()
	fetched, _ := samplePDF()

	fetcher.On("Fetch", mock.Anything, "https://example.com/locked.pdf").Return(fetched, nil)
	extractor.On("Extract", mock.Anything, fetched.Bytes).Return(nil, domain.ErrEncryptedDocument)

	_, err := svc.Prepare(context.Background(), "https://example.com/locked.pdf")
	assert.ErrorIs(t, err, domain.ErrEncryptedDocument)
	storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestPrepare_UploadErrorFailsPreparation(t *testing.T) {
	svc, fetcher, extractor, storage, sourceRepo := newSourceService()
	fetched, extracted := samplePDF()

	fetcher.On("Fetch", mock.Anything, "https://example.com/a.pdf").Return(fetched, nil)
	extractor.On("Extract", mock.Anything, fetched.Bytes).Return(extracted, nil)
	storage.On("Upload", mock.Anything, mock.Anything).Return(nil, errors.New("bucket gone"))

	_, err := svc.Prepare(context.Background(), "https://example.com/a.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket gone")
	sourceRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}
