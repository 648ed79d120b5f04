package query

import (
	"context"
	"io"

	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/models"
)

type MediaReader interface {
	GetByID(ctx context.Context, accountID, id string) (*models.Media, error)
	List(ctx context.Context, q cqrs.ListMediaQuery) ([]*models.Media, int, error)
}

type BlobReader interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

type MediaQueryService struct {
	media MediaReader
	blobs BlobReader
}

func NewMediaQueryService(media MediaReader, blobs BlobReader) *MediaQueryService {
	return &MediaQueryService{media: media, blobs: blobs}
}

func (s *MediaQueryService) GetMedia(ctx context.Context, q cqrs.GetMediaQuery) (*models.MediaView, error) {
	m, err := s.media.GetByID(ctx, q.AccountID, q.MediaID)
	if err != nil {
		return nil, err
	}
	return models.NewMediaView(m), nil
}

func (s *MediaQueryService) ListMedia(ctx context.Context, q cqrs.ListMediaQuery) (*models.PagedResult[models.MediaView], error) {
	rows, total, err := s.media.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return paged(rows, total, q.Page, models.NewMediaView), nil
}

// DownloadMedia returns the metadata and an open reader; the caller closes it.
func (s *MediaQueryService) DownloadMedia(ctx context.Context, q cqrs.GetMediaQuery) (*models.MediaView, io.ReadCloser, error) {
	m, err := s.media.GetByID(ctx, q.AccountID, q.MediaID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.blobs.Open(ctx, m.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return models.NewMediaView(m), rc, nil
}
