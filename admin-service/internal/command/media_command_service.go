package command

import (
	"context"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/startupstarter/admin/shared/apperrors"
	"github.com/startupstarter/admin/shared/clock"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/logger"
	"github.com/startupstarter/admin/shared/models"
	"github.com/startupstarter/admin/shared/utils"
)

// AllowedMediaTypes is the upload allow-list, matched against the sniffed type.
var AllowedMediaTypes = []string{
	"image/png", "image/jpeg", "image/gif", "image/webp", "image/svg+xml",
	"application/pdf", "text/plain", "text/csv", "application/json", "video/mp4",
}

type MediaStore interface {
	Create(ctx context.Context, m *models.Media) error
	GetByID(ctx context.Context, accountID, id string) (*models.Media, error)
	Delete(ctx context.Context, accountID, id string) error
}

// BlobWriter stores and removes media bytes.
type BlobWriter interface {
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

type MediaCommandService struct {
	media     MediaStore
	blobs     BlobWriter
	publisher EventPublisher
	clock     clock.Clock
	log       *logger.Logger
	maxBytes  int64
}

func NewMediaCommandService(media MediaStore, blobs BlobWriter, publisher EventPublisher, clk clock.Clock, log *logger.Logger, maxBytes int64) *MediaCommandService {
	return &MediaCommandService{media: media, blobs: blobs, publisher: publisher, clock: clk, log: log, maxBytes: maxBytes}
}

func (s *MediaCommandService) UploadMedia(ctx context.Context, cmd cqrs.UploadMediaCommand) (*models.MediaView, error) {
	if s.maxBytes > 0 && int64(len(cmd.Data)) > s.maxBytes {
		return nil, apperrors.ErrFileTooLarge
	}
	if len(cmd.Data) == 0 {
		return nil, apperrors.Validation("file is empty")
	}
	mtype := mimetype.Detect(cmd.Data)
	if !mimetype.EqualsAny(mtype.String(), AllowedMediaTypes...) {
		return nil, apperrors.ErrUnsupportedMedia.WithMessage("file type " + mtype.String() + " is not allowed")
	}

	key := cmd.AccountID + "/" + uuid.NewString()
	if err := s.blobs.Put(ctx, key, cmd.Data); err != nil {
		return nil, apperrors.ErrInternal.WithCause(err)
	}
	m := models.NewMedia(utils.GenerateID("med"), cmd.AccountID, filepath.Base(cmd.FileName), mtype.String(),
		int64(len(cmd.Data)), key, cmd.UserID, s.clock.Now())
	if err := s.media.Create(ctx, m); err != nil {
		if derr := s.blobs.Delete(ctx, key); derr != nil {
			s.log.Warn("failed to remove orphaned blob", "key", key, "error", derr)
		}
		return nil, err
	}
	publish(ctx, s.publisher, cmd.AccountID, cmd.UserID, m)
	return models.NewMediaView(m), nil
}

func (s *MediaCommandService) DeleteMedia(ctx context.Context, cmd cqrs.DeleteMediaCommand) error {
	m, err := s.media.GetByID(ctx, cmd.AccountID, cmd.MediaID)
	if err != nil {
		return err
	}
	m.MarkDeleted(s.clock.Now())
	if err := s.media.Delete(ctx, cmd.AccountID, m.ID); err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, m.StorageKey); err != nil {
		s.log.Warn("failed to remove media blob", "key", m.StorageKey, "error", err)
	}
	publish(ctx, s.publisher, cmd.AccountID, cmd.UserID, m)
	return nil
}
