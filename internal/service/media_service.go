package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"
	config "github.com/publora/publora/configs"
	"github.com/publora/publora/internal/models"
	"github.com/publora/publora/internal/repository"
)

// MediaService stores post attachments: uploads each file to R2 and records
// asset and post_media rows inside the caller's transaction.
type MediaService interface {
	SaveFiles(ctx context.Context, tx *sql.Tx, userID, postID int64, files []*multipart.FileHeader) error
}

type mediaService struct {
	cfg config.Config
	ma  repository.MediaAssetRepository
	pm  repository.PostMediaRepository
	r2  R2Service
}

func NewMediaService(cfg config.Config, ma repository.MediaAssetRepository, pm repository.PostMediaRepository, r2 R2Service) MediaService {
	return &mediaService{
		cfg: cfg,
		ma:  ma,
		pm:  pm,
		r2:  r2,
	}
}

func (s *mediaService) SaveFiles(ctx context.Context, tx *sql.Tx, userID, postID int64, files []*multipart.FileHeader) error {
	allowedTypes := map[string]struct{}{
		"mp4": {}, "mov": {}, "jpeg": {}, "png": {}, "jpg": {},
	}

	for i, file := range files {
		fileContent, err := file.Open()
		if err != nil {
			return fmt.Errorf("error opening file: %w", err)
		}
		defer fileContent.Close()

		fileBytes, err := io.ReadAll(fileContent)
		if err != nil {
			return fmt.Errorf("error reading file content: %w", err)
		}

		fileType, err := filetype.Match(fileBytes)
		if err != nil || fileType == types.Unknown {
			return fmt.Errorf("unsupported file type: %w", err)
		}
		if _, ok := allowedTypes[fileType.Extension]; !ok {
			return fmt.Errorf("file type %s is not allowed", fileType.Extension)
		}

		assetID, err := s.saveFile(ctx, tx, userID, fileType.MIME.Value, fileBytes)
		if err != nil {
			return fmt.Errorf("error uploading file: %w", err)
		}

		postMedia := models.PostMedia{
			PostID:       postID,
			AssetID:      assetID,
			DisplayOrder: i,
		}
		if err := s.pm.Create(ctx, tx, &postMedia); err != nil {
			return fmt.Errorf("error saving media file: %w", err)
		}
	}
	return nil
}

func (s *mediaService) saveFile(ctx context.Context, tx *sql.Tx, userID int64, fileType string, file []byte) (int64, error) {
	id, err := gonanoid.New()
	if err != nil {
		return 0, err
	}
	err = s.r2.UploadToR2(ctx, id, file, fileType)
	if err != nil {
		return 0, err
	}

	ma := models.MediaAsset{
		UserID:   userID,
		FileName: id,
		FileType: fileType,
		FileURL:  fmt.Sprintf("%s/%s", s.cfg.R2.PublicURL, id),
	}

	assetID, err := s.ma.Create(ctx, tx, &ma)
	if err != nil {
		return 0, err
	}

	return assetID, nil
}
