package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"
	cfg "github.com/publora/publora/configs"
	"github.com/publora/publora/internal/models"
	"github.com/publora/publora/internal/repository"
)

type AssetService interface {
	Upload(ctx context.Context, userID int64, file *multipart.FileHeader) (*models.MediaAsset, error)
	List(ctx context.Context, userID int64) ([]*models.MediaAsset, error)
	Remove(ctx context.Context, userID, assetID int64) error
}

type assetService struct {
	config cfg.Config
	ma     repository.MediaAssetRepository
	r2     *R2Service
}

func NewAssetService(config cfg.Config, ma repository.MediaAssetRepository, r2 *R2Service) AssetService {
	return &assetService{
		config: config,
		ma:     ma,
		r2:     r2,
	}
}

var allowedFileTypes = map[string]struct{}{
	"mp4": {}, "mov": {}, "jpeg": {}, "png": {}, "jpg": {},
}

func (s *assetService) Upload(ctx context.Context, userID int64, file *multipart.FileHeader) (*models.MediaAsset, error) {
	if file == nil {
		err := errors.New("no file provided")
		slog.Info(err.Error())
		return nil, err
	}

	fileContent, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer fileContent.Close()

	fileBytes, err := io.ReadAll(fileContent)
	if err != nil {
		return nil, fmt.Errorf("error reading file content: %w", err)
	}

	fileType, err := filetype.Match(fileBytes)
	if err != nil || fileType == types.Unknown {
		return nil, fmt.Errorf("unsupported file type: %w", err)
	}
	if _, ok := allowedFileTypes[fileType.Extension]; !ok {
		return nil, fmt.Errorf("file type %s is not allowed", fileType.Extension)
	}

	key, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	if err := s.r2.UploadToR2(ctx, key, fileBytes, fileType.MIME.Value); err != nil {
		return nil, fmt.Errorf("error uploading file: %w", err)
	}

	asset := models.MediaAsset{
		UserID:   userID,
		FileName: key,
		FileType: fileType.MIME.Value,
		FileSize: int64(len(fileBytes)),
		FileURL:  fmt.Sprintf("%s/%s", s.config.R2.PublicBaseURL, key),
	}

	assetID, err := s.ma.Create(ctx, nil, &asset)
	if err != nil {
		return nil, err
	}
	asset.ID = assetID

	return &asset, nil
}

func (s *assetService) List(ctx context.Context, userID int64) ([]*models.MediaAsset, error) {
	assets, err := s.ma.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Error getting media assets")
	}
	return assets, nil
}

func (s *assetService) Remove(ctx context.Context, userID, assetID int64) error {
	var err error

	if assetID == 0 {
		err = errors.New("asset id is not valid")
		slog.Info(err.Error())
		return err
	}

	asset, err := s.ma.GetByID(ctx, assetID)
	if err != nil {
		return err
	}

	if asset == nil || asset.UserID != userID {
		err = errors.New("Media asset doesn't exist")
		slog.Info(err.Error())
		return err
	}

	err = s.ma.Remove(ctx, assetID)
	if err != nil {
		return fmt.Errorf("Error removing media asset")
	}

	// The stored object is secondary; losing the row is what matters.
	if err := s.r2.DeleteFromR2(ctx, asset.FileName); err != nil {
		slog.Info(err.Error())
	}

	return nil
}
