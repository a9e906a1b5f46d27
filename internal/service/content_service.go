package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/publora/publora/internal/models"
	"github.com/publora/publora/internal/repository"
	"github.com/publora/publora/internal/transfer"
)

type ContentService interface {
	Create(ctx context.Context, userID int64, cc *transfer.ContentCreation) (int64, error)
	List(ctx context.Context, userID int64) ([]*models.Content, error)
	Remove(ctx context.Context, userID, contentID int64) error
}

type contentService struct {
	cr repository.ContentRepository
}

func NewContentService(cr repository.ContentRepository) ContentService {
	return &contentService{cr: cr}
}

func (s *contentService) Create(ctx context.Context, userID int64, cc *transfer.ContentCreation) (int64, error) {
	var err error

	if cc == nil {
		err = errors.New("content creation data is nil")
		slog.Info(err.Error())
		return 0, err
	}

	if cc.Caption == "" && cc.ImageURL == "" && cc.VideoURL == "" {
		err = errors.New("content is empty")
		slog.Info(err.Error())
		return 0, err
	}

	content := models.Content{
		UserID:       userID,
		Title:        cc.Title,
		Caption:      cc.Caption,
		CallToAction: cc.CallToAction,
		Hashtags:     cc.Hashtags,
		ImageURL:     cc.ImageURL,
		VideoURL:     cc.VideoURL,
	}

	id, err := s.cr.Create(ctx, nil, &content)
	if err != nil {
		return 0, fmt.Errorf("error creating content: %w", err)
	}

	return id, nil
}

func (s *contentService) List(ctx context.Context, userID int64) ([]*models.Content, error) {
	contents, err := s.cr.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Error getting contents")
	}
	return contents, nil
}

func (s *contentService) Remove(ctx context.Context, userID, contentID int64) error {
	var err error

	if contentID == 0 {
		err = errors.New("content id is not valid")
		slog.Info(err.Error())
		return err
	}

	isValid, err := s.cr.CheckByUserID(ctx, contentID, userID)
	if err != nil {
		return err
	}

	if !isValid {
		err = errors.New("Content doesn't exist")
		slog.Info(err.Error())
		return err
	}

	err = s.cr.Remove(ctx, contentID)
	if err != nil {
		return fmt.Errorf("Error removing content")
	}

	return nil
}
