package service

import (
	"context"
	"errors"

	"github.com/publora/publora/internal/dispatch"
	"github.com/publora/publora/internal/repository"
)

var ErrNoConnectedPlatforms = errors.New("no connected platforms")

type InsightsService interface {
	Overview(ctx context.Context, userID int64) (*dispatch.Overview, error)
}

type insightsService struct {
	sa   repository.SocialAccountRepository
	exec *dispatch.Executor
}

func NewInsightsService(sa repository.SocialAccountRepository, exec *dispatch.Executor) InsightsService {
	return &insightsService{
		sa:   sa,
		exec: exec,
	}
}

// Overview fetches current metrics from every connected platform and
// merges them into cross-platform totals. Platforms that fail to answer
// stay listed with their error but are left out of the totals.
func (s *insightsService) Overview(ctx context.Context, userID int64) (*dispatch.Overview, error) {
	accounts, err := s.sa.ListActiveByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, ErrNoConnectedPlatforms
	}

	results := s.exec.FetchMetrics(ctx, accounts)
	overview := dispatch.MergeMetrics(results)
	return &overview, nil
}
