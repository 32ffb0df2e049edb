package service

import (
	"context"
	"learnboard_backend/internal/config"
	"learnboard_backend/internal/model"
	"sync"
)

// LeaderboardService returns entries in the store's order; it never re-sorts.
type LeaderboardService struct {
	ProfileRepo ProfileStore

	mu  sync.RWMutex
	cfg config.LeaderboardConfig
}

func NewLeaderboardService(profileRepo ProfileStore, cfg config.LeaderboardConfig) *LeaderboardService {
	return &LeaderboardService{ProfileRepo: profileRepo, cfg: cfg}
}

func (s *LeaderboardService) UpdateConfig(cfg config.LeaderboardConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
}

// Limit resolves a requested limit: non-positive means the default, anything
// above the maximum is capped.
func (s *LeaderboardService) Limit(requested int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if requested <= 0 {
		return s.cfg.DefaultLimit
	}
	return min(requested, s.cfg.MaxLimit)
}

func (s *LeaderboardService) GetLeaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	entries, err := s.ProfileRepo.Leaderboard(ctx, s.Limit(limit))
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	return entries, nil
}
