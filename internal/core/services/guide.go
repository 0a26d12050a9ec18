package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/custodia-labs/gamefriend-core/internal/core/domain"
	"github.com/custodia-labs/gamefriend-core/internal/core/ports/driven"
	"github.com/custodia-labs/gamefriend-core/internal/core/ports/driving"
)

// Ensure guideService implements GuideService
var _ driving.GuideService = (*guideService)(nil)

// GuideServiceConfig holds dependencies for the guide service.
type GuideServiceConfig struct {
	Guides     driven.GuideStore
	Downloader driven.GuideDownloader
	Indexer    driving.IndexService
	Retrieval  driving.RetrievalService

	// OnSaved is told each guide path this service writes, before it
	// regenerates the game (optional)
	OnSaved func(path string)

	Logger *slog.Logger
}

// guideService implements the GuideService interface
type guideService struct {
	guides     driven.GuideStore
	downloader driven.GuideDownloader
	indexer    driving.IndexService
	retrieval  driving.RetrievalService
	onSaved    func(path string)
	logger     *slog.Logger
}

// NewGuideService creates a new GuideService
func NewGuideService(cfg GuideServiceConfig) driving.GuideService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &guideService{
		guides:     cfg.Guides,
		downloader: cfg.Downloader,
		indexer:    cfg.Indexer,
		retrieval:  cfg.Retrieval,
		onSaved:    cfg.OnSaved,
		logger:     logger,
	}
}

// ListGames returns every game with at least one guide
func (s *guideService) ListGames(ctx context.Context) ([]domain.Game, error) {
	return s.guides.ListGames(ctx)
}

// Download fetches and saves a guide, then rebuilds the game's index.
// A regeneration failure is reported in the result; the saved guide stays.
func (s *guideService) Download(ctx context.Context, url string) (*domain.DownloadResult, error) {
	guide, err := domain.ParseGuideURL(url)
	if err != nil {
		return nil, err
	}

	doc, err := s.downloader.FetchAll(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}

	path, err := s.guides.SaveGuide(ctx, guide, doc.RawText)
	if err != nil {
		return nil, fmt.Errorf("failed to save guide: %w", err)
	}
	if s.onSaved != nil {
		s.onSaved(path)
	}

	result := &domain.DownloadResult{
		Game:  domain.NewGame(guide.Platform, guide.Game),
		Path:  path,
		Pages: len(doc.Sources),
	}
	s.logger.Info("saved guide", "game_id", guide.Game, "path", path, "pages", result.Pages)

	if s.retrieval != nil {
		if err := s.retrieval.Invalidate(ctx, guide.Game); err != nil {
			s.logger.Warn("failed to invalidate index", "game_id", guide.Game, "error", err)
		}
	}

	if s.indexer != nil {
		summary, err := s.indexer.Generate(ctx, guide.Game)
		if err != nil {
			s.logger.Warn("failed to regenerate index", "game_id", guide.Game, "error", err)
			result.IndexError = err.Error()
		} else {
			result.Index = summary
		}
	}

	return result, nil
}
