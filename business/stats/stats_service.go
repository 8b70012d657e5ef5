package stats

import (
	"context"
	"fmt"

	"poemEval/business/allocation"
)

// EvaluationRepository is the slice of the record store coverage needs.
type EvaluationRepository interface {
	RatingCounts(ctx context.Context) (map[string]int, error)
}

// EngineStats exposes the allocation engine occupancy snapshot.
type EngineStats interface {
	Stats() allocation.Stats
}

// CoverageStats reports how evenly the catalog is being rated.
type CoverageStats struct {
	Engine                allocation.Stats `json:"engine"`
	TotalRatings          int              `json:"total_ratings"`
	ImagesWithAnyRating   int              `json:"images_with_any_rating"`
	ImagesWithFiveRatings int              `json:"images_with_five_ratings"`
	CoverageAnyPct        float64          `json:"coverage_any_pct"`
	CoverageFivePct       float64          `json:"coverage_five_pct"`
}

type Service struct {
	engine   EngineStats
	evalRepo EvaluationRepository
}

func NewService(engine EngineStats, evalRepo EvaluationRepository) *Service {
	return &Service{
		engine:   engine,
		evalRepo: evalRepo,
	}
}

func (s *Service) Coverage(ctx context.Context) (CoverageStats, error) {
	counts, err := s.evalRepo.RatingCounts(ctx)
	if err != nil {
		return CoverageStats{}, fmt.Errorf("load rating counts: %w", err)
	}

	engineStats := s.engine.Stats()

	out := CoverageStats{
		Engine:              engineStats,
		ImagesWithAnyRating: len(counts),
	}
	for _, n := range counts {
		out.TotalRatings += n
		if n >= 5 {
			out.ImagesWithFiveRatings++
		}
	}

	if engineStats.CatalogSize > 0 {
		out.CoverageAnyPct = float64(out.ImagesWithAnyRating) / float64(engineStats.CatalogSize) * 100
		out.CoverageFivePct = float64(out.ImagesWithFiveRatings) / float64(engineStats.CatalogSize) * 100
	}

	return out, nil
}
