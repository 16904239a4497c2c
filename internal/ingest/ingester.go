package ingest

import (
	"context"
	"fmt"

	"sports-ai/internal/features"

	"github.com/rs/zerolog/log"
)

// Result describes one completed ingestion.
type Result struct {
	CompetitionID int                    `json:"competition_id"`
	SeasonID      int                    `json:"season_id"`
	Rows          int                    `json:"rows"`
	Records       []features.MatchRecord `json:"-"`
}

// Source is the upstream the Ingester reads from.
type Source interface {
	Competitions(ctx context.Context) ([]Competition, error)
	Matches(ctx context.Context, competitionID, seasonID int) ([]Match, error)
}

type Ingester struct {
	source Source
}

func NewIngester(source Source) *Ingester {
	return &Ingester{source: source}
}

// Ingest fetches one competition season and builds its records. When either
// id is zero the first listed competition is used.
func (i *Ingester) Ingest(ctx context.Context, competitionID, seasonID int) (*Result, error) {
	if competitionID == 0 || seasonID == 0 {
		comps, err := i.source.Competitions(ctx)
		if err != nil {
			return nil, fmt.Errorf("list competitions: %w", err)
		}
		if len(comps) == 0 {
			return nil, ErrNoCompetitions
		}
		competitionID, seasonID = comps[0].CompetitionID, comps[0].SeasonID
	}

	matches, err := i.source.Matches(ctx, competitionID, seasonID)
	if err != nil {
		return nil, fmt.Errorf("load matches %d/%d: %w", competitionID, seasonID, err)
	}
	records := BuildRecords(matches)

	log.Info().
		Int("competition_id", competitionID).
		Int("season_id", seasonID).
		Int("rows", len(records)).
		Msg("StatsBomb season ingested")

	return &Result{
		CompetitionID: competitionID,
		SeasonID:      seasonID,
		Rows:          len(records),
		Records:       records,
	}, nil
}
