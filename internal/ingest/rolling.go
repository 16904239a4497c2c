package ingest

import (
	"math"
	"sort"

	"sports-ai/internal/features"
	"sports-ai/internal/sport"
)

// teamStats accumulates a team's results in the order matches were played.
type teamStats struct {
	matches      int
	goalsFor     int
	goalsAgainst int
	points       int
}

func (t *teamStats) strength() float64 {
	if t.matches == 0 {
		return 70
	}
	return 60 + float64(t.points)/float64(t.matches)*10 + float64(t.goalsFor-t.goalsAgainst)*1.5
}

func (t *teamStats) form() float64 {
	if t.matches == 0 {
		return 0.6
	}
	return clamp(float64(t.points)/float64(t.matches*3), 0.3, 1)
}

// BuildRecords converts matches into football records whose context holds
// each team's rolling stats as they stood before kick-off. Matches are
// processed in date order; ties keep their input order.
func BuildRecords(matches []Match) []features.MatchRecord {
	ordered := make([]Match, len(matches))
	copy(ordered, matches)
	sort.SliceStable(ordered, func(i, j int) bool {
		return matchDate(ordered[i]) < matchDate(ordered[j])
	})

	stats := make(map[string]*teamStats)
	ensure := func(team string) *teamStats {
		st, ok := stats[team]
		if !ok {
			st = &teamStats{}
			stats[team] = st
		}
		return st
	}

	records := make([]features.MatchRecord, 0, len(ordered))
	for _, m := range ordered {
		home, away := ensure(m.HomeTeam.Name), ensure(m.AwayTeam.Name)
		goalsA, goalsB := score(m.HomeScore), score(m.AwayScore)

		strengthA, strengthB := home.strength(), away.strength()
		possA := clamp(50+(strengthA-strengthB)*0.3, 35, 65)

		records = append(records, features.MatchRecord{
			Sport:  sport.Football,
			TeamA:  m.HomeTeam.Name,
			TeamB:  m.AwayTeam.Name,
			Date:   matchDate(m),
			ScoreA: float64(goalsA),
			ScoreB: float64(goalsB),
			Context: map[string]float64{
				"strength_a": round(strengthA, 2),
				"strength_b": round(strengthB, 2),
				"form_a":     round(home.form(), 2),
				"form_b":     round(away.form(), 2),
				"xg_a":       round(math.Max(0.4, float64(goalsA)*0.9+0.6), 2),
				"xg_b":       round(math.Max(0.4, float64(goalsB)*0.9+0.6), 2),
				"injuries_a": 1,
				"injuries_b": 1,
				"shots_a":    float64(max(6, goalsA*5+7)),
				"shots_b":    float64(max(6, goalsB*5+7)),
				"poss_a":     round(possA, 1),
				"poss_b":     round(100-possA, 1),
			},
		})

		home.matches++
		away.matches++
		home.goalsFor += goalsA
		home.goalsAgainst += goalsB
		away.goalsFor += goalsB
		away.goalsAgainst += goalsA
		switch {
		case goalsA > goalsB:
			home.points += 3
		case goalsB > goalsA:
			away.points += 3
		default:
			home.points++
			away.points++
		}
	}
	return records
}

func matchDate(m Match) string {
	switch {
	case m.MatchDate != "":
		return m.MatchDate
	case m.KickOff != "":
		return m.KickOff
	default:
		return "unknown"
	}
}

func score(v *int) int {
	if v == nil || *v < 0 {
		return 0
	}
	return *v
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
