// Package ingest pulls historical matches from the StatsBomb open-data
// repository and turns them into football match records.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://raw.githubusercontent.com/statsbomb/open-data/master/data"
	DefaultTimeout = 20 * time.Second
	DefaultRPS     = 5.0

	sourceStatsBomb = "statsbomb"
)

// FetchRecorder receives one observation per upstream request.
type FetchRecorder interface {
	IngestFetchInc(source, status string)
}

// Competition is one competition/season pair listed by the open-data
// repository.
type Competition struct {
	CompetitionID   int    `json:"competition_id"`
	SeasonID        int    `json:"season_id"`
	CompetitionName string `json:"competition_name"`
	SeasonName      string `json:"season_name"`
	CountryName     string `json:"country_name"`
}

// Match is the subset of a StatsBomb match object the ingester reads. Scores
// are pointers because unplayed fixtures carry nulls.
type Match struct {
	MatchID   int    `json:"match_id"`
	MatchDate string `json:"match_date"`
	KickOff   string `json:"kick_off"`
	HomeTeam  struct {
		Name string `json:"home_team_name"`
	} `json:"home_team"`
	AwayTeam struct {
		Name string `json:"away_team_name"`
	} `json:"away_team"`
	HomeScore *int `json:"home_score"`
	AwayScore *int `json:"away_score"`
}

// StatsBombClient reads the StatsBomb open-data JSON files. Requests share a
// rate limiter and honour the caller's context.
type StatsBombClient struct {
	base     string
	rest     *resty.Client
	limiter  *rate.Limiter
	recorder FetchRecorder
}

// ClientOption configures a StatsBombClient.
type ClientOption func(*StatsBombClient)

// WithTimeout sets the per-request HTTP timeout. Non-positive values keep
// DefaultTimeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *StatsBombClient) {
		if timeout > 0 {
			c.rest.SetTimeout(timeout)
		}
	}
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(rps float64) ClientOption {
	return func(c *StatsBombClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

func WithFetchRecorder(r FetchRecorder) ClientOption {
	return func(c *StatsBombClient) { c.recorder = r }
}

// NewStatsBombClient returns a client rooted at base, typically
// DefaultBaseURL.
func NewStatsBombClient(base string, opts ...ClientOption) *StatsBombClient {
	if base == "" {
		base = DefaultBaseURL
	}
	r := resty.New().
		SetTimeout(DefaultTimeout).
		SetHeader("Accept", "application/json")
	c := &StatsBombClient{
		base:    strings.TrimRight(base, "/"),
		rest:    r,
		limiter: rate.NewLimiter(rate.Limit(DefaultRPS), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Competitions lists every available competition season.
func (c *StatsBombClient) Competitions(ctx context.Context) ([]Competition, error) {
	var out []Competition
	if err := c.get(ctx, "/competitions.json", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Matches lists the matches of one competition season.
func (c *StatsBombClient) Matches(ctx context.Context, competitionID, seasonID int) ([]Match, error) {
	var out []Match
	path := fmt.Sprintf("/matches/%d/%d.json", competitionID, seasonID)
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *StatsBombClient) get(ctx context.Context, path string, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	// raw.githubusercontent.com serves JSON as text/plain
	resp, err := c.rest.R().
		SetContext(ctx).
		ForceContentType("application/json").
		SetResult(result).
		Get(c.base + path)
	if err != nil {
		c.record("error")
		return fmt.Errorf("GET %s: %w", path, err)
	}
	if resp.IsError() {
		c.record("http_" + fmt.Sprint(resp.StatusCode()))
		return fmt.Errorf("%w: GET %s returned %d", ErrUpstream, path, resp.StatusCode())
	}

	c.record("ok")
	log.Debug().
		Str("path", path).
		Dur("elapsed", resp.Time()).
		Msg("StatsBomb fetch complete")
	return nil
}

func (c *StatsBombClient) record(status string) {
	if c.recorder != nil {
		c.recorder.IngestFetchInc(sourceStatsBomb, status)
	}
}
