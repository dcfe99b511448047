package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/valyala/fasthttp"

	"lol-reporter/internal/config"
	"lol-reporter/internal/domain"
)

// ErrNotFound reports that the subject (or match) does not exist upstream.
// Identity resolution failures are never cached; the next cycle retries.
var ErrNotFound = errors.New("riot: not found")

// RateLimitedError is a distinguishable, non-fatal outcome: the caller defers
// the cycle instead of treating it as a provider failure. Retry mechanics are
// the provider collaborator's concern, not this client's.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("riot: rate limited, retry after %s", e.RetryAfter)
}

// ProviderError is any other upstream failure (5xx, malformed payloads get
// wrapped separately).
type ProviderError struct {
	Status int
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("riot: provider error: status %d", e.Status)
}

type RiotClient struct {
	apiKey   string
	region   string
	platform string
	client   *fasthttp.Client

	rateLimitMu sync.RWMutex
	rateLimit   RateLimitInfo
}

type RateLimitInfo struct {
	AppLimit    string    `json:"app_limit"`
	AppCount    string    `json:"app_count"`
	MethodLimit string    `json:"method_limit"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewRiotClient(cfg *config.Config) *RiotClient {
	return &RiotClient{
		apiKey:   cfg.RiotAPIKey,
		region:   cfg.Region,
		platform: cfg.Platform,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

func (c *RiotClient) GetRateLimitInfo() RateLimitInfo {
	c.rateLimitMu.RLock()
	defer c.rateLimitMu.RUnlock()
	return c.rateLimit
}

func (c *RiotClient) updateRateLimit(resp *fasthttp.Response) {
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()

	if limit := string(resp.Header.Peek("X-App-Rate-Limit")); limit != "" {
		c.rateLimit.AppLimit = limit
	}
	if count := string(resp.Header.Peek("X-App-Rate-Limit-Count")); count != "" {
		c.rateLimit.AppCount = count
	}
	if limit := string(resp.Header.Peek("X-Method-Rate-Limit")); limit != "" {
		c.rateLimit.MethodLimit = limit
	}
	c.rateLimit.UpdatedAt = time.Now()
}

// AccountByRiotID resolves a Riot ID (name#tag) to its account, regional route.
func (c *RiotClient) AccountByRiotID(ctx context.Context, name, tag string) (*AccountResponse, error) {
	u := fmt.Sprintf("https://%s.api.riotgames.com/riot/account/v1/accounts/by-riot-id/%s/%s",
		c.region, url.PathEscape(name), url.PathEscape(tag))
	return doRequest[AccountResponse](ctx, c, u)
}

// MatchIDs lists match ids for a window, newest first as the provider orders
// them. The caller must not assume any other ordering.
func (c *RiotClient) MatchIDs(ctx context.Context, puuid string, window domain.TimeWindow, count int) ([]string, error) {
	u := fmt.Sprintf("https://%s.api.riotgames.com/lol/match/v5/matches/by-puuid/%s/ids?startTime=%d&endTime=%d&count=%d",
		c.region, puuid, window.Start.Unix(), window.End.Unix(), count)
	ids, err := doRequest[[]string](ctx, c, u)
	if err != nil {
		return nil, err
	}
	return *ids, nil
}

func (c *RiotClient) Match(ctx context.Context, matchID string) (*MatchResponse, error) {
	u := fmt.Sprintf("https://%s.api.riotgames.com/lol/match/v5/matches/%s", c.region, matchID)
	return doRequest[MatchResponse](ctx, c, u)
}

// LeagueEntries returns the subject's current rank entries, platform route.
func (c *RiotClient) LeagueEntries(ctx context.Context, puuid string) ([]LeagueEntry, error) {
	u := fmt.Sprintf("https://%s.api.riotgames.com/lol/league/v4/entries/by-puuid/%s", c.platform, puuid)
	entries, err := doRequest[[]LeagueEntry](ctx, c, u)
	if err != nil {
		return nil, err
	}
	return *entries, nil
}

func doRequest[T any](ctx context.Context, client *RiotClient, url string) (*T, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("X-Riot-Token", client.apiKey)

	deadline, ok := ctx.Deadline()
	if ok {
		if err := client.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, fmt.Errorf("riot: %w", err)
		}
	} else {
		if err := client.client.Do(req, resp); err != nil {
			return nil, fmt.Errorf("riot: %w", err)
		}
	}

	client.updateRateLimit(resp)

	switch resp.StatusCode() {
	case fasthttp.StatusOK:
	case fasthttp.StatusNotFound:
		return nil, ErrNotFound
	case fasthttp.StatusTooManyRequests:
		retryAfter := 60 * time.Second
		if s := string(resp.Header.Peek("Retry-After")); s != "" {
			if secs, err := strconv.Atoi(s); err == nil {
				retryAfter = time.Duration(secs) * time.Second
			}
		}
		return nil, &RateLimitedError{RetryAfter: retryAfter}
	default:
		return nil, &ProviderError{Status: resp.StatusCode()}
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("riot: decode %s: %w", url, err)
	}
	return &result, nil
}

type AccountResponse struct {
	Puuid    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

type MatchResponse struct {
	Metadata struct {
		MatchID string `json:"matchId"`
	} `json:"metadata"`
	Info struct {
		GameCreation int64              `json:"gameCreation"` // unix millis
		GameDuration int64              `json:"gameDuration"` // seconds
		QueueID      int                `json:"queueId"`
		Participants []MatchParticipant `json:"participants"`
	} `json:"info"`
}

type MatchParticipant struct {
	Puuid                string `json:"puuid"`
	ChampionName         string `json:"championName"`
	TeamID               int    `json:"teamId"`
	TeamPosition         string `json:"teamPosition"`
	Kills                int    `json:"kills"`
	Deaths               int    `json:"deaths"`
	Assists              int    `json:"assists"`
	TotalMinionsKilled   int    `json:"totalMinionsKilled"`
	NeutralMinionsKilled int    `json:"neutralMinionsKilled"`
	VisionScore          int    `json:"visionScore"`
	Win                  bool   `json:"win"`
}

// ToDomain maps the wire shape onto the read-only record the pipeline consumes.
func (m *MatchResponse) ToDomain() domain.MatchRecord {
	record := domain.MatchRecord{
		MatchID:   m.Metadata.MatchID,
		CreatedAt: time.UnixMilli(m.Info.GameCreation),
		Duration:  time.Duration(m.Info.GameDuration) * time.Second,
		QueueID:   m.Info.QueueID,
	}
	for _, p := range m.Info.Participants {
		record.Participants = append(record.Participants, domain.ParticipantStat{
			PUUID:        p.Puuid,
			Champion:     p.ChampionName,
			TeamID:       p.TeamID,
			Role:         p.TeamPosition,
			Kills:        p.Kills,
			Deaths:       p.Deaths,
			Assists:      p.Assists,
			MinionKills:  p.TotalMinionsKilled,
			NeutralKills: p.NeutralMinionsKilled,
			VisionScore:  p.VisionScore,
			Win:          p.Win,
		})
	}
	return record
}

type LeagueEntry struct {
	QueueType    string `json:"queueType"`
	Tier         string `json:"tier"`
	Rank         string `json:"rank"`
	LeaguePoints int    `json:"leaguePoints"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
}
