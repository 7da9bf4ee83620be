package wiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"rocketpass/internal/config"
)

var (
	ErrMissingAPIKey     = errors.New("SERPAPI_KEY is not defined")
	ErrPlaceholderAPIKey = errors.New("SERPAPI_KEY is still set to the placeholder value")
	ErrNoWikiResult      = errors.New("no fandom wiki link in search results")
)

type organicResult struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	Link     string `json:"link"`
}

type searchResponse struct {
	Error          string          `json:"error"`
	OrganicResults []organicResult `json:"organic_results"`
}

func SearchQuery(season int) string {
	return fmt.Sprintf("rocket league season %d rocket pass wiki fandom", season)
}

// CheckAPIKey validates the search credential before any request is made.
func CheckAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrMissingAPIKey
	}
	if key == config.PlaceholderAPIKey {
		return ErrPlaceholderAPIKey
	}
	return nil
}

// LocateRewardsPage asks the search API for the season's Rocket Pass page
// and returns the first result hosted on the configured wiki domain.
func (c *Client) LocateRewardsPage(ctx context.Context, season int) (string, error) {
	if err := CheckAPIKey(c.cfg.SerpAPIKey); err != nil {
		return "", err
	}

	body, err := c.get(ctx, c.cfg.SerpAPIBaseURL, map[string]string{
		"engine":  c.cfg.SerpAPIEngine,
		"api_key": c.cfg.SerpAPIKey,
		"q":       SearchQuery(season),
		"num":     strconv.Itoa(c.cfg.SerpAPINumResults),
	}, "application/json")
	if err != nil {
		return "", fmt.Errorf("search: %w", err)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decoding search response: %w", err)
	}
	if resp.Error != "" {
		return "", fmt.Errorf("search api: %s", resp.Error)
	}

	link, ok := pickWikiLink(resp.OrganicResults, c.cfg.WikiDomain)
	if !ok {
		return "", fmt.Errorf("%w (domain %s, season %d)", ErrNoWikiResult, c.cfg.WikiDomain, season)
	}
	return link, nil
}

func pickWikiLink(results []organicResult, domain string) (string, bool) {
	for _, r := range results {
		if strings.Contains(r.Link, domain) {
			return r.Link, true
		}
	}
	return "", false
}
