package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://api.apify.com/v2"
	// clockworks~tiktok-profile-scraper
	profileActorID = "GdWCkxBtKWOsKjdch"
)

// Scraper resolves a profile name to a list of recent video URLs.
type Scraper interface {
	ScrapeProfile(ctx context.Context, profileName string, limit int) ([]string, error)
}

// ScrapeError wraps a backend failure while scraping a profile.
type ScrapeError struct {
	Profile string
	Err     error
}

func (e *ScrapeError) Error() string {
	return fmt.Sprintf("failed to scrape profile %q: %v", e.Profile, e.Err)
}

func (e *ScrapeError) Unwrap() error { return e.Err }

// ApifyScraper implements Scraper against the Apify REST API.
type ApifyScraper struct {
	apiToken     string
	baseURL      string
	pollInterval time.Duration
	client       *http.Client
}

// NewApifyScraper creates a scraper with the given API token.
func NewApifyScraper(apiToken string) (*ApifyScraper, error) {
	if apiToken == "" {
		return nil, fmt.Errorf("an Apify API token is required for profile scraping")
	}
	return &ApifyScraper{
		apiToken:     apiToken,
		baseURL:      defaultBaseURL,
		pollInterval: 3 * time.Second,
		client: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}, nil
}

// ScrapeProfile runs the profile-scraper actor and extracts video page URLs
// from its dataset. An empty list is a valid success: the profile may be
// private or have no videos.
func (s *ApifyScraper) ScrapeProfile(ctx context.Context, profileName string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 3
	}

	runID, err := s.startActorRun(ctx, profileName, limit)
	if err != nil {
		return nil, &ScrapeError{Profile: profileName, Err: fmt.Errorf("failed to start actor run: %w", err)}
	}

	rawItems, err := s.waitAndGetResults(ctx, runID)
	if err != nil {
		return nil, &ScrapeError{Profile: profileName, Err: fmt.Errorf("failed to get results: %w", err)}
	}

	urls, err := extractVideoURLs(rawItems, limit)
	if err != nil {
		return nil, &ScrapeError{Profile: profileName, Err: err}
	}
	return urls, nil
}

func (s *ApifyScraper) startActorRun(ctx context.Context, profileName string, limit int) (string, error) {
	url := fmt.Sprintf("%s/acts/%s/runs?token=%s", s.baseURL, profileActorID, s.apiToken)

	input := map[string]interface{}{
		"profiles":             []string{profileName},
		"resultsPerPage":       limit,
		"shouldDownloadVideos": false,
	}
	body, _ := json.Marshal(input)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("failed to start actor: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Data.ID, nil
}

func (s *ApifyScraper) waitAndGetResults(ctx context.Context, runID string) ([]byte, error) {
	statusURL := fmt.Sprintf("%s/actor-runs/%s?token=%s", s.baseURL, runID, s.apiToken)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.pollInterval):
		}

		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
		resp, err := s.client.Do(req)
		if err != nil {
			return nil, err
		}

		var status struct {
			Data struct {
				Status           string `json:"status"`
				DefaultDatasetID string `json:"defaultDatasetId"`
			} `json:"data"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
			resp.Body.Close()
			return nil, err
		}
		resp.Body.Close()

		switch status.Data.Status {
		case "SUCCEEDED":
			return s.getDatasetItems(ctx, status.Data.DefaultDatasetID)
		case "FAILED", "ABORTED", "TIMED-OUT":
			return nil, fmt.Errorf("actor run failed with status: %s", status.Data.Status)
		}
		// Still running, continue polling
	}
}

func (s *ApifyScraper) getDatasetItems(ctx context.Context, datasetID string) ([]byte, error) {
	url := fmt.Sprintf("%s/datasets/%s/items?token=%s", s.baseURL, datasetID, s.apiToken)

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// extractVideoURLs pulls webVideoUrl out of each dataset item, capped at limit.
func extractVideoURLs(rawData []byte, limit int) ([]string, error) {
	var items []map[string]interface{}
	if err := json.Unmarshal(rawData, &items); err != nil {
		return nil, fmt.Errorf("failed to parse dataset items: %w", err)
	}

	var urls []string
	for _, item := range items {
		if val, ok := item["webVideoUrl"].(string); ok && val != "" {
			urls = append(urls, val)
			if len(urls) >= limit {
				break
			}
		}
	}
	return urls, nil
}
