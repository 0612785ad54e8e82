// Package tmdb looks up presentation metadata for movies on The Movie
// Database.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultBaseURL is the public TMDB API endpoint.
const DefaultBaseURL = "https://api.themoviedb.org/3"

const (
	posterBaseURL  = "https://image.tmdb.org/t/p/w500"
	youtubeWatch   = "https://www.youtube.com/watch?v="
	defaultTimeout = 10 * time.Second
	castNames      = 3
)

// Metadata is the presentation block attached to a recommendation reveal.
// Every field defaults to its zero value independently; a movie that TMDB
// does not know yields the zero Metadata, never an error.
type Metadata struct {
	PosterURL  string `json:"poster_url"`
	TrailerURL string `json:"trailer_url"`
	Director   string `json:"director"`
	Cast       string `json:"cast"`
	Budget     int64  `json:"budget"`
	Revenue    int64  `json:"revenue"`
}

// Client fetches movie metadata from the TMDB API.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a TMDB client against the public API.
func NewClient(apiKey string, log *slog.Logger) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		language:   "pt-BR",
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        log,
	}
}

// WithBaseURL points the client at a different endpoint.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = strings.TrimRight(u, "/")
	return c
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// FullMovieData resolves a movie by English title and release year and
// gathers its poster, trailer, director, lead cast, budget, and revenue.
// The details, credits, and videos lookups run concurrently once the search
// resolves an ID. Fields that fail to resolve keep their defaults; only
// transport-level failures of the search itself surface as errors.
func (c *Client) FullMovieData(ctx context.Context, titleEN string, year int) (Metadata, error) {
	id, err := c.search(ctx, titleEN, year)
	if err != nil {
		return Metadata{}, err
	}
	if id == 0 {
		c.log.Debug("movie not found on TMDB", "title", titleEN, "year", year)
		return Metadata{}, nil
	}

	var meta Metadata
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		details, err := c.details(gctx, id)
		if err != nil {
			c.log.Warn("TMDB details lookup failed", "title", titleEN, "error", err)
			return nil
		}
		if details.PosterPath != "" {
			meta.PosterURL = posterBaseURL + details.PosterPath
		}
		meta.Budget = details.Budget
		meta.Revenue = details.Revenue
		return nil
	})

	g.Go(func() error {
		credits, err := c.credits(gctx, id)
		if err != nil {
			c.log.Warn("TMDB credits lookup failed", "title", titleEN, "error", err)
			return nil
		}
		for _, member := range credits.Crew {
			if member.Job == "Director" {
				meta.Director = member.Name
				break
			}
		}
		names := make([]string, 0, castNames)
		for _, member := range credits.Cast {
			names = append(names, member.Name)
			if len(names) == castNames {
				break
			}
		}
		meta.Cast = strings.Join(names, ", ")
		return nil
	})

	g.Go(func() error {
		videos, err := c.videos(gctx, id)
		if err != nil {
			c.log.Warn("TMDB videos lookup failed", "title", titleEN, "error", err)
			return nil
		}
		for _, v := range videos.Results {
			if v.Site == "YouTube" && strings.Contains(v.Type, "Trailer") {
				meta.TrailerURL = youtubeWatch + v.Key
				break
			}
		}
		return nil
	})

	// The goroutines swallow their own errors, so Wait only propagates
	// context cancellation.
	if err := g.Wait(); err != nil {
		return meta, err
	}
	return meta, nil
}

type searchResponse struct {
	Results []struct {
		ID int `json:"id"`
	} `json:"results"`
}

// search returns the TMDB ID of the first result, or zero when the title is
// unknown.
func (c *Client) search(ctx context.Context, title string, year int) (int, error) {
	query := url.Values{
		"api_key":  {c.apiKey},
		"language": {c.language},
		"query":    {title},
	}
	if year > 0 {
		query.Set("year", strconv.Itoa(year))
	}

	var result searchResponse
	if err := c.get(ctx, "/search/movie", query, &result); err != nil {
		return 0, err
	}
	if len(result.Results) == 0 {
		return 0, nil
	}
	return result.Results[0].ID, nil
}

type detailsResponse struct {
	PosterPath string `json:"poster_path"`
	Budget     int64  `json:"budget"`
	Revenue    int64  `json:"revenue"`
}

func (c *Client) details(ctx context.Context, id int) (*detailsResponse, error) {
	var result detailsResponse
	if err := c.get(ctx, fmt.Sprintf("/movie/%d", id), c.baseQuery(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type creditsResponse struct {
	Cast []struct {
		Name string `json:"name"`
	} `json:"cast"`
	Crew []struct {
		Name string `json:"name"`
		Job  string `json:"job"`
	} `json:"crew"`
}

func (c *Client) credits(ctx context.Context, id int) (*creditsResponse, error) {
	var result creditsResponse
	if err := c.get(ctx, fmt.Sprintf("/movie/%d/credits", id), c.baseQuery(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type videosResponse struct {
	Results []struct {
		Key  string `json:"key"`
		Site string `json:"site"`
		Type string `json:"type"`
	} `json:"results"`
}

func (c *Client) videos(ctx context.Context, id int) (*videosResponse, error) {
	var result videosResponse
	if err := c.get(ctx, fmt.Sprintf("/movie/%d/videos", id), c.baseQuery(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) baseQuery() url.Values {
	return url.Values{
		"api_key":  {c.apiKey},
		"language": {c.language},
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build TMDB request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("TMDB request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("TMDB returned status %d for %s", resp.StatusCode, path)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode TMDB response: %w", err)
	}
	return nil
}
