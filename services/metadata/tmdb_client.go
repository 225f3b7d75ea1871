package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	defaultBaseURL      = "https://api.themoviedb.org/3"
	defaultImageBaseURL = "https://image.tmdb.org/t/p/original"

	tmdbTimeout       = 15 * time.Second
	tmdbRetryAttempts = 3
	tmdbRetryDelay    = 300 * time.Millisecond
)

// tmdbClient is a minimal TMDB v3 client covering the movie and TV search
// endpoints the resolver needs.
type tmdbClient struct {
	apiKey       string
	language     string
	baseURL      string
	imageBaseURL string
	httpc        *http.Client
}

func newTMDBClient(apiKey, language string, httpc *http.Client) *tmdbClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: tmdbTimeout}
	}
	return &tmdbClient{
		apiKey:       apiKey,
		language:     language,
		baseURL:      defaultBaseURL,
		imageBaseURL: defaultImageBaseURL,
		httpc:        httpc,
	}
}

// tmdbResult is one ranked search hit. Movie results carry title and
// release_date; TV results name and first_air_date.
type tmdbResult struct {
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	VoteAverage  float64 `json:"vote_average"`
}

// search queries the movie or TV search endpoint and returns the first ranked
// result, or nil when the query matches nothing.
func (c *tmdbClient) search(ctx context.Context, title string, year int, movie bool) (*tmdbResult, error) {
	path := "/search/tv"
	yearParam := "first_air_date_year"
	if movie {
		path = "/search/movie"
		yearParam = "year"
	}

	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("query", title)
	params.Set("language", c.language)
	params.Set("include_adult", "false")
	if year > 0 {
		params.Set(yearParam, strconv.Itoa(year))
	}
	u := c.baseURL + path + "?" + params.Encode()

	var resp struct {
		Results []tmdbResult `json:"results"`
	}
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			r, err := c.httpc.Do(req)
			if err != nil {
				return fmt.Errorf("tmdb search: %w", err)
			}
			defer r.Body.Close()

			if r.StatusCode == http.StatusTooManyRequests || r.StatusCode >= 500 {
				return fmt.Errorf("tmdb search: %s", r.Status)
			}
			if r.StatusCode >= 300 {
				body, _ := io.ReadAll(io.LimitReader(r.Body, 2048))
				return retry.Unrecoverable(fmt.Errorf("tmdb search: %s: %s",
					r.Status, strings.TrimSpace(string(body))))
			}
			if err := json.NewDecoder(r.Body).Decode(&resp); err != nil {
				return retry.Unrecoverable(fmt.Errorf("tmdb decode: %w", err))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(tmdbRetryAttempts),
		retry.Delay(tmdbRetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	return &resp.Results[0], nil
}

// imageURL resolves a TMDB image path against the original-size image host.
func (c *tmdbClient) imageURL(path string) string {
	if path == "" {
		return ""
	}
	return c.imageBaseURL + path
}
