// Package places is a Google Places API (New) client covering the two
// operations the pipeline needs: nearby discovery and review fetch.
package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/confiauto/agency-finder/internal/model"
	"github.com/confiauto/agency-finder/internal/resilience"
)

const (
	defaultBaseURL = "https://places.googleapis.com/v1"

	// maxReviews bounds how many reviews a single fetch returns.
	maxReviews = 10

	// reviewFetchTimeout keeps a slow review fetch from stalling its batch.
	reviewFetchTimeout = 10 * time.Second

	searchFieldMask = "places.id,places.displayName,places.formattedAddress,places.location," +
		"places.rating,places.userRatingCount,places.nationalPhoneNumber,places.websiteUri," +
		"places.regularOpeningHours.weekdayDescriptions,places.types"
)

// Client performs Google Places operations.
type Client interface {
	// SearchNearby discovers businesses matching keyword within
	// radiusMeters of loc.
	SearchNearby(ctx context.Context, loc model.Location, radiusMeters int, keyword string) ([]model.Agency, error)

	// FetchReviews returns up to maxReviews reviews for a place.
	FetchReviews(ctx context.Context, placeID string) ([]model.Review, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit overrides the default requests-per-second limit.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Places API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(5, 5),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type searchTextRequest struct {
	TextQuery    string        `json:"textQuery"`
	LocationBias *locationBias `json:"locationBias,omitempty"`
}

type locationBias struct {
	Circle circle `json:"circle"`
}

type circle struct {
	Center latLng  `json:"center"`
	Radius float64 `json:"radius"`
}

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type searchTextResponse struct {
	Places []place `json:"places"`
}

type place struct {
	ID                  string        `json:"id"`
	DisplayName         displayName   `json:"displayName"`
	FormattedAddress    string        `json:"formattedAddress"`
	Location            latLng        `json:"location"`
	Rating              *float64      `json:"rating"`
	UserRatingCount     *int          `json:"userRatingCount"`
	NationalPhoneNumber string        `json:"nationalPhoneNumber"`
	WebsiteURI          string        `json:"websiteUri"`
	RegularOpeningHours *openingHours `json:"regularOpeningHours"`
	Types               []string      `json:"types"`
}

type displayName struct {
	Text string `json:"text"`
}

type openingHours struct {
	WeekdayDescriptions []string `json:"weekdayDescriptions"`
}

type placeDetailsResponse struct {
	Reviews []reviewPayload `json:"reviews"`
}

type reviewPayload struct {
	Rating                         float64           `json:"rating"`
	Text                           reviewText        `json:"text"`
	AuthorAttribution              authorAttribution `json:"authorAttribution"`
	PublishTime                    time.Time         `json:"publishTime"`
	RelativePublishTimeDescription string            `json:"relativePublishTimeDescription"`
}

type reviewText struct {
	Text string `json:"text"`
}

type authorAttribution struct {
	DisplayName string `json:"displayName"`
}

func (c *httpClient) SearchNearby(ctx context.Context, loc model.Location, radiusMeters int, keyword string) ([]model.Agency, error) {
	body := searchTextRequest{
		TextQuery: keyword,
		LocationBias: &locationBias{
			Circle: circle{
				Center: latLng{Latitude: loc.Lat, Longitude: loc.Lng},
				Radius: float64(radiusMeters),
			},
		},
	}

	var resp searchTextResponse
	if err := c.post(ctx, "/places:searchText", searchFieldMask, body, &resp); err != nil {
		return nil, eris.Wrap(err, "places: search nearby")
	}

	agencies := make([]model.Agency, 0, len(resp.Places))
	for _, p := range resp.Places {
		agencies = append(agencies, toAgency(p))
	}
	return agencies, nil
}

func (c *httpClient) FetchReviews(ctx context.Context, placeID string) ([]model.Review, error) {
	ctx, cancel := context.WithTimeout(ctx, reviewFetchTimeout)
	defer cancel()

	var resp placeDetailsResponse
	if err := c.get(ctx, "/places/"+placeID, "reviews", &resp); err != nil {
		return nil, eris.Wrap(err, "places: fetch reviews")
	}

	reviews := make([]model.Review, 0, len(resp.Reviews))
	for _, r := range resp.Reviews {
		if len(reviews) >= maxReviews {
			break
		}
		reviews = append(reviews, model.Review{
			Author:                  r.AuthorAttribution.DisplayName,
			Rating:                  r.Rating,
			Text:                    r.Text.Text,
			Time:                    r.PublishTime.Unix(),
			RelativeTimeDescription: r.RelativePublishTimeDescription,
		})
	}
	return reviews, nil
}

func (c *httpClient) post(ctx context.Context, path, fieldMask string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return eris.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.send(req, fieldMask, out)
}

func (c *httpClient) get(ctx context.Context, path, fieldMask string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	return c.send(req, fieldMask, out)
}

func (c *httpClient) send(req *http.Request, fieldMask string, out any) error {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return eris.Wrap(err, "rate limiter")
	}

	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "send request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return eris.Wrap(err, "read response")
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.New(fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(raw, 200)))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return resilience.NewTransientError(err, resp.StatusCode)
		}
		return err
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return eris.Wrap(err, "decode response")
	}
	return nil
}

func toAgency(p place) model.Agency {
	a := model.Agency{
		PlaceID:      p.ID,
		Name:         p.DisplayName.Text,
		Address:      p.FormattedAddress,
		Location:     model.Location{Lat: p.Location.Latitude, Lng: p.Location.Longitude},
		Rating:       p.Rating,
		TotalReviews: p.UserRatingCount,
		PhoneNumber:  p.NationalPhoneNumber,
		Website:      p.WebsiteURI,
		PlaceTypes:   p.Types,
	}
	if p.RegularOpeningHours != nil {
		a.OpeningHours = p.RegularOpeningHours.WeekdayDescriptions
	}
	return a
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
