// Package deepresearch runs a Claude research pass over a top-ranked
// agency and returns a structured reputation summary.
package deepresearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"

	"github.com/confiauto/agency-finder/internal/cost"
	"github.com/confiauto/agency-finder/internal/model"
)

const (
	// DefaultModel is the model used for deep analysis.
	DefaultModel = "claude-sonnet-4-5-20250929"

	defaultMaxTokens = 1024
)

// systemPrompt asks for a structured reputation assessment. The same
// prompt is sent for every agency in a run, so it carries a cache
// breakpoint: the first call warms the cache and the rest read it.
const systemPrompt = `Eres un analista de reputación de agencias de autos seminuevos en México. Con los datos proporcionados de una agencia, genera una evaluación breve de su confiabilidad: reputación general, señales positivas, riesgos a verificar y fuentes sugeridas para que el comprador investigue.

Responde ÚNICAMENTE con JSON válido, sin texto adicional:
{"summary": "evaluación en 2-3 frases", "strengths": ["..."], "concerns": ["..."], "sources": ["..."]}`

// Client runs deep analysis on a single agency.
type Client interface {
	// Analyze returns the research payload for an agency plus the token
	// usage the call consumed.
	Analyze(ctx context.Context, agency model.Agency) (*model.DeepAnalysis, cost.Usage, error)
}

// Option configures the client.
type Option func(*sdkClient)

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(c *sdkClient) {
		c.model = model
	}
}

// WithMaxTokens overrides the response token budget.
func WithMaxTokens(n int64) Option {
	return func(c *sdkClient) {
		c.maxTokens = n
	}
}

// WithBaseURL sets a custom API base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *sdkClient) {
		c.sdkOpts = append(c.sdkOpts, option.WithBaseURL(url))
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *sdkClient) {
		c.sdkOpts = append(c.sdkOpts, option.WithHTTPClient(hc))
	}
}

type sdkClient struct {
	client    sdk.Client
	model     string
	maxTokens int64
	sdkOpts   []option.RequestOption
}

// NewClient creates a deep research client backed by the Anthropic SDK.
func NewClient(apiKey string, opts ...Option) Client {
	c := &sdkClient{
		model:     DefaultModel,
		maxTokens: defaultMaxTokens,
		sdkOpts:   []option.RequestOption{option.WithAPIKey(apiKey)},
	}
	for _, o := range opts {
		o(c)
	}
	c.client = sdk.NewClient(c.sdkOpts...)
	return c
}

// Model returns the model the client analyzes with.
func (c *sdkClient) Model() string {
	return c.model
}

// analysisPayload is the JSON shape the prompt requests.
type analysisPayload struct {
	Summary   string   `json:"summary"`
	Strengths []string `json:"strengths"`
	Concerns  []string `json:"concerns"`
	Sources   []string `json:"sources"`
}

func (c *sdkClient) Analyze(ctx context.Context, agency model.Agency) (*model.DeepAnalysis, cost.Usage, error) {
	cacheControl := sdk.NewCacheControlEphemeralParam()
	cacheControl.TTL = sdk.CacheControlEphemeralTTL("1h")

	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: c.maxTokens,
		System: []sdk.TextBlockParam{
			{Text: systemPrompt, CacheControl: cacheControl},
		},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(agencyPrompt(agency))),
		},
	})
	if err != nil {
		return nil, cost.Usage{}, eris.Wrap(err, "deepresearch: create message")
	}

	usage := cost.Usage{
		InputTokens:              msg.Usage.InputTokens,
		OutputTokens:             msg.Usage.OutputTokens,
		CacheCreationInputTokens: msg.Usage.CacheCreationInputTokens,
		CacheReadInputTokens:     msg.Usage.CacheReadInputTokens,
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return nil, usage, eris.New("deepresearch: empty claude response")
	}

	analysis, err := parseAnalysis(text)
	if err != nil {
		return nil, usage, err
	}
	return analysis, usage, nil
}

// agencyPrompt formats the agency facts sent as the user message.
func agencyPrompt(a model.Agency) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Agencia: %s\n", a.Name)
	fmt.Fprintf(&b, "Dirección: %s\n", a.Address)
	fmt.Fprintf(&b, "Place ID: %s\n", a.PlaceID)
	if a.Rating != nil {
		fmt.Fprintf(&b, "Calificación: %.1f (%d reseñas)\n", *a.Rating, a.TotalReviewsOr(0))
	}
	if a.Website != "" {
		fmt.Fprintf(&b, "Sitio web: %s\n", a.Website)
	}
	if a.PhoneNumber != "" {
		fmt.Fprintf(&b, "Teléfono: %s\n", a.PhoneNumber)
	}
	return b.String()
}

// parseAnalysis extracts the JSON object from the response text, which
// may carry surrounding prose despite the prompt.
func parseAnalysis(text string) (*model.DeepAnalysis, error) {
	jsonStart := strings.Index(text, "{")
	jsonEnd := strings.LastIndex(text, "}")
	if jsonStart < 0 || jsonEnd < 0 || jsonEnd <= jsonStart {
		return nil, eris.Errorf("deepresearch: no JSON in response: %s", text)
	}

	var payload analysisPayload
	if err := json.Unmarshal([]byte(text[jsonStart:jsonEnd+1]), &payload); err != nil {
		return nil, eris.Wrap(err, "deepresearch: parse response JSON")
	}

	if strings.TrimSpace(payload.Summary) == "" {
		return nil, eris.New("deepresearch: response missing summary")
	}

	return &model.DeepAnalysis{
		Summary:   payload.Summary,
		Strengths: payload.Strengths,
		Concerns:  payload.Concerns,
		Sources:   payload.Sources,
	}, nil
}
