package deepresearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confiauto/agency-finder/internal/model"
)

func float64Ptr(v float64) *float64 { return &v }
func intPtr(v int) *int             { return &v }

func testAgency() model.Agency {
	return model.Agency{
		PlaceID:      "place-1",
		Name:         "Autos del Valle",
		Address:      "Av. Reforma 100, CDMX",
		Rating:       float64Ptr(4.6),
		TotalReviews: intPtr(128),
		Website:      "https://autosdelvalle.mx",
	}
}

func messageResponse(text string) map[string]any {
	return map[string]any{
		"id":   "msg_test_001",
		"type": "message",
		"role": "assistant",
		"content": []map[string]any{
			{"type": "text", "text": text},
		},
		"model":       DefaultModel,
		"stop_reason": "end_turn",
		"usage": map[string]any{
			"input_tokens":                120,
			"output_tokens":               80,
			"cache_creation_input_tokens": 500,
			"cache_read_input_tokens":     0,
		},
	}
}

func TestAnalyze_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "/messages")

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultModel, req["model"])

		msgs, ok := req["messages"].([]any)
		require.True(t, ok)
		require.Len(t, msgs, 1)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(messageResponse(
			`{"summary":"Agencia establecida con buena reputación.","strengths":["Alta calificación"],"concerns":["Verificar garantías por escrito"],"sources":["https://www.gob.mx/profeco"]}`,
		))
	}))
	defer ts.Close()

	client := NewClient("test-key", WithBaseURL(ts.URL))
	analysis, usage, err := client.Analyze(context.Background(), testAgency())

	require.NoError(t, err)
	require.NotNil(t, analysis)
	assert.Equal(t, "Agencia establecida con buena reputación.", analysis.Summary)
	assert.Equal(t, []string{"Alta calificación"}, analysis.Strengths)
	assert.Equal(t, []string{"Verificar garantías por escrito"}, analysis.Concerns)
	assert.Equal(t, []string{"https://www.gob.mx/profeco"}, analysis.Sources)

	assert.Equal(t, int64(120), usage.InputTokens)
	assert.Equal(t, int64(80), usage.OutputTokens)
	assert.Equal(t, int64(500), usage.CacheCreationInputTokens)
}

func TestAnalyze_JSONWithSurroundingText(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(messageResponse(
			"Aquí está la evaluación:\n{\"summary\":\"Confiable en general.\"}\nEspero que sea útil.",
		))
	}))
	defer ts.Close()

	client := NewClient("test-key", WithBaseURL(ts.URL))
	analysis, _, err := client.Analyze(context.Background(), testAgency())

	require.NoError(t, err)
	assert.Equal(t, "Confiable en general.", analysis.Summary)
	assert.Empty(t, analysis.Strengths)
}

func TestAnalyze_NoJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(messageResponse("No puedo evaluar esta agencia."))
	}))
	defer ts.Close()

	client := NewClient("test-key", WithBaseURL(ts.URL))
	_, usage, err := client.Analyze(context.Background(), testAgency())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no JSON")
	// Usage is still reported so the run can account for the spend.
	assert.Equal(t, int64(120), usage.InputTokens)
}

func TestAnalyze_MissingSummary(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(messageResponse(`{"strengths":["algo"]}`))
	}))
	defer ts.Close()

	client := NewClient("test-key", WithBaseURL(ts.URL))
	_, _, err := client.Analyze(context.Background(), testAgency())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing summary")
}

func TestAnalyze_APIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad request"}}`))
	}))
	defer ts.Close()

	client := NewClient("test-key", WithBaseURL(ts.URL))
	_, _, err := client.Analyze(context.Background(), testAgency())

	require.Error(t, err)
}

func TestAgencyPrompt(t *testing.T) {
	prompt := agencyPrompt(testAgency())

	assert.Contains(t, prompt, "Autos del Valle")
	assert.Contains(t, prompt, "Av. Reforma 100")
	assert.Contains(t, prompt, "4.6")
	assert.Contains(t, prompt, "128 reseñas")
	assert.Contains(t, prompt, "autosdelvalle.mx")

	// Unrated agencies omit the rating line entirely.
	unrated := agencyPrompt(model.Agency{PlaceID: "p2", Name: "Seminuevos Norte"})
	assert.NotContains(t, unrated, "Calificación")
}

func TestParseAnalysis_InvalidJSON(t *testing.T) {
	_, err := parseAnalysis(`{"summary": "truncated...`)
	require.Error(t, err)
}

func TestWithModel(t *testing.T) {
	c := NewClient("test-key", WithModel("claude-haiku-4-5-20251001"))
	sc := c.(*sdkClient)
	assert.Equal(t, "claude-haiku-4-5-20251001", sc.model)
}
