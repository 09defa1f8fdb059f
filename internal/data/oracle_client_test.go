package data

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Nolin2/eco-predict-ai-carborn-emission-AI-Function-Backend/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupOracleClient(t *testing.T, handler http.HandlerFunc) *oracleClient {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := &conf.Bootstrap{
		Client: &conf.Client{
			Gemini: &conf.Gemini{
				Endpoint: srv.URL,
				ApiKey:   "test-key",
				Model:    "gemini-1.5-flash",
				Timeout:  "2s",
			},
		},
	}
	client, err := NewOracleClient(c, log.NewStdLogger(discardWriter{}))
	require.NoError(t, err)
	return client.(*oracleClient)
}

func geminiReply(text string) []byte {
	reply := map[string]interface{}{
		"candidates": []map[string]interface{}{
			{"content": map[string]interface{}{
				"parts": []map[string]string{{"text": text}},
			}},
		},
	}
	b, _ := json.Marshal(reply)
	return b
}

func TestGenerateAnalysisSuccess(t *testing.T) {
	var gotPath, gotKey string
	client := setupOracleClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		w.Write(geminiReply(`{"summary":"low footprint","total_emission_kg":12.5}`))
	})

	result, err := client.GenerateAnalysis(context.Background(), json.RawMessage(`{"kwh":10}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"summary":"low footprint","total_emission_kg":12.5}`, string(result))
	assert.Equal(t, "/v1beta/models/gemini-1.5-flash:generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)
}

func TestGenerateAnalysisStripsCodeFences(t *testing.T) {
	client := setupOracleClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(geminiReply("```json\n{\"summary\":\"ok\"}\n```"))
	})

	result, err := client.GenerateAnalysis(context.Background(), json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"summary":"ok"}`, string(result))
}

func TestGenerateAnalysisEmptyCandidatesFails(t *testing.T) {
	client := setupOracleClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	})

	_, err := client.GenerateAnalysis(context.Background(), json.RawMessage(`{}`))
	assert.Error(t, err)
}

func TestGenerateAnalysisMalformedJSONFails(t *testing.T) {
	client := setupOracleClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(geminiReply("this is not json"))
	})

	_, err := client.GenerateAnalysis(context.Background(), json.RawMessage(`{}`))
	assert.Error(t, err)
}

func TestGenerateAnalysisUpstreamErrorFails(t *testing.T) {
	client := setupOracleClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.GenerateAnalysis(context.Background(), json.RawMessage(`{}`))
	assert.Error(t, err)
}
