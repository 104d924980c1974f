package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pumpfun-radar/internal/bus"
	"pumpfun-radar/internal/domain"
	"pumpfun-radar/internal/enrich"
	"pumpfun-radar/internal/monitor"
)

const (
	validMint    = "So11111111111111111111111111111111111111112"
	validCreator = "5tzFkiKscXHK5ZXCGbXZxdw7gTjjD1mBwuoFbhUvuAi9"
)

// stubEnricher scores everything as passed unless failAll is set.
type stubEnricher struct {
	analyzedAt atomic.Int64
	failAll    bool
}

func (s *stubEnricher) Enrich(ctx context.Context, event domain.MigrationEvent, mode enrich.Mode) *domain.TokenRecord {
	if s.failAll {
		return nil
	}
	return &domain.TokenRecord{
		Address:    event.Mint,
		AnalyzedAt: s.analyzedAt.Add(1),
		Analysis: &domain.AnalysisResult{
			Passed: true,
			Score:  75,
		},
	}
}

func newTestServer(t *testing.T, enricher monitor.Enricher) (*Server, *monitor.Monitor) {
	t.Helper()
	m := monitor.New(monitor.Options{Enricher: enricher, Bus: bus.New()})
	t.Cleanup(m.Stop)
	return NewServer(Options{Monitor: m}), m
}

func decodeEnvelope(t *testing.T, body []byte) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(body, &env))
	return env
}

func TestTokensStartsMonitorAndReturnsEnvelope(t *testing.T) {
	server, m := newTestServer(t, &stubEnricher{})
	ts := httptest.NewServer(server.Routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/tokens")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var env struct {
		Success bool           `json:"success"`
		Data    tokensResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.True(t, env.Success)
	assert.True(t, env.Data.IsConnected)
	assert.Equal(t, 0, env.Data.Count)
	assert.NotNil(t, env.Data.Tokens)
	assert.True(t, m.Running())
}

func TestTokensPassedFilterAndLimit(t *testing.T) {
	server, m := newTestServer(t, &stubEnricher{})
	ts := httptest.NewServer(server.Routes())
	defer ts.Close()

	for _, mint := range []string{"MintA", "MintB", "MintC"} {
		m.Analyze(context.Background(), domain.MigrationEvent{Mint: mint})
	}

	resp, err := http.Get(ts.URL + "/tokens?passed=true&limit=2")
	require.NoError(t, err)
	defer resp.Body.Close()

	var env struct {
		Data tokensResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.Equal(t, 2, env.Data.Count)
	assert.Equal(t, "MintC", env.Data.Tokens[0].Address)
}

func TestTokensInvalidLimit(t *testing.T) {
	server, _ := newTestServer(t, &stubEnricher{})
	ts := httptest.NewServer(server.Routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/tokens?limit=abc")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTokenByAddressAndNotFound(t *testing.T) {
	server, m := newTestServer(t, &stubEnricher{})
	ts := httptest.NewServer(server.Routes())
	defer ts.Close()

	m.Analyze(context.Background(), domain.MigrationEvent{Mint: "MintA"})

	resp, err := http.Get(ts.URL + "/tokens/MintA")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	missing, err := http.Get(ts.URL + "/tokens/NoSuchMint")
	require.NoError(t, err)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)

	body := new(bytes.Buffer)
	body.ReadFrom(missing.Body)
	env := decodeEnvelope(t, body.Bytes())
	assert.False(t, env.Success)
	assert.Equal(t, "token not found", env.Error)
}

func TestStats(t *testing.T) {
	server, m := newTestServer(t, &stubEnricher{})
	ts := httptest.NewServer(server.Routes())
	defer ts.Close()

	m.Analyze(context.Background(), domain.MigrationEvent{Mint: "MintA"})

	resp, err := http.Get(ts.URL + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	var env struct {
		Success bool                `json:"success"`
		Data    domain.MonitorStats `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.True(t, env.Success)
	assert.Equal(t, int64(1), env.Data.Monitored)
	assert.Equal(t, int64(1), env.Data.Passed)
}

func TestAnalyzeValidation(t *testing.T) {
	server, _ := newTestServer(t, &stubEnricher{})
	ts := httptest.NewServer(server.Routes())
	defer ts.Close()

	for _, body := range []string{
		`{"tokenAddress": "not-base58!!"}`,
		`{"tokenAddress": ""}`,
		`not json`,
	} {
		resp, err := http.Post(ts.URL+"/analyze", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "body: %s", body)
	}
}

func TestAnalyzeRunsFullEnrichment(t *testing.T) {
	server, m := newTestServer(t, &stubEnricher{})
	ts := httptest.NewServer(server.Routes())
	defer ts.Close()

	body := `{"tokenAddress": "` + validMint + `", "creator": "` + validCreator + `"}`
	resp, err := http.Post(ts.URL+"/analyze", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var env struct {
		Success bool               `json:"success"`
		Data    domain.TokenRecord `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.True(t, env.Success)
	assert.Equal(t, validMint, env.Data.Address)

	// The record also lands in history.
	assert.NotNil(t, m.Get(validMint))
}

func TestAnalyzeFailureReturns500(t *testing.T) {
	server, _ := newTestServer(t, &stubEnricher{failAll: true})
	ts := httptest.NewServer(server.Routes())
	defer ts.Close()

	body := `{"tokenAddress": "` + validMint + `"}`
	resp, err := http.Post(ts.URL+"/analyze", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	buf := new(bytes.Buffer)
	buf.ReadFrom(resp.Body)
	env := decodeEnvelope(t, buf.Bytes())
	assert.False(t, env.Success)
	assert.Equal(t, "analysis failed", env.Error)
}

func TestHealth(t *testing.T) {
	server, _ := newTestServer(t, &stubEnricher{})
	ts := httptest.NewServer(server.Routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// readSSEEvent reads one "event:"/"data:" frame from the stream.
func readSSEEvent(t *testing.T, reader *bufio.Reader) (string, string) {
	t.Helper()
	var name, data string
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "" && name != "":
			return name, data
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestStreamHandshakeAndLiveEvents(t *testing.T) {
	server, m := newTestServer(t, &stubEnricher{})
	ts := httptest.NewServer(server.Routes())
	defer ts.Close()

	m.Analyze(context.Background(), domain.MigrationEvent{Mint: "MintA"})
	m.Analyze(context.Background(), domain.MigrationEvent{Mint: "MintB"})

	m.Start()
	require.Eventually(t, m.InitialLoadComplete, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	require.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))

	reader := bufio.NewReader(resp.Body)

	name, data := readSSEEvent(t, reader)
	assert.Equal(t, "connected", name)
	var connected map[string]any
	require.NoError(t, json.Unmarshal([]byte(data), &connected))
	assert.Equal(t, "connected", connected["status"])

	name, data = readSSEEvent(t, reader)
	require.Equal(t, "initial", name)
	var initial initialPayload
	require.NoError(t, json.Unmarshal([]byte(data), &initial))
	assert.Len(t, initial.Tokens, 2)
	assert.Equal(t, "MintB", initial.Tokens[0].Address)

	name, data = readSSEEvent(t, reader)
	require.Equal(t, "loaded", name)
	var loaded map[string]any
	require.NoError(t, json.Unmarshal([]byte(data), &loaded))
	assert.Equal(t, "history_loaded", loaded["status"])
	assert.Equal(t, float64(2), loaded["count"])

	// A live analysis reaches the subscriber as a token event.
	go m.Analyze(context.Background(), domain.MigrationEvent{Mint: "MintC"})

	for {
		name, data = readSSEEvent(t, reader)
		if name != "token" {
			continue
		}
		var payload tokenPayload
		require.NoError(t, json.Unmarshal([]byte(data), &payload))
		if payload.Token.Address == "MintC" {
			assert.Equal(t, "passed", payload.Type)
			return
		}
	}
}

func TestStreamDisconnectCleansUp(t *testing.T) {
	server, m := newTestServer(t, &stubEnricher{})
	ts := httptest.NewServer(server.Routes())
	defer ts.Close()

	m.Start()
	require.Eventually(t, m.InitialLoadComplete, 2*time.Second, 10*time.Millisecond)

	before := m.Bus().SubscriberCount()

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	reader := bufio.NewReader(resp.Body)
	name, _ := readSSEEvent(t, reader)
	require.Equal(t, "connected", name)

	cancel()
	resp.Body.Close()

	require.Eventually(t, func() bool {
		return m.Bus().SubscriberCount() == before
	}, 2*time.Second, 10*time.Millisecond)
}
