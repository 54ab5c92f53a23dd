package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindmesh/synthroute/internal/backend"
	"github.com/mindmesh/synthroute/internal/executor"
	"github.com/mindmesh/synthroute/internal/health"
	"github.com/mindmesh/synthroute/internal/intent"
	"github.com/mindmesh/synthroute/internal/queue"
	"github.com/mindmesh/synthroute/internal/service"
	"github.com/mindmesh/synthroute/internal/strategy"
	"github.com/mindmesh/synthroute/internal/synthesis"
)

func newTestServer(t *testing.T, upstream string) (*Server, *queue.Controller) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	backends := strategy.DefaultBackends()
	var clients []backend.Client
	for _, name := range []string{backends.Precision, backends.Creative, backends.HighCapacity} {
		clients = append(clients, backend.NewOpenAICompat(backend.Config{
			Name:    name,
			BaseURL: upstream,
			Model:   "test-model",
			Timeout: 2 * time.Second,
		}))
	}
	registry, err := backend.NewRegistry(clients...)
	require.NoError(t, err)

	oracle := health.NewOracle(health.DefaultConfig(), registry.Names(), nil)
	selector := strategy.NewSelector(intent.NewClassifier(), oracle, backends)
	local := synthesis.NewLocal(nil)
	exec := executor.New(registry, oracle, executor.NewAffinityTable(backends), local, nil)
	ctrl := queue.NewController(queue.Config{}, exec, nil)
	t.Cleanup(ctrl.Stop)

	svc := service.New(selector, ctrl, synthesis.NewCombiner(), local)
	return NewServer(svc, oracle, ctrl), ctrl
}

func chatCompletion(content string) string {
	return `{"choices":[{"message":{"role":"assistant","content":"` + content + `"}}]}`
}

func TestHandleSynthesize(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chatCompletion("synthesized output")))
	}))
	defer upstream.Close()

	srv, _ := newTestServer(t, upstream.URL)
	router := srv.Router()

	body, _ := json.Marshal(SynthesizeRequest{Text: "analyze the failure modes of this design"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/synthesize", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var result struct {
		Content      string  `json:"content"`
		StrategyUsed string  `json:"strategy_used"`
		Backend      string  `json:"backend"`
		Confidence   float64 `json:"confidence"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "synthesized output", result.Content)
	assert.NotEmpty(t, result.Backend)
	assert.Greater(t, result.Confidence, 0.0)
}

func TestHandleSynthesize_MissingText(t *testing.T) {
	srv, _ := newTestServer(t, "http://127.0.0.1:0")
	router := srv.Router()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/synthesize", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleSynthesize_AllBackendsDown(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	}))
	defer upstream.Close()

	srv, _ := newTestServer(t, upstream.URL)
	router := srv.Router()

	body, _ := json.Marshal(SynthesizeRequest{Text: "tell me a story about resilience"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/synthesize", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	// Backend failures degrade to local synthesis, never an error status.
	require.Equal(t, http.StatusOK, w.Code)

	var result struct {
		Content      string `json:"content"`
		StrategyUsed string `json:"strategy_used"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.NotEmpty(t, result.Content)
	assert.Equal(t, "local", result.StrategyUsed)
}

func TestHandleHealth(t *testing.T) {
	srv, ctrl := newTestServer(t, "http://127.0.0.1:0")
	_ = ctrl
	router := srv.Router()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Len(t, resp.Backends, 3)
	assert.Zero(t, resp.QueueDepth)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, "http://127.0.0.1:0")
	router := srv.Router()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
