package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cinemad/internal/builder"
	"github.com/roach88/cinemad/internal/engine"
	"github.com/roach88/cinemad/internal/ir"
	"github.com/roach88/cinemad/internal/metrics"
	"github.com/roach88/cinemad/internal/session"
	"github.com/roach88/cinemad/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestRouter(t *testing.T) http.Handler {
	t.Helper()
	records := testutil.Records([]string{"id", "kind"},
		[]any{"A", "iso"}, []any{"B", "slice"}, []any{"C", "iso"},
	)
	doc := &ir.Document{
		Sources: []ir.SourceSpec{{ID: "s", URI: "s.csv", Mime: "text/csv"}},
		Displays: []ir.DisplaySpec{{
			ID: "main", Label: "Main", Source: "s",
			Structures: []ir.StructureSpec{
				{ID: "kind", Type: builder.TypeCategory, Label: "Kind", IO: ir.IOInput, Arguments: ir.Object{"value": ir.String("kind")}},
				{ID: "rows", Type: builder.TypeTable, Label: "Rows", IO: ir.IOOutput},
			},
		}},
	}
	reg := prometheus.NewRegistry()
	db := engine.New(doc, "",
		engine.WithLogger(testutil.DiscardLogger()),
		engine.WithObserver(metrics.NewObserver(reg)),
		engine.WithTokenGenerator(testutil.NewSequentialTokens("act")),
		engine.WithLoader(engine.LoaderFunc(func(context.Context, engine.SourceInfo) ([]*ir.Record, error) {
			return records, nil
		})),
		engine.WithBuilders(builder.New(builder.WithLogger(testutil.DiscardLogger())).Builder()),
	)

	sess := session.New(db, testutil.DiscardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = sess.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	cfg := DefaultConfig()
	cfg.RequestTimeout = 5 * time.Second
	return New(sess, cfg, reg, testutil.DiscardLogger()).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(method, path, bytes.NewReader([]byte(body)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// snapshotBody mirrors engine.DisplaySnapshot with plain JSON rows.
type snapshotBody struct {
	State      string `json:"state"`
	Structures []struct {
		Count    int              `json:"count"`
		Selected []string         `json:"selected"`
		Rows     []map[string]any `json:"rows"`
	} `json:"structures"`
}

type activateBody struct {
	Activation string       `json:"activation"`
	Display    snapshotBody `json:"display"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHandlers_Health(t *testing.T) {
	h := setupTestRouter(t)
	w := do(t, h, http.MethodGet, "/v1/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[HealthResponse](t, w)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, 1, resp.Displays)
	assert.Equal(t, 1, resp.Sources)
	assert.NotEmpty(t, resp.SpecHash)
}

func TestHandlers_ListDisplays(t *testing.T) {
	h := setupTestRouter(t)
	w := do(t, h, http.MethodGet, "/v1/displays", "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[DisplayListResponse](t, w)
	require.Len(t, resp.Displays, 1)
	assert.Equal(t, DisplaySummary{
		ID: "main", Label: "Main", Source: "s", Resolved: true, State: "unactivated", Structures: 2,
	}, resp.Displays[0])
}

func TestHandlers_ActivateAndSelect(t *testing.T) {
	h := setupTestRouter(t)

	w := do(t, h, http.MethodPost, "/v1/displays/main/activate", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	act := decode[activateBody](t, w)
	assert.Equal(t, "act-1", act.Activation)
	assert.Equal(t, "ready", act.Display.State)
	assert.Equal(t, 2, act.Display.Structures[1].Count)

	w = do(t, h, http.MethodPost, "/v1/displays/main/structures/kind/select", `{"value":"slice"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	snap := decode[snapshotBody](t, w)
	assert.Equal(t, 1, snap.Structures[1].Count)
	assert.Equal(t, []string{"slice"}, snap.Structures[0].Selected)

	w = do(t, h, http.MethodGet, "/v1/displays/main", "")
	require.Equal(t, http.StatusOK, w.Code)
	snap = decode[snapshotBody](t, w)
	assert.Equal(t, "B", snap.Structures[1].Rows[0]["id"])
}

func TestHandlers_Errors(t *testing.T) {
	h := setupTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"unknown display", http.MethodGet, "/v1/displays/nope", "", http.StatusNotFound, CodeNotFound},
		{"activate unknown", http.MethodPost, "/v1/displays/nope/activate", "", http.StatusNotFound, CodeNotFound},
		{"select before activate", http.MethodPost, "/v1/displays/main/structures/kind/select", `{"value":"iso"}`, http.StatusBadRequest, CodeBadRequest},
		{"missing value", http.MethodPost, "/v1/displays/main/structures/kind/select", `{}`, http.StatusBadRequest, CodeBadRequest},
		{"malformed body", http.MethodPost, "/v1/displays/main/structures/kind/select", `{`, http.StatusBadRequest, CodeBadRequest},
		{"unknown structure", http.MethodPost, "/v1/displays/main/structures/zzz/select", `{"value":"x"}`, http.StatusNotFound, CodeNotFound},
		{"select on output", http.MethodPost, "/v1/displays/main/structures/rows/select", `{"value":"x"}`, http.StatusBadRequest, CodeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, decode[ErrorResponse](t, w).Code)
		})
	}
}

func TestHandlers_RejectedSelection(t *testing.T) {
	h := setupTestRouter(t)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/v1/displays/main/activate", "").Code)

	w := do(t, h, http.MethodPost, "/v1/displays/main/structures/kind/select", `{"value":"hologram"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[ErrorResponse](t, w).Error, "hologram")
}

func TestMetricsEndpoint(t *testing.T) {
	h := setupTestRouter(t)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/v1/displays/main/activate", "").Code)

	w := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `cinemad_source_loads_total{result="ok",source="s"} 1`), body)
	assert.Contains(t, body, `cinemad_intersection_passes_total{display="main"} 1`)
}
