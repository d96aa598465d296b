package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/stash/pkg/buffer"
	"github.com/ssargent/stash/pkg/clock"
	"github.com/ssargent/stash/pkg/codec"
	"github.com/ssargent/stash/pkg/journal"
	"github.com/ssargent/stash/pkg/ring"
	"github.com/ssargent/stash/pkg/store"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type testEnv struct {
	server *Server
	store  *store.FileStore
	router http.Handler
}

// setupTestServer saves a ring journal with four entries and serves the data directory
func setupTestServer(t *testing.T, apiKey string) *testEnv {
	t.Helper()

	st, err := store.NewFileStore(t.TempDir(), clock.NewMock(time.Time{}), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	schema, err := ring.Compile(journal.DefaultSchemaConfig())
	require.NoError(t, err)

	stash, err := ring.Open(schema, ring.New(), buffer.New(0),
		journal.Config{Clock: clock.NewMock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))})
	require.NoError(t, err)
	for _, v := range []int32{1, 2, 3} {
		_, err := stash.Store(v)
		require.NoError(t, err)
	}
	require.NoError(t, stash.Label("checkpoint", 0))

	_, err = st.Save("ring", stash.Journal().Bytes())
	require.NoError(t, err)

	server := NewServer(st, ServerConfig{
		APIKey:  apiKey,
		Schemas: []Scanner{schema},
		Metrics: prometheus.NewRegistry(),
	})
	return &testEnv{server: server, store: st, router: server.Router()}
}

func (e *testEnv) get(t *testing.T, path string, header ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var body envelope
	if strings.HasPrefix(path, "/api/") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestServer_Health(t *testing.T) {
	env := setupTestServer(t, "")

	w, body := env.get(t, "/api/v1/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, body.Success)
	assert.JSONEq(t, `{"status":"healthy"}`, string(body.Data))
}

func TestServer_ListJournals(t *testing.T) {
	env := setupTestServer(t, "")
	_, err := env.store.Save("empty", make([]byte, journal.CounterSize))
	require.NoError(t, err)
	_, err = env.store.Save("short", []byte{1, 2})
	require.NoError(t, err)

	w, body := env.get(t, "/api/v1/journals")
	require.Equal(t, http.StatusOK, w.Code)

	var summaries []JournalSummary
	require.NoError(t, json.Unmarshal(body.Data, &summaries))
	require.Len(t, summaries, 2, "the journal without a counter is skipped")

	assert.Equal(t, "empty", summaries[0].Name)
	assert.Equal(t, uint64(0), summaries[0].Counter)
	assert.Equal(t, "ring", summaries[1].Name)
	assert.Equal(t, uint64(4), summaries[1].Counter)
	assert.False(t, summaries[1].Snapshot.IsNil())
	assert.Positive(t, summaries[1].Size)
}

func TestServer_GetJournal(t *testing.T) {
	env := setupTestServer(t, "")

	w, body := env.get(t, "/api/v1/journals/ring")
	require.Equal(t, http.StatusOK, w.Code)

	var detail JournalDetail
	require.NoError(t, json.Unmarshal(body.Data, &detail))
	assert.Equal(t, "ring", detail.Name)
	assert.Equal(t, "ring", detail.Schema)
	assert.Equal(t, uint64(4), detail.Counter)
	assert.Equal(t, map[string]uint64{"Store": 3, "Label": 1}, detail.Methods)
	assert.Empty(t, detail.Entries)
}

func TestServer_GetJournalEntries(t *testing.T) {
	env := setupTestServer(t, "")

	w, body := env.get(t, "/api/v1/journals/ring?entries=true")
	require.Equal(t, http.StatusOK, w.Code)

	var detail JournalDetail
	require.NoError(t, json.Unmarshal(body.Data, &detail))
	require.Len(t, detail.Entries, 4)

	first := detail.Entries[0]
	assert.Equal(t, uint64(0), first.Index)
	assert.Equal(t, journal.CounterSize, first.Offset)
	assert.Equal(t, "Store", first.Method)
	assert.Equal(t, "167c4b28", first.Identity)
	assert.Equal(t, []any{1.0}, first.Args)
	assert.Nil(t, first.Time)

	label := detail.Entries[3]
	assert.Equal(t, "Label", label.Method)
	require.NotNil(t, label.Time)
	assert.True(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC).Equal(*label.Time))
	assert.Equal(t, "checkpoint", label.Args[0])
}

func TestServer_GetJournalErrors(t *testing.T) {
	env := setupTestServer(t, "")
	_, err := env.store.Save("other", make([]byte, journal.CounterSize))
	require.NoError(t, err)
	// a counter claiming an entry that is not there
	_, err = env.store.Save("ring", []byte{0, 0, 0, 0, 0, 0, 0, 1})
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"missing journal", "/api/v1/journals/missing", http.StatusNotFound},
		{"invalid name", "/api/v1/journals/.hidden", http.StatusBadRequest},
		{"invalid entries flag", "/api/v1/journals/other?entries=maybe", http.StatusBadRequest},
		{"undecodable log", "/api/v1/journals/ring", http.StatusInternalServerError},
		{"journal without schema", "/api/v1/journals/other", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := env.get(t, tt.path)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.status == http.StatusOK, body.Success)
		})
	}
}

func TestServer_Codecs(t *testing.T) {
	env := setupTestServer(t, "")

	w, body := env.get(t, "/api/v1/codecs")
	require.Equal(t, http.StatusOK, w.Code)

	var views []CodecView
	require.NoError(t, json.Unmarshal(body.Data, &views))
	assert.Len(t, views, len(codec.DefaultRegistry().Codecs()))

	last := views[len(views)-1]
	assert.Equal(t, "msgpack", last.Name)
	assert.Equal(t, "fallback", last.Kind)
	assert.Empty(t, last.Type)
}

func TestServer_Authentication(t *testing.T) {
	env := setupTestServer(t, "secret")

	w, body := env.get(t, "/api/v1/journals")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Missing X-API-Key header", body.Error)

	w, _ = env.get(t, "/api/v1/journals", "X-API-Key", "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = env.get(t, "/api/v1/journals", "X-API-Key", "secret")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = env.get(t, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "stash_auth_requests_total")
	assert.Contains(t, w.Body.String(), `stash_http_requests_total{endpoint="/api/v1/journals",method="GET",status_code="200"} 1`)
}

func TestServer_CORS(t *testing.T) {
	env := setupTestServer(t, "")

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestStartServer(t *testing.T) {
	st, err := store.Open(store.Config{Dir: filepath.Join(t.TempDir(), "data")})
	require.NoError(t, err)
	defer st.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- StartServer(ctx, st, ServerConfig{Bind: "127.0.0.1", Port: 0, Metrics: prometheus.NewRegistry()})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * ShutdownTimeout):
		t.Fatal("server did not stop")
	}
}

func TestStartServer_ListenError(t *testing.T) {
	st, err := store.Open(store.Config{Dir: t.TempDir()})
	require.NoError(t, err)
	defer st.Close()

	err = StartServer(context.Background(), st, ServerConfig{Bind: "127.0.0.1", Port: -1, Metrics: prometheus.NewRegistry()})
	assert.ErrorContains(t, err, "inspection API")
}

func TestServerConfig_Addr(t *testing.T) {
	assert.Equal(t, "127.0.0.1:8080", ServerConfig{Bind: "127.0.0.1", Port: 8080}.Addr())
	assert.Equal(t, ":9200", ServerConfig{Port: 9200}.Addr())
}
