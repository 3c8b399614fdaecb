package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/coffersTech/tierlog/internal/buffer"
	"github.com/coffersTech/tierlog/internal/codec"
	"github.com/coffersTech/tierlog/internal/engine"
	"github.com/coffersTech/tierlog/internal/model"
)

func stepClock() func() uint64 {
	var now uint64
	return func() uint64 {
		now += 100
		return now
	}
}

func newTestServer(t *testing.T, opts Options) (*Server, *buffer.Store) {
	t.Helper()
	store, err := buffer.NewStore(buffer.WithClock(stepClock()))
	require.NoError(t, err)
	return New(store, opts), store
}

func do(t *testing.T, s *Server, method, target, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeEntries(t *testing.T, body string) []model.LogEntry {
	t.Helper()
	entries, err := codec.JSON.Decode([]byte(body))
	require.NoError(t, err)
	return entries
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	rec := do(t, s, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())

	_, err := uuid.Parse(rec.Header().Get("X-Request-ID"))
	assert.NoError(t, err)
}

func TestRequestIDIsPropagated(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	id := uuid.NewString()
	rec := do(t, s, http.MethodGet, "/healthz", "", http.Header{"X-Request-Id": {id}})
	assert.Equal(t, id, rec.Header().Get("X-Request-ID"))
}

func TestLogs_AllTiersInTierOrder(t *testing.T) {
	s, store := newTestServer(t, Options{})
	store.Append(model.Error, "e.rs", 1, "e0")
	store.Append(model.Info, "i.rs", 2, "i0")
	store.Append(model.Debug, "d.rs", 3, "d0")

	rec := do(t, s, http.MethodGet, "/api/logs", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "3", rec.Header().Get(HeaderIncluded))
	assert.Equal(t, "false", rec.Header().Get(HeaderTruncated))

	entries := decodeEntries(t, rec.Body.String())
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"i0", "d0", "e0"}, []string{entries[0].Message, entries[1].Message, entries[2].Message})
}

func TestLogs_PrioritySortAndFilter(t *testing.T) {
	s, store := newTestServer(t, Options{})
	store.Append(model.Info, "a.rs", 1, "alpha")
	store.Append(model.Error, "b.rs", 2, "beta")
	store.Append(model.Info, "c.rs", 3, "gamma")

	rec := do(t, s, http.MethodGet, "/api/logs?priority=INFO&sort=desc", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decodeEntries(t, rec.Body.String())
	require.Len(t, entries, 2)
	assert.Equal(t, "gamma", entries[0].Message)
	assert.Equal(t, "alpha", entries[1].Message)

	rec = do(t, s, http.MethodGet, "/api/logs?q=file:b.rs", "", nil)
	entries = decodeEntries(t, rec.Body.String())
	require.Len(t, entries, 1)
	assert.Equal(t, model.Error, entries[0].Priority)
}

func TestLogs_TieBreak(t *testing.T) {
	store, err := buffer.NewStore(buffer.WithClock(func() uint64 { return 5 }))
	require.NoError(t, err)
	s := New(store, Options{})
	store.Append(model.Error, "x.rs", 1, "e0")
	store.Append(model.Info, "x.rs", 1, "i0")

	rec := do(t, s, http.MethodGet, "/api/logs?priority=error&priority=info&sort=asc&tiebreak=counter", "", nil)
	entries := decodeEntries(t, rec.Body.String())
	require.Len(t, entries, 2)
	assert.Equal(t, "i0", entries[0].Message)
}

func TestLogs_Truncation(t *testing.T) {
	s, store := newTestServer(t, Options{})
	for i := 0; i < 20; i++ {
		store.Append(model.Debug, "src/loop.rs", uint32(i), strings.Repeat("x", 30))
	}

	rec := do(t, s, http.MethodGet, "/api/logs?max_bytes=400", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.LessOrEqual(t, rec.Body.Len(), 400)
	assert.Equal(t, "20", rec.Header().Get(HeaderTotal))
	assert.Equal(t, "true", rec.Header().Get(HeaderTruncated))

	entries := decodeEntries(t, rec.Body.String())
	assert.Equal(t, rec.Header().Get(HeaderIncluded), strconv.Itoa(len(entries)))
	assert.NotEmpty(t, entries)
}

func TestLogs_DefaultBudget(t *testing.T) {
	s, store := newTestServer(t, Options{DefaultMaxBytes: 14})
	store.Append(model.Info, "a.rs", 1, "hello")

	rec := do(t, s, http.MethodGet, "/api/logs", "", nil)
	assert.Equal(t, `{"entries":[]}`, rec.Body.String())
	assert.Equal(t, "0", rec.Header().Get(HeaderIncluded))
}

func TestLogs_OtherCodec(t *testing.T) {
	s, store := newTestServer(t, Options{})
	store.Append(model.Info, "a.rs", 1, "hello")

	rec := do(t, s, http.MethodGet, "/api/logs?codec=cbor", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))

	entries, err := codec.CBOR.Decode(rec.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "hello", entries[0].Message)
}

func TestLogs_BadRequests(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	for _, target := range []string{
		"/api/logs?priority=warn",
		"/api/logs?sort=sideways",
		"/api/logs?tiebreak=random",
		"/api/logs?max_bytes=ten",
		"/api/logs?max_bytes=-1",
		"/api/logs?codec=xml",
		"/api/logs?q=(priority:info",
	} {
		rec := do(t, s, http.MethodGet, target, "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}

	rec := do(t, s, http.MethodPost, "/api/logs", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestIngest(t *testing.T) {
	s, store := newTestServer(t, Options{})

	rec := do(t, s, http.MethodPost, "/api/ingest",
		`[{"priority":"error","file":"src/db.rs","line":12,"message":"lost connection"},
		  {"priority":"Info","file":"src/db.rs","line":30,"msg":"reconnected"}]`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"accepted":2}`, rec.Body.String())

	errs := store.Export(model.Error)
	require.Len(t, errs, 1)
	assert.Equal(t, uint32(12), errs[0].Line)
	assert.Equal(t, "lost connection", errs[0].Message)

	infos := store.Export(model.Info)
	require.Len(t, infos, 1)
	assert.Equal(t, "reconnected", infos[0].Message)

	rec = do(t, s, http.MethodPost, "/api/ingest", `{"priority":"debug","message":"single"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, store.Export(model.Debug), 1)
}

func TestIngest_RejectsWholeBatch(t *testing.T) {
	s, store := newTestServer(t, Options{})

	for _, body := range []string{
		`{"priority":"info"`,
		`[{"priority":"info","message":"ok"},{"priority":"trace","message":"bad"}]`,
		`{"priority":"info","line":-3}`,
		`["text"]`,
	} {
		rec := do(t, s, http.MethodPost, "/api/ingest", body, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	assert.Empty(t, store.Export(model.Info))

	rec := do(t, s, http.MethodGet, "/api/ingest", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestIngest_BodyErrors(t *testing.T) {
	s, store := newTestServer(t, Options{})

	huge := `{"priority":"info","message":"` + strings.Repeat("x", maxIngestBody) + `"}`
	rec := do(t, s, http.MethodPost, "/api/ingest", huge, nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/ingest", failingReader{})
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Empty(t, store.Export(model.Info))
}

func TestIngest_SyncsJournal(t *testing.T) {
	j, err := buffer.OpenJournal(t.TempDir() + "/journal.log")
	require.NoError(t, err)
	defer j.Close()

	store, err := buffer.NewStore(buffer.WithJournal(j))
	require.NoError(t, err)
	s := New(store, Options{Journal: j})

	rec := do(t, s, http.MethodPost, "/api/ingest", `{"priority":"info","message":"kept"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	records, err := j.Replay()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "kept", records[0].Entry.Message)
}

func TestStats(t *testing.T) {
	s, store := newTestServer(t, Options{})
	store.Append(model.Info, "a.rs", 1, "x")
	store.Append(model.Error, "b.rs", 1, "y")

	rec := do(t, s, http.MethodGet, "/api/stats", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats engine.SystemStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.TotalRetained)
	require.Len(t, stats.Tiers, 3)
	assert.Equal(t, model.Error, stats.Tiers[2].Priority)
}

func TestAuthMiddleware(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	s, _ := newTestServer(t, Options{AuthTokenHash: string(hash)})

	rec := do(t, s, http.MethodGet, "/api/stats", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))

	rec = do(t, s, http.MethodGet, "/api/stats", "", http.Header{"Authorization": {"Bearer wrong"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/stats", "", http.Header{"Authorization": {"Bearer s3cret"}})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/logs?token=s3cret", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
