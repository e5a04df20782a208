package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway imitates engine gateway. Session n reports values n and 2n for link "0"
type fakeGateway struct {
	mu        sync.Mutex
	sessions  map[string]bool
	loaded    []loadRequest
	outputs   map[string]float64
	runs      map[string]runRequest
	schedules map[string][]string
	counter   int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		sessions:  make(map[string]bool),
		outputs:   make(map[string]float64),
		runs:      make(map[string]runRequest),
		schedules: make(map[string][]string),
	}
}

func (gw *fakeGateway) handler() http.Handler {
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, status int, v interface{}) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(v)
	}
	session := func(w http.ResponseWriter, r *http.Request) (string, bool) {
		id := r.PathValue("id")
		gw.mu.Lock()
		defer gw.mu.Unlock()
		if !gw.sessions[id] {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "no session " + id})
			return id, false
		}
		return id, true
	}
	mux.HandleFunc("POST /sessions", func(w http.ResponseWriter, r *http.Request) {
		var req loadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		if req.DocumentPath == "broken.xml" {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "validation failed"})
			return
		}
		gw.mu.Lock()
		gw.counter++
		id := strconv.Itoa(gw.counter)
		gw.sessions[id] = true
		gw.loaded = append(gw.loaded, req)
		gw.mu.Unlock()
		writeJSON(w, http.StatusOK, loadResponse{SessionID: id})
	})
	mux.HandleFunc("POST /sessions/{id}/outputs", func(w http.ResponseWriter, r *http.Request) {
		id, ok := session(w, r)
		if !ok {
			return
		}
		var req outputsRequest
		json.NewDecoder(r.Body).Decode(&req)
		gw.mu.Lock()
		gw.outputs[id] = req.SampleDt
		gw.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /sessions/{id}/run", func(w http.ResponseWriter, r *http.Request) {
		id, ok := session(w, r)
		if !ok {
			return
		}
		var req runRequest
		json.NewDecoder(r.Body).Decode(&req)
		gw.mu.Lock()
		gw.runs[id] = req
		gw.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /sessions/{id}/outputs/{kind}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := session(w, r)
		if !ok {
			return
		}
		n, _ := strconv.Atoi(id)
		value := float64(n)
		if r.PathValue("kind") == "link_flw" {
			value *= 100
		}
		writeJSON(w, http.StatusOK, LinkSeries{"0": {value, 2 * value}})
	})
	mux.HandleFunc("POST /sessions/{id}/actuators/{aid}/schedule", func(w http.ResponseWriter, r *http.Request) {
		id, ok := session(w, r)
		if !ok {
			return
		}
		var req scheduleRequest
		json.NewDecoder(r.Body).Decode(&req)
		gw.mu.Lock()
		gw.schedules[id] = append(gw.schedules[id], fmt.Sprintf("%s:%v", r.PathValue("aid"), req.StageDurations))
		gw.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("DELETE /sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := session(w, r)
		if !ok {
			return
		}
		gw.mu.Lock()
		delete(gw.sessions, id)
		gw.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func startGateway(t *testing.T) (*fakeGateway, *HTTPEngine) {
	t.Helper()
	gw := newFakeGateway()
	server := httptest.NewServer(gw.handler())
	t.Cleanup(server.Close)
	engine, err := NewHTTPEngine(server.URL+"/", WithHTTPClient(server.Client()))
	require.NoError(t, err)
	return gw, engine
}

func TestNewHTTPEngine(t *testing.T) {
	_, err := NewHTTPEngine("ftp://localhost")
	require.Error(t, err)
	_, err = NewHTTPEngine("http://localhost:8080")
	require.NoError(t, err)
}

func TestHTTPSession(t *testing.T) {
	gw, engine := startGateway(t)
	ctx := context.Background()

	session, err := engine.Load(ctx, "scenario.xml", true)
	require.NoError(t, err)
	require.NoError(t, session.InsertActuatorSchedule(ctx, 4, []float64{30, 10}))
	require.NoError(t, session.RequestLinkOutputs(ctx, 15))
	require.NoError(t, session.Run(ctx, 0, 3600))

	vehicles, err := session.LinkVehicles(ctx)
	require.NoError(t, err)
	assert.Equal(t, LinkSeries{"0": {1, 2}}, vehicles)
	flows, err := session.LinkFlows(ctx)
	require.NoError(t, err)
	assert.Equal(t, LinkSeries{"0": {100, 200}}, flows)

	assert.Equal(t, []loadRequest{{DocumentPath: "scenario.xml", Validate: true}}, gw.loaded)
	assert.Equal(t, 15.0, gw.outputs["1"])
	assert.Equal(t, runRequest{StartTime: 0, EndTime: 3600}, gw.runs["1"])
	assert.Equal(t, []string{"4:[30 10]"}, gw.schedules["1"])

	require.NoError(t, session.Close(ctx))
	assert.Empty(t, gw.sessions)
	// Closing twice is fine, other calls are not
	require.NoError(t, session.Close(ctx))
	assert.ErrorIs(t, session.Run(ctx, 0, 10), ErrClosed)
	_, err = session.LinkVehicles(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestHTTPSessionErrors(t *testing.T) {
	_, engine := startGateway(t)
	ctx := context.Background()

	_, err := engine.Load(ctx, "broken.xml", true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine responded 422: validation failed")

	session, err := engine.Load(ctx, "scenario.xml", false)
	require.NoError(t, err)
	assert.Error(t, session.Run(ctx, 10, 10))
	assert.Error(t, session.RequestLinkOutputs(ctx, 0))

	lost := &httpSession{engine: engine, id: "404"}
	err = lost.Run(ctx, 0, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no session 404")
}
