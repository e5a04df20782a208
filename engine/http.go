package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	DEFAULT_HTTP_TIMEOUT = 10 * time.Minute
)

// HTTPEngine talks to the engine gateway exposing sessions over JSON REST:
//
//	POST   /sessions                                  {"document_path", "validate"} -> {"session_id"}
//	POST   /sessions/{id}/outputs                     {"sample_dt"}
//	POST   /sessions/{id}/run                         {"start_time", "end_time"}
//	GET    /sessions/{id}/outputs/link_veh            -> {"<link_id>": [values]}
//	GET    /sessions/{id}/outputs/link_flw            -> {"<link_id>": [values]}
//	POST   /sessions/{id}/actuators/{aid}/schedule    {"stage_durations"}
//	DELETE /sessions/{id}
//
type HTTPEngine struct {
	client  *http.Client
	logger  *zap.Logger
	baseURL string
}

type HTTPOption func(*HTTPEngine)

func WithHTTPClient(client *http.Client) HTTPOption {
	return func(engine *HTTPEngine) {
		engine.client = client
	}
}

func WithLogger(logger *zap.Logger) HTTPOption {
	return func(engine *HTTPEngine) {
		engine.logger = logger
	}
}

func NewHTTPEngine(baseURL string, options ...HTTPOption) (*HTTPEngine, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "Can't parse engine URL")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, errors.Errorf("engine URL must be http(s), got '%s'", baseURL)
	}
	engine := &HTTPEngine{
		client:  &http.Client{Timeout: DEFAULT_HTTP_TIMEOUT},
		logger:  zap.NewNop(),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
	for _, o := range options {
		o(engine)
	}
	return engine, nil
}

type loadRequest struct {
	DocumentPath string `json:"document_path"`
	Validate     bool   `json:"validate"`
}

type loadResponse struct {
	SessionID string `json:"session_id"`
}

type outputsRequest struct {
	SampleDt float64 `json:"sample_dt"`
}

type runRequest struct {
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

type scheduleRequest struct {
	StageDurations []float64 `json:"stage_durations"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (engine *HTTPEngine) Load(ctx context.Context, documentPath string, validate bool) (Session, error) {
	var resp loadResponse
	err := engine.do(ctx, http.MethodPost, "/sessions", loadRequest{DocumentPath: documentPath, Validate: validate}, &resp)
	if err != nil {
		return nil, errors.Wrap(err, "Can't load scenario")
	}
	if resp.SessionID == "" {
		return nil, errors.New("engine returned empty session identifier")
	}
	engine.logger.Info("scenario loaded", zap.String("document", documentPath), zap.String("session_id", resp.SessionID))
	return &httpSession{engine: engine, id: resp.SessionID}, nil
}

func (engine *HTTPEngine) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "Can't encode request")
		}
		payload = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, engine.baseURL+path, payload)
	if err != nil {
		return errors.Wrap(err, "Can't prepare request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	st := time.Now()
	resp, err := engine.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "Can't reach engine")
	}
	defer resp.Body.Close()
	engine.logger.Debug("engine request", zap.String("method", method), zap.String("path", path), zap.Int("status", resp.StatusCode), zap.Duration("elapsed", time.Since(st)))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp errorResponse
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
			return errors.Errorf("engine responded %d: %s", resp.StatusCode, errResp.Error)
		}
		return errors.Errorf("engine responded %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "Can't decode response")
	}
	return nil
}

type httpSession struct {
	engine *HTTPEngine
	id     string
	closed bool
}

func (session *httpSession) path(suffix string) string {
	return "/sessions/" + url.PathEscape(session.id) + suffix
}

func (session *httpSession) RequestLinkOutputs(ctx context.Context, sampleDt float64) error {
	if session.closed {
		return ErrClosed
	}
	if sampleDt <= 0 {
		return errors.Errorf("sample dt must be positive, got %v", sampleDt)
	}
	return session.engine.do(ctx, http.MethodPost, session.path("/outputs"), outputsRequest{SampleDt: sampleDt}, nil)
}

func (session *httpSession) Run(ctx context.Context, start, end float64) error {
	if session.closed {
		return ErrClosed
	}
	if end <= start {
		return errors.Errorf("end time %v must be after start time %v", end, start)
	}
	return session.engine.do(ctx, http.MethodPost, session.path("/run"), runRequest{StartTime: start, EndTime: end}, nil)
}

func (session *httpSession) linkSeries(ctx context.Context, kind string) (LinkSeries, error) {
	if session.closed {
		return nil, ErrClosed
	}
	series := make(LinkSeries)
	if err := session.engine.do(ctx, http.MethodGet, session.path("/outputs/"+kind), nil, &series); err != nil {
		return nil, errors.Wrapf(err, "Can't query %s", kind)
	}
	return series, nil
}

func (session *httpSession) LinkVehicles(ctx context.Context) (LinkSeries, error) {
	return session.linkSeries(ctx, "link_veh")
}

func (session *httpSession) LinkFlows(ctx context.Context) (LinkSeries, error) {
	return session.linkSeries(ctx, "link_flw")
}

func (session *httpSession) InsertActuatorSchedule(ctx context.Context, actuatorID int, stageDurations []float64) error {
	if session.closed {
		return ErrClosed
	}
	path := session.path(fmt.Sprintf("/actuators/%d/schedule", actuatorID))
	return session.engine.do(ctx, http.MethodPost, path, scheduleRequest{StageDurations: stageDurations}, nil)
}

func (session *httpSession) Close(ctx context.Context) error {
	if session.closed {
		return nil
	}
	session.closed = true
	return session.engine.do(ctx, http.MethodDelete, session.path(""), nil, nil)
}
