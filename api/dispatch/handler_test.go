package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	coremetrics "github.com/tambula/dispatch/core/metrics"
	"github.com/tambula/dispatch/core/model"
)

type stubEngine struct {
	result model.DispatchResult
	stats  coremetrics.WindowStats
	gotReq model.DispatchRequest
}

func (s *stubEngine) Dispatch(ctx context.Context, req model.DispatchRequest) model.DispatchResult {
	s.gotReq = req
	return s.result
}

func (s *stubEngine) Metrics(windowHours int) coremetrics.WindowStats {
	s.stats.WindowHours = windowHours
	return s.stats
}

type stubFeed struct {
	locations []model.DriverLocation
	offline   []string
}

func (s *stubFeed) UpdateLocation(ctx context.Context, loc model.DriverLocation) error {
	s.locations = append(s.locations, loc)
	return nil
}

func (s *stubFeed) SetOffline(ctx context.Context, driverID string) error {
	s.offline = append(s.offline, driverID)
	return nil
}

type stubMarker struct {
	marked []string
}

func (s *stubMarker) MarkRequest(ctx context.Context, requestID string, at time.Time) error {
	s.marked = append(s.marked, requestID)
	return nil
}

func newTestRouter(engine Engine) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(engine, nil, nil).RegisterRoutes(r)
	return r
}

func TestDispatchEndpointSuccess(t *testing.T) {
	engine := &stubEngine{result: model.DispatchResult{
		RequestID: "r1",
		Success:   true,
		City:      "Gombe",
	}}
	r := newTestRouter(engine)

	body := `{"service_type":"transport","pickup":{"lat":-4.31,"lng":15.30},"customer_id":"c1"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/dispatch", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var res model.DispatchResult
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Success)
	assert.Equal(t, "Gombe", res.City)
	assert.Equal(t, model.ServiceTransport, engine.gotReq.Service)
}

func TestDispatchEndpointFailureStillOK(t *testing.T) {
	engine := &stubEngine{result: model.DispatchResult{
		RequestID: "r2",
		Reason:    model.ReasonNoCandidatesFound,
	}}
	r := newTestRouter(engine)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/dispatch",
		strings.NewReader(`{"service_type":"transport","pickup":{"lat":-4.31,"lng":15.30}}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	// Documented failures are resolved outcomes, not HTTP errors.
	assert.Equal(t, http.StatusOK, w.Code)
	var res model.DispatchResult
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, model.ReasonNoCandidatesFound, res.Reason)
}

func TestDispatchEndpointBadJSON(t *testing.T) {
	r := newTestRouter(&stubEngine{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/dispatch", strings.NewReader("{not json"))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	engine := &stubEngine{stats: coremetrics.WindowStats{Dispatches: 7, SuccessRate: 0.71}}
	r := newTestRouter(engine)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/metrics?window_hours=6", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var stats coremetrics.WindowStats
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 6, stats.WindowHours)
	assert.Equal(t, 7, stats.Dispatches)
}

func TestMetricsEndpointBadWindow(t *testing.T) {
	r := newTestRouter(&stubEngine{})

	for _, q := range []string{"0", "-1", "abc"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/metrics?window_hours="+q, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, "window_hours=%s", q)
	}
}

func TestDispatchMarksDemand(t *testing.T) {
	gin.SetMode(gin.TestMode)
	marker := &stubMarker{}
	r := gin.New()
	NewHandler(&stubEngine{}, nil, marker).RegisterRoutes(r)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/dispatch",
		strings.NewReader(`{"id":"req-9","service_type":"transport","pickup":{"lat":-4.31,"lng":15.30}}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"req-9"}, marker.marked)
}

func TestDriverLocationEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	feed := &stubFeed{}
	r := gin.New()
	NewHandler(&stubEngine{}, feed, nil).RegisterRoutes(r)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/drivers/location",
		strings.NewReader(`{"driver_id":"d1","lat":-4.31,"lng":15.30,"service_type":"transport","vehicle_class":"sedan"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	if assert.Len(t, feed.locations, 1) {
		assert.Equal(t, "d1", feed.locations[0].DriverID)
		assert.Equal(t, model.ServiceTransport, feed.locations[0].Service)
		assert.False(t, feed.locations[0].LastPing.IsZero())
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/drivers/location",
		strings.NewReader(`{"driver_id":"d1","lat":99,"lng":15.30,"service_type":"transport"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/drivers/d1/offline", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"d1"}, feed.offline)
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(&stubEngine{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
