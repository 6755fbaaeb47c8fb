package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/uv-australia/internal/domain/dataset"
	"github.com/yanqian/uv-australia/internal/domain/lookup"
	"github.com/yanqian/uv-australia/internal/domain/session"
	"github.com/yanqian/uv-australia/internal/domain/uvadvisor"
	"github.com/yanqian/uv-australia/internal/domain/uvindex"
	"github.com/yanqian/uv-australia/internal/infra/cache"
	"github.com/yanqian/uv-australia/internal/infra/config"
	infragazetteer "github.com/yanqian/uv-australia/internal/infra/gazetteer"
)

func TestRouter_PostcodeLookup(t *testing.T) {
	server, _ := newRouterUnderTest(t, &stubRefresher{})

	rec := performRequest(server, http.MethodGet, "/api/v1/uv-index/postcode/3000", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got uvindex.Derived
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "Melbourne", got.Reading.CityName)
	require.Equal(t, 7.2, got.RawValue)
	require.Equal(t, "High", got.Label)
}

func TestRouter_LookupErrorsMapToStatus(t *testing.T) {
	server, _ := newRouterUnderTest(t, &stubRefresher{})

	rec := performRequest(server, http.MethodGet, "/api/v1/uv-index/postcode/9999", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "not_found", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])

	rec = performRequest(server, http.MethodGet, "/api/v1/uv-index/coordinates?lat=abc&lng=1", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_input", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])
}

func TestRouter_NearestCity(t *testing.T) {
	server, _ := newRouterUnderTest(t, &stubRefresher{})

	rec := performRequest(server, http.MethodGet, "/api/v1/uv-index/coordinates?lat=-33.9&lng=151.2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got uvindex.Derived
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "Sydney", got.Reading.LocationID)
	require.Positive(t, got.Reading.DistanceKm)
}

func TestRouter_Recommendation(t *testing.T) {
	server, _ := newRouterUnderTest(t, &stubRefresher{})

	rec := performRequest(server, http.MethodGet, "/api/v1/recommendations?uv=7.2&skinType=2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got uvadvisor.Advice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, 21, got.Recommendation.SafeExposureMinutes)
	require.Equal(t, uvadvisor.SummarySourceRules, got.SummarySource)

	rec = performRequest(server, http.MethodGet, "/api/v1/recommendations?uv=7.2&skinType=9", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_MarkersAndSkinTypes(t *testing.T) {
	server, _ := newRouterUnderTest(t, &stubRefresher{})

	rec := performRequest(server, http.MethodGet, "/api/v1/map/markers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var markers struct {
		Markers []map[string]any `json:"markers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &markers))
	require.Len(t, markers.Markers, 2)

	rec = performRequest(server, http.MethodGet, "/api/v1/skin-types", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var skins struct {
		SkinTypes []uvadvisor.PhototypeInfo `json:"skinTypes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &skins))
	require.Len(t, skins.SkinTypes, 6)
}

func TestRouter_RefreshFailureIsBadGateway(t *testing.T) {
	refresher := &stubRefresher{err: errors.New("upstream down")}
	server, _ := newRouterUnderTest(t, refresher)

	rec := performRequest(server, http.MethodPost, "/api/v1/uv-index/refresh", "")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Equal(t, "fetch_error", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])
	require.Equal(t, 1, refresher.calls)
}

func TestRouter_SessionFlow(t *testing.T) {
	server, _ := newRouterUnderTest(t, &stubRefresher{})

	rec := performRequest(server, http.MethodPost, "/api/v1/sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var created session.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	base := "/api/v1/sessions/" + created.ID

	rec = performRequest(server, http.MethodPost, base+"/search", `{"query":"3000"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = performRequest(server, http.MethodPut, base+"/skin-type", `{"skinType":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var view session.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.True(t, view.Selection.Selected)
	require.NotNil(t, view.Advice)
	require.Equal(t, 21, view.Advice.Recommendation.SafeExposureMinutes)

	rec = performRequest(server, http.MethodPost, base+"/search", `{"query":"12"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = performRequest(server, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, rec.Code)
	view = session.View{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.NotNil(t, view.Error)
	require.Equal(t, "invalid_input", view.Error.Kind)
	require.Equal(t, "Melbourne", view.Selection.Reading.CityName, "failed search keeps the selection")

	rec = performRequest(server, http.MethodPost, base+"/geolocation", `{"error":"User denied Geolocation"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = performRequest(server, http.MethodPost, base+"/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	view = session.View{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.False(t, view.Selection.Selected)
}

func TestRouter_UnknownSession(t *testing.T) {
	server, _ := newRouterUnderTest(t, &stubRefresher{})

	rec := performRequest(server, http.MethodPost, "/api/v1/sessions/missing/search", `{"query":"3000"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_SessionEventsStream(t *testing.T) {
	server, manager := newRouterUnderTest(t, &stubRefresher{})
	ts := httptest.NewServer(server.Handler)
	defer ts.Close()

	sess := manager.Create()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/v1/sessions/"+sess.ID()+"/events", nil)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	reader := bufio.NewReader(resp.Body)
	require.Equal(t, "view", nextEventName(t, reader))

	_, err = sess.MarkerClicked(ctx, "Sydney")
	require.NoError(t, err)

	seen := map[string]bool{}
	for !(seen["camera"] && seen["selection"]) {
		seen[nextEventName(t, reader)] = true
	}
}

func nextEventName(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	var name string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		if strings.HasPrefix(line, "event:") {
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		}
		if line == "" && name != "" {
			return name
		}
	}
}

func performRequest(server *http.Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func newRouterUnderTest(t *testing.T, refresher Refresher) (*http.Server, *session.Manager) {
	t.Helper()
	return newRouterUnderTestWithConfig(t, refresher, config.HTTPConfig{
		Address:      ":0",
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
}

func newRouterUnderTestWithConfig(t *testing.T, refresher Refresher, httpCfg config.HTTPConfig) (*http.Server, *session.Manager) {
	t.Helper()
	logger := newTestLogger()
	holder := dataset.NewHolder()
	holder.Store(uvindex.NewSnapshot([]uvindex.Reading{
		{LocationID: "Melbourne", CityName: "Melbourne", ShortName: "mel", State: "VIC", Latitude: -37.8136, Longitude: 144.9631, UV: 7.2, Status: "ok"},
		{LocationID: "Sydney", CityName: "Sydney", ShortName: "syd", State: "NSW", Latitude: -33.8688, Longitude: 151.2093, UV: 5.5, Status: "ok"},
	}, time.Now(), "test"))

	directory := infragazetteer.NewDefaultMemoryRepository()
	locator := lookup.NewService(holder, directory, logger)
	advisor := uvadvisor.NewService(uvadvisor.Config{}, nil, logger)
	manager := session.NewManager(session.Config{}, locator, holder, advisor, cache.NewMemoryStore(0), logger)
	t.Cleanup(manager.CloseAll)

	handler := NewHandler(holder, refresher, locator, advisor, manager, logger)
	return NewRouter(&config.Config{HTTP: httpCfg}, handler), manager
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

type stubRefresher struct {
	status dataset.Status
	err    error
	calls  int
}

func (s *stubRefresher) Refresh(ctx context.Context) (dataset.Status, error) {
	s.calls++
	return s.status, s.err
}

func (s *stubRefresher) Status() dataset.Status {
	return s.status
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]map[string]string {
	t.Helper()
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}
