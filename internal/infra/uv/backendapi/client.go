// Package backendapi talks to a remote UV backend that serves the
// snake_case JSON reading format.
package backendapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/yanqian/uv-australia/internal/domain/uvindex"
	"github.com/yanqian/uv-australia/internal/infra/resilience"
	apperrors "github.com/yanqian/uv-australia/pkg/errors"
)

// Getter performs the HTTP fetch.
type Getter interface {
	Get(ctx context.Context, url, accept string) ([]byte, error)
}

// Client implements the location lookups and dataset.Fetcher remotely.
type Client struct {
	baseURL string
	getter  Getter
}

// NewClient builds a remote backend client.
func NewClient(baseURL string, getter Getter) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("backend api base url cannot be empty")
	}
	return &Client{baseURL: baseURL, getter: getter}, nil
}

// FetchAll implements dataset.Fetcher.
func (c *Client) FetchAll(ctx context.Context) ([]uvindex.Reading, error) {
	body, err := c.get(ctx, "/api/uv-index")
	if err != nil {
		return nil, err
	}
	var rows []wireReading
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode uv index list: %w", err)
	}
	out := make([]uvindex.Reading, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toReading())
	}
	return out, nil
}

// ByPostcode looks a postcode up remotely.
func (c *Client) ByPostcode(ctx context.Context, postcode string) (uvindex.Reading, error) {
	return c.single(ctx, "/api/uv-index/postcode/"+url.PathEscape(postcode))
}

// ByCityName looks a city up remotely.
func (c *Client) ByCityName(ctx context.Context, name string) (uvindex.Reading, error) {
	return c.single(ctx, "/api/uv-index/city/"+url.PathEscape(name))
}

// ByCoordinates looks up the nearest city remotely.
func (c *Client) ByCoordinates(ctx context.Context, lat, lng float64) (uvindex.Reading, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))
	return c.single(ctx, "/api/uv-index/coordinates?"+q.Encode())
}

func (c *Client) single(ctx context.Context, path string) (uvindex.Reading, error) {
	body, err := c.get(ctx, path)
	if err != nil {
		return uvindex.Reading{}, err
	}
	reading, ok, err := decodeSingle(body)
	if err != nil {
		return uvindex.Reading{}, apperrors.Wrap(apperrors.CodeFetch, "malformed backend response", err)
	}
	if !ok {
		return uvindex.Reading{}, apperrors.Wrap(apperrors.CodeNotFound, "no UV data found", nil)
	}
	return reading, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	body, err := c.getter.Get(ctx, c.baseURL+path, "application/json")
	if err == nil {
		return body, nil
	}
	var status *resilience.StatusError
	if errors.As(err, &status) {
		message := errorMessage([]byte(status.Body))
		switch {
		case status.StatusCode == http.StatusNotFound:
			return nil, apperrors.Wrap(apperrors.CodeNotFound, message, err)
		case status.StatusCode == http.StatusBadRequest:
			return nil, apperrors.Wrap(apperrors.CodeInvalidInput, message, err)
		}
	}
	return nil, apperrors.Wrap(apperrors.CodeFetch, "UV backend unavailable", err)
}

// decodeSingle accepts {"uv_index": reading|null} envelopes and bare readings.
func decodeSingle(body []byte) (uvindex.Reading, bool, error) {
	var shape map[string]json.RawMessage
	if err := json.Unmarshal(body, &shape); err != nil {
		return uvindex.Reading{}, false, err
	}
	if raw, ok := shape["uv_index"]; ok && isObject(raw) {
		var row wireReading
		if err := json.Unmarshal(raw, &row); err != nil {
			return uvindex.Reading{}, false, err
		}
		return row.toReading(), true, nil
	}
	if _, ok := shape["city"]; !ok {
		return uvindex.Reading{}, false, nil
	}
	var row wireReading
	if err := json.Unmarshal(body, &row); err != nil {
		return uvindex.Reading{}, false, err
	}
	return row.toReading(), true, nil
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func errorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return "no UV data found"
}

type wireReading struct {
	City      string        `json:"city"`
	CityID    string        `json:"city_id"`
	ShortName string        `json:"short_name"`
	State     string        `json:"state"`
	UVIndex   uvindex.Value `json:"uv_index"`
	Time      string        `json:"time"`
	Date      string        `json:"date"`
	Latitude  float64       `json:"latitude"`
	Longitude float64       `json:"longitude"`
	Status    string        `json:"status"`
	Distance  float64       `json:"distance"`
}

func (w wireReading) toReading() uvindex.Reading {
	id := w.CityID
	if id == "" {
		id = w.City
	}
	return uvindex.Reading{
		LocationID: id,
		CityName:   w.City,
		ShortName:  w.ShortName,
		State:      w.State,
		Latitude:   w.Latitude,
		Longitude:  w.Longitude,
		UV:         w.UVIndex,
		Time:       w.Time,
		Date:       w.Date,
		Status:     w.Status,
		DistanceKm: w.Distance,
	}
}
