package arpansa

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/yanqian/uv-australia/internal/domain/uvindex"
)

const (
	// DefaultURL is the public ARPANSA real-time feed.
	DefaultURL = "https://uvdata.arpansa.gov.au/xml/uvvalues.xml"

	utcLayout = "2006/01/02 15:04"
)

// Getter performs the HTTP fetch.
type Getter interface {
	Get(ctx context.Context, url, accept string) ([]byte, error)
}

// Client fetches station readings from the ARPANSA XML feed.
type Client struct {
	url    string
	getter Getter
}

// NewClient builds a feed client.
func NewClient(url string, getter Getter) *Client {
	url = strings.TrimSpace(url)
	if url == "" {
		url = DefaultURL
	}
	return &Client{url: url, getter: getter}
}

// FetchAll implements dataset.Fetcher. Readings carry only feed fields; city
// details are joined later.
func (c *Client) FetchAll(ctx context.Context) ([]uvindex.Reading, error) {
	body, err := c.getter.Get(ctx, c.url, "application/xml")
	if err != nil {
		return nil, fmt.Errorf("arpansa request failed: %w", err)
	}
	return Parse(body)
}

type feed struct {
	XMLName   xml.Name   `xml:"stations"`
	Locations []location `xml:"location"`
}

type location struct {
	ID          string `xml:"id,attr"`
	Name        string `xml:"name"`
	Index       string `xml:"index"`
	Time        string `xml:"time"`
	Date        string `xml:"date"`
	FullDate    string `xml:"fulldate"`
	UTCDateTime string `xml:"utcdatetime"`
	Status      string `xml:"status"`
}

// Parse decodes a uvvalues.xml document. Locations without an id are skipped.
func Parse(body []byte) ([]uvindex.Reading, error) {
	var raw feed
	if err := xml.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode arpansa feed: %w", err)
	}
	readings := make([]uvindex.Reading, 0, len(raw.Locations))
	for _, loc := range raw.Locations {
		id := strings.TrimSpace(loc.ID)
		if id == "" {
			continue
		}
		readings = append(readings, uvindex.Reading{
			LocationID: id,
			ShortName:  strings.TrimSpace(loc.Name),
			UV:         uvindex.Value(uvindex.ParseValue(loc.Index)),
			ObservedAt: parseUTC(loc.UTCDateTime),
			Time:       strings.TrimSpace(loc.Time),
			Date:       strings.TrimSpace(loc.Date),
			Status:     strings.TrimSpace(loc.Status),
		})
	}
	return readings, nil
}

func parseUTC(value string) time.Time {
	ts, err := time.ParseInLocation(utcLayout, strings.TrimSpace(value), time.UTC)
	if err != nil {
		return time.Time{}
	}
	return ts
}
