package market

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

// LoadFeed reads raw candle records from src, which is either an
// http(s) URL or a file path. Sources ending in .csv are parsed as CSV
// with a time,open,high,low,close header, or as a Dukascopy export when
// the rows are semicolon separated; .txt is always Dukascopy. Everything
// else must be a JSON array of objects.
func LoadFeed(ctx context.Context, src string, client *http.Client) ([]RawCandle, error) {
	if isURL(src) {
		return fetchFeed(ctx, src, client)
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}
	return decodeFeed(filepath.Ext(src), data)
}

func decodeFeed(ext string, data []byte) ([]RawCandle, error) {
	switch strings.ToLower(ext) {
	case ".txt":
		return DecodeDukascopy(bytes.NewReader(data))
	case ".csv":
		if isDukascopy(data) {
			return DecodeDukascopy(bytes.NewReader(data))
		}
		return DecodeCSV(bytes.NewReader(data))
	}
	return DecodeJSON(data)
}

func isURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

func fetchFeed(ctx context.Context, src string, client *http.Client) ([]RawCandle, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feed %s: %w: %s", src, ErrBadStatus, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}

	ext := ""
	if u, err := url.Parse(src); err == nil {
		ext = path.Ext(u.Path)
	}
	return decodeFeed(ext, data)
}

// DecodeJSON parses a JSON array payload. Elements that are not objects
// are kept as nil records so Sanitize counts them as unparseable.
func DecodeJSON(data []byte) ([]RawCandle, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrNotArray
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}

	out := make([]RawCandle, 0, len(elems))
	for _, e := range elems {
		dec := json.NewDecoder(bytes.NewReader(e))
		dec.UseNumber()

		var rec map[string]any
		if err := dec.Decode(&rec); err != nil {
			out = append(out, nil)
			continue
		}
		out = append(out, RawCandle(rec))
	}
	return out, nil
}

// DecodeCSV reads candle rows from CSV. A header naming the columns is
// required; column order is free and names are case-insensitive. Numeric
// time cells are treated as epoch values, others as ISO dates.
func DecodeCSV(r io.Reader) ([]RawCandle, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, need := range []string{"time", "open", "high", "low", "close"} {
		if _, ok := cols[need]; !ok {
			return nil, fmt.Errorf("csv header missing %q column", need)
		}
	}

	var out []RawCandle
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}

		rec := RawCandle{}
		for name, idx := range cols {
			if idx >= len(row) {
				continue
			}
			cell := strings.TrimSpace(row[idx])
			if name == "time" {
				if _, err := strconv.ParseFloat(cell, 64); err == nil {
					rec[name] = json.Number(cell)
					continue
				}
			}
			rec[name] = cell
		}
		out = append(out, rec)
	}
}
