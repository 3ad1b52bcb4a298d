package market

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Dukascopy exports carry EST timestamps without daylight saving.
var estNoDST = time.FixedZone("EST", -5*60*60)

const dukascopyLayout = "20060102 150405"

// DecodeDukascopy reads semicolon separated rows of
// "20240102 170000;open;high;low;close;volume". An optional header line
// starting with "time;" is skipped. Rows that do not parse are kept as nil
// records so Sanitize counts them as unparseable.
func DecodeDukascopy(r io.Reader) ([]RawCandle, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var out []RawCandle
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(strings.ToLower(line), "time;") {
			continue
		}

		parts := strings.Split(line, ";")
		if len(parts) < 5 {
			out = append(out, nil)
			continue
		}
		ts, err := parseESTUnix(parts[0])
		if err != nil {
			out = append(out, nil)
			continue
		}
		out = append(out, RawCandle{
			"time":  json.Number(strconv.FormatInt(ts, 10)),
			"open":  strings.TrimSpace(parts[1]),
			"high":  strings.TrimSpace(parts[2]),
			"low":   strings.TrimSpace(parts[3]),
			"close": strings.TrimSpace(parts[4]),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read dukascopy feed: %w", err)
	}
	return out, nil
}

func parseESTUnix(s string) (int64, error) {
	t, err := time.ParseInLocation(dukascopyLayout, strings.TrimSpace(s), estNoDST)
	if err != nil {
		return 0, err
	}
	return t.UTC().Unix(), nil
}

// isDukascopy sniffs the first non-empty line for the semicolon layout.
func isDukascopy(data []byte) bool {
	for _, line := range strings.SplitN(string(data), "\n", 3) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(strings.ToLower(line), "time;") {
			return true
		}
		return strings.Count(line, ";") >= 4 && !strings.Contains(line, ",")
	}
	return false
}
