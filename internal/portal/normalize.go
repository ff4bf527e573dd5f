package portal

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/jgoulah/bandwidthscraper/pkg/models"
)

// timestamp layouts the portal has been seen to use for "day"
var dayLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02",
}

type rawPayload struct {
	Data  jsontext.Value `json:"data"`
	Goals jsontext.Value `json:"goals"`
}

type rawSample struct {
	Day jsontext.Value `json:"day"`
	Out jsontext.Value `json:"o"`
	In  jsontext.Value `json:"i"`
}

// Normalize converts a portal usage payload into a series.
// Unparseable numbers become missing measures; an unparseable timestamp fails the whole series.
func Normalize(granularity models.Granularity, payload []byte) (models.Series, error) {
	series := models.Series{Granularity: granularity}

	var raw rawPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return series, &ParseError{Field: "payload", Err: err}
	}
	if raw.Data.Kind() != '[' {
		return series, &ParseError{Field: "data", Err: errors.New("expected an array")}
	}

	var rows []rawSample
	if err := json.Unmarshal(raw.Data, &rows); err != nil {
		return series, &ParseError{Field: "data", Err: err}
	}

	series.Samples = make([]models.Sample, 0, len(rows))
	for idx, row := range rows {
		ts, err := parseDay(row.Day)
		if err != nil {
			return models.Series{Granularity: granularity}, &ParseError{
				Field: fmt.Sprintf("data[%d].day", idx),
				Value: string(row.Day),
				Err:   err,
			}
		}

		sample := models.Sample{
			Time: ts,
			Out:  coerceMeasure(row.Out),
			In:   coerceMeasure(row.In),
		}
		if granularity == models.Hourly {
			sample.Hour = ts.Hour()
			sample.HourLabel = fmt.Sprintf("%02d:00", sample.Hour)
		}
		series.Samples = append(series.Samples, sample)
	}

	if goal := coerceMeasure(raw.Goals); goal.Valid {
		series.Goal = &goal.Value
	}

	return series, nil
}

func parseDay(v jsontext.Value) (time.Time, error) {
	if v.Kind() != '"' {
		return time.Time{}, errors.New("expected a string")
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return time.Time{}, err
	}
	s = strings.TrimSpace(s)

	for _, layout := range dayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("unrecognized timestamp format")
}

// coerceMeasure accepts a JSON string or number; anything else is missing
func coerceMeasure(v jsontext.Value) models.Measure {
	var text string
	switch v.Kind() {
	case '0':
		text = string(v)
	case '"':
		if err := json.Unmarshal(v, &text); err != nil {
			return models.Missing()
		}
	default:
		return models.Missing()
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return models.Missing()
	}
	return models.Present(f)
}
