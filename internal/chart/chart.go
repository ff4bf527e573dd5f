package chart

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jgoulah/bandwidthscraper/pkg/models"
	"github.com/samber/lo"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Output geometry: a 12x6 figure at 300 DPI
const (
	DefaultWidth  = 3600
	DefaultHeight = 1800
	DefaultDPI    = 300
)

// Conventional artifact names
const (
	IntradayFile = "data_transfer_overview.png"
	DailyFile    = "daily_data_overview.png"
)

const (
	intradayTitle = "Data Transfer Overview"
	dailyTitle    = "Daily Data Transfer Overview"

	downloadLabel = "Download (o)"
	uploadLabel   = "Upload (i)"

	intradayHeadroom = 100.0
	dailyHeadroom    = 1000.0

	dateTickLayout = "02 Jan"

	lastHour = 23
)

// ErrEmptySeries is returned when a series has no values to scale the Y axis against
var ErrEmptySeries = errors.New("series has no renderable values")

var (
	downloadColor = drawing.Color{R: 31, G: 119, B: 180, A: 255}
	uploadColor   = drawing.Color{R: 255, G: 127, B: 14, A: 255}
	goalColor     = drawing.Color{R: 214, G: 39, B: 40, A: 255}

	gridStyle = gochart.Style{
		StrokeColor:     drawing.Color{R: 176, G: 176, B: 176, A: 153},
		StrokeWidth:     1,
		StrokeDashArray: []float64{6, 6},
	}
)

// Image is a rendered PNG chart held in memory
type Image struct {
	Name string
	Data []byte
}

// Size returns the encoded image size in bytes
func (i Image) Size() int {
	return len(i.Data)
}

// WriteFile writes the image into dir under its conventional name
func (i Image) WriteFile(dir string) (string, error) {
	path := filepath.Join(dir, i.Name)
	if err := os.WriteFile(path, i.Data, 0644); err != nil {
		return "", fmt.Errorf("writing chart %s: %w", i.Name, err)
	}
	return path, nil
}

// Renderer draws usage series as PNG charts
type Renderer struct {
	Width  int
	Height int
	DPI    float64
}

// NewRenderer creates a renderer with the default output geometry
func NewRenderer() *Renderer {
	return &Renderer{
		Width:  DefaultWidth,
		Height: DefaultHeight,
		DPI:    DefaultDPI,
	}
}

// Render picks the chart variant matching the series granularity
func (r *Renderer) Render(series models.Series) (Image, error) {
	switch series.Granularity {
	case models.Hourly:
		return r.Intraday(series)
	case models.Daily:
		return r.Daily(series)
	default:
		return Image{}, fmt.Errorf("unknown series granularity %q", series.Granularity)
	}
}

// Intraday renders an hour-of-day chart
func (r *Renderer) Intraday(series models.Series) (Image, error) {
	c, err := r.intradayChart(series)
	if err != nil {
		return Image{}, fmt.Errorf("rendering hourly chart: %w", err)
	}
	return encode(c, IntradayFile)
}

// Daily renders a calendar-date chart with an optional goal line
func (r *Renderer) Daily(series models.Series) (Image, error) {
	c, err := r.dailyChart(series)
	if err != nil {
		return Image{}, fmt.Errorf("rendering daily chart: %w", err)
	}
	return encode(c, DailyFile)
}

// HumanizeMB formats a megabyte amount for axis ticks
func HumanizeMB(v float64) string {
	if v >= 1000 {
		return fmt.Sprintf("%.1f GB", v/1000)
	}
	return fmt.Sprintf("%.1f MB", v)
}

func humanizeTick(v interface{}) string {
	if f, ok := v.(float64); ok {
		return HumanizeMB(f)
	}
	return ""
}

func goalLabel(goal float64) string {
	return "Goal: " + humanize.FormatFloat("#,###.#", goal) + " MB"
}

func (r *Renderer) intradayChart(series models.Series) (gochart.Chart, error) {
	top, ok := peak(series.Samples)
	if !ok {
		return gochart.Chart{}, ErrEmptySeries
	}

	hours := lo.Map(series.Samples, func(s models.Sample, _ int) float64 {
		return float64(s.Hour)
	})

	var drawn, named []gochart.Series
	for _, line := range []struct {
		label  string
		color  drawing.Color
		values []models.Measure
	}{
		{downloadLabel, downloadColor, outs(series.Samples)},
		{uploadLabel, uploadColor, ins(series.Samples)},
	} {
		parts := lo.Map(segments(hours, line.values), func(seg segment[float64], idx int) gochart.Series {
			return gochart.ContinuousSeries{
				Name:    lo.Ternary(idx == 0, line.label, ""),
				Style:   lineStyle(line.color),
				XValues: seg.xs,
				YValues: seg.ys,
			}
		})
		drawn = append(drawn, parts...)
		if len(parts) > 0 {
			named = append(named, parts[0])
		}
	}

	c := r.base(intradayTitle)
	c.XAxis = gochart.XAxis{
		Name:           "Hour of the Day",
		Range:          &gochart.ContinuousRange{Min: 0, Max: lastHour},
		Ticks:          hourTicks(series.Samples),
		TickStyle:      gochart.Style{TextRotationDegrees: 45},
		GridMajorStyle: gridStyle,
	}
	c.YAxis = yAxis(top + intradayHeadroom)
	c.Series = drawn
	c.Elements = []gochart.Renderable{legend(named)}

	return c, nil
}

func (r *Renderer) dailyChart(series models.Series) (gochart.Chart, error) {
	top, ok := peak(series.Samples)
	if !ok {
		return gochart.Chart{}, ErrEmptySeries
	}

	days := lo.Map(series.Samples, func(s models.Sample, _ int) time.Time {
		return s.Time
	})
	first := lo.MinBy(days, func(a, b time.Time) bool { return a.Before(b) })
	last := lo.MaxBy(days, func(a, b time.Time) bool { return a.After(b) })
	if !last.After(first) {
		last = first.Add(24 * time.Hour)
	}

	var drawn, named []gochart.Series
	for _, line := range []struct {
		label  string
		color  drawing.Color
		values []models.Measure
	}{
		{downloadLabel, downloadColor, outs(series.Samples)},
		{uploadLabel, uploadColor, ins(series.Samples)},
	} {
		xs, ys := withOrigin(days, line.values)
		parts := lo.Map(segments(xs, ys), func(seg segment[time.Time], idx int) gochart.Series {
			return gochart.TimeSeries{
				Name:    lo.Ternary(idx == 0, line.label, ""),
				Style:   lineStyle(line.color),
				XValues: seg.xs,
				YValues: seg.ys,
			}
		})
		drawn = append(drawn, parts...)
		if len(parts) > 0 {
			named = append(named, parts[0])
		}
	}

	if series.Goal != nil {
		goal := gochart.TimeSeries{
			Name: goalLabel(*series.Goal),
			Style: gochart.Style{
				StrokeColor:     goalColor,
				StrokeWidth:     3,
				StrokeDashArray: []float64{12, 8},
			},
			XValues: []time.Time{first, last},
			YValues: []float64{*series.Goal, *series.Goal},
		}
		drawn = append(drawn, goal)
		named = append(named, goal)
	}

	c := r.base(dailyTitle)
	c.XAxis = gochart.XAxis{
		Name: "Date",
		Range: &gochart.ContinuousRange{
			Min: gochart.TimeToFloat64(first),
			Max: gochart.TimeToFloat64(last),
		},
		Ticks:          dateTicks(days, last),
		TickStyle:      gochart.Style{TextRotationDegrees: 45},
		GridMajorStyle: gridStyle,
	}
	c.YAxis = yAxis(top + dailyHeadroom)
	c.Series = drawn
	c.Elements = []gochart.Renderable{legend(named)}

	return c, nil
}

func (r *Renderer) base(title string) gochart.Chart {
	return gochart.Chart{
		Title:  title,
		Width:  r.Width,
		Height: r.Height,
		DPI:    r.DPI,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 60, Left: 40, Right: 40, Bottom: 40},
		},
	}
}

func yAxis(upper float64) gochart.YAxis {
	return gochart.YAxis{
		Name:           "Data Transferred",
		Range:          &gochart.ContinuousRange{Min: 0, Max: upper},
		ValueFormatter: humanizeTick,
		GridMajorStyle: gridStyle,
	}
}

func lineStyle(color drawing.Color) gochart.Style {
	return gochart.Style{
		StrokeColor: color,
		StrokeWidth: 3,
		DotColor:    color,
		DotWidth:    6,
	}
}

// legend lists only the named series; continuation segments share a label
func legend(named []gochart.Series) gochart.Renderable {
	return gochart.Legend(&gochart.Chart{Series: named})
}

// hourTicks places one tick per hour of the day. Every other sample lends
// its label; hours without a labelled sample stay blank. go-chart derives
// the X range from the ticks, so they must span 0-23.
func hourTicks(samples []models.Sample) []gochart.Tick {
	labels := make(map[int]string, len(samples))
	for idx, s := range samples {
		if idx%2 == 0 {
			labels[s.Hour] = s.HourLabel
		}
	}

	return lo.Map(lo.Range(lastHour+1), func(h int, _ int) gochart.Tick {
		return gochart.Tick{Value: float64(h), Label: labels[h]}
	})
}

// dateTicks labels each sample date and adds a blank tick at last when the
// range was padded past the final date
func dateTicks(days []time.Time, last time.Time) []gochart.Tick {
	ticks := lo.Map(days, func(d time.Time, _ int) gochart.Tick {
		return gochart.Tick{
			Value: gochart.TimeToFloat64(d),
			Label: d.Format(dateTickLayout),
		}
	})
	end := gochart.TimeToFloat64(last)
	if !lo.ContainsBy(ticks, func(t gochart.Tick) bool { return t.Value >= end }) {
		ticks = append(ticks, gochart.Tick{Value: end})
	}
	return ticks
}

func encode(c gochart.Chart, name string) (Image, error) {
	var buf bytes.Buffer
	if err := c.Render(gochart.PNG, &buf); err != nil {
		return Image{}, fmt.Errorf("rendering %s: %w", name, err)
	}
	return Image{Name: name, Data: buf.Bytes()}, nil
}
