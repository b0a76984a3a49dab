package usage

import (
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/davelindo/eero-menu-bar-sub001/internal/models"
	"github.com/davelindo/eero-menu-bar-sub001/internal/payload"
)

var timePaths = []string{"time", "timestamp", "date", "start"}

// ParseTimeline reads hourly samples from either
// {"series": [{"type": "download", "values": [{"time", "value"}]}, ...]}
// or a flat {"values": [{"time", "download", "upload"}]}. Samples where both
// directions are zero are dropped. The result is ordered by time.
func ParseTimeline(v gjson.Result) []models.TimelineSample {
	var samples []models.TimelineSample
	if series := v.Get("series"); series.IsArray() {
		samples = parseSeries(series.Array())
	} else {
		samples = parseFlat(payload.List(v, "values"))
	}

	samples = nonZero(samples)
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Time.Before(samples[j].Time)
	})
	return samples
}

func parseSeries(series []gjson.Result) []models.TimelineSample {
	byTime := make(map[int64]*models.TimelineSample)
	var order []int64

	for _, s := range series {
		kind := strings.ToLower(payload.String(s, "type", "name"))
		download := strings.Contains(kind, "download")
		upload := strings.Contains(kind, "upload")
		if !download && !upload {
			continue
		}
		for _, point := range payload.List(s.Get("values")) {
			at, ok := payload.Time(point, timePaths...)
			if !ok {
				continue
			}
			value, _ := payload.Int64(point, "value")

			sample, ok := byTime[at.UnixNano()]
			if !ok {
				sample = &models.TimelineSample{Time: at}
				byTime[at.UnixNano()] = sample
				order = append(order, at.UnixNano())
			}
			if download {
				sample.Download += value
			} else {
				sample.Upload += value
			}
		}
	}

	out := make([]models.TimelineSample, 0, len(order))
	for _, key := range order {
		out = append(out, *byTime[key])
	}
	return out
}

func parseFlat(values []gjson.Result) []models.TimelineSample {
	out := make([]models.TimelineSample, 0, len(values))
	for _, point := range values {
		at, ok := payload.Time(point, timePaths...)
		if !ok {
			continue
		}
		traffic := rowTraffic(point)
		out = append(out, models.TimelineSample{Time: at, Download: traffic.Download, Upload: traffic.Upload})
	}
	return out
}

func nonZero(samples []models.TimelineSample) []models.TimelineSample {
	out := samples[:0]
	for _, s := range samples {
		if s.Download == 0 && s.Upload == 0 {
			continue
		}
		out = append(out, s)
	}
	return out
}

// BuildTimelines reads the stored timeline payloads
// ([{"key", "mac", "name", "payload"}]) and orders the timelines by total
// bytes, descending, then name. Timelines without samples are dropped.
func BuildTimelines(v gjson.Result) []models.DeviceTimeline {
	var out []models.DeviceTimeline
	for _, item := range payload.List(v) {
		samples := ParseTimeline(item.Get("payload"))
		if len(samples) == 0 {
			continue
		}
		tl := models.DeviceTimeline{
			Key:     payload.String(item, "key"),
			Name:    payload.String(item, "name", "mac"),
			MAC:     payload.String(item, "mac"),
			Samples: samples,
		}
		for _, s := range samples {
			tl.TotalDownload += s.Download
			tl.TotalUpload += s.Upload
		}
		out = append(out, tl)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		at, bt := a.TotalDownload+a.TotalUpload, b.TotalDownload+b.TotalUpload
		if at != bt {
			return at > bt
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
	return out
}

// timelineWindow is the hourly window ending at now.
func timelineWindow(now time.Time, hours int) (time.Time, time.Time) {
	end := now.Truncate(time.Hour).Add(time.Hour)
	return end.Add(-time.Duration(hours) * time.Hour), end
}
