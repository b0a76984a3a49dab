package usage

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"golang.org/x/sync/errgroup"

	"github.com/davelindo/eero-menu-bar-sub001/internal/api"
)

const (
	cadenceDaily  = "daily"
	cadenceHourly = "hourly"

	DefaultTimelineHours = 24
)

// windowQuery is the query string of every data_usage request.
type windowQuery struct {
	Start    string `url:"start"`
	End      string `url:"end"`
	Cadence  string `url:"cadence"`
	Timezone string `url:"timezone,omitempty"`
}

// Fetcher pulls the raw usage payloads of one network.
type Fetcher struct {
	caller        api.Caller
	resolver      *api.Resolver
	logger        *logrus.Logger
	location      *time.Location
	timelineHours int
	concurrency   int
	now           func() time.Time
}

type Option func(*Fetcher)

// WithLocation sets the timezone used for period boundaries.
func WithLocation(loc *time.Location) Option {
	return func(f *Fetcher) {
		if loc != nil {
			f.location = loc
		}
	}
}

// WithTimelineHours sets the length of the per-device hourly window.
func WithTimelineHours(hours int) Option {
	return func(f *Fetcher) {
		if hours > 0 {
			f.timelineHours = hours
		}
	}
}

func WithConcurrency(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) {
		if now != nil {
			f.now = now
		}
	}
}

func NewFetcher(caller api.Caller, resolver *api.Resolver, logger *logrus.Logger, opts ...Option) *Fetcher {
	if resolver == nil {
		resolver = api.NewResolver(nil)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	f := &Fetcher{
		caller:        caller,
		resolver:      resolver,
		logger:        logger,
		location:      time.UTC,
		timelineHours: DefaultTimelineHours,
		concurrency:   4,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

type usageRequest struct {
	scope  string
	period string
	path   string
}

// Fetch returns the activity block for a network:
//
//	{"network": {"day","week","month"}, "eeros": {...}, "devices": {...},
//	 "timelines": [{"key","mac","name","payload"}]}
//
// Individual request failures leave the matching entry out. Only context
// errors are returned.
func (f *Fetcher) Fetch(ctx context.Context, networkID string, resources map[string]string) (string, error) {
	base := f.resolver.Path(resources, api.ResourceDataUsage, networkID)
	if base == "" {
		return "", nil
	}

	var requests []usageRequest
	for _, scope := range []struct{ key, suffix string }{
		{KeyNetwork, ""},
		{KeyNodes, "/eeros"},
		{KeyDevices, "/devices"},
	} {
		for _, period := range Periods {
			requests = append(requests, usageRequest{scope: scope.key, period: period, path: base + scope.suffix})
		}
	}

	now := f.now().In(f.location)
	results := make([]gjson.Result, len(requests))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for i, req := range requests {
		i, req := i, req
		g.Go(func() error {
			start, end := periodWindow(now, req.period)
			v, err := f.get(gctx, req.path, start, end, cadenceDaily)
			if err != nil {
				return f.swallow(gctx, err, req.scope+"."+req.period)
			}
			results[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	doc := "{}"
	for i, req := range requests {
		if !results[i].Exists() {
			continue
		}
		doc = setPath(doc, req.scope+"."+req.period, results[i].Raw)
	}

	timelines, err := f.fetchTimelines(ctx, base, now, ParseRows(gjson.Get(doc, KeyDevices+"."+PeriodDay)))
	if err != nil {
		return "", err
	}
	if timelines != "" {
		doc = setPath(doc, KeyTimelines, timelines)
	}
	return doc, nil
}

// fetchTimelines fetches the hourly window for the top devices of the day.
func (f *Fetcher) fetchTimelines(ctx context.Context, base string, now time.Time, dayRows []Row) (string, error) {
	// Timelines are addressed by MAC, so rows without one never make the top list.
	withMAC := make([]Row, 0, len(dayRows))
	for _, row := range dayRows {
		if row.MAC != "" {
			withMAC = append(withMAC, row)
		}
	}
	top := DayRanking(withMAC, TimelineLimit)
	if len(top) == 0 {
		return "", nil
	}

	start, end := timelineWindow(now, f.timelineHours)
	results := make([]gjson.Result, len(top))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for i, row := range top {
		i, row := i, row
		g.Go(func() error {
			v, err := f.get(gctx, base+"/devices/"+url.PathEscape(row.MAC), start, end, cadenceHourly)
			if err != nil {
				return f.swallow(gctx, err, "timeline")
			}
			results[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	doc := "[]"
	for i, row := range top {
		if !results[i].Exists() {
			continue
		}
		entry, _ := sjson.Set(`{}`, "key", row.Key)
		entry, _ = sjson.Set(entry, "mac", row.MAC)
		entry, _ = sjson.Set(entry, "name", row.Name)
		entry = setPath(entry, "payload", results[i].Raw)
		doc = setPath(doc, "-1", entry)
	}
	return doc, nil
}

func (f *Fetcher) get(ctx context.Context, path string, start, end time.Time, cadence string) (gjson.Result, error) {
	q, err := query.Values(windowQuery{
		Start:    start.UTC().Format(time.RFC3339),
		End:      end.UTC().Format(time.RFC3339),
		Cadence:  cadence,
		Timezone: f.location.String(),
	})
	if err != nil {
		return gjson.Result{}, err
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return f.caller.Call(ctx, http.MethodGet, path+sep+q.Encode(), nil, true)
}

func (f *Fetcher) swallow(ctx context.Context, err error, what string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	f.logger.WithError(err).WithField("usage", what).Debug("Usage request failed")
	return nil
}

// periodWindow returns the window of a period ending at now: the day starts
// at local midnight, the week and month are trailing 7 and 30 days.
func periodWindow(now time.Time, period string) (time.Time, time.Time) {
	switch period {
	case PeriodWeek:
		return now.AddDate(0, 0, -7), now
	case PeriodMonth:
		return now.AddDate(0, 0, -30), now
	default:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), now
	}
}

func setPath(doc, path, raw string) string {
	out, err := sjson.SetRaw(doc, path, raw)
	if err != nil {
		return doc
	}
	return out
}
