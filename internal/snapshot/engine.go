// Package snapshot assembles the account snapshot: it fetches the account
// root, runs the enrichment pipeline for every selected network and builds
// the joined, summarized model.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/davelindo/eero-menu-bar-sub001/internal/api"
	"github.com/davelindo/eero-menu-bar-sub001/internal/enrich"
	"github.com/davelindo/eero-menu-bar-sub001/internal/models"
	"github.com/davelindo/eero-menu-bar-sub001/internal/payload"
	"github.com/davelindo/eero-menu-bar-sub001/internal/summary"
	"github.com/davelindo/eero-menu-bar-sub001/internal/usage"
)

const (
	DefaultAccountPath = "/2.2/account"
	DefaultConcurrency = 4
)

// Fetcher is the public surface of the engine.
type Fetcher interface {
	FetchAccountSnapshot(ctx context.Context, filter map[string]struct{}) (*models.AccountSnapshot, error)
	FetchAccountWithRawPayloads(ctx context.Context, filter map[string]struct{}) (*models.AccountSnapshot, []RawNetwork, error)
}

// NetworkFetcher produces the working copy of one network.
type NetworkFetcher interface {
	Fetch(ctx context.Context, ref gjson.Result) (string, error)
}

// RawNetwork is the unprocessed working copy of a network, kept for
// auditing the model against its source.
type RawNetwork struct {
	NetworkID string          `json:"networkId"`
	Raw       json.RawMessage `json:"raw"`
}

type Engine struct {
	caller      api.Caller
	networks    NetworkFetcher
	logger      *logrus.Logger
	accountPath string
	concurrency int
	now         func() time.Time
}

type Option func(*Engine)

func WithAccountPath(path string) Option {
	return func(e *Engine) {
		if path != "" {
			e.accountPath = path
		}
	}
}

func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithClock replaces time.Now for the snapshot timestamp.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func NewEngine(caller api.Caller, networks NetworkFetcher, logger *logrus.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	e := &Engine{
		caller:      caller,
		networks:    networks,
		logger:      logger,
		accountPath: DefaultAccountPath,
		concurrency: DefaultConcurrency,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FetchAccountSnapshot fetches the account and every network in filter (all
// networks when filter is empty). Networks whose root fails are left out;
// a failing account root or a cancelled ctx fails the whole call.
func (e *Engine) FetchAccountSnapshot(ctx context.Context, filter map[string]struct{}) (*models.AccountSnapshot, error) {
	snap, _, err := e.fetch(ctx, filter)
	return snap, err
}

// FetchAccountWithRawPayloads is FetchAccountSnapshot that also returns the
// working copy of each included network.
func (e *Engine) FetchAccountWithRawPayloads(ctx context.Context, filter map[string]struct{}) (*models.AccountSnapshot, []RawNetwork, error) {
	return e.fetch(ctx, filter)
}

func (e *Engine) fetch(ctx context.Context, filter map[string]struct{}) (*models.AccountSnapshot, []RawNetwork, error) {
	account, err := e.caller.Call(ctx, http.MethodGet, e.accountPath, nil, true)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch account: %w", err)
	}

	var refs []gjson.Result
	for _, ref := range payload.List(account.Get("networks"), "networks") {
		if len(filter) > 0 {
			if _, ok := filter[enrich.ExternalID(ref)]; !ok {
				continue
			}
		}
		refs = append(refs, ref)
	}

	docs := make([]string, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			doc, err := e.networks.Fetch(gctx, ref)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				e.logger.WithError(err).WithField("network", enrich.ExternalID(ref)).Warn("Network omitted from snapshot")
				return nil
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	snap := &models.AccountSnapshot{
		FetchedAt: e.now().UTC(),
		Networks:  make([]models.Network, 0, len(docs)),
	}
	var raws []RawNetwork
	for _, doc := range docs {
		if doc == "" {
			continue
		}
		network := BuildNetwork(gjson.Parse(doc))
		snap.Networks = append(snap.Networks, network)
		raws = append(raws, RawNetwork{NetworkID: network.ExternalID, Raw: json.RawMessage(doc)})
	}
	return snap, raws, nil
}

// BuildNetwork turns one working copy into a fully joined network.
func BuildNetwork(raw gjson.Result) models.Network {
	n := enrich.Build(raw)

	activity := usage.BuildActivity(raw.Get(enrich.KeyActivity))
	n.Clients = usage.AttachClients(n.Clients, activity.Devices)
	n.Nodes = usage.AttachNodes(n.Nodes, activity.Nodes)
	n.Activity = activity.Summary()

	n.Mesh = summary.Mesh(n.Nodes)
	n.ChannelUtilization = summary.ChannelUtilization(raw.Get(enrich.KeyChannelUtilization))
	n.WirelessCongestion = summary.WirelessCongestion(n.Clients, n.ChannelUtilization)
	n.Realtime = summary.Realtime(n.Clients)
	n.ProxiedNodes = summary.ProxiedNodes(raw.Get(enrich.KeyProxiedNodes))
	return n
}

var _ Fetcher = (*Engine)(nil)
