// Package enrich fetches a network with its sub-resources into one working
// JSON document and builds the network model from it.
//
// Fetch does all the I/O. Build is a pure function of the document, so a
// document captured from a live account can be replayed in tests.
package enrich

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/davelindo/eero-menu-bar-sub001/internal/api"
	"github.com/davelindo/eero-menu-bar-sub001/internal/identity"
	"github.com/davelindo/eero-menu-bar-sub001/internal/payload"
)

const DefaultConcurrency = 8

// ActivityFetcher returns the usage block of a network.
type ActivityFetcher interface {
	Fetch(ctx context.Context, networkID string, resources map[string]string) (string, error)
}

// Pipeline is the per-network fetch stage.
type Pipeline struct {
	caller      api.Caller
	resolver    *api.Resolver
	activity    ActivityFetcher
	logger      *logrus.Logger
	concurrency int
}

type Option func(*Pipeline)

// WithActivity enables the usage fetch.
func WithActivity(activity ActivityFetcher) Option {
	return func(p *Pipeline) {
		p.activity = activity
	}
}

func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

func NewPipeline(caller api.Caller, resolver *api.Resolver, logger *logrus.Logger, opts ...Option) *Pipeline {
	if resolver == nil {
		resolver = api.NewResolver(nil)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	p := &Pipeline{
		caller:      caller,
		resolver:    resolver,
		logger:      logger,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NetworkPath returns the URL of a network reference from the account
// payload: a bare string, an object with a url, or an object with an id.
func NetworkPath(ref gjson.Result) string {
	if ref.Type == gjson.String {
		return ref.Str
	}
	if u := payload.String(ref, "url", "href"); u != "" {
		return u
	}
	if id := payload.String(ref, "id", "network_id"); id != "" {
		return "/2.2/networks/" + id
	}
	return ""
}

// ExternalID is the vendor id of a network reference.
func ExternalID(ref gjson.Result) string {
	return identity.FromURL(NetworkPath(ref))
}

// Fetch loads the network behind ref and returns its working copy. A
// failure on the network resource itself is returned. Sub-resource failures
// leave their key unset; only cancellation aborts them.
func (p *Pipeline) Fetch(ctx context.Context, ref gjson.Result) (string, error) {
	target := NetworkPath(ref)
	if target == "" {
		return "", fmt.Errorf("%w: network reference has no url", api.ErrInvalidPayload)
	}

	raw, err := p.caller.Call(ctx, http.MethodGet, target, nil, true)
	if err != nil {
		return "", fmt.Errorf("fetch network %s: %w", target, err)
	}
	if !raw.IsObject() {
		return "", fmt.Errorf("%w: network %s is not an object", api.ErrInvalidPayload, target)
	}

	networkID := identity.FromURL(payload.String(raw, "url"))
	if networkID == "" {
		networkID = identity.FromURL(target)
	}
	resources := api.ResourceMap(raw)
	logger := p.logger.WithField("network", networkID)

	results := make([]gjson.Result, len(subResources))
	var activity string

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, sub := range subResources {
		i, sub := i, sub
		path := p.resolver.Path(resources, sub.name, networkID)
		if path == "" {
			continue
		}
		g.Go(func() error {
			v, err := p.caller.Call(gctx, http.MethodGet, path, nil, true)
			if err != nil {
				return swallow(gctx, logger, err, sub.name)
			}
			results[i] = v
			return nil
		})
	}
	if p.activity != nil {
		g.Go(func() error {
			doc, err := p.activity.Fetch(gctx, networkID, resources)
			if err != nil {
				return swallow(gctx, logger, err, api.ResourceDataUsage)
			}
			activity = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	doc := raw.Raw
	for i, sub := range subResources {
		if !results[i].Exists() {
			continue
		}
		value, ok := sub.shape(results[i])
		if !ok {
			logger.WithField("resource", sub.name).Debug("Unexpected sub-resource shape")
			continue
		}
		if sub.merge {
			value = payload.DeepMerge(gjson.Get(doc, payload.Escape(sub.key)), gjson.Parse(value)).Raw
		}
		doc = set(doc, sub.key, value)
	}

	nodes, err := p.expandNodes(ctx, logger, payload.List(gjson.Get(doc, KeyNodes), "eeros", "nodes"))
	if err != nil {
		return "", err
	}
	if nodes != nil {
		doc = set(doc, KeyNodes, payload.RawList(nodes))
	}
	if activity != "" {
		doc = set(doc, KeyActivity, activity)
	}
	return doc, nil
}

// expandNodes merges each node's detail resource onto its list summary and
// attaches the node's connections payload when it advertises one.
func (p *Pipeline) expandNodes(ctx context.Context, logger *logrus.Entry, nodes []gjson.Result) ([]gjson.Result, error) {
	if len(nodes) == 0 {
		return nil, nil
	}
	out := make([]gjson.Result, len(nodes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, node := range nodes {
		i, node := i, node
		g.Go(func() error {
			merged := node
			if detail := payload.String(node, "url"); detail != "" && node.IsObject() {
				v, err := p.caller.Call(gctx, http.MethodGet, detail, nil, true)
				if err != nil {
					if err := swallow(gctx, logger, err, "eero"); err != nil {
						return err
					}
				} else if v.IsObject() {
					merged = payload.DeepMerge(node, v)
				}
			}

			if link := api.ResourceMap(merged)[KeyConnections]; link != "" {
				v, err := p.caller.Call(gctx, http.MethodGet, link, nil, true)
				if err != nil {
					if err := swallow(gctx, logger, err, KeyConnections); err != nil {
						return err
					}
				} else if v.Exists() {
					merged = gjson.Parse(set(merged.Raw, KeyConnections, v.Raw))
				}
			}
			out[i] = merged
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func swallow(ctx context.Context, logger *logrus.Entry, err error, resource string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	logger.WithError(err).WithField("resource", resource).Debug("Sub-resource unavailable")
	return nil
}

func set(doc, key, raw string) string {
	out, err := payload.Set(doc, key, raw)
	if err != nil {
		return doc
	}
	return out
}
