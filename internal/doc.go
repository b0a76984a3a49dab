// Package eerosnap discovers the resources of an eero mesh account and
// reconciles them into one snapshot.
//
// # Architecture
//
// The engine is structured into several key packages:
//   - api: vendor API transport, session refresh and the resource resolver
//   - identity: MAC normalization and stable ids
//   - payload: tolerant readers over the vendor JSON
//   - enrich: per-network fan-out into a working copy and the pure model build
//   - usage: data usage windows, joins, rankings and hourly timelines
//   - summary: mesh, congestion, channel utilization and realtime summaries
//   - snapshot: account level assembly
//   - cache, database, scheduler, grpc: the daemon around the engine
//
// Key Features
//
//   - Best effort:
//     A failing sub-resource leaves its section empty; a failing network is
//     left out. Only the account root and cancellation fail a snapshot.
//
//   - Reconciliation:
//     Clients are attached to the node serving them by source URL, MAC,
//     location name or the node's own wireless and wired peers.
//
//   - Usage history:
//     Device timelines and network totals can be kept in TimescaleDB and
//     read back in 5m, 1h or 1d buckets.
//
// Example Usage
//
//	engine := snapshot.NewEngine(client, enrich.NewPipeline(client, resolver, logger), logger)
//	snap, err := engine.FetchAccountSnapshot(ctx, nil)
//
// For more information about specific packages, see their respective
// documentation.
package eerosnap
