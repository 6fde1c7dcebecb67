package fabricclient

import (
	"context"

	"github.com/rs/zerolog"
)

// ResolutionLevel identifies which endorser-resolution strategy produced a
// plan. Lower levels are more precise; higher levels are more resilient.
type ResolutionLevel int

const (
	// LevelPinnedPeers pins the transaction to live peers found per
	// required organization.
	LevelPinnedPeers ResolutionLevel = iota + 1
	// LevelDeclaredOrgs uses the statically configured peer endpoints for
	// each required organization.
	LevelDeclaredOrgs
	// LevelAmbientDiscovery submits with no pinning and lets the network's
	// discovery service pick endorsers. Last-resort path; it may still
	// fail at submission time.
	LevelAmbientDiscovery
)

func (l ResolutionLevel) String() string {
	switch l {
	case LevelPinnedPeers:
		return "pinned-peers"
	case LevelDeclaredOrgs:
		return "declared-orgs"
	case LevelAmbientDiscovery:
		return "ambient-discovery"
	}
	return "unknown"
}

// Topology lists live endorsing peers for an organization, typically backed
// by the network's discovery service. Failures here are expected and drop
// resolution to the next level.
type Topology interface {
	LivePeers(ctx context.Context, org string) ([]string, error)
}

// EndorserPlan is the outcome of resolution: the peers a transaction is
// pinned to, or nothing when submission relies on ambient discovery.
type EndorserPlan struct {
	Level ResolutionLevel
	Peers []string
	Orgs  []string
}

// EndorserResolver walks an ordered chain of strategies, trading endorsement
// precision for resilience at each step down.
type EndorserResolver struct {
	orgs     []string
	topology Topology
	orgPeers map[string][]string
	log      zerolog.Logger
}

func NewEndorserResolver(orgs []string, topology Topology, orgPeers map[string][]string, log zerolog.Logger) *EndorserResolver {
	return &EndorserResolver{
		orgs:     orgs,
		topology: topology,
		orgPeers: orgPeers,
		log:      log.With().Str("component", "endorser-resolver").Logger(),
	}
}

// Resolve never fails: exhausting every strategy yields an ambient-discovery
// plan, which is allowed to fail later at submission time.
func (r *EndorserResolver) Resolve(ctx context.Context) EndorserPlan {
	if plan, ok := r.resolveLive(ctx); ok {
		r.log.Debug().Strs("peers", plan.Peers).Msg("endorsers pinned from live topology")
		return plan
	}
	if plan, ok := r.resolveDeclared(); ok {
		r.log.Info().Strs("orgs", r.orgs).Msg("topology unavailable, using declared org peers")
		return plan
	}
	r.log.Warn().Strs("orgs", r.orgs).Msg("endorser resolution exhausted, relying on ambient discovery")
	return EndorserPlan{Level: LevelAmbientDiscovery, Orgs: r.orgs}
}

// resolveLive requires at least one live peer for every required org;
// a partial answer is treated as unavailable.
func (r *EndorserResolver) resolveLive(ctx context.Context) (EndorserPlan, bool) {
	if r.topology == nil || len(r.orgs) == 0 {
		return EndorserPlan{}, false
	}

	var peers []string
	for _, org := range r.orgs {
		live, err := r.topology.LivePeers(ctx, org)
		if err != nil {
			r.log.Debug().Str("org", org).Err(err).Msg("topology lookup failed")
			return EndorserPlan{}, false
		}
		if len(live) == 0 {
			return EndorserPlan{}, false
		}
		peers = append(peers, live...)
	}
	return EndorserPlan{Level: LevelPinnedPeers, Peers: peers, Orgs: r.orgs}, true
}

func (r *EndorserResolver) resolveDeclared() (EndorserPlan, bool) {
	if len(r.orgs) == 0 || len(r.orgPeers) == 0 {
		return EndorserPlan{}, false
	}

	var peers []string
	for _, org := range r.orgs {
		declared := r.orgPeers[org]
		if len(declared) == 0 {
			return EndorserPlan{}, false
		}
		peers = append(peers, declared...)
	}
	return EndorserPlan{Level: LevelDeclaredOrgs, Peers: peers, Orgs: r.orgs}, true
}
