package fabricclient

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

// fakeTopology scripts per-org discovery answers.
type fakeTopology struct {
	peers map[string][]string
	errs  map[string]error
}

func (f *fakeTopology) LivePeers(_ context.Context, org string) ([]string, error) {
	if err := f.errs[org]; err != nil {
		return nil, err
	}
	return f.peers[org], nil
}

var testOrgs = []string{"AtelierMSP", "BrandMSP"}

var testOrgPeers = map[string][]string{
	"AtelierMSP": {"peer0.atelier.example.com:7051"},
	"BrandMSP":   {"peer0.brand.example.com:9051"},
}

func TestResolvePinsLivePeers(t *testing.T) {
	topology := &fakeTopology{peers: map[string][]string{
		"AtelierMSP": {"peer0.atelier.example.com:7051", "peer1.atelier.example.com:8051"},
		"BrandMSP":   {"peer0.brand.example.com:9051"},
	}}
	resolver := NewEndorserResolver(testOrgs, topology, testOrgPeers, zerolog.Nop())

	plan := resolver.Resolve(context.Background())
	assert.Equal(t, LevelPinnedPeers, plan.Level)
	assert.Len(t, plan.Peers, 3)
}

func TestResolveFallsBackOnTopologyError(t *testing.T) {
	topology := &fakeTopology{
		peers: map[string][]string{"AtelierMSP": {"peer0.atelier.example.com:7051"}},
		errs:  map[string]error{"BrandMSP": errors.New("discovery unavailable")},
	}
	resolver := NewEndorserResolver(testOrgs, topology, testOrgPeers, zerolog.Nop())

	plan := resolver.Resolve(context.Background())
	assert.Equal(t, LevelDeclaredOrgs, plan.Level)
	assert.ElementsMatch(t,
		[]string{"peer0.atelier.example.com:7051", "peer0.brand.example.com:9051"},
		plan.Peers)
}

func TestResolveFallsBackOnMissingOrgPeers(t *testing.T) {
	// Topology answers for only one of the two required orgs: a partial
	// answer must not pin a partial peer set.
	topology := &fakeTopology{peers: map[string][]string{
		"AtelierMSP": {"peer0.atelier.example.com:7051"},
	}}
	resolver := NewEndorserResolver(testOrgs, topology, testOrgPeers, zerolog.Nop())

	plan := resolver.Resolve(context.Background())
	assert.Equal(t, LevelDeclaredOrgs, plan.Level)
}

func TestResolveAmbientLastResort(t *testing.T) {
	topology := &fakeTopology{errs: map[string]error{
		"AtelierMSP": errors.New("discovery unavailable"),
		"BrandMSP":   errors.New("discovery unavailable"),
	}}
	resolver := NewEndorserResolver(testOrgs, topology, nil, zerolog.Nop())

	plan := resolver.Resolve(context.Background())
	assert.Equal(t, LevelAmbientDiscovery, plan.Level)
	assert.Empty(t, plan.Peers)
	assert.Equal(t, testOrgs, plan.Orgs)
}

func TestResolveWithoutTopology(t *testing.T) {
	resolver := NewEndorserResolver(testOrgs, nil, testOrgPeers, zerolog.Nop())
	plan := resolver.Resolve(context.Background())
	assert.Equal(t, LevelDeclaredOrgs, plan.Level)

	resolver = NewEndorserResolver(testOrgs, nil, nil, zerolog.Nop())
	plan = resolver.Resolve(context.Background())
	assert.Equal(t, LevelAmbientDiscovery, plan.Level)
}

func TestResolutionLevelString(t *testing.T) {
	assert.Equal(t, "pinned-peers", LevelPinnedPeers.String())
	assert.Equal(t, "declared-orgs", LevelDeclaredOrgs.String())
	assert.Equal(t, "ambient-discovery", LevelAmbientDiscovery.String())
}
