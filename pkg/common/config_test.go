package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "collectible-main-channel", cfg.Fabric.Channel)
	assert.Equal(t, "collectible-core", cfg.Fabric.Contract)
	assert.Equal(t, 30, cfg.Fabric.TimeoutSeconds)
	assert.Equal(t, "disable", cfg.DB.SSLMode)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENDORSING_ORGS", "AtelierMSP, BrandMSP")
	t.Setenv("FABRIC_TIMEOUT_SECONDS", "5")

	cfg := LoadConfig()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, []string{"AtelierMSP", "BrandMSP"}, cfg.Fabric.EndorsingOrgs)
	assert.Equal(t, 5, cfg.Fabric.TimeoutSeconds)
}

func TestParseOrgPeers(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  map[string][]string
	}{
		{"empty", "", nil},
		{"single", "AtelierMSP=peer0.atelier:7051", map[string][]string{
			"AtelierMSP": {"peer0.atelier:7051"},
		}},
		{"multi", "AtelierMSP=peer0:7051|peer1:8051; BrandMSP=peer0:9051", map[string][]string{
			"AtelierMSP": {"peer0:7051", "peer1:8051"},
			"BrandMSP":   {"peer0:9051"},
		}},
		{"malformed entries skipped", "noequals;=;Org=", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, parseOrgPeers(tc.input))
		})
	}
}
