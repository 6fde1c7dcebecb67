package common

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port      string
	JWTSecret string
	Fabric    FabricConfig
	DB        DBConfig
}

type FabricConfig struct {
	ConnectionProfile string
	Channel           string
	Contract          string
	MSPID             string
	CertPath          string
	KeyPath           string
	WalletDir         string
	TimeoutSeconds    int
	EndorsingOrgs     []string
	OrgPeers          map[string][]string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

func LoadConfig() *Config {
	return &Config{
		Port:      getEnv("PORT", "8080"),
		JWTSecret: getEnv("JWT_SECRET", "change-me"),
		Fabric: FabricConfig{
			ConnectionProfile: getEnv("FABRIC_CONFIG", "connection-profile.yaml"),
			Channel:           getEnv("FABRIC_CHANNEL", "collectible-main-channel"),
			Contract:          getEnv("FABRIC_CONTRACT", "collectible-core"),
			MSPID:             getEnv("MSP_ID", "AtelierMSP"),
			CertPath:          getEnv("CERT_PATH", ""),
			KeyPath:           getEnv("KEY_PATH", ""),
			WalletDir:         getEnv("WALLET_DIR", "wallet"),
			TimeoutSeconds:    GetEnvInt("FABRIC_TIMEOUT_SECONDS", 30),
			EndorsingOrgs:     splitList(getEnv("ENDORSING_ORGS", "")),
			OrgPeers:          parseOrgPeers(getEnv("ORG_PEERS", "")),
		},
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "registry"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func GetEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return fallback
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// parseOrgPeers reads "Org1=peer0:7051|peer1:8051;Org2=peer0:9051" into a
// per-org endpoint map.
func parseOrgPeers(value string) map[string][]string {
	if value == "" {
		return nil
	}
	out := make(map[string][]string)
	for _, entry := range strings.Split(value, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		org, peers, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		org = strings.TrimSpace(org)
		var endpoints []string
		for _, peer := range strings.Split(peers, "|") {
			if trimmed := strings.TrimSpace(peer); trimmed != "" {
				endpoints = append(endpoints, trimmed)
			}
		}
		if org != "" && len(endpoints) > 0 {
			out[org] = endpoints
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
