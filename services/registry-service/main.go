package main

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/provenanceworks/collectible-registry/pkg/common"
	"github.com/provenanceworks/collectible-registry/pkg/common/db"
	"github.com/provenanceworks/collectible-registry/pkg/common/migrations"
	"github.com/provenanceworks/collectible-registry/pkg/fabricclient"
	"github.com/provenanceworks/collectible-registry/pkg/observability"
	"github.com/provenanceworks/collectible-registry/services/registry-service/mirror"
)

func main() {
	logger := observability.InitLogger("registry-service")
	cfg := common.LoadConfig()

	database, err := db.Connect(cfg.DB)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to DB")
	}
	defer database.Close()

	if err := migrations.RunMigrations(database, "migrations/registry"); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	fabric, err := fabricclient.NewClient(fabricclient.Config{
		ConnectionProfile: cfg.Fabric.ConnectionProfile,
		ChannelName:       cfg.Fabric.Channel,
		ContractName:      cfg.Fabric.Contract,
		MSPID:             cfg.Fabric.MSPID,
		CertPath:          cfg.Fabric.CertPath,
		KeyPath:           cfg.Fabric.KeyPath,
		WalletDir:         cfg.Fabric.WalletDir,
		IdentityLabel:     "registry-admin",
		Timeout:           time.Duration(cfg.Fabric.TimeoutSeconds) * time.Second,
		EndorsingOrgs:     cfg.Fabric.EndorsingOrgs,
		OrgPeers:          cfg.Fabric.OrgPeers,
	}, logger)
	if err != nil {
		// The service still boots so that mirror reads keep working; every
		// ledger operation will answer SESSION_NOT_INITIALIZED until the
		// network is reachable.
		logger.Warn().Err(err).Msg("Failed to connect to Fabric, ledger operations disabled")
	} else {
		defer fabric.Close()
	}

	store := mirror.NewStore(database)
	svc := &Service{
		fabric: fabric,
		store:  store,
		sync:   mirror.NewSynchronizer(store, ledgerReader{fabric: fabric}, logger),
		issuer: cfg.Fabric.MSPID,
		log:    logger,
	}

	r := mux.NewRouter()
	r.Use(common.AuthMiddleware(cfg.JWTSecret))

	r.HandleFunc("/collectibles", svc.CreateCollectibleHandler).Methods("POST")
	r.HandleFunc("/collectibles", svc.ListCollectiblesHandler).Methods("GET")
	r.HandleFunc("/collectibles/batch", svc.BatchHandler).Methods("POST")
	r.HandleFunc("/collectibles/{id}", svc.GetCollectibleHandler).Methods("GET")
	r.HandleFunc("/collectibles/{id}/claim", svc.ClaimCollectibleHandler).Methods("POST")
	r.HandleFunc("/collectibles/{id}/transfer", svc.TransferCollectibleHandler).Methods("POST")
	r.HandleFunc("/collectibles/{id}/transfer-request", svc.RequestTransferHandler).Methods("POST")
	r.HandleFunc("/collectibles/{id}/transfer-approval", svc.ApproveTransferHandler).Methods("POST")
	r.HandleFunc("/collectibles/{id}/history", svc.GetHistoryHandler).Methods("GET")
	r.HandleFunc("/collectibles/{id}/verify", svc.VerifyHandler).Methods("POST")

	logger.Info().Str("port", cfg.Port).Msg("Registry Service running")
	logger.Fatal().Err(http.ListenAndServe(":"+cfg.Port, r)).Msg("server stopped")
}
