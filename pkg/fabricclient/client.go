package fabricclient

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hyperledger/fabric-sdk-go/pkg/core/config"
	"github.com/hyperledger/fabric-sdk-go/pkg/gateway"
	"github.com/rs/zerolog"
)

const defaultTimeout = 30 * time.Second

// Config carries everything needed to establish a ledger session.
type Config struct {
	ConnectionProfile string
	ChannelName       string
	ContractName      string
	MSPID             string
	CertPath          string
	KeyPath           string
	WalletDir         string
	IdentityLabel     string
	Timeout           time.Duration

	// EndorsingOrgs names the organizations whose endorsement every
	// mutating transaction requires. OrgPeers optionally declares static
	// peer endpoints per org for mid-chain resolution.
	EndorsingOrgs []string
	OrgPeers      map[string][]string
}

// ledgerContract is the submission seam between the orchestrator and the
// gateway SDK; tests substitute it to exercise orchestration offline.
type ledgerContract interface {
	Submit(fn string, plan EndorserPlan, args ...string) ([]byte, error)
	Evaluate(fn string, args ...string) ([]byte, error)
}

type gatewayContract struct {
	contract *gateway.Contract
}

func (g gatewayContract) Submit(fn string, plan EndorserPlan, args ...string) ([]byte, error) {
	if len(plan.Peers) > 0 {
		txn, err := g.contract.CreateTransaction(fn, gateway.WithEndorsingPeers(plan.Peers...))
		if err != nil {
			return nil, err
		}
		return txn.Submit(args...)
	}
	return g.contract.SubmitTransaction(fn, args...)
}

func (g gatewayContract) Evaluate(fn string, args ...string) ([]byte, error) {
	return g.contract.EvaluateTransaction(fn, args...)
}

// Result is a normalized ledger call outcome.
type Result struct {
	Payload []byte
	Decode  DecodeResult
	Level   ResolutionLevel
	Elapsed time.Duration
}

// Record returns the decoded collectible, or nil when the payload was empty
// or not a well-formed record.
func (r *Result) Record() *Collectible {
	if r == nil || r.Decode.State != DecodeDecoded {
		return nil
	}
	return r.Decode.Record
}

// History parses the payload as a transfer-history result.
func (r *Result) History() ([]TransferEvent, error) {
	return decodeHistory(r.Payload)
}

// Bool parses the payload as a boolean result (VerifyAuthenticity).
func (r *Result) Bool() bool {
	return string(r.Payload) == "true"
}

// Client orchestrates ledger transactions and queries. Construct once,
// share across in-flight operations, Close on shutdown.
type Client struct {
	gw       *gateway.Gateway
	contract ledgerContract
	resolver *EndorserResolver
	timeout  time.Duration
	log      zerolog.Logger
}

// NewClient establishes the gateway session, bootstrapping the filesystem
// wallet with the operator identity when it is not already enrolled.
func NewClient(cfg Config, logger zerolog.Logger) (*Client, error) {
	walletDir := cfg.WalletDir
	if walletDir == "" {
		walletDir = "wallet"
	}
	wallet, err := gateway.NewFileSystemWallet(walletDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	label := cfg.IdentityLabel
	if label == "" {
		label = "appUser"
	}
	if !wallet.Exists(label) {
		if err := populateWallet(wallet, label, cfg.MSPID, cfg.CertPath, cfg.KeyPath); err != nil {
			return nil, fmt.Errorf("failed to populate wallet: %w", err)
		}
	}

	gw, err := gateway.Connect(
		gateway.WithConfig(config.FromFile(filepath.Clean(cfg.ConnectionProfile))),
		gateway.WithIdentity(wallet, label),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to gateway: %w", err)
	}

	network, err := gw.GetNetwork(cfg.ChannelName)
	if err != nil {
		gw.Close()
		return nil, fmt.Errorf("failed to get network: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	log := logger.With().Str("component", "fabricclient").Logger()
	return &Client{
		gw:       gw,
		contract: gatewayContract{contract: network.GetContract(cfg.ContractName)},
		resolver: NewEndorserResolver(cfg.EndorsingOrgs, nil, cfg.OrgPeers, log),
		timeout:  timeout,
		log:      log,
	}, nil
}

// SetTopology installs a live-topology source for first-level endorser
// resolution. Optional; without one, resolution starts at declared org peers.
func (c *Client) SetTopology(t Topology) {
	c.resolver.topology = t
}

// Submit sends a mutating transaction through the endorsement chain.
func (c *Client) Submit(ctx context.Context, fn string, args ...string) (*Result, error) {
	if c == nil || c.contract == nil {
		return nil, &Error{Code: CodeSessionNotInitialized, Fn: fn, Args: args}
	}

	start := time.Now()
	plan := c.resolver.Resolve(ctx)
	payload, err := c.bounded(ctx, func() ([]byte, error) {
		return c.contract.Submit(fn, plan, args...)
	})
	elapsed := time.Since(start)
	if err != nil {
		oerr := c.wrap(fn, args, elapsed, err)
		c.log.Error().
			Str("fn", fn).
			Strs("args", args).
			Stringer("level", plan.Level).
			Dur("elapsed", elapsed).
			Err(err).
			Msg("ledger submit failed")
		return nil, oerr
	}

	c.log.Info().
		Str("fn", fn).
		Stringer("level", plan.Level).
		Dur("elapsed", elapsed).
		Msg("ledger submit committed")
	return &Result{Payload: payload, Decode: decodePayload(payload), Level: plan.Level, Elapsed: elapsed}, nil
}

// Evaluate runs a read-only query; no endorsement resolution is involved.
func (c *Client) Evaluate(ctx context.Context, fn string, args ...string) (*Result, error) {
	if c == nil || c.contract == nil {
		return nil, &Error{Code: CodeSessionNotInitialized, Fn: fn, Args: args}
	}

	start := time.Now()
	payload, err := c.bounded(ctx, func() ([]byte, error) {
		return c.contract.Evaluate(fn, args...)
	})
	elapsed := time.Since(start)
	if err != nil {
		oerr := c.wrap(fn, args, elapsed, err)
		c.log.Error().
			Str("fn", fn).
			Strs("args", args).
			Dur("elapsed", elapsed).
			Err(err).
			Msg("ledger query failed")
		return nil, oerr
	}

	return &Result{Payload: payload, Decode: decodePayload(payload), Elapsed: elapsed}, nil
}

// bounded keeps the SDK's blocking calls inside the configured timeout so a
// stalled peer surfaces as TIMEOUT instead of a hang.
func (c *Client) bounded(ctx context.Context, call func() ([]byte, error)) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type outcome struct {
		payload []byte
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		payload, err := call()
		done <- outcome{payload: payload, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out := <-done:
		return out.payload, out.err
	}
}

func (c *Client) wrap(fn string, args []string, elapsed time.Duration, err error) *Error {
	code := classify(err)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		code = CodeTimeout
	}
	return &Error{Code: code, Fn: fn, Args: args, Elapsed: elapsed, Err: err}
}

// Close tears the session down. Safe to call when no session was ever
// established, and safe to call more than once.
func (c *Client) Close() {
	if c == nil || c.gw == nil {
		return
	}
	c.gw.Close()
	c.gw = nil
	c.contract = nil
}

func populateWallet(wallet *gateway.Wallet, label, mspID, certPath, keyPath string) error {
	cert, err := os.ReadFile(filepath.Clean(certPath))
	if err != nil {
		return err
	}

	key, err := os.ReadFile(filepath.Clean(keyPath))
	if err != nil {
		return err
	}

	identity := gateway.NewX509Identity(mspID, string(cert), string(key))

	return wallet.Put(label, identity)
}
