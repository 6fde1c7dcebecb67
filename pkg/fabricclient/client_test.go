package fabricclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeContract scripts ledger responses per function name.
type fakeContract struct {
	payloads map[string][]byte
	errs     map[string]error
	delay    time.Duration
	calls    []string
	plans    []EndorserPlan
}

func newFakeContract() *fakeContract {
	return &fakeContract{
		payloads: make(map[string][]byte),
		errs:     make(map[string]error),
	}
}

func (f *fakeContract) Submit(fn string, plan EndorserPlan, args ...string) ([]byte, error) {
	f.calls = append(f.calls, fn)
	f.plans = append(f.plans, plan)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if err := f.errs[fn]; err != nil {
		return nil, err
	}
	return f.payloads[fn], nil
}

func (f *fakeContract) Evaluate(fn string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, fn)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if err := f.errs[fn]; err != nil {
		return nil, err
	}
	return f.payloads[fn], nil
}

func newTestClient(contract ledgerContract) *Client {
	log := zerolog.Nop()
	return &Client{
		contract: contract,
		resolver: NewEndorserResolver([]string{"AtelierMSP", "BrandMSP"}, nil, nil, log),
		timeout:  time.Second,
		log:      log,
	}
}

func sampleRecord(id string) []byte {
	rec := Collectible{
		ID:                  id,
		Name:                "Vase A",
		IssuingOrganization: "AtelierMSP",
		CurrentOwner:        "AtelierMSP",
		DigitalFingerprint:  "abc123",
		Status:              StatusActive,
		TransferHistory:     []TransferEvent{},
	}
	payload, _ := json.Marshal(rec)
	return payload
}

func TestSubmitDecodesRecord(t *testing.T) {
	contract := newFakeContract()
	contract.payloads[FnCreateCollectible] = sampleRecord("COL-1")
	client := newTestClient(contract)

	res, err := client.Submit(context.Background(), FnCreateCollectible, "COL-1")
	require.NoError(t, err)
	require.NotNil(t, res.Record())
	assert.Equal(t, "COL-1", res.Record().ID)
	assert.Equal(t, DecodeDecoded, res.Decode.State)
	assert.Equal(t, LevelAmbientDiscovery, res.Level)
	assert.Greater(t, res.Elapsed, time.Duration(0))
}

func TestSubmitPropagatesDomainErrors(t *testing.T) {
	contract := newFakeContract()
	contract.errs[FnClaimCollectible] = fmt.Errorf("chaincode response 500: ALREADY_CLAIMED: collectible COL-1 is already claimed by user-42")
	client := newTestClient(contract)

	_, err := client.Submit(context.Background(), FnClaimCollectible, "COL-1", "user-7")
	require.Error(t, err)
	assert.Equal(t, CodeAlreadyClaimed, CodeOf(err))
	assert.True(t, IsDomain(err))

	var oerr *Error
	require.ErrorAs(t, err, &oerr)
	assert.Equal(t, FnClaimCollectible, oerr.Fn)
	assert.Equal(t, []string{"COL-1", "user-7"}, oerr.Args)
}

func TestSubmitClassifiesEndorsementFailure(t *testing.T) {
	contract := newFakeContract()
	contract.errs[FnCreateCollectible] = errors.New("failed to endorse transaction: no peers available")
	client := newTestClient(contract)

	_, err := client.Submit(context.Background(), FnCreateCollectible, "COL-1")
	require.Error(t, err)
	assert.Equal(t, CodeEndorsementFailed, CodeOf(err))
	assert.False(t, IsDomain(err))
}

func TestSubmitTimesOut(t *testing.T) {
	contract := newFakeContract()
	contract.delay = 100 * time.Millisecond
	contract.payloads[FnCreateCollectible] = sampleRecord("COL-1")
	client := newTestClient(contract)
	client.timeout = 10 * time.Millisecond

	_, err := client.Submit(context.Background(), FnCreateCollectible, "COL-1")
	require.Error(t, err)
	assert.Equal(t, CodeTimeout, CodeOf(err))
}

func TestSubmitWithoutSession(t *testing.T) {
	var client Client
	client.log = zerolog.Nop()

	_, err := client.Submit(context.Background(), FnCreateCollectible, "COL-1")
	require.Error(t, err)
	assert.Equal(t, CodeSessionNotInitialized, CodeOf(err))
}

func TestCloseIsIdempotent(t *testing.T) {
	var client *Client
	client.Close() // nil receiver

	c := newTestClient(newFakeContract())
	c.Close()
	c.Close()

	_, err := c.Submit(context.Background(), FnCreateCollectible, "COL-1")
	assert.Equal(t, CodeSessionNotInitialized, CodeOf(err))
}

func TestSubmitUsesResolvedPlan(t *testing.T) {
	contract := newFakeContract()
	contract.payloads[FnCreateCollectible] = sampleRecord("COL-1")
	client := newTestClient(contract)
	client.resolver.orgPeers = map[string][]string{
		"AtelierMSP": {"peer0.atelier.example.com:7051"},
		"BrandMSP":   {"peer0.brand.example.com:9051"},
	}

	res, err := client.Submit(context.Background(), FnCreateCollectible, "COL-1")
	require.NoError(t, err)
	assert.Equal(t, LevelDeclaredOrgs, res.Level)
	require.Len(t, contract.plans, 1)
	assert.ElementsMatch(t,
		[]string{"peer0.atelier.example.com:7051", "peer0.brand.example.com:9051"},
		contract.plans[0].Peers)
}

func TestEvaluateHistory(t *testing.T) {
	events := []TransferEvent{
		{From: "AtelierMSP", To: "user-42", Type: "CLAIM", Timestamp: 1720000000, TxID: "tx-1"},
		{From: "user-42", To: "user-99", Type: "TRANSFER", Timestamp: 1720000100, TxID: "tx-2"},
	}
	payload, _ := json.Marshal(events)

	contract := newFakeContract()
	contract.payloads[FnGetTransferHistory] = payload
	client := newTestClient(contract)

	res, err := client.Evaluate(context.Background(), FnGetTransferHistory, "COL-1")
	require.NoError(t, err)

	history, err := res.History()
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "user-99", history[1].To)
}

func TestEvaluateBool(t *testing.T) {
	contract := newFakeContract()
	contract.payloads[FnVerifyAuthenticity] = []byte("true")
	client := newTestClient(contract)

	res, err := client.Evaluate(context.Background(), FnVerifyAuthenticity, "COL-1", "abc123")
	require.NoError(t, err)
	assert.True(t, res.Bool())

	contract.payloads[FnVerifyAuthenticity] = []byte("false")
	res, err = client.Evaluate(context.Background(), FnVerifyAuthenticity, "COL-1", "nope")
	require.NoError(t, err)
	assert.False(t, res.Bool())
}
