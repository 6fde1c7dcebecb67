package chaincode

import (
	"fmt"

	"github.com/hyperledger/fabric-chaincode-go/pkg/cid"
	"github.com/hyperledger/fabric-chaincode-go/shim"
)

// fakeStub implements the slice of shim.ChaincodeStubInterface the contract
// touches; the embedded interface covers the rest.
type fakeStub struct {
	shim.ChaincodeStubInterface
	state    map[string][]byte
	events   map[string][]byte
	txID     string
	txSerial int
}

func newFakeStub() *fakeStub {
	return &fakeStub{
		state:  make(map[string][]byte),
		events: make(map[string][]byte),
	}
}

func (f *fakeStub) GetState(key string) ([]byte, error) {
	return f.state[key], nil
}

func (f *fakeStub) PutState(key string, value []byte) error {
	f.state[key] = value
	return nil
}

func (f *fakeStub) DelState(key string) error {
	delete(f.state, key)
	return nil
}

func (f *fakeStub) SetEvent(name string, payload []byte) error {
	f.events[name] = payload
	return nil
}

func (f *fakeStub) GetTxID() string {
	if f.txID != "" {
		return f.txID
	}
	f.txSerial++
	return fmt.Sprintf("tx-%04d", f.txSerial)
}

// fakeIdentity implements cid.ClientIdentity for MSP and attribute checks.
type fakeIdentity struct {
	cid.ClientIdentity
	mspID string
	attrs map[string]string
}

func (f *fakeIdentity) GetMSPID() (string, error) {
	return f.mspID, nil
}

func (f *fakeIdentity) GetAttributeValue(name string) (string, bool, error) {
	val, ok := f.attrs[name]
	return val, ok, nil
}

// fakeContext satisfies contractapi.TransactionContextInterface.
type fakeContext struct {
	stub     *fakeStub
	identity *fakeIdentity
}

func newFakeContext() *fakeContext {
	return &fakeContext{
		stub:     newFakeStub(),
		identity: &fakeIdentity{mspID: "CollectorMSP"},
	}
}

func (f *fakeContext) GetStub() shim.ChaincodeStubInterface {
	return f.stub
}

func (f *fakeContext) GetClientIdentity() cid.ClientIdentity {
	return f.identity
}
