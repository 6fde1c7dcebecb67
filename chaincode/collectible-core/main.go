package main

import (
	"log"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/provenanceworks/collectible-registry/chaincode/collectible-core/chaincode"
)

func main() {
	collectibleChaincode, err := contractapi.NewChaincode(&chaincode.SmartContract{})
	if err != nil {
		log.Panicf("Error creating collectible chaincode: %v", err)
	}

	if err := collectibleChaincode.Start(); err != nil {
		log.Panicf("Error starting collectible chaincode: %v", err)
	}
}
