package params

import (
	"github.com/ethereum/go-ethereum/common"
)

// AnvilNetworkID is the chain id of the local anvil test chain.
const AnvilNetworkID uint64 = 31337

// DefaultDisplayName is the display name used when a test does not care.
const DefaultDisplayName = "Mr_Meeseeks"

// Gas fee modes accepted by the wallet router.
const (
	GasFeeModeLow = iota
	GasFeeModeMedium
	GasFeeModeHigh
	GasFeeModeCustom
)

// ProcessorNameTransfer is the router path processor for plain transfers.
const ProcessorNameTransfer = "Transfer"

// Account is a well known anvil development account.
type Account struct {
	Address    common.Address
	PrivateKey string
	Password   string
	Passphrase string
}

// Anvil's first two deterministic development accounts.
var (
	User1 = Account{
		Address:    common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"),
		PrivateKey: "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80",
		Password:   "Strong12345",
		Passphrase: "test test test test test test test test test test test junk",
	}
	User2 = Account{
		Address:    common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"),
		PrivateKey: "0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d",
		Password:   "Strong12345",
		Passphrase: "test test test test test test test test test test nest junk",
	}

	// DeployerAccount funds and deploys test contracts.
	DeployerAccount = User1
)
