package signal

import (
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const (
	Wallet                           = SignalType("wallet")
	SignTransactions                 = SignalType("wallet.sign.transactions")
	RouterSendingTransactionsStarted = SignalType("wallet.router.sending-transactions-started")
	SignRouterTransactions           = SignalType("wallet.router.sign-transactions")
	RouterTransactionsSent           = SignalType("wallet.router.transactions-sent")
	TransactionStatusChanged         = SignalType("wallet.transaction.status-changed")
	SuggestedRoutes                  = SignalType("wallet.suggested.routes")
)

// Event types carried inside the `wallet` signal.
const (
	EventActivityFilteringDone          = "wallet-activity-filtering-done"
	EventActivityFilteringUpdate        = "wallet-activity-filtering-entries-updated"
	EventActivitySessionUpdated         = "wallet-activity-session-updated"
	EventOwnedCollectiblesFilteringDone = "wallet-owned-collectibles-filtering-done"
)

// WalletEvent is the payload of the `wallet` signal.
type WalletEvent struct {
	Type        string           `json:"type"`
	BlockNumber *big.Int         `json:"blockNumber"`
	Accounts    []common.Address `json:"accounts"`
	// Message is a JSON document serialized as a string.
	Message   string `json:"message"`
	At        int64  `json:"at"`
	ChainID   uint64 `json:"chainId"`
	RequestID int64  `json:"requestId"`
}

func (*WalletEvent) signalEvent() {}

// UnmarshalMessage decodes the embedded message document.
func (e *WalletEvent) UnmarshalMessage(v interface{}) error {
	return json.Unmarshal([]byte(e.Message), v)
}

// ErrorResponse is the error payload the router attaches to its signals.
type ErrorResponse struct {
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// SendDetails describes the router request a signal belongs to.
type SendDetails struct {
	UUID          string         `json:"uuid"`
	SendType      int            `json:"sendType"`
	FromAddress   string         `json:"fromAddress"`
	ToAddress     string         `json:"toAddress"`
	FromToken     string         `json:"fromToken"`
	ToToken       string         `json:"toToken"`
	ErrorResponse *ErrorResponse `json:"errorResponse,omitempty"`
}

// SuggestedRoutesEvent is sent when wallet_getSuggestedRoutesAsync finishes.
type SuggestedRoutesEvent struct {
	UUID          string          `json:"Uuid"`
	Best          json.RawMessage `json:"Best"`
	Candidates    json.RawMessage `json:"Candidates"`
	ErrorResponse *ErrorResponse  `json:"ErrorResponse,omitempty"`
}

func (*SuggestedRoutesEvent) signalEvent() {}

// SigningDetails lists the hashes that have to be signed to proceed.
type SigningDetails struct {
	Address       string   `json:"address"`
	AddressPath   string   `json:"addressPath"`
	KeyUID        string   `json:"keyUid"`
	SignOnKeycard bool     `json:"signOnKeycard"`
	Hashes        []string `json:"hashes"`
}

// RouterSignTransactionsEvent is sent by wallet_buildTransactionsFromRoute.
type RouterSignTransactionsEvent struct {
	SendDetails    SendDetails    `json:"sendDetails"`
	SigningDetails SigningDetails `json:"signingDetails"`
}

func (*RouterSignTransactionsEvent) signalEvent() {}

type RouterSendingTransactionsStartedEvent struct {
	SendDetails SendDetails `json:"sendDetails"`
}

func (*RouterSendingTransactionsStartedEvent) signalEvent() {}

type RouterTransactionsSentEvent struct {
	SendDetails      SendDetails     `json:"sendDetails"`
	SentTransactions json.RawMessage `json:"sentTransactions"`
}

func (*RouterTransactionsSentEvent) signalEvent() {}

// TransactionStatusChangedEvent reports the outcome of a sent transaction.
type TransactionStatusChangedEvent struct {
	ChainID     uint64       `json:"chainId"`
	Hash        common.Hash  `json:"hash"`
	Status      string       `json:"status"`
	SendDetails *SendDetails `json:"sendDetails,omitempty"`
}

func (*TransactionStatusChangedEvent) signalEvent() {}
