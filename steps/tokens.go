package steps

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/ethereum/go-ethereum/common"

	"github.com/status-im/status-backend-tests/api"
)

// TokenOverrides turns a symbol to contract address list into the token
// overrides of an account request, ordered by symbol.
func TokenOverrides(tokens map[string]common.Address) []api.TokenOverride {
	symbols := maps.Keys(tokens)
	slices.Sort(symbols)

	overrides := make([]api.TokenOverride, 0, len(symbols))
	for _, symbol := range symbols {
		overrides = append(overrides, api.TokenOverride{Symbol: symbol, Address: tokens[symbol]})
	}
	return overrides
}
