// Package asset models on-chain tokens and exact token amounts.
package asset

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Asset is an immutable token description. A zero address denotes the
// chain's native coin.
type Asset struct {
	chainID  uint64
	address  common.Address
	symbol   string
	name     string
	decimals uint8
}

// NewToken creates an ERC20 asset.
func NewToken(chainID uint64, address common.Address, symbol, name string, decimals uint8) *Asset {
	if address == (common.Address{}) {
		panic("asset: token address cannot be zero, use NewNative")
	}
	return newAsset(chainID, address, symbol, name, decimals)
}

// NewNative creates the native coin of a chain.
func NewNative(chainID uint64, symbol, name string, decimals uint8) *Asset {
	return newAsset(chainID, common.Address{}, symbol, name, decimals)
}

func newAsset(chainID uint64, address common.Address, symbol, name string, decimals uint8) *Asset {
	if symbol == "" {
		panic("asset: empty symbol")
	}
	if decimals > 30 {
		panic("asset: suspicious decimals (>30)")
	}
	return &Asset{
		chainID:  chainID,
		address:  address,
		symbol:   strings.ToUpper(symbol),
		name:     name,
		decimals: decimals,
	}
}

func (a *Asset) ChainID() uint64 { return a.chainID }
func (a *Asset) Address() common.Address { return a.address }
func (a *Asset) Symbol() string { return a.symbol }
func (a *Asset) Decimals() uint8 { return a.decimals }
func (a *Asset) IsNative() bool { return a.address == (common.Address{}) }

// Name returns the display name, falling back to the symbol.
func (a *Asset) Name() string {
	if a.name == "" {
		return a.symbol
	}
	return a.name
}

// Key identifies the asset on its chain.
func (a *Asset) Key() string {
	if a.IsNative() {
		return fmt.Sprintf("chain:%d/native", a.chainID)
	}
	return fmt.Sprintf("chain:%d/%s", a.chainID, a.address.Hex())
}

// Equals compares chain and address.
func (a *Asset) Equals(other *Asset) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.chainID == other.chainID && a.address == other.address
}

func (a *Asset) String() string {
	return a.symbol
}
