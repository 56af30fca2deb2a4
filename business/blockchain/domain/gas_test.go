package domain

import (
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestGasPrice_NetworkFee(t *testing.T) {
	tests := []struct {
		name  string
		wei   int64
		units uint64
		want  string
		gwei  float64
	}{
		{"20 gwei swap", 20_000_000_000, 150_000, "0.003", 20},
		{"fractional gwei", 1_500_000_000, 200_000, "0.0003", 1.5},
		{"zero units", 30_000_000_000, 0, "0", 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGasPrice(big.NewInt(tt.wei), time.Unix(0, 0))
			if got := g.NetworkFee(tt.units); !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("NetworkFee = %s, want %s", got, tt.want)
			}
			if got := g.Gwei(); got != tt.gwei {
				t.Errorf("Gwei = %v, want %v", got, tt.gwei)
			}
		})
	}
}

func TestGasPrice_IsFresh(t *testing.T) {
	at := time.Unix(1_000, 0)
	g := NewGasPrice(big.NewInt(1), at)

	if !g.IsFresh(at.Add(11*time.Second), 12*time.Second) {
		t.Error("11s old price should be fresh for a 12s window")
	}
	if g.IsFresh(at.Add(12*time.Second), 12*time.Second) {
		t.Error("12s old price should be stale for a 12s window")
	}
	var missing *GasPrice
	if missing.IsFresh(at, time.Hour) {
		t.Error("nil price is never fresh")
	}
}

func TestWeiFromGwei(t *testing.T) {
	tests := map[string]string{
		"500":          "500000000000",
		"0.5":          "500000000",
		"1.0000000001": "1000000000",
	}
	for in, want := range tests {
		if got := WeiFromGwei(decimal.RequireFromString(in)); got.String() != want {
			t.Errorf("WeiFromGwei(%s) = %s, want %s", in, got, want)
		}
	}
}
