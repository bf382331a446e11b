package approval_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/cordon/internal/approval"
	"github.com/mrz1836/cordon/internal/chain"
)

type fakeEventSource struct {
	events []approval.ApprovalEvent
}

func (f fakeEventSource) ApprovalEvents(_ context.Context, _ chain.ID, _ string) ([]approval.ApprovalEvent, error) {
	return f.events, nil
}

type fakeAllowanceReader struct {
	allowance *big.Int
}

func (f fakeAllowanceReader) Allowance(_ context.Context, _ chain.ID, _, _, _ string) (*big.Int, error) {
	return f.allowance, nil
}

type fakeMetadataProvider struct {
	meta approval.TokenMetadata
}

func (f fakeMetadataProvider) TokenMetadata(_ context.Context, _ chain.ID, _ string) (approval.TokenMetadata, error) {
	return f.meta, nil
}

func TestRefreshOwnerChain_NewEventCreatesPendingThenConfirms(t *testing.T) {
	t.Parallel()

	ledger := newLedger(t)
	refresher := &approval.Refresher{
		Ledger: ledger,
		Events: fakeEventSource{events: []approval.ApprovalEvent{
			{
				Token:     "0xtoken0000000000000000000000000000000001",
				Spender:   "0xspender00000000000000000000000000000001",
				TxHash:    "0xabc",
				Timestamp: time.Now().UTC(),
			},
		}},
		Allowances: fakeAllowanceReader{allowance: big.NewInt(500_000000)},
		Metadata:   fakeMetadataProvider{meta: approval.TokenMetadata{Symbol: "USDC", Name: "USD Coin", Decimals: 6}},
	}

	err := refresher.RefreshOwnerChain(context.Background(), "0xowner0000000000000000000000000000000001", chain.Ethereum)
	require.NoError(t, err)

	id := approval.GenerateApprovalID(
		"0xowner0000000000000000000000000000000001",
		chain.Ethereum,
		"0xtoken0000000000000000000000000000000001",
		"0xspender00000000000000000000000000000001",
	)
	rec, found, err := ledger.Get(id)
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, approval.StatusConfirmed, rec.Status)
	assert.Equal(t, "500000000", rec.AllowanceRaw)
	assert.False(t, rec.IsUnlimited)
	assert.Equal(t, "USDC", rec.TokenSymbol)
	require.NotNil(t, rec.LastCheckedAt)
}

func TestRefreshOwnerChain_ZeroAllowanceMarksRevoked(t *testing.T) {
	t.Parallel()

	ledger := newLedger(t)
	refresher := &approval.Refresher{
		Ledger: ledger,
		Events: fakeEventSource{events: []approval.ApprovalEvent{
			{
				Token:     "0xtoken0000000000000000000000000000000001",
				Spender:   "0xspender00000000000000000000000000000001",
				TxHash:    "0xabc",
				Timestamp: time.Now().UTC(),
			},
		}},
		Allowances: fakeAllowanceReader{allowance: big.NewInt(0)},
		Metadata:   fakeMetadataProvider{},
	}

	err := refresher.RefreshOwnerChain(context.Background(), "0xowner0000000000000000000000000000000001", chain.Ethereum)
	require.NoError(t, err)

	id := approval.GenerateApprovalID(
		"0xowner0000000000000000000000000000000001",
		chain.Ethereum,
		"0xtoken0000000000000000000000000000000001",
		"0xspender00000000000000000000000000000001",
	)
	rec, found, err := ledger.Get(id)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, approval.StatusRevoked, rec.Status)
}
