package bridge_test

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/cordon/internal/bridge"
	"github.com/mrz1836/cordon/internal/chain"
	"github.com/mrz1836/cordon/pkg/cordonerrors"
)

type fakeVault struct{ unlocked bool }

func (f *fakeVault) IsUnlocked() bool { return f.unlocked }

type fakeConfirmer struct {
	approve  bool
	calls    int32
	inFlight int32
	maxSeen  int32
	delay    time.Duration
}

func (f *fakeConfirmer) Confirm(_ context.Context, _ string) (bool, error) {
	atomic.AddInt32(&f.calls, 1)
	n := atomic.AddInt32(&f.inFlight, 1)
	for {
		cur := atomic.LoadInt32(&f.maxSeen)
		if n <= cur || atomic.CompareAndSwapInt32(&f.maxSeen, cur, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	atomic.AddInt32(&f.inFlight, -1)
	return f.approve, nil
}

type fakeDrainer struct{ err error }

func (f *fakeDrainer) InspectTransaction(_ context.Context, _, _ string) error { return f.err }

type fakeApprovals struct{ err error }

func (f *fakeApprovals) CheckSendTransaction(_ context.Context, _ chain.ID, _, _ string, _ []byte) error {
	return f.err
}

type fakeSolana struct {
	address   string
	publicKey string
	signature string
	signedTx  string
}

func (f *fakeSolana) WalletAddress(_ context.Context) (string, error) { return f.address, nil }
func (f *fakeSolana) Connect(_ context.Context) (string, error)       { return f.publicKey, nil }
func (f *fakeSolana) SignMessage(_ context.Context, _ string) (string, string, error) {
	return f.signature, f.publicKey, nil
}
func (f *fakeSolana) SignTransaction(_ context.Context, _ string) (string, error) {
	return f.signedTx, nil
}
func (f *fakeSolana) SignAndSendTransaction(_ context.Context, _ string) (string, error) {
	return f.signature, nil
}

type fakeEVM struct {
	accounts  []string
	chainID   string
	signature string
	txHash    string
}

func (f *fakeEVM) Connect(_ context.Context) ([]string, string, error) {
	return f.accounts, f.chainID, nil
}
func (f *fakeEVM) SignMessage(_ context.Context, _ string) (string, error) { return f.signature, nil }
func (f *fakeEVM) SendTransaction(_ context.Context, _ bridge.EVMSendTxParams) (string, error) {
	return f.txHash, nil
}
func (f *fakeEVM) SignTypedData(_ context.Context, _ string, _ json.RawMessage) (string, error) {
	return f.signature, nil
}
func (f *fakeEVM) SwitchChain(_ context.Context, chainID string) (string, error) { return chainID, nil }

func newDispatcher(unlocked, approve bool) (*bridge.Dispatcher, *fakeConfirmer) {
	confirmer := &fakeConfirmer{approve: approve}
	return &bridge.Dispatcher{
		Vault:   &fakeVault{unlocked: unlocked},
		Confirm: confirmer,
		Drainer: &fakeDrainer{},
		Solana:  &fakeSolana{address: "wallet-addr", publicKey: "pubkey", signature: "sig", signedTx: "signed-tx"},
		EVM:     &fakeEVM{accounts: []string{"0xabc"}, chainID: "1", signature: "0xsig", txHash: "0xhash"},
	}, confirmer
}

func decodeResponse(t *testing.T, raw []byte) bridge.Response {
	t.Helper()
	var resp bridge.Response
	require.NoError(t, json.Unmarshal(raw, &resp))
	return resp
}

func TestDispatch_UnknownMethodRejected(t *testing.T) {
	t.Parallel()
	d, _ := newDispatcher(true, true)

	resp := decodeResponse(t, d.Dispatch(context.Background(), []byte(`{"type":"not_a_real_method","requestId":"1"}`)))
	assert.Equal(t, "Method not supported", resp.Error)
	assert.Equal(t, "1", resp.RequestID)
}

func TestDispatch_GetWalletAddress_NoConfirmationNeeded(t *testing.T) {
	t.Parallel()
	d, confirmer := newDispatcher(true, true)

	resp := decodeResponse(t, d.Dispatch(context.Background(), []byte(`{"type":"getWalletAddress","requestId":"1"}`)))
	assert.Empty(t, resp.Error)
	assert.Equal(t, int32(0), atomic.LoadInt32(&confirmer.calls))
}

func TestDispatch_GetWalletAddress_BlockedWhenLocked(t *testing.T) {
	t.Parallel()
	d, _ := newDispatcher(false, true)

	resp := decodeResponse(t, d.Dispatch(context.Background(), []byte(`{"type":"getWalletAddress","requestId":"1"}`)))
	require.NotEmpty(t, resp.Error)
}

func TestDispatch_SolanaConnect_RejectsOnDecline(t *testing.T) {
	t.Parallel()
	d, _ := newDispatcher(true, false)

	resp := decodeResponse(t, d.Dispatch(context.Background(), []byte(`{"type":"solana_connect","requestId":"1","site":"example.com"}`)))
	require.NotEmpty(t, resp.Error)
}

func TestDispatch_SolanaSignTransaction_DrainerBlockSkipsConfirmation(t *testing.T) {
	t.Parallel()
	d, confirmer := newDispatcher(true, true)
	d.Drainer = &fakeDrainer{err: cordonerrors.New(cordonerrors.CodeDrainerBlocked, "wallet drainer detected")}

	resp := decodeResponse(t, d.Dispatch(context.Background(), []byte(`{"type":"solana_signTransaction","requestId":"1","transaction":"AQID"}`)))
	assert.Equal(t, "Transaction blocked: Wallet drainer detected", resp.Error)
	assert.Equal(t, int32(0), atomic.LoadInt32(&confirmer.calls))
}

func TestDispatch_SolanaSignTransaction_Success(t *testing.T) {
	t.Parallel()
	d, _ := newDispatcher(true, true)

	raw := d.Dispatch(context.Background(), []byte(`{"type":"solana_signTransaction","requestId":"1","transaction":"AQID"}`))
	resp := decodeResponse(t, raw)
	require.Empty(t, resp.Error)
	m, ok := resp.Result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "signed-tx", m["signedTransaction"])
}

func TestDispatch_EVMSendTransaction_BlockedByApprovalGate(t *testing.T) {
	t.Parallel()
	d, confirmer := newDispatcher(true, true)
	d.Approvals = &fakeApprovals{err: cordonerrors.ErrApprovalBlocked}

	resp := decodeResponse(t, d.Dispatch(context.Background(), []byte(`{"type":"evm_sendTransaction","requestId":"1","chainId":1,"from":"0xfrom","to":"0xto","data":"0x095ea7b3","value":"0"}`)))
	require.NotEmpty(t, resp.Error)
	assert.Equal(t, int32(0), atomic.LoadInt32(&confirmer.calls))
}

func TestDispatch_EVMSwitchChain_BypassesVaultLock(t *testing.T) {
	t.Parallel()
	d, _ := newDispatcher(false, true)

	resp := decodeResponse(t, d.Dispatch(context.Background(), []byte(`{"type":"evm_switchChain","requestId":"1","chainId":"137"}`)))
	require.Empty(t, resp.Error)
	m, ok := resp.Result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "137", m["chainId"])
}

func TestDispatch_ConcurrentConfirmationRequestIsRejected(t *testing.T) {
	t.Parallel()
	confirmer := &fakeConfirmer{approve: true, delay: 100 * time.Millisecond}
	d := &bridge.Dispatcher{
		Vault:   &fakeVault{unlocked: true},
		Confirm: confirmer,
		Drainer: &fakeDrainer{},
		Solana:  &fakeSolana{address: "wallet-addr"},
		EVM:     &fakeEVM{},
	}

	results := make(chan bridge.Response, 4)
	for i := 0; i < 4; i++ {
		go func() {
			raw := d.Dispatch(context.Background(), []byte(`{"type":"solana_connect","requestId":"x","site":"example.com"}`))
			var resp bridge.Response
			_ = json.Unmarshal(raw, &resp)
			results <- resp
		}()
	}

	var rejected, succeeded int
	for i := 0; i < 4; i++ {
		resp := <-results
		switch resp.Error {
		case "":
			succeeded++
		case "Auth already in progress":
			rejected++
		default:
			t.Fatalf("unexpected error: %q", resp.Error)
		}
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 3, rejected)
	assert.Equal(t, int32(1), atomic.LoadInt32(&confirmer.maxSeen))
}
