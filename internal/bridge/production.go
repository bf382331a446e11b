package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"sync"

	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/mrz1836/cordon/internal/approval"
	"github.com/mrz1836/cordon/internal/chain"
	"github.com/mrz1836/cordon/internal/config"
	"github.com/mrz1836/cordon/internal/evmsigner"
	"github.com/mrz1836/cordon/internal/keys"
	"github.com/mrz1836/cordon/internal/solsigner"
	"github.com/mrz1836/cordon/pkg/cordonerrors"
)

// EVMClients resolves the RPC client for a chain id on demand, so the
// production EVM backend doesn't have to hold every chain's client
// pre-dialed.
type EVMClients interface {
	Client(chainID chain.ID) (evmsigner.RPCClient, error)
}

// StaticEVMClients is an EVMClients backed by a fixed, pre-dialed map —
// one entry per chain the wallet is configured to sign for.
type StaticEVMClients map[chain.ID]evmsigner.RPCClient

// Client implements EVMClients.
func (m StaticEVMClients) Client(chainID chain.ID) (evmsigner.RPCClient, error) {
	client, ok := m[chainID]
	if !ok {
		return nil, cordonerrors.New(cordonerrors.CodeUnsupportedChain,
			fmt.Sprintf("no RPC client configured for chain %d", int64(chainID)))
	}
	return client, nil
}

// ProductionApprovalGate implements ApprovalGate against the real
// approval engine: a detected approve() call is evaluated against policy
// and, when allowed, upserted into the ledger before the bridge ever
// reaches the confirmation UI.
type ProductionApprovalGate struct {
	Gate *approval.Gate
}

// CheckSendTransaction implements ApprovalGate.
func (g *ProductionApprovalGate) CheckSendTransaction(_ context.Context, chainID chain.ID, from, to string, calldata []byte) error {
	if g.Gate == nil {
		return nil
	}
	_, decision, err := g.Gate.Evaluate(from, chainID, to, calldata, 0, "")
	if err != nil {
		return err
	}
	if !decision.Allowed {
		blocked := cordonerrors.New(cordonerrors.CodeApprovalBlocked, decision.Reason)
		if decision.SuggestedCapFormatted != "" {
			blocked.Suggestion = "retry with an approval capped at " + decision.SuggestedCapFormatted
		}
		return blocked
	}
	return nil
}

// ProductionDrainerChecker implements DrainerChecker against
// internal/solsigner's decoder.
type ProductionDrainerChecker struct{}

// InspectTransaction implements DrainerChecker.
func (ProductionDrainerChecker) InspectTransaction(_ context.Context, walletAddress, txBase64 string) error {
	return solsigner.CheckTransactionForDrainer(walletAddress, txBase64)
}

// ProductionSolanaBackend implements SolanaBackend against
// internal/solsigner, broadcasting a signAndSend request through
// Submitter once signing succeeds.
type ProductionSolanaBackend struct {
	Key       *keys.SolanaKeyPair
	Submitter solsigner.Submitter
}

// WalletAddress implements SolanaBackend.
func (b *ProductionSolanaBackend) WalletAddress(_ context.Context) (string, error) {
	return b.Key.Address, nil
}

// Connect implements SolanaBackend.
func (b *ProductionSolanaBackend) Connect(_ context.Context) (string, error) {
	return b.Key.Address, nil
}

// SignMessage implements SolanaBackend.
func (b *ProductionSolanaBackend) SignMessage(_ context.Context, message string) (string, string, error) {
	signature, err := solsigner.SignMessage(b.Key, message)
	if err != nil {
		return "", "", err
	}
	return signature, b.Key.Address, nil
}

// SignTransaction implements SolanaBackend.
func (b *ProductionSolanaBackend) SignTransaction(_ context.Context, txBase64 string) (string, error) {
	return solsigner.SignTransaction(b.Key, txBase64)
}

// SignAndSendTransaction implements SolanaBackend.
func (b *ProductionSolanaBackend) SignAndSendTransaction(ctx context.Context, txBase64 string) (string, error) {
	signed, err := solsigner.SignTransaction(b.Key, txBase64)
	if err != nil {
		return "", err
	}
	return b.Submitter.Submit(ctx, signed)
}

// ProductionEVMBackend implements EVMBackend against internal/evmsigner,
// sending a detected approve() call through evmsigner.SendApproval and
// recording its hash on Gate's ledger. The policy evaluation itself is
// not done here: the Dispatcher runs it earlier through its ApprovalGate
// (ProductionApprovalGate, sharing the same Gate).
type ProductionEVMBackend struct {
	Key     *keys.EVMKeyPair
	Clients EVMClients
	Gate    *approval.Gate
	Speed   evmsigner.GasSpeed

	mu      sync.Mutex
	chainID chain.ID
}

// NewProductionEVMBackend returns a ProductionEVMBackend starting on
// activeChain.
func NewProductionEVMBackend(key *keys.EVMKeyPair, clients EVMClients, gate *approval.Gate, speed evmsigner.GasSpeed, activeChain chain.ID) *ProductionEVMBackend {
	return &ProductionEVMBackend{Key: key, Clients: clients, Gate: gate, Speed: speed, chainID: activeChain}
}

// Connect implements EVMBackend.
func (b *ProductionEVMBackend) Connect(_ context.Context) ([]string, string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return []string{b.Key.Address}, strconv.FormatInt(int64(b.chainID), 10), nil
}

// SignMessage implements EVMBackend.
func (b *ProductionEVMBackend) SignMessage(_ context.Context, message string) (string, error) {
	return evmsigner.SignPersonalMessage(b.Key, message)
}

// SendTransaction implements EVMBackend. Calldata that parses as an
// approve() call (when Gate is set) is submitted via
// evmsigner.SendApproval and its hash written to the ledger record Gate
// upserted through Gate.RecordSent; this method does not call
// Gate.Evaluate itself. Anything else goes out through
// SendRawTransaction unchanged.
func (b *ProductionEVMBackend) SendTransaction(ctx context.Context, params EVMSendTxParams) (string, error) {
	client, err := b.Clients.Client(params.ChainID)
	if err != nil {
		return "", err
	}

	value := new(big.Int)
	if params.Value != "" {
		if _, ok := value.SetString(params.Value, 10); !ok {
			return "", cordonerrors.New(cordonerrors.CodeTransactionFailed, "invalid value: "+params.Value)
		}
	}

	if intent, ok := approval.DetectApproveIntent(params.Data); ok && b.Gate != nil {
		result, err := evmsigner.SendApproval(ctx, client, b.Key, params.ChainID, params.To, intent.Spender, intent.AmountRaw, b.Speed)
		if err != nil {
			return "", err
		}
		if err := b.Gate.RecordSent(params.From, params.ChainID, params.To, intent.Spender, result.Hash); err != nil {
			return "", err
		}
		return result.Hash, nil
	}

	result, err := evmsigner.SendRawTransaction(ctx, client, b.Key, params.ChainID, evmsigner.RawSendRequest{
		To:    params.To,
		Value: value,
		Data:  params.Data,
	}, b.Speed)
	if err != nil {
		return "", err
	}
	return result.Hash, nil
}

// SignTypedData implements EVMBackend.
func (b *ProductionEVMBackend) SignTypedData(_ context.Context, _ string, typedData json.RawMessage) (string, error) {
	var data apitypes.TypedData
	if err := json.Unmarshal(typedData, &data); err != nil {
		return "", cordonerrors.New(cordonerrors.CodeTransactionFailed, "malformed typed data: "+err.Error())
	}
	signature, _, err := evmsigner.SignTypedData(b.Key, data)
	return signature, err
}

// SwitchChain implements EVMBackend, accepting a decimal or 0x-prefixed
// hex chain id and switching the backend's active chain once it resolves
// to a chain Clients can serve.
func (b *ProductionEVMBackend) SwitchChain(_ context.Context, chainIDStr string) (string, error) {
	id, err := parseChainID(chainIDStr)
	if err != nil {
		return "", err
	}
	if _, ok := chain.Get(id); !ok {
		return "", cordonerrors.New(cordonerrors.CodeUnsupportedChain, "unsupported chain id: "+chainIDStr)
	}
	if _, err := b.Clients.Client(id); err != nil {
		return "", err
	}

	b.mu.Lock()
	b.chainID = id
	b.mu.Unlock()

	return strconv.FormatInt(int64(id), 10), nil
}

func parseChainID(s string) (chain.ID, error) {
	base := 10
	trimmed := s
	if len(s) > 2 && (s[0:2] == "0x" || s[0:2] == "0X") {
		base = 16
		trimmed = s[2:]
	}
	n, err := strconv.ParseInt(trimmed, base, 64)
	if err != nil {
		return 0, cordonerrors.New(cordonerrors.CodeUnsupportedChain, "malformed chain id: "+s)
	}
	return chain.ID(n), nil
}

// NewProductionDispatcher composes internal/evmsigner, internal/solsigner,
// internal/approval, and internal/policy into a Dispatcher wired for real
// signing and broadcast: the concrete stack the dApp bridge wraps around
// its protocol layer, in place of the test fakes bridge_test.go exercises
// that layer with.
func NewProductionDispatcher(
	vault VaultGate,
	confirm Confirmer,
	evmKeys *keys.EVMKeyPair,
	solanaKeys *keys.SolanaKeyPair,
	clients EVMClients,
	submitter solsigner.Submitter,
	gate *approval.Gate,
	speed evmsigner.GasSpeed,
	activeChain chain.ID,
) *Dispatcher {
	return &Dispatcher{
		Vault:     vault,
		Confirm:   confirm,
		Drainer:   ProductionDrainerChecker{},
		Approvals: &ProductionApprovalGate{Gate: gate},
		Solana:    &ProductionSolanaBackend{Key: solanaKeys, Submitter: submitter},
		EVM:       NewProductionEVMBackend(evmKeys, clients, gate, speed, activeChain),
	}
}

// NewProductionDispatcherFromConfig is NewProductionDispatcher's operator-
// facing entry point: it merges cfg's chain overrides into the registry,
// dials an ethclient.Client for each resulting EVM chain, and seeds the
// approval gate's policy from cfg.Policy before composing the dispatcher.
// A wallet with no config file still works — cfg may be the zero value,
// in which case no chain is dialed (only chains listed in cfg.Chains are
// considered, and registry entries carry no RPC URL of their own), so an
// empty config yields an EVM backend with no dialable chains; a caller
// in that situation is expected to supply its own EVMClients via
// NewProductionDispatcher instead.
func NewProductionDispatcherFromConfig(
	ctx context.Context,
	cfg *config.Config,
	vault VaultGate,
	confirm Confirmer,
	ledger *approval.Ledger,
	evmKeys *keys.EVMKeyPair,
	solanaKeys *keys.SolanaKeyPair,
	submitter solsigner.Submitter,
	speed evmsigner.GasSpeed,
	activeChain chain.ID,
) (*Dispatcher, error) {
	merged := cfg.ApplyChainOverrides()

	dialed, err := config.DialEVMClients(ctx, merged)
	if err != nil {
		return nil, err
	}

	clients := make(StaticEVMClients, len(dialed))
	for id, client := range dialed {
		clients[id] = client
	}

	gate := approval.NewGate(ledger, cfg.Policy.ToSettings())

	return NewProductionDispatcher(vault, confirm, evmKeys, solanaKeys, clients, submitter, gate, speed, activeChain), nil
}
