// Package walletconnect builds session-proposal response namespaces and
// parses inbound WalletConnect requests into the same shapes the dApp
// bridge already handles. It never opens a relay connection itself — the
// pairing/relay socket is the caller's collaborator, wired externally.
package walletconnect

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/mrz1836/cordon/internal/chain"
	"github.com/mrz1836/cordon/pkg/cordonerrors"
)

// Fixed method sets per CAIP-2 namespace. WalletConnect sessions never
// negotiate a subset; a wallet either supports the whole list for a
// namespace or rejects the chain entirely.
var (
	evmMethods = []string{
		"eth_sendTransaction",
		"personal_sign",
		"eth_sign",
		"eth_signTypedData",
		"eth_signTypedData_v4",
	}
	solanaMethods = []string{
		"solana_signMessage",
		"solana_signTransaction",
		"solana_signAllTransactions",
	}
)

// Namespace is one CAIP-2 namespace entry in a session-proposal response:
// the chains it covers, the methods the wallet supports for them, the
// events it may emit, and the CAIP-10 accounts backing it.
type Namespace struct {
	Chains   []string `json:"chains"`
	Methods  []string `json:"methods"`
	Events   []string `json:"events"`
	Accounts []string `json:"accounts"`
}

// SessionResponse is the namespace map returned in a session_approve.
type SessionResponse struct {
	ID         string               `json:"id"`
	Namespaces map[string]Namespace `json:"namespaces"`
}

// Proposal is the subset of an inbound session proposal the namespace
// builder needs: which CAIP-2 namespaces/chains the dApp is requesting.
type Proposal struct {
	RequiredNamespaces map[string]ProposalNamespace `json:"requiredNamespaces"`
}

// ProposalNamespace lists the chains a proposal requests for one
// namespace (e.g. "eip155" or "solana").
type ProposalNamespace struct {
	Chains []string `json:"chains"`
}

const (
	namespaceEIP155 = "eip155"
	namespaceSolana = "solana"

	// solanaMainnetGenesisHash is the CAIP-2 reference for Solana
	// mainnet-beta, the only Solana network Cordon signs for.
	solanaMainnetGenesisHash = "5eykt4UsFv8P8NJdTREpY1vzqKqZKvdp"
)

// BuildNamespaces synthesizes a session-approve response covering every
// EVM chain Cordon supports for evmAddress, plus Solana mainnet for
// solanaAddress when the proposal requests the "solana" namespace. A
// proposal that requires "solana" but the wallet never provides an
// address for it is rejected outright — a namespace with no backing
// account is not a namespace WalletConnect can route requests through.
func BuildNamespaces(proposal Proposal, evmAddress, solanaAddress string) (SessionResponse, error) {
	namespaces := make(map[string]Namespace)

	if _, wantsEVM := proposal.RequiredNamespaces[namespaceEIP155]; wantsEVM {
		accounts := make([]string, 0, len(chain.EVMChains()))
		chains := make([]string, 0, len(chain.EVMChains()))
		for _, cfg := range chain.EVMChains() {
			caip2 := fmt.Sprintf("%s:%d", namespaceEIP155, cfg.ChainID)
			chains = append(chains, caip2)
			accounts = append(accounts, fmt.Sprintf("%s:%s", caip2, evmAddress))
		}
		namespaces[namespaceEIP155] = Namespace{
			Chains:   chains,
			Methods:  evmMethods,
			Events:   []string{"chainChanged", "accountsChanged"},
			Accounts: accounts,
		}
	}

	if _, wantsSolana := proposal.RequiredNamespaces[namespaceSolana]; wantsSolana {
		if solanaAddress == "" {
			return SessionResponse{}, cordonerrors.New(cordonerrors.CodeUnsupportedChain,
				"proposal requires the solana namespace but no Solana address is available")
		}
		caip2 := fmt.Sprintf("%s:%s", namespaceSolana, solanaMainnetGenesisHash)
		namespaces[namespaceSolana] = Namespace{
			Chains:   []string{caip2},
			Methods:  solanaMethods,
			Events:   []string{},
			Accounts: []string{fmt.Sprintf("%s:%s", caip2, solanaAddress)},
		}
	}

	return SessionResponse{ID: newSessionID(), Namespaces: namespaces}, nil
}

func newSessionID() string {
	return uuid.NewString()
}

// SupportsMethod reports whether method is in the fixed set for
// namespace ("eip155" or "solana"), the check the request parser applies
// before ever routing to a bridge handler.
func SupportsMethod(namespace, method string) bool {
	var set []string
	switch namespace {
	case namespaceEIP155:
		set = evmMethods
	case namespaceSolana:
		set = solanaMethods
	default:
		return false
	}
	for _, m := range set {
		if m == method {
			return true
		}
	}
	return false
}

// Request is an inbound WalletConnect session request, in the
// `wc_sessionRequest` envelope shape: a CAIP-2 chain id plus the
// underlying JSON-RPC request it carries.
type Request struct {
	ChainID string     `json:"chainId"`
	Request RPCRequest `json:"request"`
}

// RPCRequest is the JSON-RPC method/params pair WalletConnect wraps.
type RPCRequest struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// ParsedRequest is a decoded WalletConnect request, carrying the same
// parameter shapes the dApp bridge's handlers already accept so both
// entry points can share downstream gate/signing logic. Exactly one of
// the payload fields (the pointers or EVMTypedData) is set, matching Method.
type ParsedRequest struct {
	Namespace string
	ChainID   string
	Method    string

	Message            *MessageParams
	Transaction        *TransactionParams
	TransactionsBatch  *TransactionsBatchParams
	EVMSendTransaction *EVMSendTxParams
	EVMTypedData       json.RawMessage
}

// MessageParams mirrors the dApp bridge's message-signing shape.
type MessageParams struct {
	Message string `json:"message"`
}

// TransactionParams mirrors the dApp bridge's single-transaction shape.
type TransactionParams struct {
	Transaction string `json:"transaction"`
}

// TransactionsBatchParams is WalletConnect-only: solana_signAllTransactions
// has no dApp bridge equivalent, since the bridge never batches signing.
type TransactionsBatchParams struct {
	Transactions []string `json:"transactions"`
}

// EVMSendTxParams mirrors eth_sendTransaction's first positional param.
type EVMSendTxParams struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Data  string `json:"data"`
	Value string `json:"value"`
}

// namespaceOf extracts the CAIP-2 namespace ("eip155"/"solana") from a
// "<namespace>:<reference>" chain id.
func namespaceOf(caip2ChainID string) string {
	for i, r := range caip2ChainID {
		if r == ':' {
			return caip2ChainID[:i]
		}
	}
	return caip2ChainID
}

// ParseRequest decodes raw as a wc_sessionRequest envelope, rejects it
// outright if the method isn't in the fixed set for its namespace, and
// decodes the method-specific params into the shape the caller expects —
// an unsupported method never reaches the signing backend.
func ParseRequest(raw []byte) (ParsedRequest, error) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return ParsedRequest{}, cordonerrors.New(cordonerrors.CodeTransactionFailed, "malformed WalletConnect request: "+err.Error())
	}

	namespace := namespaceOf(req.ChainID)
	method := req.Request.Method
	if !SupportsMethod(namespace, method) {
		return ParsedRequest{}, cordonerrors.New(cordonerrors.CodeUnsupportedChain, "unsupported WalletConnect method: "+method)
	}

	parsed := ParsedRequest{Namespace: namespace, ChainID: req.ChainID, Method: method}
	params := req.Request.Params

	switch method {
	case "personal_sign":
		// personal_sign's positional params are [messageHex, address], a
		// bare string first element rather than an object.
		var message string
		if err := decodeFirstPositional(params, &message); err != nil {
			return ParsedRequest{}, err
		}
		parsed.Message = &MessageParams{Message: message}
	case "solana_signMessage":
		// Solana's RPC methods carry params as a plain object per CAIP-2's
		// non-EVM convention, not EVM's positional JSON-RPC array.
		var p MessageParams
		if err := decodeObject(params, &p); err != nil {
			return ParsedRequest{}, err
		}
		parsed.Message = &p
	case "solana_signTransaction":
		var p TransactionParams
		if err := decodeObject(params, &p); err != nil {
			return ParsedRequest{}, err
		}
		parsed.Transaction = &p
	case "solana_signAllTransactions":
		var p TransactionsBatchParams
		if err := decodeObject(params, &p); err != nil {
			return ParsedRequest{}, err
		}
		parsed.TransactionsBatch = &p
	case "eth_sendTransaction":
		var p EVMSendTxParams
		if err := decodeFirstPositional(params, &p); err != nil {
			return ParsedRequest{}, err
		}
		parsed.EVMSendTransaction = &p
	case "eth_sign":
		// eth_sign's positional params are [address, messageHex] — the
		// reverse order of personal_sign's [messageHex, address].
		var message string
		if err := decodePositionalAt(params, 1, &message); err != nil {
			return ParsedRequest{}, err
		}
		parsed.Message = &MessageParams{Message: message}
	case "eth_signTypedData", "eth_signTypedData_v4":
		parsed.EVMTypedData = params
	}

	return parsed, nil
}

// decodeFirstPositional unmarshals WalletConnect's `params` array's first
// element into dst. personal_sign and eth_sendTransaction take their
// payload as the first positional parameter.
func decodeFirstPositional(params json.RawMessage, dst any) error {
	return decodePositionalAt(params, 0, dst)
}

// decodePositionalAt unmarshals the element at index of WalletConnect's
// `params` array into dst.
func decodePositionalAt(params json.RawMessage, index int, dst any) error {
	var positional []json.RawMessage
	if err := json.Unmarshal(params, &positional); err != nil {
		return cordonerrors.New(cordonerrors.CodeTransactionFailed, "malformed WalletConnect params: "+err.Error())
	}
	if index >= len(positional) {
		return cordonerrors.New(cordonerrors.CodeTransactionFailed, "WalletConnect request missing params")
	}
	if err := json.Unmarshal(positional[index], dst); err != nil {
		return cordonerrors.New(cordonerrors.CodeTransactionFailed, "malformed WalletConnect params: "+err.Error())
	}
	return nil
}

// decodeObject unmarshals params directly into dst, for the non-EVM
// methods whose params are a plain object rather than a positional array.
func decodeObject(params json.RawMessage, dst any) error {
	if err := json.Unmarshal(params, dst); err != nil {
		return cordonerrors.New(cordonerrors.CodeTransactionFailed, "malformed WalletConnect params: "+err.Error())
	}
	return nil
}
