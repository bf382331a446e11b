// Package approval implements Cordon's approval engine: detecting
// approve() intent in outgoing calldata, the on-disk ledger of observed
// approvals, on-chain refresh against explorer and RPC collaborators, risk
// scoring, and the revoke lifecycle. The policy decision itself lives in
// internal/policy, kept as a pure function so the two packages stay
// acyclic — this package is the only caller of policy.CheckApprovalPolicy
// and owns all persistence and network side effects.
package approval

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/mrz1836/cordon/internal/chain"
	"github.com/mrz1836/cordon/internal/policy"
)

// erc20ApproveSelector is the 4-byte selector for approve(address,uint256).
var erc20ApproveSelector = [4]byte{0x09, 0x5e, 0xa7, 0xb3}

// Status is an ApprovalRecord's lifecycle state.
type Status string

// Lifecycle states. revokeFailed is a genuine terminal state the revoke
// lifecycle can reach: a revoke whose receipt shows status=0 within the
// watch window is a confirmed on-chain failure, distinct from a timeout
// that simply never saw a receipt.
const (
	StatusPending      Status = "pending"
	StatusConfirmed    Status = "confirmed"
	StatusFailed       Status = "failed"
	StatusRevoking     Status = "revoking"
	StatusRevoked      Status = "revoked"
	StatusRevokeFailed Status = "revoke_failed"
)

// Record is a persisted, observed ERC-20 approval.
type Record struct {
	ID            string     `json:"id"`
	ChainID       chain.ID   `json:"chainId"`
	Owner         string     `json:"owner"`
	TokenAddress  string     `json:"tokenAddress"`
	Spender       string     `json:"spender"`
	TokenSymbol   string     `json:"tokenSymbol,omitempty"`
	TokenName     string     `json:"tokenName,omitempty"`
	TokenDecimals int        `json:"tokenDecimals,omitempty"`
	AllowanceRaw  string     `json:"allowanceRaw"`
	IsUnlimited   bool       `json:"isUnlimited"`
	CreatedAt     time.Time  `json:"createdAt"`
	TxHash        string     `json:"txHash"`
	Status        Status     `json:"status"`
	LastCheckedAt *time.Time `json:"lastCheckedAt,omitempty"`
	RevokeHash    string     `json:"revokeHash,omitempty"`
}

// DetectedApproval is the in-flight approve() intent parsed from calldata.
type DetectedApproval struct {
	Spender     string
	AmountRaw   *big.Int
	IsUnlimited bool
}

// GenerateApprovalID builds the ledger key for (owner, chainId, token,
// spender), lowercasing every address component.
func GenerateApprovalID(owner string, chainID chain.ID, token, spender string) string {
	return fmt.Sprintf("%s-%d-%s-%s",
		strings.ToLower(owner), int64(chainID), strings.ToLower(token), strings.ToLower(spender))
}

// DetectApproveIntent parses calldata for an approve(address,uint256)
// call. It returns (nil, false) for any other 4-byte selector or calldata
// whose length is not exactly the 68 bytes of an approve call.
func DetectApproveIntent(calldata []byte) (*DetectedApproval, bool) {
	const (
		selectorLen = 4
		wordLen     = 32
		totalLen    = selectorLen + 2*wordLen
	)

	if len(calldata) != totalLen {
		return nil, false
	}
	if calldata[0] != erc20ApproveSelector[0] || calldata[1] != erc20ApproveSelector[1] ||
		calldata[2] != erc20ApproveSelector[2] || calldata[3] != erc20ApproveSelector[3] {
		return nil, false
	}

	spenderWord := calldata[selectorLen : selectorLen+wordLen]
	amountWord := calldata[selectorLen+wordLen : selectorLen+2*wordLen]

	spender := fmt.Sprintf("0x%x", spenderWord[wordLen-20:])
	amount := new(big.Int).SetBytes(amountWord)

	return &DetectedApproval{
		Spender:     spender,
		AmountRaw:   amount,
		IsUnlimited: policy.IsUnlimited(amount),
	}, true
}
