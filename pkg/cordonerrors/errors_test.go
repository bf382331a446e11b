package cordonerrors_test

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/cordon/pkg/cordonerrors"
)

func TestCode_ReturnsCodeForCordonError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, cordonerrors.CodeWalletLocked, cordonerrors.Code(cordonerrors.ErrWalletLocked))
	assert.Equal(t, cordonerrors.CodeAuthInProgress, cordonerrors.Code(cordonerrors.ErrAuthInProgress))
}

func TestCode_ReturnsUnknownForPlainError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, cordonerrors.CodeUnknown, cordonerrors.Code(stderrors.New("boom")))
}

func TestErrAuthInProgress_MessageMatchesBridgeContract(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Auth already in progress", cordonerrors.ErrAuthInProgress.Error())
}

func TestIs_MatchesByCodeNotByPointer(t *testing.T) {
	t.Parallel()

	wrapped := cordonerrors.New(cordonerrors.CodeWalletLocked, "vault is locked for a different reason")
	assert.True(t, cordonerrors.Is(wrapped, cordonerrors.ErrWalletLocked))
}

func TestWrap_PreservesCodeAndChainsCause(t *testing.T) {
	t.Parallel()

	wrapped := cordonerrors.Wrap(cordonerrors.ErrInsufficientFunds, "while broadcasting")
	assert.Equal(t, cordonerrors.CodeInsufficientFunds, cordonerrors.Code(wrapped))
	assert.True(t, stderrors.Is(wrapped, cordonerrors.ErrInsufficientFunds))

	var ce *cordonerrors.CordonError
	require.True(t, cordonerrors.As(wrapped, &ce))
	assert.Equal(t, cordonerrors.ErrInsufficientFunds, ce.Cause)
}

func TestWrap_NilReturnsNil(t *testing.T) {
	t.Parallel()

	assert.Nil(t, cordonerrors.Wrap(nil, "whatever"))
}

func TestWithDetails_AttachesDetailsPreservingCode(t *testing.T) {
	t.Parallel()

	err := cordonerrors.WithDetails(cordonerrors.ErrDrainerBlocked, map[string]string{"attackType": "account_owner_hijack"})
	var ce *cordonerrors.CordonError
	require.True(t, cordonerrors.As(err, &ce))
	assert.Equal(t, "account_owner_hijack", ce.Details["attackType"])
	assert.Equal(t, cordonerrors.CodeDrainerBlocked, ce.Code)
}

func TestWithSuggestion_AttachesSuggestionPreservingCode(t *testing.T) {
	t.Parallel()

	err := cordonerrors.WithSuggestion(cordonerrors.ErrTokenGraduated, "retry this swap on Jupiter")
	var ce *cordonerrors.CordonError
	require.True(t, cordonerrors.As(err, &ce))
	assert.Equal(t, "retry this swap on Jupiter", ce.Suggestion)
	assert.Equal(t, cordonerrors.CodeTokenGraduated, ce.Code)
}
