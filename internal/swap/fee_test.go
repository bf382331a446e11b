package swap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mrz1836/cordon/internal/swap"
)

func TestReserveFee_StandardNoATA(t *testing.T) {
	t.Parallel()

	r := swap.ReserveFee(swap.SpeedStandard, false)
	assert.Equal(t, uint64(500_000), r.PriorityFeeCap)
	assert.Equal(t, uint64(10_000), r.BaseFee)
	assert.Equal(t, uint64(0), r.ATARent)
	assert.Equal(t, uint64(200_000), r.SafetyBuffer)
	assert.Equal(t, uint64(710_000), r.Total)
}

func TestReserveFee_TurboWithATA(t *testing.T) {
	t.Parallel()

	r := swap.ReserveFee(swap.SpeedTurbo, true)
	assert.Equal(t, uint64(5_000_000+10_000+2_039_280+200_000), r.Total)
}

func TestSpendableBalance_FloorsAtZero(t *testing.T) {
	t.Parallel()

	r := swap.ReserveFee(swap.SpeedStandard, false)
	assert.Equal(t, uint64(0), swap.SpendableBalance(100, r))
	assert.Equal(t, uint64(0), swap.SpendableBalance(r.Total, r))
	assert.Equal(t, uint64(1), swap.SpendableBalance(r.Total+1, r))
}

func TestParseSpeedMode(t *testing.T) {
	t.Parallel()

	mode, err := swap.ParseSpeedMode("")
	assert.NoError(t, err)
	assert.Equal(t, swap.SpeedStandard, mode)

	mode, err = swap.ParseSpeedMode("fast")
	assert.NoError(t, err)
	assert.Equal(t, swap.SpeedFast, mode)

	_, err = swap.ParseSpeedMode("blazing")
	assert.Error(t, err)
}
