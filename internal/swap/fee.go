package swap

// Fixed lamport constants backing the spendable-balance reservation.
const (
	baseFeeLamports       uint64 = 5_000
	baseFeeBufferLamports uint64 = 5_000
	ataRentLamports       uint64 = 2_039_280
	safetyBufferLamports  uint64 = 200_000
)

// FeeReservation is the lamport breakdown behind a spendable-balance
// calculation, kept around so callers can render it in a quote preview.
type FeeReservation struct {
	PriorityFeeCap uint64
	BaseFee        uint64
	ATARent        uint64
	SafetyBuffer   uint64
	Total          uint64
}

// ReserveFee computes the lamports a SOL quote must set aside before
// offering a spendable balance: the speed mode's priority-fee cap, a fixed
// base-fee-plus-buffer, ATA rent if the swap needs to create a destination
// token account, and a fixed safety buffer.
func ReserveFee(speed SpeedMode, needsATA bool) FeeReservation {
	ataRent := uint64(0)
	if needsATA {
		ataRent = ataRentLamports
	}

	r := FeeReservation{
		PriorityFeeCap: priorityFeeCapLamports[speed],
		BaseFee:        baseFeeLamports + baseFeeBufferLamports,
		ATARent:        ataRent,
		SafetyBuffer:   safetyBufferLamports,
	}
	r.Total = r.PriorityFeeCap + r.BaseFee + r.ATARent + r.SafetyBuffer
	return r
}

// SpendableBalance returns the lamports available to spend after reserving
// fees, floored at zero — a reservation that exceeds the balance never
// goes negative.
func SpendableBalance(balanceLamports uint64, reservation FeeReservation) uint64 {
	if reservation.Total >= balanceLamports {
		return 0
	}
	return balanceLamports - reservation.Total
}
