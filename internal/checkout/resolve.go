package checkout

// Resolution classifies an incoming gateway callback against the current
// checkout state. Callbacks are delivered at least once, so a replay of an
// already-applied outcome must be accepted without re-mutating anything,
// while anything that disagrees with a terminal state is rejected.
type Resolution int

const (
	// ResolutionApply: checkout is pending and the correlation id matches.
	ResolutionApply Resolution = iota
	// ResolutionReplay: checkout is already terminal with this same outcome.
	ResolutionReplay
	// ResolutionMismatch: correlation id does not match the pending checkout.
	ResolutionMismatch
	// ResolutionConflict: checkout is terminal and the callback disagrees.
	ResolutionConflict
)

// resolveCallback decides what an incoming callback means for c. Must be
// evaluated while the checkout row is locked.
func resolveCallback(c *Checkout, checkoutRequestID string, succeeded bool, receipt string) Resolution {
	if !c.PaymentStatus.Terminal() {
		if c.TransactionRef == checkoutRequestID {
			return ResolutionApply
		}
		return ResolutionMismatch
	}

	switch {
	case c.PaymentStatus == PaymentPaid && succeeded && receipt != "" && c.TransactionRef == receipt:
		return ResolutionReplay
	case c.PaymentStatus == PaymentFailed && !succeeded && c.TransactionRef == checkoutRequestID:
		return ResolutionReplay
	default:
		return ResolutionConflict
	}
}
