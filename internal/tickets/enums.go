package tickets

// PaymentState tracks settlement of the purchase backing a ticket.
type PaymentState string

const (
	PaymentPending  PaymentState = "PENDING"
	PaymentSettled  PaymentState = "SETTLED"
	PaymentRefunded PaymentState = "REFUNDED"
	PaymentDisputed PaymentState = "DISPUTED"
)

// IsValid checks if the payment state is valid
func (s PaymentState) IsValid() bool {
	switch s {
	case PaymentPending, PaymentSettled, PaymentRefunded, PaymentDisputed:
		return true
	}
	return false
}

// String returns the string representation of PaymentState
func (s PaymentState) String() string {
	return string(s)
}

// RedemptionState tracks whether a ticket has been consumed at a gate.
// Multi-entry tickets stay ISSUED; their consumption is tracked by
// RedemptionCount against MaxRedemptions.
type RedemptionState string

const (
	RedemptionIssued   RedemptionState = "ISSUED"
	RedemptionAdmitted RedemptionState = "ADMITTED"
	RedemptionVoided   RedemptionState = "VOIDED"
)

// IsValid checks if the redemption state is valid
func (s RedemptionState) IsValid() bool {
	switch s {
	case RedemptionIssued, RedemptionAdmitted, RedemptionVoided:
		return true
	}
	return false
}

// String returns the string representation of RedemptionState
func (s RedemptionState) String() string {
	return string(s)
}

// IsTerminal checks if no further redemption transitions are possible
func (s RedemptionState) IsTerminal() bool {
	return s == RedemptionAdmitted || s == RedemptionVoided
}

// Entitlement is the redemption-count policy category of a ticket.
type Entitlement string

const (
	EntitlementSingleEntry Entitlement = "SINGLE_ENTRY"
	EntitlementMultiEntry  Entitlement = "MULTI_ENTRY"
	EntitlementDayPass     Entitlement = "DAY_PASS"
)

// IsValid checks if the entitlement is valid
func (e Entitlement) IsValid() bool {
	switch e {
	case EntitlementSingleEntry, EntitlementMultiEntry, EntitlementDayPass:
		return true
	}
	return false
}

// String returns the string representation of Entitlement
func (e Entitlement) String() string {
	return string(e)
}
