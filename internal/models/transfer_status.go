package models

// TransferStatus is the lifecycle state of a Transfer. The set of values and
// the transitions between them are closed: only the table below is legal.
type TransferStatus string

const (
	StatusInitiated        TransferStatus = "initiated"
	StatusComplianceCheck  TransferStatus = "compliance_check"
	StatusAwaitingPayment  TransferStatus = "awaiting_payment"
	StatusPaymentConfirmed TransferStatus = "payment_confirmed"
	StatusProcessing       TransferStatus = "processing"
	StatusSentToPartner    TransferStatus = "sent_to_partner"
	StatusCompleted        TransferStatus = "completed"
	StatusCancelled        TransferStatus = "cancelled"
	StatusFailed           TransferStatus = "failed"
	StatusRefunded         TransferStatus = "refunded"
)

var transitions = map[TransferStatus][]TransferStatus{
	StatusInitiated:        {StatusComplianceCheck, StatusCancelled},
	StatusComplianceCheck:  {StatusAwaitingPayment, StatusCancelled},
	StatusAwaitingPayment:  {StatusPaymentConfirmed, StatusCancelled, StatusFailed},
	StatusPaymentConfirmed: {StatusProcessing, StatusFailed, StatusCancelled},
	StatusProcessing:       {StatusSentToPartner, StatusFailed},
	StatusSentToPartner:    {StatusCompleted, StatusFailed},
	StatusCancelled:        {StatusRefunded},
}

// cancellable is the set of states from which a caller may cancel.
var cancellable = map[TransferStatus]bool{
	StatusInitiated:       true,
	StatusComplianceCheck: true,
	StatusAwaitingPayment: true,
}

// Valid reports whether s is one of the declared states.
func (s TransferStatus) Valid() bool {
	switch s {
	case StatusInitiated, StatusComplianceCheck, StatusAwaitingPayment, StatusPaymentConfirmed,
		StatusProcessing, StatusSentToPartner, StatusCompleted, StatusCancelled, StatusFailed,
		StatusRefunded:
		return true
	}
	return false
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s TransferStatus) CanTransitionTo(next TransferStatus) bool {
	for _, candidate := range transitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further lifecycle change is expected.
// A cancelled transfer is terminal even though it may still be refunded.
func (s TransferStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusFailed, StatusRefunded:
		return true
	}
	return false
}

// IsCancellable reports whether a caller may cancel from s.
func (s TransferStatus) IsCancellable() bool {
	return cancellable[s]
}
