package checkout

import "context"

// Mode is the payment provider's checkout mode.
type Mode string

const (
	ModePayment      Mode = "payment"      // One-time charge
	ModeSubscription Mode = "subscription" // Recurring charge
)

const (
	paymentStatusPaid = "paid"
	statusComplete    = "complete"
)

// SessionParams describes a checkout session to create.
type SessionParams struct {
	Mode       Mode
	PriceID    string
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

// Session is the provider's view of a checkout session.
type Session struct {
	ID            string
	URL           string
	Mode          Mode
	Status        string // open, complete or expired
	PaymentStatus string // paid, unpaid or no_payment_required
	Metadata      map[string]string
}

// Paid reports whether the session confirms payment. One-time charges expose
// confirmation through the payment status; subscriptions through the session
// status.
func (s *Session) Paid() bool {
	switch s.Mode {
	case ModePayment:
		return s.PaymentStatus == paymentStatusPaid
	case ModeSubscription:
		return s.Status == statusComplete
	default:
		return false
	}
}

// Provider is the payment provider collaborator.
type Provider interface {
	CreateSession(ctx context.Context, params SessionParams) (*Session, error)
	GetSession(ctx context.Context, sessionID string) (*Session, error)
}
