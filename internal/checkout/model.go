package checkout

import (
	"time"

	"github.com/gofrs/uuid"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

func (s PaymentStatus) String() string {
	return string(s)
}

func (s PaymentStatus) Terminal() bool {
	return s == PaymentPaid || s == PaymentFailed
}

// MethodMpesa is the only supported payment method.
const MethodMpesa = "mpesa"

// Checkout is the payment attempt attached 1:1 to an order. TransactionRef
// holds the provider's CheckoutRequestID while the payment is pending and is
// replaced by the receipt number once the payment succeeds.
type Checkout struct {
	ID             uuid.UUID     `json:"id"`
	OrderID        uuid.UUID     `json:"order_id"`
	PaymentMethod  string        `json:"payment_method"`
	PaymentStatus  PaymentStatus `json:"payment_status"`
	Address        string        `json:"address"`
	PhoneNumber    string        `json:"phone_number"`
	TransactionRef string        `json:"transaction_ref"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

type Payment struct {
	ID            uuid.UUID     `json:"id"`
	CheckoutID    uuid.UUID     `json:"checkout_id"`
	Amount        float64       `json:"amount"`
	TransactionID string        `json:"transaction_id"`
	Status        PaymentStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
}
