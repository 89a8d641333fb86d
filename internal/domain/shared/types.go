package shared

// AccountKind distinguishes the two sides of the monetary account ledger
type AccountKind string

const (
	AccountKindPayable    AccountKind = "PAYABLE"
	AccountKindReceivable AccountKind = "RECEIVABLE"
)

// IsValid reports whether the kind is one of the known values
func (k AccountKind) IsValid() bool {
	return k == AccountKindPayable || k == AccountKindReceivable
}

// CategoryKind defines the kind a financial category belongs to.
// Payables must reference an expense category, receivables a revenue one.
type CategoryKind string

const (
	CategoryKindExpense CategoryKind = "EXPENSE"
	CategoryKindRevenue CategoryKind = "REVENUE"
)

// Direction defines the direction of a cash-flow movement
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// IsValid reports whether the direction is one of the known values
func (d Direction) IsValid() bool {
	return d == DirectionIn || d == DirectionOut
}

// PaymentMethod defines how a settlement or movement was carried out
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "CASH"
	PaymentMethodCard     PaymentMethod = "CARD"
	PaymentMethodTransfer PaymentMethod = "TRANSFER"
	PaymentMethodPix      PaymentMethod = "PIX"
	PaymentMethodBoleto   PaymentMethod = "BOLETO"
	PaymentMethodCheck    PaymentMethod = "CHECK"
)

// IsValid reports whether the payment method is one of the known values
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodTransfer,
		PaymentMethodPix, PaymentMethodBoleto, PaymentMethodCheck:
		return true
	}
	return false
}
