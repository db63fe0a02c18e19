package domain

type PaymentMethod string

const (
	PaymentCard PaymentMethod = "CARTÃO"
	PaymentCash PaymentMethod = "DINHEIRO"
	PaymentPix  PaymentMethod = "PIX"
)

// PaymentMethods in the order the close-sale commands are offered.
var PaymentMethods = []PaymentMethod{PaymentCard, PaymentCash, PaymentPix}

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCard, PaymentCash, PaymentPix:
		return true
	}
	return false
}

// AcceptsTender reports whether the operator enters the amount handed over.
func (m PaymentMethod) AcceptsTender() bool { return m == PaymentCash }
