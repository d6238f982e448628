package validation

const (
	// Amount limits, in cents
	MaxAmountCents = 100_000_000

	// String lengths
	MaxIDLength          = 64
	MaxServiceTypeLength = 50
)
