package validation

const (
	// Nigerian NUBAN account numbers are ten digits.
	AccountNumberLength = 10

	MaxReferenceLength = 100
	MaxBankCodeLength  = 16
)
