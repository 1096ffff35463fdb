package errors

// Withdrawal preconditions, checked in this order by the payout orchestrator.
var (
	ErrInvalidAmount = &DomainError{
		Code:    "INVALID_AMOUNT",
		Message: "amount must be a positive number of minor units",
	}
	ErrInsufficientBalance = &DomainError{
		Code:    "INSUFFICIENT_BALANCE",
		Message: "insufficient wallet balance",
	}
	ErrProviderUndercapitalized = &DomainError{
		Code:    "PROVIDER_UNDERCAPITALIZED",
		Message: "payouts are temporarily unavailable for this amount",
	}
	ErrUnresolvableAccount = &DomainError{
		Code:    "UNRESOLVABLE_ACCOUNT",
		Message: "destination account could not be resolved",
	}
)

// Provider submission outcomes.
var (
	ErrProviderTimeout = &DomainError{
		Code:    "PROVIDER_TIMEOUT",
		Message: "payment provider did not respond in time; the withdrawal is pending",
	}
	ErrProviderRejected = &DomainError{
		Code:    "PROVIDER_REJECTED",
		Message: "payment provider rejected the transfer",
	}
)

// Ledger and state machine errors.
var (
	ErrDuplicateReference = &DomainError{
		Code:    "DUPLICATE_REFERENCE",
		Message: "a transaction with this reference already exists",
	}
	ErrTransitionConflict = &DomainError{
		Code:    "TRANSITION_CONFLICT",
		Message: "transaction is already in a terminal state",
	}
	ErrInvalidTransaction = &DomainError{
		Code:    "INVALID_TRANSACTION",
		Message: "invalid transaction",
	}
	ErrTransactionNotFound = &DomainError{
		Code:    "TRANSACTION_NOT_FOUND",
		Message: "transaction not found",
	}
	ErrWalletNotFound = &DomainError{
		Code:    "WALLET_NOT_FOUND",
		Message: "wallet not found",
	}
)

// Webhook errors. Both are acknowledged to the provider.
var (
	ErrInvalidSignature = &DomainError{
		Code:    "INVALID_SIGNATURE",
		Message: "webhook signature mismatch",
	}
	ErrUnknownTransaction = &DomainError{
		Code:    "UNKNOWN_TRANSACTION",
		Message: "no transaction matches the event reference",
	}
)

var (
	ErrAlreadyCheckedInToday = &DomainError{
		Code:    "ALREADY_CHECKED_IN_TODAY",
		Message: "already checked in today",
	}
	ErrUnauthorized = &DomainError{
		Code:    "UNAUTHORIZED",
		Message: "a verified owner identity is required",
	}
)
