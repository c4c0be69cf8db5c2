package domain

// Account is an opaque identity used as a key for balances, allowances and
// verifier flags. The ledger never interprets its contents; an account
// "exists" only once something has been written under it.
type Account string

// Call carries what the hosting environment supplies with every operation:
// the caller's identity and the amount of value attached to the call. Paid
// is only meaningful for payable operations.
type Call struct {
	Caller Account
	Paid   uint64
}
