package domain

// TransferEvent is emitted on every balance movement. From is nil for the
// initial mint at construction.
type TransferEvent struct {
	From  *Account
	To    *Account
	Value uint64
}

// ApprovalEvent is emitted when Owner overwrites Spender's allowance.
type ApprovalEvent struct {
	Owner   Account
	Spender Account
	Value   uint64
}
