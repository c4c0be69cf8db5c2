package domain

// MaxAmount bounds every balance, allowance, payment and treasury value so
// amounts survive a signed 64-bit storage column with headroom to spare.
const MaxAmount = uint64(1) << 62

// AddAmount returns a+b, rejecting results that wrap or exceed MaxAmount.
func AddAmount(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a || sum > MaxAmount {
		return 0, ErrIncorrectValue
	}
	return sum, nil
}

// MulAmount returns a*b with the same bounds as AddAmount.
func MulAmount(a, b uint64) (uint64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	product := a * b
	if product/a != b || product > MaxAmount {
		return 0, ErrIncorrectValue
	}
	return product, nil
}
