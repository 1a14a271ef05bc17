package domain

// Guards run before any mutation and fail fast with a typed error.

func VerifyCaller(sku uint64, expected, actual Address) error {
	if actual.IsZero() || actual != expected {
		return &AuthorizationError{Sku: sku, Expected: expected, Actual: actual}
	}
	return nil
}

func RequireState(item Item, want State) error {
	if item.State != want {
		return &StateError{Sku: item.Sku, Want: want, Got: item.State}
	}
	return nil
}

func RequirePaidEnough(sku, offered, price uint64) error {
	if offered < price {
		return &PaymentError{Sku: sku, Offered: offered, Price: price}
	}
	return nil
}

// Overage returns the part of offered above price. The paid-enough check is
// repeated here so the subtraction cannot wrap whatever the call order.
func Overage(sku, offered, price uint64) (uint64, error) {
	if err := RequirePaidEnough(sku, offered, price); err != nil {
		return 0, err
	}
	return offered - price, nil
}
