package topics

const (
	// Coupons
	CouponPlaced    = "coupon_placed"
	CouponDiscarded = "coupon_discarded"

	// DLQs
	CouponPlacedDLQ = "coupon_placed_dlq"
)
