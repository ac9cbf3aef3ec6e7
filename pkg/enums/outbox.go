package enums

// OutboxEventType enumerates the domain events relayed through the outbox.
type OutboxEventType string

const (
	OutboxEventOrderCreated     OutboxEventType = "order.created"
	OutboxEventCouponRedeemed   OutboxEventType = "coupon.redeemed"
	OutboxEventCouponUnresolved OutboxEventType = "coupon.unresolved"
)

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	OutboxAggregateOrder  OutboxAggregateType = "order"
	OutboxAggregateCoupon OutboxAggregateType = "coupon"
)
