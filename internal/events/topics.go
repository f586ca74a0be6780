package events

// Topic constants for domain events emitted by the ordering core.
const (
	TopicOrderCreated       = "order.created"
	TopicOrderStatusChanged = "order.status_changed"
	TopicPointsRedeemed     = "rewards.points_redeemed"
)
