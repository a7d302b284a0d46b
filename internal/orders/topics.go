package orders

const (
	TopicOrderCreated       = "order.created"
	TopicOrderCanceled      = "order.canceled"
	TopicOrderStatusChanged = "order.status.changed"
	TopicPaymentEvents      = "payment.events"
)

// Partition key = order_id so all events for one order keep their order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
