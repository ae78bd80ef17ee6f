package rabbitmq

// QueueConfig очередь и её ключ маршрутизации в обменнике уведомлений.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// Ключи маршрутизации уведомлений о подписках отелей.
const (
	RoutingExpiring  = "hotel.expiring"
	RoutingSuspended = "hotel.suspended"
)

// QueueExpiring и QueueSuspended: очереди, которые читает notifier.
const (
	QueueExpiring  = "notifications.hotel.expiring"
	QueueSuspended = "notifications.hotel.suspended"
)

// GetNotificationQueues очереди уведомлений о подписках.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: QueueExpiring, RoutingKey: RoutingExpiring},
		{QueueName: QueueSuspended, RoutingKey: RoutingSuspended},
	}
}
