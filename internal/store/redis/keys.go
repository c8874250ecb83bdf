package redis

const (
	// KeyPrefixService is the prefix for service keys
	KeyPrefixService = "stashboard:service:"
	// KeyPrefixEvents is the prefix for the per-service event sorted sets
	KeyPrefixEvents = "stashboard:events:"
	// KeyPrefixStatus is the prefix for status keys
	KeyPrefixStatus = "stashboard:status:"
	// KeyPrefixSubscribers is the prefix for the per-service subscriber hashes
	KeyPrefixSubscribers = "stashboard:subscribers:"
	// KeyPrefixSubscriptions is the prefix for the per-address service sets
	KeyPrefixSubscriptions = "stashboard:subscriptions:"
	// KeyAllServices is the key for the set of all service names
	KeyAllServices = "stashboard:services:all"
	// KeyAllStatuses is the key for the set of all status names
	KeyAllStatuses = "stashboard:statuses:all"
)

// ServiceKey returns the Redis key for a service by name
func ServiceKey(name string) string {
	return KeyPrefixService + name
}

// EventsKey returns the sorted set holding a service's events, scored by start time
func EventsKey(service string) string {
	return KeyPrefixEvents + service
}

// StatusKey returns the Redis key for a status by name
func StatusKey(name string) string {
	return KeyPrefixStatus + name
}

// SubscribersKey returns the hash of address -> subscription for a service
func SubscribersKey(service string) string {
	return KeyPrefixSubscribers + service
}

// SubscriptionsKey returns the set of services an address is subscribed to
func SubscriptionsKey(address string) string {
	return KeyPrefixSubscriptions + address
}
