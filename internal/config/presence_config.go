package config

import "time"

const (
	redisURLVar        = "REDIS_URL"
	upstashRedisURLVar = "UPSTASH_REDIS_URL"
)

type Presence struct{}

var _ PresenceConfig = Presence{}

// GetRedisURL returns the heartbeat store URL. An empty value runs presence
// in degraded mode.
func (Presence) GetRedisURL() string {
	return GetEnv(redisURLVar, GetEnv(upstashRedisURLVar, ""))
}

func (Presence) GetSessionTTL() time.Duration {
	return time.Hour
}

func (Presence) GetActiveWindow() time.Duration {
	return 5 * time.Minute
}
