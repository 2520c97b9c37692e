package instance

import (
	"os"

	"github.com/angelmondragon/leasedesk-backend/pkg/env"
)

// GetID identifies the running process in logs: an explicit LEASEDESK_INSTANCE_ID, the
// platform dyno name, then the hostname.
func GetID() string {
	if id := env.Get("LEASEDESK_INSTANCE_ID", env.Get("DYNO", "")); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
