package instance

import "os"

// GetID identifies the running process in logs. DYNO wins over the hostname.
func GetID() string {
	if id := os.Getenv("DYNO"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
