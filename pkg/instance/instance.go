package instance

import "os"

const envInstanceID = "BACKOFFICE_INSTANCE_ID"

// ID names this process in lock values and logs. An explicit
// BACKOFFICE_INSTANCE_ID wins, then the platform dyno name, then the host.
func ID() string {
	if id := os.Getenv(envInstanceID); id != "" {
		return id
	}
	if id := os.Getenv("DYNO"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
