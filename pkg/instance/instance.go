package instance

import "github.com/angelmondragon/tristore-backend/pkg/env"

// GetID identifies this process in logs: the platform dyno name, then the container
// hostname, then "local".
func GetID() string {
	if id := env.First("DYNO", "HOSTNAME"); id != "" {
		return id
	}
	return "local"
}
