package app

import (
	"context"
	"fmt"
	"time"
)

// Health reports component states for the observability server: "up",
// "disabled", or a failure description.
func (a *App) Health(ctx context.Context) map[string]string {
	components := map[string]string{
		"compiler": "up",
	}

	if a.history == nil {
		components["history"] = "disabled"
	} else {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := a.history.Ping(pingCtx); err != nil {
			components["history"] = fmt.Sprintf("ping failed: %v", err)
		} else {
			components["history"] = "up"
		}
	}

	if a.activeWatcher == nil {
		components["watcher"] = "disabled"
	} else {
		components["watcher"] = "up"
	}
	return components
}
