package script

import (
	"context"
	"log/slog"

	"github.com/nfrund/mochachat/internal/pubsub"
)

// Reloaded reports the outcome of a hot reload.
type Reloaded struct {
	Path  string `json:"path"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// TopicReloaded carries Reloaded events.
var TopicReloaded = pubsub.NewModuleEvent[Reloaded](
	"script",
	"script.reloaded",
	"",
	"A reply script file changed on disk and was compiled again",
)

// ReloadAnnouncer returns a Watcher callback publishing each reload outcome.
func ReloadAnnouncer(publisher pubsub.Publisher, path string) func(error) {
	return func(err error) {
		ev := Reloaded{Path: path, OK: err == nil}
		if err != nil {
			ev.Error = err.Error()
		}
		// The watcher goroutine has no request context.
		if perr := pubsub.Publish(context.Background(), publisher, TopicReloaded, ev); perr != nil {
			slog.Error("Failed to publish script reload", "error", perr, "topic", TopicReloaded.Name())
		}
	}
}
