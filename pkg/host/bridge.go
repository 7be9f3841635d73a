package host

import (
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/GormazAR/overlay/internal/dispatcher"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Bridge is the entry point a host calls with string commands, mirroring a
// native plugin's exported call. Replies are JSON arrays: ["ok"], ["ok", result] or ["error", message].
type Bridge struct {
	dispatcher *dispatcher.Dispatcher
	version    string
	now        func() time.Time
}

// NewBridge creates a bridge routing commands to d.
func NewBridge(d *dispatcher.Dispatcher, version string) *Bridge {
	return &Bridge{
		dispatcher: d,
		version:    version,
		now:        time.Now,
	}
}

// Call handles one host command.
func (b *Bridge) Call(command string, args ...string) string {
	switch command {
	case ":VERSION:":
		return FormatResponse(b.version, nil)
	case ":TIMESTAMP:":
		return FormatResponse(fmt.Sprintf("%d", b.now().UTC().UnixNano()), nil)
	}

	if b.dispatcher == nil || !b.dispatcher.HasHandler(command) {
		return FormatResponse(nil, fmt.Errorf("no handler registered for %s", command))
	}

	result, err := b.dispatcher.Dispatch(dispatcher.Event{
		Command:   command,
		Args:      args,
		Timestamp: b.now(),
	})
	return FormatResponse(result, err)
}

// FormatResponse encodes a handler result for the host.
func FormatResponse(result any, err error) string {
	if err != nil {
		msg, _ := json.Marshal(err.Error())
		return fmt.Sprintf(`["error", %s]`, msg)
	}
	if result == nil {
		return `["ok"]`
	}
	encoded, mErr := json.Marshal(result)
	if mErr != nil {
		msg, _ := json.Marshal(mErr.Error())
		return fmt.Sprintf(`["error", %s]`, msg)
	}
	return fmt.Sprintf(`["ok", %s]`, encoded)
}
