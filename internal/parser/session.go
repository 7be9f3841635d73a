package parser

import (
	"fmt"
	"time"

	"github.com/GormazAR/overlay/internal/util"
)

// ParseSessionDuration reads the optional explicit duration of a :SESSION:END:
// call. ok is false when the host left it to the session clock.
func (p *Parser) ParseSessionDuration(args []string) (d time.Duration, ok bool, err error) {
	if len(args) < 1 || util.CleanArg(args[0]) == "" {
		return 0, false, nil
	}
	secs, err := util.ParseSeconds(args[0])
	if err != nil {
		return 0, false, fmt.Errorf("session duration: %w", err)
	}
	return time.Duration(secs * float64(time.Second)), true, nil
}
