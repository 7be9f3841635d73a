// Package parser converts raw host command arguments into domain values.
// It performs no I/O and holds no state beyond a logger.
package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/GormazAR/overlay/internal/util"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrInvalidBatch is returned for a tracking batch that cannot be decoded.
	ErrInvalidBatch = errors.New("invalid tracking batch")
	// ErrMissingArgs is returned when a command has fewer args than it needs.
	ErrMissingArgs = errors.New("missing arguments")
)

// Parser provides pure []string -> domain conversion.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new parser with only a logger dependency.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// decodeArg decodes a JSON command argument into v. Hosts that double their
// quotes ("") are handled by retrying on the normalized text.
func decodeArg(raw string, v any) error {
	s := strings.TrimSpace(raw)
	err := json.Unmarshal([]byte(s), v)
	if err == nil {
		return nil
	}
	fixed := util.CleanArg(s)
	if fixed == s {
		return err
	}
	if err2 := json.Unmarshal([]byte(fixed), v); err2 != nil {
		return err
	}
	return nil
}

// ParseDocID extracts the scanned document id of a :SCAN:INCREMENT: call.
func (p *Parser) ParseDocID(args []string) (string, error) {
	if len(args) < 1 {
		return "", fmt.Errorf("%w: document id", ErrMissingArgs)
	}
	id := util.CleanArg(args[0])
	if id == "" {
		return "", fmt.Errorf("%w: document id", ErrMissingArgs)
	}
	return id, nil
}
