package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/GormazAR/overlay/pkg/core"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// step is one line of a replay script. Either Command or Camera is set.
// Args may be strings or inline JSON values, which are passed on as their JSON text.
type step struct {
	Line    int                   `json:"-"`
	Command string                `json:"command"`
	RawArgs []jsoniter.RawMessage `json:"args"`
	Camera  *cameraRecord         `json:"camera"`

	args []string
}

type cameraRecord struct {
	Position    []float64 `json:"position"`
	Rotation    []float64 `json:"rotation"`
	FieldOfView float64   `json:"fov"`
	Aspect      float64   `json:"aspect"`
}

// apply overrides the fields of base that the record sets.
func (c cameraRecord) apply(base core.Camera) (core.Camera, error) {
	switch len(c.Position) {
	case 0:
	case 3:
		base.Position = r3.Vec{X: c.Position[0], Y: c.Position[1], Z: c.Position[2]}
	default:
		return base, fmt.Errorf("camera position needs 3 components")
	}
	switch len(c.Rotation) {
	case 0:
	case 4:
		base.Rotation = core.Normalize(r3.Rotation{Imag: c.Rotation[0], Jmag: c.Rotation[1], Kmag: c.Rotation[2], Real: c.Rotation[3]})
	default:
		return base, fmt.Errorf("camera rotation needs 4 components")
	}
	if c.FieldOfView > 0 {
		base.FieldOfView = c.FieldOfView
	}
	if c.Aspect > 0 {
		base.Aspect = c.Aspect
	}
	return base, nil
}

// readScript parses a JSONL replay script. Blank lines and lines starting
// with # are skipped.
func readScript(r io.Reader) ([]step, error) {
	var steps []step
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 || text[0] == '#' {
			continue
		}

		var s step
		if err := json.Unmarshal(text, &s); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if s.Command == "" && s.Camera == nil {
			return nil, fmt.Errorf("line %d: needs a command or a camera", line)
		}
		for i, raw := range s.RawArgs {
			raw = bytes.TrimSpace(raw)
			if len(raw) > 0 && raw[0] == '"' {
				var str string
				if err := json.Unmarshal(raw, &str); err != nil {
					return nil, fmt.Errorf("line %d: arg %d: %w", line, i, err)
				}
				s.args = append(s.args, str)
				continue
			}
			s.args = append(s.args, string(raw))
		}
		s.Line = line
		steps = append(steps, s)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return steps, nil
}
