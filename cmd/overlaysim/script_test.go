package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/GormazAR/overlay/pkg/core"
)

func TestReadScript(t *testing.T) {
	script := `
# a comment
{"command":":TRACKING:CHANGED:","args":[{"added":[{"id":"t1","name":"irlDate","state":"tracking"}]}]}
{"camera":{"position":[0,1.5,0],"fov":45}}
{"command":":SESSION:END:","args":["30"]}
{"command":":PIN:TOGGLE:"}
`
	steps, err := readScript(strings.NewReader(script))
	require.NoError(t, err)
	require.Len(t, steps, 4)

	assert.Equal(t, 3, steps[0].Line)
	assert.Equal(t, ":TRACKING:CHANGED:", steps[0].Command)
	require.Len(t, steps[0].args, 1)
	assert.JSONEq(t, `{"added":[{"id":"t1","name":"irlDate","state":"tracking"}]}`, steps[0].args[0])

	require.NotNil(t, steps[1].Camera)
	assert.Equal(t, []string{"30"}, steps[2].args)
	assert.Empty(t, steps[3].args)
}

func TestReadScript_Errors(t *testing.T) {
	_, err := readScript(strings.NewReader("{not json}\n"))
	assert.ErrorContains(t, err, "line 1")

	_, err = readScript(strings.NewReader("\n{\"args\":[]}\n"))
	assert.ErrorContains(t, err, "line 2")
}

func TestCameraRecord_Apply(t *testing.T) {
	base := core.Camera{Rotation: core.IdentityRotation, FieldOfView: 60, Aspect: 0.5}

	cam, err := cameraRecord{Position: []float64{1, 2, 3}, FieldOfView: 45}.apply(base)
	require.NoError(t, err)
	assert.Equal(t, r3.Vec{X: 1, Y: 2, Z: 3}, cam.Position)
	assert.Equal(t, 45.0, cam.FieldOfView)
	assert.Equal(t, 0.5, cam.Aspect)

	_, err = cameraRecord{Rotation: []float64{0, 1}}.apply(base)
	assert.Error(t, err)
}
