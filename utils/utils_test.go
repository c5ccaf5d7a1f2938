package utils

import (
	"errors"
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestFingerprint(t *testing.T) {
	a := Fingerprint("Fecha de Recepción: 01/01/2025 08:00")
	assert.Len(t, a, 16)
	assert.Equal(t, a, Fingerprint("Fecha de Recepción: 01/01/2025 08:00"))
	assert.NotEqual(t, a, Fingerprint("Fecha de Recepción: 02/01/2025 08:00"))
}

func TestRoundHalfUp(t *testing.T) {
	assert.Equal(t, 3, RoundHalfUp(2.5))
	assert.Equal(t, 2, RoundHalfUp(2.49))
	assert.Equal(t, 0, RoundHalfUp(-0.5))
	assert.Equal(t, -1, RoundHalfUp(-0.51))
}

func TestCollapseSpaces(t *testing.T) {
	assert.Equal(t, "JUAN PEREZ", CollapseSpaces("  JUAN \t  PEREZ\n"))
	assert.True(t, IsBlank(" \n\t"))
	assert.False(t, IsBlank(" x "))
}

func TestRecoverWithError(t *testing.T) {
	run := func() (err error) {
		defer RecoverWithError(&err)
		panic(errors.New("boom"))
	}
	err := run()
	assert.EqualError(t, err, "got panic: boom")
}
