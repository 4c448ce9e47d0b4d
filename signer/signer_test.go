package signer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tieba-stats/signer"
)

func TestHMAC_SignIsDeterministic(t *testing.T) {
	s := signer.NewHMAC("secret")

	a := s.Sign("2024-01-01")
	assert.Len(t, a, signer.TokenLength)
	assert.Equal(t, a, s.Sign("2024-01-01"))
	assert.NotEqual(t, a, s.Sign("2024-01-02"))
	assert.NotEqual(t, a, signer.NewHMAC("other").Sign("2024-01-01"))
}

func TestHMAC_Verify(t *testing.T) {
	s := signer.NewHMAC("secret")

	assert.True(t, s.Verify("1", s.Sign("1")))
	assert.False(t, s.Verify("1", s.Sign("2")))
	assert.False(t, s.Verify("1", "short"))
}

func TestFunc(t *testing.T) {
	var s signer.Signer = signer.Func(func(in string) string { return "tok-" + in })
	assert.Equal(t, "tok-x", s.Sign("x"))
}
