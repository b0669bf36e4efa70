package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDate(t *testing.T) {
	assert.True(t, IsDate("2024-05-01"))
	assert.True(t, IsDate("2024-02-29"))
	assert.False(t, IsDate("2023-02-29"))
	assert.False(t, IsDate("05/01/2024"))
	assert.False(t, IsDate("2024-5-1"))
	assert.False(t, IsDate(""))
}

type sample struct {
	Inner struct {
		Port int `validate:"min=1,max=65535"`
	}
	Mode string `validate:"oneof=a b"`
}

func TestStruct(t *testing.T) {
	var s sample
	s.Inner.Port = 70000
	s.Mode = "c"

	err := Struct(&s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Inner.Port: failed max=65535")
	assert.Contains(t, err.Error(), "Mode: failed oneof=a b")

	s.Inner.Port = 8080
	s.Mode = "a"
	assert.NoError(t, Struct(&s))
}
