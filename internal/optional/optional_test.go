package optional

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSome(t *testing.T) {
	o := Some(false)
	assert.True(t, o.IsPresent())

	v, ok := o.Get()
	assert.True(t, ok)
	assert.False(t, v)
	assert.False(t, o.ValueOr(true))
}

func TestNone(t *testing.T) {
	o := None[bool]()
	assert.False(t, o.IsPresent())

	_, ok := o.Get()
	assert.False(t, ok)
	assert.True(t, o.ValueOr(true))
	assert.False(t, o.ValueOr(false))
}

func TestZeroValueIsNone(t *testing.T) {
	var o Optional[string]
	assert.False(t, o.IsPresent())
	assert.Equal(t, "fallback", o.ValueOr("fallback"))
}
