package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectID(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"", ""},
		{"Kitchen Light", "kitchen_light"},
		{"relay-1", "relay-1"},
		{"Pump (main)", "pump__main_"},
		{"Café", "caf__"},
		{"Küche", "k__che"},
		{"\u212Aelvin", "___elvin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ObjectID(tt.name))
		})
	}
}

func TestHash(t *testing.T) {
	// FNV-1 offset basis for the empty string
	assert.Equal(t, uint32(2166136261), Hash(""))
	assert.Equal(t, Hash("kitchen_light"), Hash("kitchen_light"))
	assert.NotEqual(t, Hash("kitchen_light"), Hash("kitchen_light2"))
}

func TestEntity(t *testing.T) {
	e := New("Garage Door")
	assert.Equal(t, "Garage Door", e.Name())
	assert.Equal(t, "garage_door", e.ObjectID())
	assert.Equal(t, Hash("garage_door"), e.ObjectIDHash())
	assert.Equal(t, "Garage Door", e.String())
}

func TestObjectIDHash_NonASCII(t *testing.T) {
	assert.Equal(t, Hash("k__che"), New("Küche").ObjectIDHash())
}
