package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhoneDigits(t *testing.T) {
	assert.Equal(t, "8005551212", PhoneDigits("(800) 555-1212"))
	assert.Equal(t, "", PhoneDigits("call me"))
	assert.Equal(t, "12", PhoneDigits("+1 2"))
}

func TestStripPhonePunct(t *testing.T) {
	assert.Equal(t, "8005551212", StripPhonePunct("(800) 555-1212"))
	assert.Equal(t, "555.123.4567", StripPhonePunct("555.123.4567"))
	assert.Equal(t, "+18005551212", StripPhonePunct("+1 800-555-1212"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "host@example.com", NormalizeEmail("  Host@Example.COM "))
}
