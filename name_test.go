package kstate

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckName(t *testing.T) {
	valid := []string{
		"a",
		"Fred",
		"Fred.A",
		"a.b.c",
		"0",
		"X9.y2",
		strings.Repeat("a", MaxNameLen),
	}
	for _, name := range valid {
		assert.NoError(t, checkName(name), "name %q", name)
	}

	invalid := []string{
		"",
		".",
		".Fred",
		"Fred.",
		"Fred..A",
		"a..b",
		"Fred-A",
		"Fred A",
		"Fred/A",
		"Fréd",
		strings.Repeat("a", MaxNameLen+1),
	}
	for _, name := range invalid {
		err := checkName(name)
		require.Error(t, err, "name %q", name)
		assert.ErrorIs(t, err, ErrBadName, "name %q", name)
		assert.Equal(t, -22, Errno(err), "name %q", name) // -EINVAL
	}
}

func TestCanonicalName_RoundTrip(t *testing.T) {
	assert.Equal(t, "/kstate.Fred.A", canonicalName("Fred.A"))
	assert.Equal(t, "Fred.A", userName(canonicalName("Fred.A")))
}

func TestUniqueName(t *testing.T) {
	pattern := regexp.MustCompile(`^Fred\.\d+\.\d+\.\d+$`)

	a := UniqueName("Fred")
	b := UniqueName("Fred")

	assert.Regexp(t, pattern, a)
	assert.Regexp(t, pattern, b)
	assert.NotEqual(t, a, b, "consecutive unique names must differ")
}

func TestUniqueName_IsValidStateName(t *testing.T) {
	name := UniqueName("test")
	require.NoError(t, checkName(name))
}
