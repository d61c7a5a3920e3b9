package formvalue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckbox(t *testing.T) {
	for _, v := range []string{"on", "ON", "true", "True", "1", "yes", " on "} {
		assert.True(t, Checkbox(v), "Checkbox(%q)", v)
	}
	for _, v := range []string{"", "off", "false", "0", "no", "2", "checked"} {
		assert.False(t, Checkbox(v), "Checkbox(%q)", v)
	}
}

func TestList(t *testing.T) {
	assert.Equal(t, []string{"720p", "1080p"}, List("720p,1080p"))
	assert.Equal(t, []string{"a", "b"}, List(" a , ,b,a"))
	assert.Equal(t, []string{"hdtv"}, List("hdtv"))
	assert.Equal(t, []string{}, List(""))
	assert.NotNil(t, List(""))
}

func TestNonZeroInt(t *testing.T) {
	assert.True(t, NonZeroInt("8"))
	assert.True(t, NonZeroInt(" 65544 "))
	assert.True(t, NonZeroInt("-1"))
	assert.False(t, NonZeroInt("0"))
	assert.False(t, NonZeroInt(""))
	assert.False(t, NonZeroInt("hd"))
}
