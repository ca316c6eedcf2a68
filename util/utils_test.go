package util

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestRandomBytes(t *testing.T) {
	c := qt.New(t)
	b := RandomBytes(32)
	c.Assert(b, qt.HasLen, 32)
	c.Assert(RandomBytes(32), qt.Not(qt.DeepEquals), b)
}

func TestRandomInt(t *testing.T) {
	c := qt.New(t)
	for i := 0; i < 100; i++ {
		n := RandomInt(100, 200)
		c.Assert(n >= 100 && n < 200, qt.IsTrue)
	}
}
