package pool

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuffersReset(t *testing.T) {
	b := Buffers.Get()
	b.WriteString("李明")
	Buffers.Put(b)

	again := Buffers.Get()
	assert.Equal(t, 0, again.Len())
	Buffers.Put(again)
}

func TestPutRejected(t *testing.T) {
	calls := 0
	p := New(
		func() *bytes.Buffer { calls++; return new(bytes.Buffer) },
		func(*bytes.Buffer) bool { return false },
	)

	b := p.Get()
	p.Put(b)
	_ = p.Get()
	assert.Equal(t, 2, calls)
}
