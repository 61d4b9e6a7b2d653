package pools

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBytePoolTiers(t *testing.T) {
	bp := NewBytePoolWithSizes([]int{16, 64})

	buf := bp.Get(10)
	assert.Len(t, buf, 10)
	assert.Equal(t, 16, cap(buf))

	buf = bp.Get(40)
	assert.Len(t, buf, 40)
	assert.Equal(t, 64, cap(buf))

	big := bp.Get(100)
	assert.Len(t, big, 100)
	bp.Put(big) // dropped, must not panic
}

func TestBytePoolGrow(t *testing.T) {
	bp := NewBytePoolWithSizes([]int{8, 32})

	buf := bp.Get(8)
	copy(buf, "abcdefgh")

	same := bp.Grow(buf, 8, 6)
	assert.Equal(t, "abcdef", string(same))

	grown := bp.Grow(buf, 8, 20)
	assert.Len(t, grown, 20)
	assert.Equal(t, "abcdefgh", string(grown[:8]))
}

type fakeConn struct {
	fd    int
	reset int
}

func (c *fakeConn) Reset()       { c.fd = -1; c.reset++ }
func (c *fakeConn) SetFD(fd int) { c.fd = fd }

func TestConnectionPool(t *testing.T) {
	cp := NewConnectionPool(func() *fakeConn { return &fakeConn{fd: -1} })

	c := cp.Get(5)
	assert.Equal(t, 5, c.fd)

	cp.Put(c)
	assert.Equal(t, -1, c.fd)
	assert.Equal(t, 1, c.reset)

	gets, puts := cp.Stats()
	assert.Equal(t, uint64(1), gets)
	assert.Equal(t, uint64(1), puts)
}
