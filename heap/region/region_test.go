package region

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Bounds(t *testing.T) {
	r, err := New(0x1000, make([]byte, 0x1000))
	require.NoError(t, err)

	assert.Equal(t, uintptr(0x1000), r.Start())
	assert.Equal(t, uintptr(0x2000), r.End())
	assert.Equal(t, 0x1000, r.Len())

	assert.True(t, r.Contains(0x1000, 8))
	assert.True(t, r.Contains(0x1ff8, 8))
	assert.False(t, r.Contains(0x1ff8, 9), "range crossing end")
	assert.False(t, r.Contains(0xfff, 1), "range before start")
}

func TestNew_RejectsOverflow(t *testing.T) {
	_, err := New(^uintptr(0)-4, make([]byte, 16))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadRegion))
}

func TestBytes_AliasesMemory(t *testing.T) {
	mem := make([]byte, 64)
	r, err := New(0x4000, mem)
	require.NoError(t, err)

	b, ok := r.Bytes(0x4008, 4)
	require.True(t, ok)
	require.Len(t, b, 4)
	b[0] = 0xAB
	assert.Equal(t, byte(0xAB), mem[8])

	// Capacity is clipped so appends cannot spill into neighbours.
	assert.Equal(t, 4, cap(b))

	_, ok = r.Bytes(0x403c, 8)
	assert.False(t, ok)
}

func TestCarve(t *testing.T) {
	mem := make([]byte, 0x3000)
	r, err := New(0x1000, mem)
	require.NoError(t, err)

	sub, err := r.Carve(0x2000, 0x3000)
	require.NoError(t, err)
	assert.Equal(t, uintptr(0x2000), sub.Start())
	assert.Equal(t, uintptr(0x3000), sub.End())

	b, ok := sub.Bytes(0x2000, 1)
	require.True(t, ok)
	b[0] = 7
	assert.Equal(t, byte(7), mem[0x1000])

	_, err = r.Carve(0x3000, 0x2000)
	assert.True(t, errors.Is(err, ErrBadRegion), "inverted range")

	_, err = r.Carve(0x2000, 0x5000)
	assert.True(t, errors.Is(err, ErrBadRegion), "range past end")

	require.NoError(t, sub.Close())
	require.NoError(t, r.Close())
	_, err = r.Carve(0x1000, 0x1000)
	assert.True(t, errors.Is(err, ErrClosed))
}

func TestReserve(t *testing.T) {
	r, err := Reserve(64 << 10)
	require.NoError(t, err)
	defer func() { require.NoError(t, r.Close()) }()

	assert.NotZero(t, r.Start())
	assert.Equal(t, r.Start()+64<<10, r.End())

	b, ok := r.Bytes(r.Start(), uintptr(r.Len()))
	require.True(t, ok)
	for i := range b {
		require.Zero(t, b[i], "reserved memory must start zeroed")
	}
	b[len(b)-1] = 1
}

func TestReserve_RejectsEmpty(t *testing.T) {
	_, err := Reserve(0)
	assert.True(t, errors.Is(err, ErrBadRegion))
}
