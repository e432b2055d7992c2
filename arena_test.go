package arena

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xgzlucario/devarena/device"
)

var errDevice = errors.New("cudaMalloc: out of memory")

// countingDevice counts device calls and fails while fail is set.
type countingDevice struct {
	allocs, frees int
	fail          bool
	freeErr       error
}

func (d *countingDevice) Allocate(size int) ([]byte, error) {
	d.allocs++
	if d.fail {
		return nil, errDevice
	}
	return make([]byte, size), nil
}

func (d *countingDevice) Free([]byte) error {
	d.frees++
	return d.freeErr
}

func newCountingManager(t *testing.T, dev *countingDevice) *Manager[int] {
	opts := DefaultOptions
	opts.Device = dev
	m, err := New[int](opts)
	require.NoError(t, err)
	return m
}

func TestInitializeFailure(t *testing.T) {
	assert := assert.New(t)

	var logs bytes.Buffer
	dev := &countingDevice{fail: true}
	opts := DefaultOptions
	opts.Device = dev
	opts.Logger = slog.New(slog.NewTextHandler(&logs, nil))
	m, err := New[int](opts)
	require.NoError(t, err)

	err = m.Initialize(100, 8)
	assert.ErrorIs(err, errDevice)
	var initErr *InitError
	assert.True(errors.As(err, &initErr))
	assert.Equal(800, initErr.Bytes)
	assert.Contains(logs.String(), "device allocation failed")
	assert.Contains(logs.String(), "bytes=800")

	assert.False(m.Initialized())
	assert.Nil(m.Region())

	_, err = m.Reserve(1, 1)
	assert.ErrorIs(err, ErrNotInitialized)

	// finalize on a failed arena is harmless.
	assert.Nil(m.Finalize())
	assert.Equal(0, dev.frees)

	// a later initialize succeeds.
	dev.fail = false
	assert.Nil(m.Initialize(100, 8))
	off, err := m.Reserve(1, 1)
	assert.Nil(err)
	assert.Equal(uint32(0), off)
}

func TestDeviceCalledOncePerLifetime(t *testing.T) {
	assert := assert.New(t)
	dev := &countingDevice{}
	m := newCountingManager(t, dev)

	for round := 0; round < 3; round++ {
		require.NoError(t, m.Initialize(4000, 4))
		for i := 0; i < 500; i++ {
			_, err := m.Reserve(i, uint32(i%7+1))
			assert.Nil(err)
			if i%3 == 0 {
				m.Release(i)
			}
		}
		assert.Equal(round+1, dev.allocs)
		assert.Equal(round, dev.frees)
		require.NoError(t, m.Finalize())
		assert.Equal(round+1, dev.frees)
	}
}

func TestFinalizeIdempotent(t *testing.T) {
	assert := assert.New(t)
	dev := &countingDevice{}
	m := newCountingManager(t, dev)

	assert.Nil(m.Finalize())
	assert.Nil(m.Initialize(10, 1))
	assert.Nil(m.Finalize())
	assert.Nil(m.Finalize())
	assert.Nil(m.Close())
	assert.Equal(1, dev.frees)
}

func TestFinalizeDeviceError(t *testing.T) {
	assert := assert.New(t)
	dev := &countingDevice{freeErr: errDevice}
	m := newCountingManager(t, dev)

	require.NoError(t, m.Initialize(10, 1))
	_, err := m.Reserve(1, 5)
	assert.Nil(err)

	// state is cleared even when the device complains.
	assert.ErrorIs(m.Finalize(), errDevice)
	assert.False(m.Initialized())
	assert.Equal(0, m.Len())
	assert.Nil(m.Initialize(10, 1))
}

func TestInitializeTwice(t *testing.T) {
	assert := assert.New(t)
	dev := &countingDevice{}
	m := newCountingManager(t, dev)

	require.NoError(t, m.Initialize(10, 1))
	_, err := m.Reserve(1, 5)
	assert.Nil(err)

	assert.ErrorIs(m.Initialize(20, 1), ErrAlreadyInitialized)
	assert.Equal(1, dev.allocs)
	assert.Equal(uint32(10), m.MaxElements())
	assert.Equal(uint32(1), m.Refs(1))
}

func TestInitializeGeometry(t *testing.T) {
	assert := assert.New(t)
	dev := &countingDevice{}
	m := newCountingManager(t, dev)

	assert.ErrorIs(m.Initialize(0, 8), ErrInvalidOptions)
	assert.ErrorIs(m.Initialize(8, 0), ErrInvalidOptions)
	if math.MaxInt == math.MaxInt32 {
		assert.ErrorIs(m.Initialize(math.MaxUint32, math.MaxUint32), ErrInvalidOptions)
	}
	assert.Equal(0, dev.allocs)

	if math.MaxInt > math.MaxUint32 {
		size, err := regionSize(math.MaxUint32, 2)
		assert.Nil(err)
		assert.Equal(uint64(math.MaxUint32)*2, uint64(size))
	}
}

func TestShortDeviceBuffer(t *testing.T) {
	var freed bool
	opts := DefaultOptions
	opts.Device = device.Func{
		AllocFn: func(size int) ([]byte, error) { return make([]byte, size-1), nil },
		FreeFn: func([]byte) error {
			freed = true
			return nil
		},
	}
	m, err := New[int](opts)
	require.NoError(t, err)

	err = m.Initialize(10, 10)
	assert.ErrorIs(t, err, device.ErrInvalidSize)
	assert.True(t, freed)
	assert.False(t, m.Initialized())
}

func TestMmapDevice(t *testing.T) {
	assert := assert.New(t)

	lim := device.Limit(device.Mmap{}, 1<<20)
	opts := DefaultOptions
	opts.Device = lim
	m, err := New[string](opts)
	require.NoError(t, err)

	require.NoError(t, m.Initialize(1<<16, 16))
	assert.Equal(int64(1<<20), lim.Used())

	// a second arena does not fit the budget.
	other, err := New[string](opts)
	require.NoError(t, err)
	err = other.Initialize(1, 1)
	assert.ErrorIs(err, device.ErrBudgetExceeded)

	_, err = m.Reserve("cell", 4)
	assert.Nil(err)
	b, ok := m.Bytes("cell")
	assert.True(ok)
	b[63] = 0xff
	assert.Equal(byte(0xff), m.Region()[63])

	require.NoError(t, m.Finalize())
	assert.Equal(int64(0), lim.Used())
	assert.Nil(other.Initialize(1, 1))
	assert.Nil(other.Finalize())
}

func TestRegionCleanup(t *testing.T) {
	lim := device.Limit(device.Heap{}, 0)
	opts := DefaultOptions
	opts.Device = lim

	func() {
		m, err := New[int](opts)
		require.NoError(t, err)
		require.NoError(t, m.Initialize(1024, 8))
		_, err = m.Reserve(1, 10)
		require.NoError(t, err)
		// dropped without Finalize.
	}()
	assert.Equal(t, int64(8192), lim.Used())

	assert.Eventually(t, func() bool {
		runtime.GC()
		return lim.Used() == 0
	}, 5*time.Second, 10*time.Millisecond)
}

func TestRegionKeepAlive(t *testing.T) {
	var frees atomic.Int32
	opts := DefaultOptions
	opts.Device = device.Func{
		AllocFn: device.Mmap{}.Allocate,
		FreeFn: func(buf []byte) error {
			frees.Add(1)
			return device.Mmap{}.Free(buf)
		},
	}
	m, err := New[int](opts)
	require.NoError(t, err)
	require.NoError(t, m.Initialize(1024, 8))
	_, err = m.Reserve(1, 4)
	require.NoError(t, err)

	b, ok := m.Bytes(1)
	require.True(t, ok)
	for i := 0; i < 5; i++ {
		runtime.GC()
	}

	// the slice is only backed while the manager is reachable.
	assert.Equal(t, int32(0), frees.Load())
	copy(b, "vertices")
	assert.Equal(t, []byte("vertices"), m.Region()[:8])
	runtime.KeepAlive(m)

	require.NoError(t, m.Finalize())
	assert.Equal(t, int32(1), frees.Load())
}
