package bufpool

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAcquireRelease(t *testing.T) {
	p, err := New(2, 16)
	require.NoError(t, err)
	defer p.Close()

	lease, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, len(lease.Bytes()))
	require.Equal(t, 16, cap(lease.Bytes()))

	lease.SetBytes(append(lease.Bytes(), 1, 2, 3))
	require.Equal(t, []byte{1, 2, 3}, lease.Bytes())
	lease.Release()

	require.Equal(t, int64(1), p.Created())
}

func TestReleaseIdempotent(t *testing.T) {
	p, err := New(1, 8)
	require.NoError(t, err)
	defer p.Close()

	lease, err := p.Acquire(context.Background())
	require.NoError(t, err)
	lease.Release()
	lease.Release()
	lease.Release()

	// The single buffer must be acquirable again after the extra releases.
	lease2, err := p.Acquire(context.Background())
	require.NoError(t, err)
	lease2.Release()
	require.Equal(t, int64(1), p.Created())
}

func TestCapacitySurvivesRelease(t *testing.T) {
	p, err := New(1, 8)
	require.NoError(t, err)
	defer p.Close()

	lease, err := p.Acquire(context.Background())
	require.NoError(t, err)
	grown := make([]byte, 4096)
	lease.SetBytes(grown)
	lease.Release()

	lease2, err := p.Acquire(context.Background())
	require.NoError(t, err)
	defer lease2.Release()
	require.Equal(t, 0, len(lease2.Bytes()))
	require.Equal(t, 4096, cap(lease2.Bytes()))
}

func TestAcquireBlocksAtMaxSize(t *testing.T) {
	p, err := New(1, 8)
	require.NoError(t, err)
	defer p.Close()

	lease, err := p.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = p.Acquire(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	lease.Release()
	lease2, err := p.Acquire(context.Background())
	require.NoError(t, err)
	lease2.Release()
}

func TestConcurrentChurn(t *testing.T) {
	p, err := New(4, 32)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				lease, err := p.Acquire(context.Background())
				if err != nil {
					t.Error(err)
					return
				}
				lease.SetBytes(append(lease.Bytes(), byte(j)))
				lease.Release()
			}
		}()
	}
	wg.Wait()

	p.Close()
	require.LessOrEqual(t, p.Created(), int64(4))
	require.Equal(t, p.Created(), p.Destroyed())
}
