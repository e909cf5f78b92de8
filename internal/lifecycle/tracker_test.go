package lifecycle

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitepack/internal/engine/enginetest"
)

func TestTracker_SingleBuild(t *testing.T) {
	tr := NewTracker(nil, nil)
	h := &enginetest.FakeHandle{}

	tr.Enter()
	require.Equal(t, 1, tr.Active())
	tr.RegisterHandle(h)
	require.Equal(t, 1, tr.OpenHandles())

	require.NoError(t, tr.Leave())
	require.Equal(t, 0, tr.Active())
	require.Equal(t, 0, tr.OpenHandles())
	require.Equal(t, 1, h.Closes())
}

func TestTracker_OverlappingBuildsCloseOnce(t *testing.T) {
	tr := NewTracker(nil, nil)
	h1 := &enginetest.FakeHandle{}
	h2 := &enginetest.FakeHandle{}

	tr.Enter()
	tr.Enter()
	require.Equal(t, 2, tr.Active())

	tr.RegisterHandle(h1)
	tr.RegisterHandle(h2)

	// First build finishing must not close anything: the second still
	// depends on the shared backend.
	require.NoError(t, tr.Leave())
	require.Equal(t, 0, h1.Closes())
	require.Equal(t, 0, h2.Closes())
	require.Equal(t, 2, tr.OpenHandles())

	require.NoError(t, tr.Leave())
	require.Equal(t, 1, h1.Closes())
	require.Equal(t, 1, h2.Closes())
	require.Equal(t, 0, tr.OpenHandles())
}

func TestTracker_LeaveNeverGoesNegative(t *testing.T) {
	tr := NewTracker(nil, nil)
	require.NoError(t, tr.Leave())
	require.Equal(t, 0, tr.Active())

	tr.Enter()
	require.NoError(t, tr.Leave())
	require.NoError(t, tr.Leave())
	require.Equal(t, 0, tr.Active())
}

func TestTracker_HandlesRegisteredAfterSweepStartNewSet(t *testing.T) {
	tr := NewTracker(nil, nil)
	h1 := &enginetest.FakeHandle{}

	tr.Enter()
	tr.RegisterHandle(h1)
	require.NoError(t, tr.Leave())
	require.Equal(t, 1, h1.Closes())

	// A later build gets a fresh set; the old handle is not closed again.
	h2 := &enginetest.FakeHandle{}
	tr.Enter()
	tr.RegisterHandle(h2)
	require.NoError(t, tr.Leave())
	require.Equal(t, 1, h1.Closes())
	require.Equal(t, 1, h2.Closes())
}

func TestTracker_ConcurrentEnterLeave(t *testing.T) {
	tr := NewTracker(nil, nil)
	var wg sync.WaitGroup
	handles := make([]*enginetest.FakeHandle, 16)

	for i := range handles {
		handles[i] = &enginetest.FakeHandle{}
		wg.Add(1)
		go func(h *enginetest.FakeHandle) {
			defer wg.Done()
			tr.Enter()
			tr.RegisterHandle(h)
			_ = tr.Leave()
		}(handles[i])
	}
	wg.Wait()

	require.Equal(t, 0, tr.Active())
	require.Equal(t, 0, tr.OpenHandles())
	for i, h := range handles {
		require.Equal(t, 1, h.Closes(), "handle %d", i)
	}
}
