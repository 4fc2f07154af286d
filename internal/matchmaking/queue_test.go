package matchmaking

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tictactoe-server/internal/connection"
	"tictactoe-server/internal/models"
)

func newConn(t *testing.T, registry *connection.Registry, name string, rating float64) *connection.Connection {
	t.Helper()
	user := &models.User{ID: primitive.NewObjectID(), Username: name, Rating: rating}
	return registry.Register(user, connection.NewRecordingSender())
}

func TestPairEnqueuesWhenQueueIsEmpty(t *testing.T) {
	registry := connection.NewRegistry()
	q := NewQueue()
	a := newConn(t, registry, "a", 1000)

	opponent, paired, err := q.Pair(a)
	require.NoError(t, err)
	assert.False(t, paired)
	assert.Nil(t, opponent)
	assert.Equal(t, 1, q.Size())
	assert.True(t, q.Contains(a))
}

func TestPairRatingThreshold(t *testing.T) {
	tests := []struct {
		name       string
		waiting    float64
		requesting float64
		wantPair   bool
	}{
		{"equal ratings", 1000, 1000, true},
		{"gap of 50", 1000, 1050, true},
		{"gap just under threshold", 1000, 1199.9, true},
		{"gap exactly threshold", 1000, 1200, false},
		{"gap above threshold", 1000, 1500, false},
		{"lower requester at threshold", 1200, 1000, false},
		{"lower requester under threshold", 1199, 1000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := connection.NewRegistry()
			q := NewQueue()
			waiting := newConn(t, registry, "waiting", tt.waiting)
			requester := newConn(t, registry, "requester", tt.requesting)

			_, _, err := q.Pair(waiting)
			require.NoError(t, err)

			opponent, paired, err := q.Pair(requester)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPair, paired)

			if tt.wantPair {
				assert.Same(t, waiting, opponent)
				assert.Equal(t, 0, q.Size())
			} else {
				assert.Equal(t, 2, q.Size())
			}
		})
	}
}

func TestPairTakesFirstCompatibleNotClosest(t *testing.T) {
	registry := connection.NewRegistry()
	q := NewQueue()
	far := newConn(t, registry, "far", 1500)
	first := newConn(t, registry, "first", 1150)
	closest := newConn(t, registry, "closest", 1010)
	requester := newConn(t, registry, "requester", 1000)

	for _, c := range []*connection.Connection{far, first, closest} {
		require.NoError(t, q.Enqueue(c))
	}

	opponent, paired, err := q.Pair(requester)
	require.NoError(t, err)
	require.True(t, paired)
	assert.Same(t, first, opponent)

	snapshot := q.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Same(t, far, snapshot[0])
	assert.Same(t, closest, snapshot[1])
}

func TestPairRejectsAlreadyQueuedUser(t *testing.T) {
	registry := connection.NewRegistry()
	q := NewQueue()
	a := newConn(t, registry, "a", 1000)

	_, _, err := q.Pair(a)
	require.NoError(t, err)

	_, paired, err := q.Pair(a)
	assert.ErrorIs(t, err, ErrAlreadyQueued)
	assert.False(t, paired)
	assert.Equal(t, 1, q.Size())
}

func TestSameUserOnTwoSessionsNeverPairsWithItself(t *testing.T) {
	registry := connection.NewRegistry()
	q := NewQueue()
	user := &models.User{ID: primitive.NewObjectID(), Username: "tom", Rating: 1000}
	first := registry.Register(user, connection.NewRecordingSender())
	second := registry.Register(user, connection.NewRecordingSender())

	require.NoError(t, q.Enqueue(first))

	_, ok := q.FindOpponent(second)
	assert.False(t, ok)

	_, _, err := q.Pair(second)
	assert.ErrorIs(t, err, ErrAlreadyQueued)
}

func TestEnqueueDequeue(t *testing.T) {
	registry := connection.NewRegistry()
	q := NewQueue()
	a := newConn(t, registry, "a", 1000)
	b := newConn(t, registry, "b", 2000)

	require.NoError(t, q.Enqueue(a))
	require.NoError(t, q.Enqueue(b))
	assert.ErrorIs(t, q.Enqueue(a), ErrAlreadyQueued)
	assert.Equal(t, 2, q.Size())

	assert.True(t, q.Dequeue(a))
	assert.False(t, q.Dequeue(a))
	assert.Equal(t, []*connection.Connection{b}, q.Snapshot())
}

func TestFindOpponentDoesNotMutate(t *testing.T) {
	registry := connection.NewRegistry()
	q := NewQueue()
	a := newConn(t, registry, "a", 1000)
	b := newConn(t, registry, "b", 1100)
	require.NoError(t, q.Enqueue(a))

	opponent, ok := q.FindOpponent(b)
	require.True(t, ok)
	assert.Same(t, a, opponent)
	assert.Equal(t, 1, q.Size())
	assert.False(t, q.Contains(b))
}

func TestChangeNotifierFiresOnMembershipChanges(t *testing.T) {
	registry := connection.NewRegistry()
	q := NewQueue()
	var calls int32
	q.SetChangeNotifier(func() { atomic.AddInt32(&calls, 1) })

	a := newConn(t, registry, "a", 1000)
	b := newConn(t, registry, "b", 1000)

	_, _, _ = q.Pair(a) // enqueue
	_, _, _ = q.Pair(b) // pair
	q.Dequeue(a)        // not queued, no change
	_, _, _ = q.Pair(a) // enqueue
	_ = q.Enqueue(a)    // rejected
	q.Dequeue(a)        // removed

	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

func TestConcurrentPairingNeverLosesOrDuplicatesPlayers(t *testing.T) {
	registry := connection.NewRegistry()
	q := NewQueue()

	const n = 100
	conns := make([]*connection.Connection, n)
	for i := range conns {
		conns[i] = newConn(t, registry, fmt.Sprintf("p%d", i), 1000)
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		paired = make(map[string]int)
	)
	for _, c := range conns {
		wg.Add(1)
		go func(c *connection.Connection) {
			defer wg.Done()
			opponent, ok, err := q.Pair(c)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				paired[c.UserID]++
				paired[opponent.UserID]++
				mu.Unlock()
			}
		}(c)
	}
	wg.Wait()

	for id, count := range paired {
		assert.Equal(t, 1, count, "user %s paired more than once", id)
	}
	assert.Equal(t, n, len(paired)+q.Size())
}
