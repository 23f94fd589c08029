package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu   sync.Mutex
	got  []Message
	fail error
}

func (r *recorder) Notify(_ context.Context, _ string, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, msg)
	return r.fail
}

func TestFanoutDeliversToAll(t *testing.T) {
	ok := &recorder{}
	bad := &recorder{fail: errors.New("socket closed")}
	f := Fanout{ok, bad}

	msg := ThresholdMessage("q1", "e1", "u1", 5, time.Now())
	require.NoError(t, f.Notify(context.Background(), "u1", msg), "one channel accepted the message")

	assert.Len(t, ok.got, 1)
	assert.Len(t, bad.got, 1)
	assert.Equal(t, KindPositionThreshold, ok.got[0].Kind)
	assert.Contains(t, ok.got[0].Text, "number 5")
}

func TestFanoutFailsWhenEveryChannelFails(t *testing.T) {
	f := Fanout{
		&recorder{fail: errors.New("socket closed")},
		&recorder{fail: errors.New("broker down")},
	}
	err := f.Notify(context.Background(), "u1", Message{})
	assert.ErrorContains(t, err, "socket closed")
	assert.ErrorContains(t, err, "broker down")

	assert.NoError(t, Fanout{}.Notify(context.Background(), "u1", Message{}))
	assert.NoError(t, Nop{}.Notify(context.Background(), "u1", Message{}))
}

func TestMemoryMarkerClaimsOnce(t *testing.T) {
	m := NewMemoryMarker()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := m.Claim(ctx, "e1", 5)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)

	ok, err := m.Claim(ctx, "e2", 5)
	require.NoError(t, err)
	assert.True(t, ok, "a different entry is claimed independently")

	ok, err = m.Claim(ctx, "e1", 3)
	require.NoError(t, err)
	assert.True(t, ok, "a different threshold is claimed independently")
}

func TestHandleNotifyUserForwardsTask(t *testing.T) {
	rec := &recorder{}
	msg := ThresholdMessage("q1", "e1", "u9", 5, time.Now().UTC().Truncate(time.Second))
	task, err := NewNotifyUserTask("u9", msg)
	require.NoError(t, err)
	assert.Equal(t, TypeNotifyUser, task.Type())

	require.NoError(t, HandleNotifyUser(rec)(context.Background(), task))
	require.Len(t, rec.got, 1)
	assert.Equal(t, msg.EntryID, rec.got[0].EntryID)
	assert.True(t, msg.SentAt.Equal(rec.got[0].SentAt))
}

func TestHandleNotifyUserRejectsGarbage(t *testing.T) {
	err := HandleNotifyUser(&recorder{})(context.Background(), asynq.NewTask(TypeNotifyUser, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
