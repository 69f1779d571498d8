package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/set-night/cardtask/internal/domain"
)

func TestGetCreatesIdleSession(t *testing.T) {
	s := New()

	sess := s.Get(1)
	assert.Equal(t, int64(1), sess.UserID)
	assert.Equal(t, domain.StateIdle, sess.State)
	assert.Empty(t, sess.PreferredAge)
}

func TestSaveRoundTrip(t *testing.T) {
	s := New()

	sess := s.Get(1)
	sess.State = domain.StateAwaitingComment
	sess.Bank = "Т-Банк"
	s.Save(sess)

	got := s.Get(1)
	assert.Equal(t, domain.StateAwaitingComment, got.State)
	assert.Equal(t, "Т-Банк", got.Bank)
}

func TestSoftClearKeepsAge(t *testing.T) {
	s := New()

	sess := s.Get(1)
	sess.State = domain.StateAwaitingEvidence
	sess.Bank = "Т-Банк"
	sess.PreferredAge = domain.Age14Plus
	sess.ActiveMenuID = 100
	s.Save(sess)

	cleared := s.SoftClear(1)
	assert.Equal(t, domain.StateIdle, cleared.State)
	assert.Empty(t, cleared.Bank)
	assert.Zero(t, cleared.ActiveMenuID)
	assert.Equal(t, domain.Age14Plus, cleared.PreferredAge)

	got := s.Get(1)
	assert.Equal(t, cleared, got, "cleared session is persisted")

	assert.Equal(t, cleared, s.SoftClear(1), "clearing twice changes nothing")
}

func TestSessionsAreIsolatedPerUser(t *testing.T) {
	s := New()

	a := s.Get(1)
	a.PreferredAge = domain.Age14Plus
	s.Save(a)

	b := s.Get(2)
	assert.Empty(t, b.PreferredAge)
}

func TestLockUserSerializes(t *testing.T) {
	s := New()

	const workers = 20
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := s.LockUser(1)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	require.Equal(t, workers, counter)
}

func TestConcurrentAccessDifferentUsers(t *testing.T) {
	s := New()

	var wg sync.WaitGroup
	for i := int64(0); i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			sess := s.Get(id)
			sess.State = domain.StateAwaitingBank
			s.Save(sess)
		}(i)
	}
	wg.Wait()

	for i := int64(0); i < 50; i++ {
		assert.Equal(t, domain.StateAwaitingBank, s.Get(i).State)
	}
}
