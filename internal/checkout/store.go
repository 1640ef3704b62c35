package checkout

import (
	"sync"

	appErrors "github.com/aaravmahajanofficial/storefront-checkout/internal/errors"
)

// Store holds at most one session per subject. Sessions are never persisted.
type Store struct {
	mu         sync.Mutex
	sessions   map[string]Session
	submitting map[string]struct{}
}

func NewStore() *Store {
	return &Store{
		sessions:   make(map[string]Session),
		submitting: make(map[string]struct{}),
	}
}

func (st *Store) Get(subject string) (Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[subject]
	if !ok {
		return Session{}, false
	}

	return s.clone(), true
}

func (st *Store) Put(s Session) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.sessions[s.Owner] = s.clone()
}

// Update applies fn to the subject's session and stores the result, unless
// fn fails.
func (st *Store) Update(subject string, fn func(Session) (Session, error)) (Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	current, ok := st.sessions[subject]
	if !ok {
		return Session{}, errNoSession()
	}

	next, err := fn(current.clone())
	if err != nil {
		return current.clone(), err
	}

	st.sessions[subject] = next.clone()

	return next, nil
}

func (st *Store) Delete(subject string) {
	st.mu.Lock()
	defer st.mu.Unlock()

	delete(st.sessions, subject)
}

func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	return len(st.sessions)
}

// beginSubmit allows one order submission per subject at a time.
func (st *Store) beginSubmit(subject string) (func(), error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, busy := st.submitting[subject]; busy {
		return nil, appErrors.ConflictError("Your order is already being placed")
	}

	st.submitting[subject] = struct{}{}

	return func() {
		st.mu.Lock()
		delete(st.submitting, subject)
		st.mu.Unlock()
	}, nil
}

func errNoSession() error {
	return appErrors.NotFoundError("No checkout in progress")
}
