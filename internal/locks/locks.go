package locks

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// ChatLocker serialises work on a single chat. Lock blocks until the chat is
// free or ctx is done; the returned func releases it and is safe to call once.
type ChatLocker interface {
	Lock(ctx context.Context, chatID uuid.UUID) (func(), error)
}

type localEntry struct {
	ch   chan struct{}
	refs int
}

// LocalLocker is an in-process keyed mutex. Entries are dropped once nobody
// holds or waits on them.
type LocalLocker struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*localEntry
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{entries: make(map[uuid.UUID]*localEntry)}
}

func (l *LocalLocker) Lock(ctx context.Context, chatID uuid.UUID) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[chatID]
	if !ok {
		e = &localEntry{ch: make(chan struct{}, 1)}
		l.entries[chatID] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(chatID, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.release(chatID, e)
		})
	}, nil
}

func (l *LocalLocker) release(chatID uuid.UUID, e *localEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, chatID)
	}
}

func (l *LocalLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
