package redis

import (
	"context"
	"errors"
	"sync"
	"time"
)

// fakeStore é um Store em memória com TTL, usado apenas nos testes
type fakeStore struct {
	mu        sync.Mutex
	data      map[string]fakeItem
	published map[string][]string
	pingErr   error
	writeErr  error
	closed    bool
}

type fakeItem struct {
	value   string
	expires time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		data:      make(map[string]fakeItem),
		published: make(map[string][]string),
	}
}

func (f *fakeStore) Ping(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pingErr
}

func (f *fakeStore) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	item, ok := f.data[key]
	if !ok {
		return "", ErrCacheMiss
	}
	if !item.expires.IsZero() && time.Now().After(item.expires) {
		delete(f.data, key)
		return "", ErrCacheMiss
	}
	return item.value, nil
}

func (f *fakeStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writeErr != nil {
		return f.writeErr
	}
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	f.data[key] = fakeItem{value: value, expires: exp}
	return nil
}

func (f *fakeStore) Publish(ctx context.Context, channel, payload string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writeErr != nil {
		return f.writeErr
	}
	f.published[channel] = append(f.published[channel], payload)
	return nil
}

func (f *fakeStore) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeStore) set(fn func(f *fakeStore)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

var errFakeDown = errors.New("connection refused")
