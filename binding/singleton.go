package binding

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"

	"github.com/sghaida/objectgraph/keys"
)

// SingletonBinding caches the first value its delegate provides.
// Member injection is passed through uncached.
type SingletonBinding struct {
	delegate Binding

	mu    sync.Mutex
	done  bool
	value any
	// builder is the goroutine creating the value, 0 when none is; ready
	// is closed when it finishes.
	builder uint64
	ready   chan struct{}
}

// Scope wraps b in a SingletonBinding when b is singleton scoped.
func Scope(b Binding) Binding {
	if b == nil || !b.Singleton() {
		return b
	}
	if _, ok := b.(*SingletonBinding); ok {
		return b
	}
	return &SingletonBinding{delegate: b}
}

// Delegate returns the wrapped binding.
func (s *SingletonBinding) Delegate() Binding { return s.delegate }

func (s *SingletonBinding) ProvideKey() keys.Key { return s.delegate.ProvideKey() }
func (s *SingletonBinding) MembersKey() keys.Key { return s.delegate.MembersKey() }
func (s *SingletonBinding) RequiredBy() any { return s.delegate.RequiredBy() }
func (s *SingletonBinding) Singleton() bool { return true }
func (s *SingletonBinding) Linked() bool { return s.delegate.Linked() }
func (s *SingletonBinding) SetLinked() { s.delegate.SetLinked() }
func (s *SingletonBinding) Attach(r Requester) { s.delegate.Attach(r) }
func (s *SingletonBinding) InjectMembers(t any) error { return s.delegate.InjectMembers(t) }
func (s *SingletonBinding) Dependencies() []Binding { return s.delegate.Dependencies() }
func (s *SingletonBinding) String() string { return "@Singleton/" + s.delegate.String() }

// Get returns the cached value, creating it on first use. Errors are not
// cached; the next call retries. Callers on other goroutines wait for a
// creation in progress; a call made by the creation itself, through a
// Provider handle, fails with a ReentrantError.
func (s *SingletonBinding) Get() (any, error) {
	var id uint64
	s.mu.Lock()
	for !s.done && s.builder != 0 {
		if id == 0 {
			id = goroutineID()
		}
		if s.builder == id {
			s.mu.Unlock()
			return nil, ReentrantError{Key: s.ProvideKey()}
		}
		ready := s.ready
		s.mu.Unlock()
		<-ready
		s.mu.Lock()
	}
	if s.done {
		v := s.value
		s.mu.Unlock()
		return v, nil
	}
	if id == 0 {
		id = goroutineID()
	}
	s.builder, s.ready = id, make(chan struct{})
	s.mu.Unlock()

	return s.create()
}

// create runs the delegate and publishes its value. A panicking delegate
// releases waiters without caching anything.
func (s *SingletonBinding) create() (any, error) {
	var (
		v        any
		err      error
		returned bool
	)
	defer func() {
		s.mu.Lock()
		if returned && err == nil {
			s.value, s.done = v, true
		}
		s.builder = 0
		close(s.ready)
		s.mu.Unlock()
	}()
	v, err = s.delegate.Get()
	returned = true
	return v, err
}

// goroutineID parses the id of the calling goroutine from its stack header,
// "goroutine 42 [running]:".
func goroutineID() uint64 {
	var buf [64]byte
	b := bytes.TrimPrefix(buf[:runtime.Stack(buf[:], false)], []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i > 0 {
		b = b[:i]
	}
	id, _ := strconv.ParseUint(string(b), 10, 64)
	return id
}
