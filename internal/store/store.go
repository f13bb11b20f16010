package store

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/state"
)

// Event описывает один завершённый dispatch.
type Event struct {
	Action   state.Action
	Prev     state.RootState
	Next     state.RootState
	Duration time.Duration
	At       time.Time
}

// Observer получает события dispatch. Вызывается синхронно под блокировкой store,
// поэтому реализация не должна блокироваться и не должна вызывать Dispatch.
// Медленную работу (запись в БД, сеть) наблюдатель выносит в свою горутину.
type Observer interface {
	ObserveDispatch(event Event)
}

// ObserverFunc адаптирует функцию к Observer.
type ObserverFunc func(event Event)

// ObserveDispatch вызывает f(event).
func (f ObserverFunc) ObserveDispatch(event Event) { f(event) }

// Listener вызывается после dispatch вне блокировки store.
type Listener func(action state.Action, prev, next state.RootState)

// Options задаёт параметры Store.
type Options struct {
	Logger    *log.Entry
	Initial   *state.RootState
	Observers []Observer
	Clock     func() time.Time
}

// Option настраивает Store.
type Option func(*Options)

// WithLogger задаёт logger для store.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithInitialState задаёт начальное состояние вместо InitialRootState.
func WithInitialState(initial state.RootState) Option {
	return func(opts *Options) {
		opts.Initial = &initial
	}
}

// WithObserver добавляет наблюдателя dispatch (метрики, журнал действий).
func WithObserver(observer Observer) Option {
	return func(opts *Options) {
		if observer != nil {
			opts.Observers = append(opts.Observers, observer)
		}
	}
}

// WithClock подменяет источник времени (для тестов).
func WithClock(clock func() time.Time) Option {
	return func(opts *Options) {
		opts.Clock = clock
	}
}

type subscription struct {
	id       uint64
	listener Listener
}

// Store хранит RootState и последовательно применяет к нему действия.
type Store struct {
	mu        sync.RWMutex
	current   state.RootState
	observers []Observer
	logger    *log.Entry
	clock     func() time.Time

	subsMu sync.Mutex
	subs   []subscription
	nextID uint64
}

// New создаёт store.
func New(options ...Option) *Store {
	opts := Options{Clock: time.Now}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "store")
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	initial := state.InitialRootState()
	if opts.Initial != nil {
		initial = *opts.Initial
	}

	return &Store{
		current:   initial,
		observers: opts.Observers,
		logger:    logger,
		clock:     opts.Clock,
	}
}

// State возвращает текущий снимок состояния.
func (s *Store) State() state.RootState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Dispatch применяет действие и возвращает новый снимок. nil-действие ничего не меняет.
func (s *Store) Dispatch(action state.Action) state.RootState {
	if action == nil {
		return s.State()
	}

	s.mu.Lock()
	started := s.clock()
	prev := s.current
	next := state.Reduce(prev, action)
	s.current = next

	event := Event{
		Action:   action,
		Prev:     prev,
		Next:     next,
		Duration: s.clock().Sub(started),
		At:       started,
	}
	for _, observer := range s.observers {
		observer.ObserveDispatch(event)
	}
	s.mu.Unlock()

	s.logDispatch(action)

	for _, sub := range s.listeners() {
		sub.listener(action, prev, next)
	}
	return next
}

// Subscribe регистрирует listener и возвращает функцию отписки. Повторный вызов отписки безопасен.
func (s *Store) Subscribe(listener Listener) (unsubscribe func()) {
	if listener == nil {
		return func() {}
	}

	s.subsMu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, listener: listener})
	s.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			defer s.subsMu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Store) listeners() []subscription {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	if len(s.subs) == 0 {
		return nil
	}
	return append([]subscription(nil), s.subs...)
}

func (s *Store) logDispatch(action state.Action) {
	entry := s.logger.WithFields(log.Fields{
		"domain": action.Domain(),
		"type":   action.Type(),
	})

	if fail, ok := action.(state.FailAction); ok {
		entry.WithField("error", fail.Failure()).Warn("action failed")
		return
	}
	entry.Debug("action dispatched")
}
