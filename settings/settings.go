// Package settings keeps application state on disk. Objects that implement
// serial.Serializable are attached under document keys; Save writes each to
// the store and Load reads them back, optionally validating against a CUE
// schema first. AutoSave connects a trigger so that bursts of changes
// collapse into one debounced save on the manager's scheduler.
package settings

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tliron/commonlog"

	"github.com/chazu/mira/binding"
	"github.com/chazu/mira/schema"
	"github.com/chazu/mira/sched"
	"github.com/chazu/mira/serial"
	"github.com/chazu/mira/store"
)

var log = commonlog.GetLogger("mira.settings")

// Option configures a Manager.
type Option func(*managerConfig)

type managerConfig struct {
	registry *binding.Registry
	queue    sched.Scheduler
	schema   *schema.Schema
	delay    time.Duration
}

// WithRegistry sets the binding registry the manager registers itself in.
// Without this, the default registry is used.
func WithRegistry(r *binding.Registry) Option {
	return func(c *managerConfig) { c.registry = r }
}

// WithScheduler sets the scheduler autosaves run on. Without this, saves
// run on whatever goroutine the debounce timer fires on.
func WithScheduler(s sched.Scheduler) Option {
	return func(c *managerConfig) { c.queue = s }
}

// WithSchema sets a schema that documents must conform to before Load
// applies them.
func WithSchema(s *schema.Schema) Option {
	return func(c *managerConfig) { c.schema = s }
}

// WithAutosaveDelay sets the debounce window for AutoSave.
func WithAutosaveDelay(d time.Duration) Option {
	return func(c *managerConfig) { c.delay = d }
}

// DefaultAutosaveDelay is the debounce window used when none is configured.
const DefaultAutosaveDelay = 500 * time.Millisecond

type attachment struct {
	key string
	obj serial.Serializable
}

// Manager loads and saves attached Serializable objects through a store.
// The store is borrowed: Close does not close it.
type Manager struct {
	st    store.Store
	reg   *binding.Registry
	queue sched.Scheduler
	sch   *schema.Schema
	delay time.Duration

	mu       sync.Mutex
	attached []attachment

	armed atomic.Bool // an autosave is pending

	life         binding.Lifetime
	registration *binding.Registration
}

// New creates a Manager over the given store.
func New(st store.Store, opts ...Option) *Manager {
	cfg := &managerConfig{delay: DefaultAutosaveDelay}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.registry == nil {
		cfg.registry = binding.Default()
	}

	m := &Manager{
		st:    st,
		reg:   cfg.registry,
		queue: cfg.queue,
		sch:   cfg.schema,
		delay: cfg.delay,
	}
	m.registration = binding.Register(cfg.registry, m, cfg.queue)
	return m
}

// Close detaches the manager from its registry, severing any AutoSave
// listeners. It does not close the underlying store.
func (m *Manager) Close() {
	m.registration.Close()
}

// Attach registers obj under the document key. Attaching an existing key
// replaces the previous object.
func (m *Manager) Attach(key string, obj serial.Serializable) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.attached {
		if m.attached[i].key == key {
			m.attached[i].obj = obj
			return
		}
	}
	m.attached = append(m.attached, attachment{key: key, obj: obj})
}

func (m *Manager) snapshot() []attachment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]attachment, len(m.attached))
	copy(out, m.attached)
	return out
}

// Save serializes every attached object and writes it to the store.
func (m *Manager) Save() error {
	for _, a := range m.snapshot() {
		node := serial.SaveNode(a.obj)
		if _, err := m.st.Put(a.key, node); err != nil {
			return fmt.Errorf("settings: save %q: %w", a.key, err)
		}
		log.Debugf("saved %q", a.key)
	}
	return nil
}

// Load reads every attached document from the store and applies it. A
// document that does not exist yet is skipped. When a schema is
// configured, documents must validate before they are applied. Fields the
// documents do not account for keep their current values; the total
// miss count is returned.
func (m *Manager) Load() (int, error) {
	misses := 0
	for _, a := range m.snapshot() {
		node, _, err := m.st.Get(a.key)
		if errors.Is(err, store.ErrNoDocument) {
			log.Infof("no stored document %q yet", a.key)
			continue
		}
		if err != nil {
			return misses, fmt.Errorf("settings: load %q: %w", a.key, err)
		}
		if m.sch != nil {
			if err := m.sch.Validate(node); err != nil {
				return misses, fmt.Errorf("settings: load %q: %w", a.key, err)
			}
		}
		n := serial.LoadNode(node, a.obj)
		if n > 0 {
			log.Debugf("%d field(s) missed loading %q", n, a.key)
		}
		misses += n
	}
	return misses, nil
}

// AutoSave connects a trigger to the manager: each fire arms a debounced
// save, and fires within one window collapse into a single Save on the
// manager's scheduler. The returned handle disconnects it.
func AutoSave[T any](m *Manager, t *binding.Trigger[T]) binding.Handle {
	return binding.Listen(m.reg, &m.life, t.Value(), func(T) {
		m.arm()
	}, binding.WithMode(binding.Deferred))
}

func (m *Manager) arm() {
	if !m.armed.CompareAndSwap(false, true) {
		return
	}
	if m.delay <= 0 {
		m.dispatchSave()
		return
	}
	time.AfterFunc(m.delay, m.dispatchSave)
}

func (m *Manager) dispatchSave() {
	run := func() {
		m.armed.Store(false)
		if err := m.Save(); err != nil {
			log.Errorf("autosave failed: %v", err)
		}
	}
	if m.queue == nil {
		run()
		return
	}
	m.queue.Dispatch(run, sched.NeverInline)
}
