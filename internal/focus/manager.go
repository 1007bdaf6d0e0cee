package focus

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/medentry/internal/logging"
)

// DefaultModalRestoreDelay is how long CloseModal waits before restoring
// focus, giving the dialog time to unmount.
const DefaultModalRestoreDelay = 100 * time.Millisecond

// Options configures a Manager
type Options struct {
	BaseScope         string
	HistoryLimit      int
	ModalRestoreDelay time.Duration
	Surface           Surface
	Scheduler         Scheduler
	Clock             Clock
	ModeStore         ModeStore
	Logger            *zap.Logger
}

// Option mutates Options
type Option func(*Options)

// WithBaseScope sets the scope used when no modal is open
func WithBaseScope(scope string) Option {
	return func(o *Options) { o.BaseScope = scope }
}

// WithHistoryLimit bounds the focus history
func WithHistoryLimit(n int) Option {
	return func(o *Options) { o.HistoryLimit = n }
}

// WithModalRestoreDelay overrides DefaultModalRestoreDelay
func WithModalRestoreDelay(d time.Duration) Option {
	return func(o *Options) { o.ModalRestoreDelay = d }
}

// WithSurface attaches the surface that receives real focus
func WithSurface(s Surface) Option {
	return func(o *Options) { o.Surface = s }
}

// WithScheduler replaces the frame scheduler
func WithScheduler(s Scheduler) Option {
	return func(o *Options) { o.Scheduler = s }
}

// WithClock replaces the wall clock
func WithClock(c Clock) Option {
	return func(o *Options) { o.Clock = c }
}

// WithModeStore persists the navigation mode
func WithModeStore(s ModeStore) Option {
	return func(o *Options) { o.ModeStore = s }
}

// WithLogger sets the logger; defaults to the package-level logger
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// Result is the outcome of a single focus request.
// Committed means the store now points at ID; Focused means the surface
// accepted the placement as well.
type Result struct {
	ID        string
	Committed bool
	Focused   bool
	Err       error
}

// pending is a FocusField call whose target was not yet registered
type pending struct {
	id  string
	seq uint64
}

// Manager owns the registry, the state store and the mode tracker, and is
// the only writer of focus state.
type Manager struct {
	registry     *Registry
	store        *Store
	modes        *ModeTracker
	surface      Surface
	sched        Scheduler
	clock        Clock
	log          *zap.Logger
	restoreDelay time.Duration

	// mu guards seq and waiting
	mu      sync.Mutex
	seq     uint64
	waiting *pending

	// commitMu makes "still the latest request?" and the store write atomic
	commitMu sync.Mutex
}

// New creates a Manager. Without options it uses the default scope, a
// timer-driven scheduler and a surface that accepts every placement.
func New(opts ...Option) *Manager {
	o := Options{
		BaseScope:         DefaultScope,
		HistoryLimit:      DefaultHistoryLimit,
		ModalRestoreDelay: DefaultModalRestoreDelay,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Surface == nil {
		o.Surface = &nopSurface{}
	}
	if o.Scheduler == nil {
		o.Scheduler = NewFrameScheduler()
	}
	if o.Clock == nil {
		o.Clock = SystemClock{}
	}
	if o.Logger == nil {
		o.Logger = logging.GetLogger()
	}

	return &Manager{
		registry:     NewRegistry(),
		store:        NewStore(o.BaseScope, o.HistoryLimit),
		modes:        NewModeTracker(o.Clock, o.ModeStore),
		surface:      o.Surface,
		sched:        o.Scheduler,
		clock:        o.Clock,
		log:          o.Logger.Named("focus"),
		restoreDelay: o.ModalRestoreDelay,
	}
}

// Registry exposes the element registry for read access
func (m *Manager) Registry() *Registry { return m.registry }

// Modes exposes the navigation mode tracker
func (m *Manager) Modes() *ModeTracker { return m.modes }

// Snapshot returns a copy of the current focus state
func (m *Manager) Snapshot() State { return m.store.Snapshot() }

// Subscribe registers a listener for committed state changes
func (m *Manager) Subscribe(fn Listener) func() { return m.store.Subscribe(fn) }

// CurrentID returns the id holding logical focus, "" for none
func (m *Manager) CurrentID() string { return m.store.Snapshot().CurrentID }

// SetSurface swaps the surface, used when the form mounts after the manager exists
func (m *Manager) SetSurface(s Surface) {
	if s == nil {
		s = &nopSurface{}
	}
	m.mu.Lock()
	m.surface = s
	m.mu.Unlock()
}

func (m *Manager) surfaceRef() Surface {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.surface
}

// RestoreMode loads the persisted navigation mode into the tracker and the store
func (m *Manager) RestoreMode() error {
	if err := m.modes.Restore(); err != nil {
		return err
	}
	m.syncMode()
	return nil
}

// GetNavigationMode returns the tracker's current mode
func (m *Manager) GetNavigationMode() Mode { return m.modes.Mode() }

// SetNavigationMode overrides the tracked mode
func (m *Manager) SetNavigationMode(mode Mode) {
	m.modes.SetMode(mode)
	m.syncMode()
}

func (m *Manager) syncMode() {
	mode := m.modes.Mode()
	mouse := m.modes.MouseHistory()
	m.store.update(func(s *State) {
		s.Mode = mode
		s.MouseHistory = mouse
	})
}

// SetEnabled turns the whole manager on or off. A disabled manager refuses
// every navigation request; recovery operations still work.
func (m *Manager) SetEnabled(enabled bool) {
	m.store.update(func(s *State) { s.Enabled = enabled })
	m.log.Debug("focus manager toggled", zap.Bool("enabled", enabled))
}

// RegisterElement adds or replaces an element. Elements without a scope go
// into the base scope. Registering the target of a pending FocusField
// resolves that navigation in the background.
func (m *Manager) RegisterElement(el Element) error {
	if el.Scope == "" {
		el.Scope = m.store.Snapshot().BaseScope
	}
	if err := m.registry.Register(el); err != nil {
		return err
	}

	m.mu.Lock()
	p := m.waiting
	resolve := p != nil && p.id == el.ID && p.seq == m.seq
	if p != nil && p.id == el.ID {
		m.waiting = nil
	}
	m.mu.Unlock()

	if resolve {
		m.log.Debug("resolving pending focus", zap.String("id", el.ID))
		go m.focus(context.Background(), el.ID, p.seq)
	}
	return nil
}

// UnregisterElement removes an element. When it held focus, focus falls
// back to the first focusable element of the active scope, or to the root.
func (m *Manager) UnregisterElement(id string) bool {
	if !m.registry.Unregister(id) {
		return false
	}

	m.mu.Lock()
	if m.waiting != nil && m.waiting.id == id {
		m.waiting = nil
	}
	m.mu.Unlock()

	// Under commitMu so a request committing id concurrently is either
	// refused by admissible or seen here as the current focus.
	m.commitMu.Lock()
	if m.store.Snapshot().CurrentID != id {
		m.commitMu.Unlock()
		return true
	}
	var fallback string
	committed := m.store.mutate(func(s *State) {
		if s.CurrentID != id {
			fallback = s.CurrentID
			return
		}
		fallback = m.firstFocusable(s.ActiveScope)
		s.CurrentID = fallback
	})
	m.commitMu.Unlock()
	m.store.notify(committed)

	m.log.Debug("focused element unregistered", zap.String("id", id), zap.String("fallback", fallback))
	m.place(fallback)
	return true
}

func (m *Manager) firstFocusable(scope string) string {
	if els := m.registry.FocusableInScope(scope); len(els) > 0 {
		return els[0].ID
	}
	return ""
}

func (m *Manager) nextRequest() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	return m.seq
}

func (m *Manager) superseded(seq uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seq != seq
}

// FocusField moves focus to id and reports whether real focus landed there.
func (m *Manager) FocusField(ctx context.Context, id string) bool {
	return m.TryFocus(ctx, id).Focused
}

// TryFocus is FocusField with the refusal reason.
func (m *Manager) TryFocus(ctx context.Context, id string) Result {
	return m.focus(ctx, id, m.nextRequest())
}

func (m *Manager) focus(ctx context.Context, id string, seq uint64) Result {
	refuse := func(err *Error) Result {
		m.log.Debug("focus refused", zap.String("id", id), zap.Stringer("reason", err.Type), zap.Error(err))
		return Result{ID: id, Err: err}
	}

	st := m.store.Snapshot()
	if !st.Enabled {
		return refuse(newError(ErrTypeDisabled, id, "focus manager is disabled"))
	}

	el, ok := m.registry.Get(id)
	if !ok {
		m.mu.Lock()
		if m.seq == seq {
			m.waiting = &pending{id: id, seq: seq}
		}
		m.mu.Unlock()
		m.log.Debug("focus target not registered", zap.String("id", id))
		return Result{ID: id, Err: newError(ErrTypeNotRegistered, id, "element %q is not registered", id)}
	}
	if !el.Focusable() {
		return refuse(newError(ErrTypeNotFocusable, id, "element %q is disabled", id))
	}
	if top, open := st.TopModal(); open && el.Scope != top.Scope {
		return refuse(newError(ErrTypeOutsideModal, id, "element %q is outside modal scope %q", id, top.Scope))
	}

	if st.CurrentID != id {
		if cur, ok := m.registry.Get(st.CurrentID); ok {
			allowed, err := runValidator(ctx, cur.Validators.CanLeaveFocus)
			if !allowed {
				e := newError(ErrTypeLeaveRefused, st.CurrentID, "element %q refused to release focus", st.CurrentID)
				e.Err = err
				return refuse(e)
			}
		}
		if m.superseded(seq) {
			return refuse(newError(ErrTypeSuperseded, id, "request for %q superseded", id))
		}

		allowed, err := runValidator(ctx, el.Validators.CanReceiveFocus)
		if !allowed {
			e := newError(ErrTypeReceiveRefused, id, "element %q refused focus", id)
			e.Err = err
			return refuse(e)
		}
	}

	m.commitMu.Lock()
	if m.superseded(seq) {
		m.commitMu.Unlock()
		return refuse(newError(ErrTypeSuperseded, id, "request for %q superseded", id))
	}
	// The registry and the modal stack may have changed while validators ran
	if err := m.admissible(id); err != nil {
		m.commitMu.Unlock()
		return refuse(err)
	}
	el, _ = m.registry.Get(id)
	m.mu.Lock()
	m.waiting = nil
	m.mu.Unlock()
	committed := m.store.mutate(func(s *State) {
		if s.CurrentID != id {
			m.store.pushHistory(s, s.CurrentID)
		}
		s.CurrentID = id
		if len(s.ModalStack) == 0 {
			s.ActiveScope = el.Scope
		}
	})
	m.commitMu.Unlock()
	m.store.notify(committed)

	return m.settle(ctx, id, seq)
}

// admissible re-checks id against the current registry and modal stack.
// Callers hold commitMu.
func (m *Manager) admissible(id string) *Error {
	el, ok := m.registry.Get(id)
	if !ok {
		return newError(ErrTypeNotRegistered, id, "element %q was unregistered", id)
	}
	if !el.Focusable() {
		return newError(ErrTypeNotFocusable, id, "element %q is disabled", id)
	}
	if top, open := m.store.Snapshot().TopModal(); open && el.Scope != top.Scope {
		return newError(ErrTypeOutsideModal, id, "element %q is outside modal scope %q", id, top.Scope)
	}
	return nil
}

// settle waits one frame and places real focus unless a newer request
// took over in the meantime.
func (m *Manager) settle(ctx context.Context, id string, seq uint64) Result {
	res := Result{ID: id, Committed: true}
	if err := m.sched.NextFrame(ctx); err != nil {
		e := newError(ErrTypeCanceled, id, "frame wait for %q interrupted", id)
		e.Err = err
		res.Err = e
		return res
	}
	if m.superseded(seq) {
		res.Err = newError(ErrTypeSuperseded, id, "placement for %q superseded", id)
		return res
	}
	if !m.surfaceRef().Focus(id) {
		m.log.Debug("surface rejected focus", zap.String("id", id))
		res.Err = newError(ErrTypePlacement, id, "surface did not accept focus on %q", id)
		return res
	}
	res.Focused = true
	return res
}

// force commits id without validators and places it. Used by modal
// transitions and recovery, which must not be vetoed by the element being
// left behind.
func (m *Manager) force(ctx context.Context, id string, seq uint64, mutate func(*State)) Result {
	m.commitMu.Lock()
	if m.superseded(seq) {
		m.commitMu.Unlock()
		return Result{ID: id, Err: newError(ErrTypeSuperseded, id, "request for %q superseded", id)}
	}
	committed := m.store.mutate(func(s *State) {
		if mutate != nil {
			mutate(s)
		}
		if s.CurrentID != id {
			m.store.pushHistory(s, s.CurrentID)
		}
		s.CurrentID = id
	})
	m.commitMu.Unlock()
	m.store.notify(committed)

	if id == "" {
		m.surfaceRef().FocusRoot()
		return Result{Committed: true}
	}
	return m.settle(ctx, id, seq)
}

// place puts real focus on id immediately, or on the root when id is empty
// or refused.
func (m *Manager) place(id string) bool {
	s := m.surfaceRef()
	if id != "" && s.Focus(id) {
		return true
	}
	s.FocusRoot()
	return false
}

// neighbor finds the next focusable element after the current one in
// direction dir (+1 or -1), wrapping around the active scope.
func (m *Manager) neighbor(dir int) (string, bool) {
	st := m.store.Snapshot()
	all := m.registry.ElementsInScope(st.ActiveScope)
	n := len(all)
	if n == 0 {
		return "", false
	}

	start := -1
	if dir < 0 {
		start = n
	}
	for i, el := range all {
		if el.ID == st.CurrentID {
			start = i
			break
		}
	}

	for k := 1; k <= n; k++ {
		i := ((start+dir*k)%n + n) % n
		if all[i].Focusable() {
			return all[i].ID, true
		}
	}
	return "", false
}

// FocusNext moves to the next element in tab order, wrapping at the end.
func (m *Manager) FocusNext(ctx context.Context) bool {
	id, ok := m.neighbor(+1)
	if !ok {
		m.log.Debug("no focusable element in active scope")
		return false
	}
	return m.FocusField(ctx, id)
}

// FocusPrevious moves to the previous element in tab order, wrapping at the start.
func (m *Manager) FocusPrevious(ctx context.Context) bool {
	id, ok := m.neighbor(-1)
	if !ok {
		m.log.Debug("no focusable element in active scope")
		return false
	}
	return m.FocusField(ctx, id)
}

// FocusFirst focuses the first focusable element of the active scope
func (m *Manager) FocusFirst(ctx context.Context) bool {
	id := m.firstFocusable(m.store.Snapshot().ActiveScope)
	if id == "" {
		return false
	}
	return m.FocusField(ctx, id)
}

// FocusLast focuses the last focusable element of the active scope
func (m *Manager) FocusLast(ctx context.Context) bool {
	els := m.registry.FocusableInScope(m.store.Snapshot().ActiveScope)
	if len(els) == 0 {
		return false
	}
	return m.FocusField(ctx, els[len(els)-1].ID)
}

// CanJumpToNode reports whether FocusField(id) would pass every check,
// without changing anything.
func (m *Manager) CanJumpToNode(ctx context.Context, id string) bool {
	st := m.store.Snapshot()
	if !st.Enabled {
		return false
	}
	el, ok := m.registry.Get(id)
	if !ok || !el.Focusable() {
		return false
	}
	if top, open := st.TopModal(); open && el.Scope != top.Scope {
		return false
	}
	if st.CurrentID == id {
		return true
	}
	if cur, ok := m.registry.Get(st.CurrentID); ok {
		if allowed, _ := runValidator(ctx, cur.Validators.CanLeaveFocus); !allowed {
			return false
		}
	}
	allowed, _ := runValidator(ctx, el.Validators.CanReceiveFocus)
	return allowed
}
