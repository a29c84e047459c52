package chart

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeEngine struct {
	mu       sync.Mutex
	calls    []string
	options  []Option
	sizes    []Size
	resizeAt []time.Time
	events   Events
	disposed bool
}

func (e *fakeEngine) record(call string) error {
	if e.disposed {
		e.calls = append(e.calls, call+"-after-dispose")
		return ErrDisposed
	}
	e.calls = append(e.calls, call)
	return nil
}

func (e *fakeEngine) SetOption(opt Option) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.record("setOption"); err != nil {
		return err
	}
	e.options = append(e.options, opt)
	return nil
}

func (e *fakeEngine) Resize(size Size) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.record("resize"); err != nil {
		return err
	}
	e.sizes = append(e.sizes, size)
	e.resizeAt = append(e.resizeAt, time.Now())
	return nil
}

func (e *fakeEngine) Subscribe(events Events) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = events
}

func (e *fakeEngine) Dispose() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.record("dispose"); err != nil {
		return err
	}
	e.disposed = true
	return nil
}

func (e *fakeEngine) snapshot() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

func (e *fakeEngine) count(call string) int {
	n := 0
	for _, c := range e.snapshot() {
		if c == call {
			n++
		}
	}
	return n
}

type fakeContainer struct {
	mu         sync.Mutex
	size       Size
	observers  map[int]func(Size)
	next       int
	observeErr error
}

func newFakeContainer() *fakeContainer {
	return &fakeContainer{size: Size{Width: 800, Height: 350}, observers: make(map[int]func(Size))}
}

func (c *fakeContainer) ID() string { return "fake" }

func (c *fakeContainer) Size() Size {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

func (c *fakeContainer) Observe(fn func(Size)) (func(), error) {
	if c.observeErr != nil {
		return nil, c.observeErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.next
	c.next++
	c.observers[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.observers, id)
	}, nil
}

func (c *fakeContainer) setSize(s Size) {
	c.mu.Lock()
	c.size = s
	fns := make([]func(Size), 0, len(c.observers))
	for _, fn := range c.observers {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

func (c *fakeContainer) observerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.observers)
}

func newTestWidget(engine *fakeEngine, opts ...WidgetOption) (*Widget[StackedInput], *int) {
	created := 0
	factory := func(Container) (Engine, error) {
		created++
		return engine, nil
	}
	return NewStackedChart(factory, opts...), &created
}

func TestWidgetMountCreatesOneEngine(t *testing.T) {
	engine := &fakeEngine{}
	w, created := newTestWidget(engine)
	c := newFakeContainer()

	if err := w.Mount(c); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	defer w.Unmount()

	if *created != 1 {
		t.Errorf("expected 1 engine, got %d", *created)
	}
	if w.State() != StateInitialized {
		t.Errorf("expected initialized, got %s", w.State())
	}
	if c.observerCount() != 1 {
		t.Errorf("expected 1 observer, got %d", c.observerCount())
	}
	if len(engine.snapshot()) != 0 {
		t.Errorf("mount must not apply an option, got calls %v", engine.snapshot())
	}
	if err := w.Mount(c); err == nil {
		t.Error("expected error on second mount")
	}
}

func TestWidgetUpdateBeforeMount(t *testing.T) {
	w, _ := newTestWidget(&fakeEngine{})
	if err := w.Update(StackedInput{}); !errors.Is(err, ErrNotMounted) {
		t.Fatalf("expected ErrNotMounted, got %v", err)
	}
}

func TestWidgetUpdateIsIdempotent(t *testing.T) {
	engine := &fakeEngine{}
	w, created := newTestWidget(engine)
	if err := w.Mount(newFakeContainer()); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	defer w.Unmount()

	in := stackedFixture()
	for i := 0; i < 2; i++ {
		if err := w.Update(in); err != nil {
			t.Fatalf("Update %d failed: %v", i, err)
		}
	}

	if *created != 1 {
		t.Errorf("updates must reuse the engine, got %d instances", *created)
	}
	if w.State() != StateUpdated {
		t.Errorf("expected updated, got %s", w.State())
	}

	first, _ := json.Marshal(engine.options[0])
	second, _ := json.Marshal(engine.options[1])
	if string(first) != string(second) {
		t.Errorf("same input produced different options:\n%s\n%s", first, second)
	}
}

func TestWidgetResizeDebounce(t *testing.T) {
	engine := &fakeEngine{}
	w, _ := newTestWidget(engine)
	c := newFakeContainer()
	if err := w.Mount(c); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	defer w.Unmount()

	var last time.Time
	for i := 0; i < 5; i++ {
		c.setSize(Size{Width: 800 + i, Height: 350})
		last = time.Now()
		time.Sleep(2 * time.Millisecond)
	}

	time.Sleep(150 * time.Millisecond)

	if n := engine.count("resize"); n != 1 {
		t.Fatalf("expected exactly 1 resize, got %d", n)
	}

	engine.mu.Lock()
	at := engine.resizeAt[0]
	size := engine.sizes[0]
	engine.mu.Unlock()

	if gap := at.Sub(last); gap < DefaultResizeDelay {
		t.Errorf("resize ran %v after the last notification, want >= %v", gap, DefaultResizeDelay)
	}
	if size.Width != 804 {
		t.Errorf("resize should use the latest size, got %s", size)
	}
}

func TestWidgetUnmountCancelsPendingResize(t *testing.T) {
	engine := &fakeEngine{}
	w, _ := newTestWidget(engine)
	c := newFakeContainer()
	if err := w.Mount(c); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	if err := w.Update(stackedFixture()); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	c.setSize(Size{Width: 400, Height: 200})
	w.Unmount()
	c.setSize(Size{Width: 300, Height: 200})

	time.Sleep(120 * time.Millisecond)

	calls := engine.snapshot()
	want := []string{"setOption", "dispose"}
	if len(calls) != len(want) {
		t.Fatalf("expected calls %v, got %v", want, calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("expected calls %v, got %v", want, calls)
		}
	}

	if c.observerCount() != 0 {
		t.Errorf("observer still attached after unmount")
	}
	if err := w.Update(stackedFixture()); !errors.Is(err, ErrDisposed) {
		t.Errorf("expected ErrDisposed after unmount, got %v", err)
	}

	w.Unmount()
	if n := engine.count("dispose"); n != 1 {
		t.Errorf("expected dispose exactly once, got %d", n)
	}
}

func TestWidgetUnmountAfterObserveFailure(t *testing.T) {
	engine := &fakeEngine{}
	w, _ := newTestWidget(engine)
	c := newFakeContainer()
	c.observeErr = errors.New("observer unavailable")

	if err := w.Mount(c); err == nil {
		t.Fatal("expected mount error")
	}

	w.Unmount()
	if n := engine.count("dispose"); n != 1 {
		t.Errorf("expected engine disposed after failed mount, got %d", n)
	}
}

func TestWidgetUnmountAfterFactoryFailure(t *testing.T) {
	w := NewFlowChart(func(Container) (Engine, error) {
		return nil, errors.New("no canvas")
	})

	if err := w.Mount(newFakeContainer()); err == nil {
		t.Fatal("expected mount error")
	}
	w.Unmount()
	if w.State() != StateDisposed {
		t.Errorf("expected disposed, got %s", w.State())
	}
}

func TestWidgetSubscribesEvents(t *testing.T) {
	engine := &fakeEngine{}
	var clicked ClickEvent
	w, _ := newTestWidget(engine, WithEvents(Events{
		OnClick: func(ev ClickEvent) { clicked = ev },
	}))
	if err := w.Mount(newFakeContainer()); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	defer w.Unmount()

	if engine.events.OnClick == nil {
		t.Fatal("click handler not subscribed")
	}
	if names := engine.events.Names(); len(names) != 1 || names[0] != EventClick {
		t.Errorf("unexpected subscribed events %v", names)
	}

	engine.events.OnClick(ClickEvent{SeriesName: "uvIndex", DataIndex: 3})
	if clicked.SeriesName != "uvIndex" || clicked.DataIndex != 3 {
		t.Errorf("unexpected click %+v", clicked)
	}
}
