package task

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/openclaw/missionctl/event"
)

// fakeStore records calls and returns canned results.
type fakeStore struct {
	tasks map[string]*Task
	prior Status
}

func newFakeStore() *fakeStore {
	return &fakeStore{tasks: map[string]*Task{}}
}

func (s *fakeStore) Create(t *Task) error {
	if _, ok := s.tasks[t.ID]; ok {
		return ErrConflict
	}
	s.tasks[t.ID] = t
	return nil
}

func (s *fakeStore) Get(id string) (*Task, error) {
	t, ok := s.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	return t, nil
}

func (s *fakeStore) UpdateFields(id string, f Fields) (Status, *Task, error) {
	t, ok := s.tasks[id]
	if !ok {
		return "", nil, ErrNotFound
	}
	prior := t.Status
	if f.Title != nil {
		t.Title = *f.Title
	}
	if f.Status != nil {
		t.Status = *f.Status
	}
	return prior, t, nil
}

func (s *fakeStore) Archive(id string) (*Task, error) {
	t, ok := s.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	t.Status = StatusArchived
	return t, nil
}

func (s *fakeStore) List(filter Filter) ([]*Task, error) { return nil, nil }

func (s *fakeStore) Relationships(id string) ([]Dependency, error) { return nil, nil }

func (s *fakeStore) AddDependency(taskID, dependsOn string) error { return nil }

func (s *fakeStore) AddLink(l *Link) (int64, error) { return 1, nil }

// recordingBus captures every published event.
type recordingBus struct {
	events []event.Event
}

func (b *recordingBus) Publish(e event.Event)            { b.events = append(b.events, e) }
func (b *recordingBus) Subscribe(h event.Handler) func() { return func() {} }

func newTestService(store Store, bus event.Bus) *Service {
	return NewService(store, bus, slog.Default())
}

func TestService_Create_PublishesCreated(t *testing.T) {
	bus := &recordingBus{}
	svc := newTestService(newFakeStore(), bus)

	if err := svc.Create(&Task{ID: "T1", Title: "x"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(bus.events) != 1 || bus.events[0].Type != event.TypeCreated {
		t.Fatalf("events = %v, want one created", bus.events)
	}
}

func TestService_Create_Defaults(t *testing.T) {
	svc := newTestService(newFakeStore(), nil)

	tk := &Task{ID: "T1", Title: "x"}
	if err := svc.Create(tk); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tk.Status != StatusNew {
		t.Errorf("Status = %q, want NEW", tk.Status)
	}
	if tk.Priority != PriorityMedium {
		t.Errorf("Priority = %q, want MEDIUM", tk.Priority)
	}
}

func TestService_Create_Validation(t *testing.T) {
	svc := newTestService(newFakeStore(), nil)

	if err := svc.Create(&Task{Title: "x"}); !errors.Is(err, ErrMissingID) {
		t.Errorf("no id = %v, want ErrMissingID", err)
	}
	if err := svc.Create(&Task{ID: "T1"}); !errors.Is(err, ErrMissingTitle) {
		t.Errorf("no title = %v, want ErrMissingTitle", err)
	}
	if err := svc.Create(&Task{ID: "T1", Title: "x", Status: "bogus"}); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("bad status = %v, want ErrInvalidStatus", err)
	}
	if err := svc.Create(&Task{ID: "T1", Title: "x", Priority: "bogus"}); !errors.Is(err, ErrInvalidPriority) {
		t.Errorf("bad priority = %v, want ErrInvalidPriority", err)
	}
}

func TestService_Update_EventSelection(t *testing.T) {
	store := newFakeStore()
	bus := &recordingBus{}
	svc := newTestService(store, bus)
	store.tasks["T1"] = &Task{ID: "T1", Title: "x", Status: StatusNew, Priority: PriorityMedium}

	// Title-only update keeps the status: plain updated event.
	if _, err := svc.Update("T1", Fields{Title: strPtr("y")}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(bus.events) != 1 || bus.events[0].Type != event.TypeUpdated {
		t.Fatalf("events = %v, want one updated", bus.events)
	}

	// Status change produces status_changed instead.
	if _, err := svc.Update("T1", Fields{Status: statusPtr(StatusInProgress)}); err != nil {
		t.Fatalf("Update status: %v", err)
	}
	if len(bus.events) != 2 || bus.events[1].Type != event.TypeStatusChanged {
		t.Fatalf("events = %v, want status_changed second", bus.events)
	}

	// Writing the same status again is just an update.
	if _, err := svc.Update("T1", Fields{Status: statusPtr(StatusInProgress)}); err != nil {
		t.Fatalf("Update same status: %v", err)
	}
	if len(bus.events) != 3 || bus.events[2].Type != event.TypeUpdated {
		t.Fatalf("events = %v, want updated third", bus.events)
	}
}

func TestService_Update_Rejections(t *testing.T) {
	store := newFakeStore()
	bus := &recordingBus{}
	svc := newTestService(store, bus)
	store.tasks["T1"] = &Task{ID: "T1", Title: "x", Status: StatusNew, Priority: PriorityMedium}

	if _, err := svc.Update("T1", Fields{}); !errors.Is(err, ErrEmptyUpdate) {
		t.Errorf("empty update = %v, want ErrEmptyUpdate", err)
	}
	if _, err := svc.Update("T1", Fields{Title: strPtr("")}); !errors.Is(err, ErrMissingTitle) {
		t.Errorf("blank title = %v, want ErrMissingTitle", err)
	}
	bad := Status("bogus")
	if _, err := svc.Update("T1", Fields{Status: &bad}); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("bad status = %v, want ErrInvalidStatus", err)
	}
	if len(bus.events) != 0 {
		t.Errorf("rejected updates published %d events, want 0", len(bus.events))
	}
}

func TestService_Archive_PublishesDeleted(t *testing.T) {
	store := newFakeStore()
	bus := &recordingBus{}
	svc := newTestService(store, bus)
	store.tasks["T1"] = &Task{ID: "T1", Title: "x", Status: StatusNew, Priority: PriorityMedium}

	got, err := svc.Archive("T1")
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if got.Status != StatusArchived {
		t.Errorf("Status = %q, want ARCHIVED", got.Status)
	}
	if len(bus.events) != 1 || bus.events[0].Type != event.TypeDeleted {
		t.Fatalf("events = %v, want one deleted", bus.events)
	}
}

func TestService_NilBus(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil)

	if err := svc.Create(&Task{ID: "T1", Title: "x"}); err != nil {
		t.Fatalf("Create with nil bus: %v", err)
	}
	if _, err := svc.Update("T1", Fields{Title: strPtr("y")}); err != nil {
		t.Fatalf("Update with nil bus: %v", err)
	}
	if _, err := svc.Archive("T1"); err != nil {
		t.Fatalf("Archive with nil bus: %v", err)
	}
}

func TestService_List_FilterValidation(t *testing.T) {
	svc := newTestService(newFakeStore(), nil)

	if _, err := svc.List(Filter{Status: "bogus"}); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("bad status filter = %v, want ErrInvalidStatus", err)
	}
	if _, err := svc.List(Filter{Priority: "bogus"}); !errors.Is(err, ErrInvalidPriority) {
		t.Errorf("bad priority filter = %v, want ErrInvalidPriority", err)
	}
	if _, err := svc.List(Filter{Status: StatusNew}); err != nil {
		t.Errorf("valid filter: %v", err)
	}
}
