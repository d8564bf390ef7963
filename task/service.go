package task

import (
	"fmt"
	"log/slog"

	"github.com/openclaw/missionctl/event"
)

// Service orchestrates task reads and writes against a Store and publishes
// lifecycle events on mutation. Publishing is fire-and-forget: a bus with no
// subscribers never blocks or fails the mutating request.
type Service struct {
	store  Store
	bus    event.Bus
	logger *slog.Logger
}

// NewService constructs a Service. bus may be nil, in which case no events
// are published.
func NewService(store Store, bus event.Bus, logger *slog.Logger) *Service {
	return &Service{store: store, bus: bus, logger: logger}
}

// List returns tasks matching the filter, newest first.
func (s *Service) List(filter Filter) ([]*Task, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, filter.Status)
	}
	if filter.Priority != "" && !filter.Priority.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPriority, filter.Priority)
	}
	return s.store.List(filter)
}

// Get returns the task with the given ID.
func (s *Service) Get(id string) (*Task, error) {
	return s.store.Get(id)
}

// Create validates and persists a new task, then publishes a created event.
// The caller supplies the ID; priority defaults to MEDIUM and status to NEW.
func (s *Service) Create(t *Task) error {
	if t.ID == "" {
		return ErrMissingID
	}
	if t.Title == "" {
		return ErrMissingTitle
	}
	if t.Status == "" {
		t.Status = StatusNew
	}
	if !t.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, t.Status)
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, t.Priority)
	}

	if err := s.store.Create(t); err != nil {
		return err
	}
	s.publish(event.TypeCreated, t)
	return nil
}

// Update applies a partial update. It publishes status_changed when the
// status differs from before, otherwise updated, with the new full record.
func (s *Service) Update(id string, f Fields) (*Task, error) {
	if f.Empty() {
		return nil, ErrEmptyUpdate
	}
	if f.Status != nil && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, *f.Status)
	}
	if f.Priority != nil && !f.Priority.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPriority, *f.Priority)
	}
	if f.Title != nil && *f.Title == "" {
		return nil, ErrMissingTitle
	}

	prior, t, err := s.store.UpdateFields(id, f)
	if err != nil {
		return nil, err
	}
	if t.Status != prior {
		s.publish(event.TypeStatusChanged, t)
	} else {
		s.publish(event.TypeUpdated, t)
	}
	return t, nil
}

// Archive sets the task's status to ARCHIVED regardless of its current
// state and publishes a deleted event. Records are never physically removed.
func (s *Service) Archive(id string) (*Task, error) {
	t, err := s.store.Archive(id)
	if err != nil {
		return nil, err
	}
	s.publish(event.TypeDeleted, t)
	return t, nil
}

// Relationships returns dependency edges touching id in either direction.
func (s *Service) Relationships(id string) ([]Dependency, error) {
	return s.store.Relationships(id)
}

// AddDependency records a dependency edge for the task.
func (s *Service) AddDependency(taskID, dependsOn string) error {
	if taskID == "" || dependsOn == "" {
		return ErrMissingID
	}
	return s.store.AddDependency(taskID, dependsOn)
}

// AddLink appends a link to the task and returns the generated link ID.
func (s *Service) AddLink(l *Link) (int64, error) {
	if l.TaskID == "" {
		return 0, ErrMissingID
	}
	return s.store.AddLink(l)
}

func (s *Service) publish(typ event.Type, t *Task) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(event.Event{Type: typ, Task: t})
	s.logger.Debug("task event published",
		slog.String("type", string(typ)), slog.String("task", t.ID))
}
