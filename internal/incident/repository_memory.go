package incident

import (
	"context"
	"sort"
	"sync"
	"time"
)

type InMemoryRepository struct {
	mu        sync.RWMutex
	incidents map[int64]*Incident
	nextID    int64
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		incidents: make(map[int64]*Incident),
		nextID:    1,
	}
}

func (r *InMemoryRepository) Create(ctx context.Context, incident *Incident) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	incident.ID = r.nextID
	r.nextID++
	if incident.ReportedAt.IsZero() {
		incident.ReportedAt = time.Now().UTC()
	}
	if incident.Attachments == nil {
		incident.Attachments = []string{}
	}

	r.incidents[incident.ID] = clone(incident)
	return nil
}

func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) ([]*Incident, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Incident, 0, len(r.incidents))
	for _, inc := range r.incidents {
		if filter.ReporterID != "" && inc.ReporterID != filter.ReporterID {
			continue
		}
		out = append(out, clone(inc))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id int64) (*Incident, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inc, ok := r.incidents[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(inc), nil
}

func (r *InMemoryRepository) Update(ctx context.Context, incident *Incident) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.incidents[incident.ID]; !ok {
		return ErrNotFound
	}
	r.incidents[incident.ID] = clone(incident)
	return nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.incidents[id]; !ok {
		return false, nil
	}
	delete(r.incidents, id)
	return true, nil
}

func (r *InMemoryRepository) AddAttachment(ctx context.Context, id int64, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	inc, ok := r.incidents[id]
	if !ok {
		return ErrNotFound
	}
	inc.Attachments = append(inc.Attachments, url)
	return nil
}

func clone(in *Incident) *Incident {
	out := *in
	out.Attachments = append([]string{}, in.Attachments...)
	return &out
}
