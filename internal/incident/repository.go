package incident

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("incident not found")

type Repository interface {
	Create(ctx context.Context, incident *Incident) error
	List(ctx context.Context, filter ListFilter) ([]*Incident, error)
	GetByID(ctx context.Context, id int64) (*Incident, error)
	Update(ctx context.Context, incident *Incident) error
	// Delete reports whether a row was removed.
	Delete(ctx context.Context, id int64) (bool, error)
	AddAttachment(ctx context.Context, id int64, url string) error
}
