package incident

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectColumns = `
	SELECT id, title, description, severity, COALESCE(reporter_id::text, ''), attachments, reported_at
	FROM incidents
`

func (r *PostgresRepository) Create(ctx context.Context, incident *Incident) error {
	query := `
		INSERT INTO incidents (title, description, severity, reporter_id)
		VALUES ($1, $2, $3, NULLIF($4, '')::uuid)
		RETURNING id, attachments, reported_at
	`
	err := r.db.QueryRow(ctx, query,
		incident.Title,
		incident.Description,
		incident.Severity,
		incident.ReporterID,
	).Scan(&incident.ID, &incident.Attachments, &incident.ReportedAt)
	if err != nil {
		return fmt.Errorf("insert incident: %w", err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Incident, error) {
	query := selectColumns
	var args []any
	if filter.ReporterID != "" {
		query += ` WHERE reporter_id = $1::uuid`
		args = append(args, filter.ReporterID)
	}
	query += ` ORDER BY id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	defer rows.Close()

	incidents := []*Incident{}
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		incidents = append(incidents, inc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	return incidents, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*Incident, error) {
	inc, err := scanIncident(r.db.QueryRow(ctx, selectColumns+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return inc, nil
}

func (r *PostgresRepository) Update(ctx context.Context, incident *Incident) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE incidents
		SET title = $2, description = $3, severity = $4
		WHERE id = $1
	`, incident.ID, incident.Title, incident.Description, incident.Severity)
	if err != nil {
		return fmt.Errorf("update incident: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM incidents WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete incident: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresRepository) AddAttachment(ctx context.Context, id int64, url string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE incidents
		SET attachments = array_append(attachments, $2)
		WHERE id = $1
	`, id, url)
	if err != nil {
		return fmt.Errorf("add attachment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanIncident(row pgx.Row) (*Incident, error) {
	var inc Incident
	if err := row.Scan(
		&inc.ID,
		&inc.Title,
		&inc.Description,
		&inc.Severity,
		&inc.ReporterID,
		&inc.Attachments,
		&inc.ReportedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan incident: %w", err)
	}
	return &inc, nil
}
