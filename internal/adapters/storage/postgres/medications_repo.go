package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"med-reminder/internal/domain/medications"
)

type MedicationsRepo struct {
	db *sql.DB
}

func NewMedicationsRepo(db *sql.DB) *MedicationsRepo {
	return &MedicationsRepo{db: db}
}

const medicationColumns = `
	id,
	name, dose_description,
	start_time, interval_minutes,
	photo_ref, history,
	created_at, updated_at
`

// Put es un upsert del registro completo (history incluido).
func (r *MedicationsRepo) Put(ctx context.Context, m medications.Medication) error {
	history, err := encodeHistory(m.History)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO medications (`+medicationColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			dose_description = EXCLUDED.dose_description,
			start_time = EXCLUDED.start_time,
			interval_minutes = EXCLUDED.interval_minutes,
			photo_ref = EXCLUDED.photo_ref,
			history = EXCLUDED.history,
			updated_at = EXCLUDED.updated_at
	`,
		m.ID,
		m.Name,
		m.DoseDescription,
		m.StartTime,
		m.IntervalMinutes,
		m.PhotoRef,
		string(history),
		m.CreatedAt,
		m.UpdatedAt,
	)
	return err
}

func (r *MedicationsRepo) GetByID(ctx context.Context, id string) (medications.Medication, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return medications.Medication{}, medications.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+medicationColumns+`
		FROM medications
		WHERE id = $1
	`, id)

	m, err := scanMedication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return medications.Medication{}, medications.ErrNotFound
		}
		return medications.Medication{}, err
	}
	return m, nil
}

func (r *MedicationsRepo) List(ctx context.Context) ([]medications.Medication, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+medicationColumns+`
		FROM medications
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]medications.Medication, 0)
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MedicationsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM medications WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return medications.ErrNotFound
	}
	return nil
}

func (r *MedicationsRepo) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM medications`)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMedication(s scanner) (medications.Medication, error) {
	var m medications.Medication
	var history []byte
	if err := s.Scan(
		&m.ID,
		&m.Name,
		&m.DoseDescription,
		&m.StartTime,
		&m.IntervalMinutes,
		&m.PhotoRef,
		&history,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return medications.Medication{}, err
	}

	h, err := decodeHistory(history)
	if err != nil {
		return medications.Medication{}, fmt.Errorf("medication %s: %w", m.ID, err)
	}
	m.History = h
	return m, nil
}

// history se guarda como arreglo JSON de timestamps RFC3339, en orden de
// inserción (igual que el layout clave-valor).
func encodeHistory(h []time.Time) ([]byte, error) {
	if h == nil {
		h = []time.Time{}
	}
	return json.Marshal(h)
}

func decodeHistory(b []byte) ([]time.Time, error) {
	out := []time.Time{}
	if len(b) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return out, nil
}
