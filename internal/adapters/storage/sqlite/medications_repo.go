package sqlite

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

func (r *MedicationsRepo) Put(ctx context.Context, m medications.Medication) error {
	if strings.TrimSpace(m.ID) == "" {
		return errors.New("medication id required")
	}
	doc, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode medication: %w", err)
	}

	return retryOp(defaultRetryConfig, func() error {
		_, err := r.db.ExecContext(ctx, `
			insert into medications (id, doc, created_at)
			values (?, ?, ?)
			on conflict(id) do update set doc = excluded.doc
		`, m.ID, string(doc), m.CreatedAt.UTC().Format(time.RFC3339Nano))
		return err
	})
}

func (r *MedicationsRepo) GetByID(ctx context.Context, id string) (medications.Medication, error) {
	var doc string
	err := r.db.QueryRowContext(ctx, `select doc from medications where id = ?`, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return medications.Medication{}, medications.ErrNotFound
		}
		return medications.Medication{}, err
	}
	return decode(doc)
}

func (r *MedicationsRepo) List(ctx context.Context) ([]medications.Medication, error) {
	rows, err := r.db.QueryContext(ctx, `select doc from medications order by created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]medications.Medication, 0)
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		m, err := decode(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MedicationsRepo) Delete(ctx context.Context, id string) error {
	var n int64
	err := retryOp(defaultRetryConfig, func() error {
		res, err := r.db.ExecContext(ctx, `delete from medications where id = ?`, id)
		if err != nil {
			return err
		}
		n, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return medications.ErrNotFound
	}
	return nil
}

func (r *MedicationsRepo) Clear(ctx context.Context) error {
	return retryOp(defaultRetryConfig, func() error {
		_, err := r.db.ExecContext(ctx, `delete from medications`)
		return err
	})
}

func decode(doc string) (medications.Medication, error) {
	var m medications.Medication
	if err := json.Unmarshal([]byte(doc), &m); err != nil {
		return medications.Medication{}, fmt.Errorf("decode medication: %w", err)
	}
	if m.History == nil {
		m.History = []time.Time{}
	}
	return m, nil
}
