// Package badger guarda medicamentos en BadgerDB embebido, una clave por
// medicamento ("medication:<id>") con el registro JSON como valor.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"med-reminder/internal/domain/medications"

	"github.com/dgraph-io/badger/v4"
)

const keyPrefix = "medication:"

type Config struct {
	// Path es el directorio de la base. Se ignora si InMemory es true.
	Path string

	InMemory   bool
	SyncWrites bool

	// Logger recibe el log interno de badger. nil lo desactiva.
	Logger *slog.Logger
}

func DefaultConfig(path string) Config {
	return Config{Path: path, SyncWrites: true}
}

func InMemoryConfig() Config {
	return Config{InMemory: true}
}

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func Open(cfg Config) (*badger.DB, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return db, nil
}

type MedicationsRepo struct {
	db *badger.DB
}

func NewMedicationsRepo(db *badger.DB) *MedicationsRepo {
	return &MedicationsRepo{db: db}
}

func key(id string) []byte {
	return []byte(keyPrefix + id)
}

func (r *MedicationsRepo) Put(ctx context.Context, m medications.Medication) error {
	if strings.TrimSpace(m.ID) == "" {
		return errors.New("medication id required")
	}
	val, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode medication: %w", err)
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(m.ID), val)
	})
}

func (r *MedicationsRepo) GetByID(ctx context.Context, id string) (medications.Medication, error) {
	var m medications.Medication
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &m)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return medications.Medication{}, medications.ErrNotFound
	}
	if err != nil {
		return medications.Medication{}, err
	}
	return normalize(m), nil
}

func (r *MedicationsRepo) List(ctx context.Context) ([]medications.Medication, error) {
	out := make([]medications.Medication, 0)
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var m medications.Medication
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &m)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			out = append(out, normalize(m))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MedicationsRepo) Delete(ctx context.Context, id string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key(id)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return medications.ErrNotFound
			}
			return err
		}
		return txn.Delete(key(id))
	})
}

func (r *MedicationsRepo) Clear(ctx context.Context) error {
	return r.db.DropPrefix([]byte(keyPrefix))
}

func normalize(m medications.Medication) medications.Medication {
	if m.History == nil {
		m.History = []time.Time{}
	}
	return m
}
