// Package store persists WitnessChain records in Postgres via gorm. It is
// plain CRUD glue: the interesting invariants live in pkg/storage, and the
// store only records what the boundary has already validated.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/witnesschain/witnesschain-go/pkg/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store wraps a gorm DB handle with typed accessors for the WitnessChain
// records.
type Store struct {
	db *gorm.DB
}

// Open connects to Postgres with the given DSN and migrates the schema.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return NewWithDB(db)
}

// NewWithDB wraps an existing gorm handle and migrates the schema. Used by
// tests to substitute an in-memory database.
func NewWithDB(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Evidence{},
		&model.Verification{},
		&model.AccessLog{},
	); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// EnsureUser returns the user with the given wallet address, creating it on
// first sight.
func (s *Store) EnsureUser(ctx context.Context, walletAddress string) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Where("wallet_address = ?", walletAddress).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	user = model.User{
		ID:            uuid.New(),
		WalletAddress: walletAddress,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateEvidence inserts a new evidence record. The caller fills everything
// except ID and timestamps.
func (s *Store) CreateEvidence(ctx context.Context, ev *model.Evidence) error {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.Status == "" {
		ev.Status = model.EvidencePending
	}
	return s.db.WithContext(ctx).Create(ev).Error
}

// GetEvidence fetches an evidence record by ID.
func (s *Store) GetEvidence(ctx context.Context, id uuid.UUID) (*model.Evidence, error) {
	var ev model.Evidence
	err := s.db.WithContext(ctx).First(&ev, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// ListEvidenceByUser returns a user's evidence, newest first.
func (s *Store) ListEvidenceByUser(ctx context.Context, userID uuid.UUID) ([]model.Evidence, error) {
	var out []model.Evidence
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// MarkStored records a completed upload: piece CID, size, and status stored.
func (s *Store) MarkStored(ctx context.Context, id uuid.UUID, pieceCID string, size int64) error {
	res := s.db.WithContext(ctx).Model(&model.Evidence{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"piece_cid": pieceCID,
			"file_size": size,
			"status":    model.EvidenceStored,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkFailed flags an evidence record whose upload or integrity check failed.
func (s *Store) MarkFailed(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Model(&model.Evidence{}).
		Where("id = ?", id).
		Update("status", model.EvidenceFailed).Error
}

// CreateVerification appends a verification attempt and, when it succeeded,
// promotes the evidence status.
func (s *Store) CreateVerification(ctx context.Context, v *model.Verification) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(v).Error; err != nil {
			return err
		}
		if !v.Verified {
			return nil
		}
		return tx.Model(&model.Evidence{}).
			Where("id = ?", v.EvidenceID).
			Update("status", model.EvidenceVerified).Error
	})
}

// ListVerifications returns the verification history of an evidence entry.
func (s *Store) ListVerifications(ctx context.Context, evidenceID uuid.UUID) ([]model.Verification, error) {
	var out []model.Verification
	err := s.db.WithContext(ctx).
		Where("evidence_id = ?", evidenceID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// LogAccess appends an audit line. Failures are returned, not swallowed;
// callers decide whether auditing is best-effort.
func (s *Store) LogAccess(ctx context.Context, evidenceID uuid.UUID, actor, action string) error {
	return s.db.WithContext(ctx).Create(&model.AccessLog{
		ID:           uuid.New(),
		EvidenceID:   evidenceID,
		ActorAddress: actor,
		Action:       action,
		CreatedAt:    time.Now().UTC(),
	}).Error
}

// ListAccessLog returns the audit trail of an evidence entry, newest first.
func (s *Store) ListAccessLog(ctx context.Context, evidenceID uuid.UUID) ([]model.AccessLog, error) {
	var out []model.AccessLog
	err := s.db.WithContext(ctx).
		Where("evidence_id = ?", evidenceID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}
