package donationstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/brightfund/donation-gateway/pkg/donation"
)

type pgStore struct {
	db *bun.DB
}

// NewStore creates a new postgres implementation of the donation store
func NewStore(db *bun.DB) Store {
	return &pgStore{db: db}
}

func (s *pgStore) Create(ctx context.Context, intent *donation.Intent) error {
	dao := toDonationDao(intent)

	_, err := s.db.NewInsert().
		Model(dao).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create donation: %w", err)
	}

	return nil
}

func (s *pgStore) GetByID(ctx context.Context, id string) (*donation.Intent, error) {
	dao := new(DonationDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get donation: %w", err)
	}

	return toIntent(dao), nil
}

func (s *pgStore) UpdateStatus(ctx context.Context, id string, status donation.Status, txHash string) (donation.Status, error) {
	// Read-then-write; the lifecycle tolerates last-write-wins on
	// concurrent submissions of the same hash.
	var prev string
	err := s.db.NewSelect().
		Model((*DonationDao)(nil)).
		Column("status").
		Where("id = ?", id).
		Scan(ctx, &prev)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to read donation status: %w", err)
	}

	q := s.db.NewUpdate().
		Model((*DonationDao)(nil)).
		Set("status = ?", string(status)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id)
	if txHash != "" {
		q = q.Set("tx_hash = ?", txHash)
	}

	if _, err := q.Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to update donation status: %w", err)
	}

	return donation.Status(prev), nil
}

func (s *pgStore) UpdateNotes(ctx context.Context, id string, fields NotesUpdate) error {
	q := s.db.NewUpdate().
		Model((*DonationDao)(nil)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id)

	if fields.Confirmations != nil {
		q = q.Set("confirmations = ?", *fields.Confirmations)
	}
	if fields.ConfirmedAt != nil {
		q = q.Set("confirmed_at = ?", *fields.ConfirmedAt)
	}
	if fields.VerifiedAmount != nil {
		q = q.Set("verified_amount = ?", *fields.VerifiedAmount)
	}
	if fields.FromAddress != nil {
		q = q.Set("from_address = ?", *fields.FromAddress)
	}
	if fields.BlockHeight != nil {
		q = q.Set("block_height = ?", *fields.BlockHeight)
	}
	if fields.FailureReason != nil {
		q = q.Set("failure_reason = ?", *fields.FailureReason)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update donation notes: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return ErrNotFound
	}

	return nil
}
