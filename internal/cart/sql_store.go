package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront/pkg/db/models"
)

// SQLStore keeps slots in the cart_slots table.
type SQLStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSQLStore(db *gorm.DB) (*SQLStore, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm db required")
	}
	return &SQLStore{db: db, now: time.Now}, nil
}

func (s *SQLStore) Load(ctx context.Context, slot string) ([]byte, error) {
	var row models.CartSlot
	err := s.db.WithContext(ctx).Where("slot = ?", slot).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("load cart slot: %w", err)
	}
	return []byte(row.Payload), nil
}

func (s *SQLStore) Save(ctx context.Context, slot string, payload []byte) error {
	row := models.CartSlot{
		Slot:      slot,
		Payload:   string(payload),
		UpdatedAt: s.now().UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slot"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save cart slot: %w", err)
	}
	return nil
}

func (s *SQLStore) Remove(ctx context.Context, slot string) error {
	if err := s.db.WithContext(ctx).Where("slot = ?", slot).Delete(&models.CartSlot{}).Error; err != nil {
		return fmt.Errorf("remove cart slot: %w", err)
	}
	return nil
}
