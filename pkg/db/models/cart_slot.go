package models

import "time"

// CartSlot holds one serialized cart, keyed by its slot name.
type CartSlot struct {
	Slot      string    `gorm:"column:slot;primaryKey;size:255"`
	Payload   string    `gorm:"column:payload;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (CartSlot) TableName() string {
	return "cart_slots"
}
