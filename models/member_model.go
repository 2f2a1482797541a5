package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Member struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	MemberID string    `gorm:"size:20;not null;unique" json:"member_id"`
	Nickname string    `gorm:"size:255;not null" json:"nickname"`
	Password string    `gorm:"not null" json:"-"`
	Role     string    `gorm:"size:20;not null;default:'member'" json:"role"`

	Point int `gorm:"not null;default:0" json:"point"`

	// Open has no column default; callers set it explicitly on create.
	Open bool `gorm:"not null" json:"open"`

	LeaveDate     *time.Time `json:"leave_date,omitempty"`
	InterceptDate *time.Time `json:"intercept_date,omitempty"`

	// Denormalized memo notification state. MemoCount mirrors the number of
	// unread received memos; MemoCall holds the handle of the most recent
	// unread sender ("" when there is nothing to surface).
	MemoCount int    `gorm:"not null;default:0" json:"memo_count"`
	MemoCall  string `gorm:"size:20;not null;default:''" json:"memo_call"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *Member) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// CanReceiveMemo reports whether this member is a valid memo target: profile
// open for messaging and neither left nor intercepted.
func (m *Member) CanReceiveMemo() bool {
	return m.Open && m.LeaveDate == nil && m.InterceptDate == nil
}
