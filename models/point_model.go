package models

import "time"

// Point is one entry in the point ledger. Amount is negative for debits;
// Balance records the member's point balance after the entry was applied.
type Point struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	MemberID string `gorm:"size:20;not null;index" json:"member_id"`
	Amount   int    `gorm:"not null" json:"amount"`
	Balance  int    `gorm:"not null" json:"balance"`
	Reason   string `gorm:"size:255;not null" json:"reason"`

	// Relation back to whatever caused the entry, e.g. "@memo" plus the
	// counterparty's handle for a memo send debit.
	RelTable string `gorm:"size:20" json:"rel_table"`
	RelID    string `gorm:"size:20" json:"rel_id"`

	CreatedAt time.Time `json:"created_at"`
}
