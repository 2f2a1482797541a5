package models

import "time"

const (
	MemoTypeSend = "send"
	MemoTypeRecv = "recv"
)

// Memo is one directional leg of a private message. Every logical message is
// stored as a pair: a "send" leg owned by the sender and a "recv" leg owned by
// the recipient. The recv leg points back at its send leg through SendMemoID.
type Memo struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Type        string `gorm:"size:4;not null;index" json:"type"`
	SenderID    string `gorm:"size:20;not null;index" json:"sender_id"`
	RecipientID string `gorm:"size:20;not null;index" json:"recipient_id"`
	Body        string `gorm:"type:text;not null" json:"body"`
	SendIP      string `gorm:"size:45" json:"-"`

	ReadAt     *time.Time `json:"read_at,omitempty"`
	SendMemoID *uint      `json:"send_memo_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// OwnerID returns the handle of the member this leg belongs to.
func (m *Memo) OwnerID() string {
	if m.Type == MemoTypeRecv {
		return m.RecipientID
	}
	return m.SenderID
}

// CounterpartyID returns the handle of the member on the other end.
func (m *Memo) CounterpartyID() string {
	if m.Type == MemoTypeRecv {
		return m.SenderID
	}
	return m.RecipientID
}
