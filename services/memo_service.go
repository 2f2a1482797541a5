package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	config "github.com/anjiri1684/community_board/configs"
	"github.com/anjiri1684/community_board/models"
	"gorm.io/gorm"
)

var (
	ErrMemoNotFound    = errors.New("memo does not exist")
	ErrNotMemoOwner    = errors.New("only the owner can access this memo")
	ErrInvalidMemoKind = errors.New(`kind must be "recv" or "send"`)
	ErrMemberNotFound  = errors.New("member does not exist")
)

// InvalidRecipientsError aborts a whole send: the listed handles do not exist,
// are closed for messaging, or have left or been intercepted.
type InvalidRecipientsError struct {
	IDs []string
}

func (e *InvalidRecipientsError) Error() string {
	return "invalid recipients: " + strings.Join(e.IDs, ",")
}

// InsufficientPointError aborts a whole send before anything is written.
type InsufficientPointError struct {
	Have int
	Need int
}

func (e *InsufficientPointError) Error() string {
	return fmt.Sprintf("insufficient points: have %d, need %d", e.Have, e.Need)
}

// MemoService is the memo messaging engine. All entry points take the
// authenticated member explicitly; nothing is read from ambient state.
type MemoService struct {
	db       *gorm.DB
	settings *config.Settings
}

func NewMemoService(db *gorm.DB, settings *config.Settings) *MemoService {
	return &MemoService{db: db, settings: settings}
}

// ownerColumn maps a memo kind to the column that identifies the leg's owner.
func ownerColumn(kind string) string {
	if kind == models.MemoTypeRecv {
		return "recipient_id"
	}
	return "sender_id"
}

func counterpartyColumn(kind string) string {
	if kind == models.MemoTypeRecv {
		return "sender_id"
	}
	return "recipient_id"
}

type MemoListItem struct {
	ID                   uint       `json:"id"`
	Type                 string     `json:"type"`
	SenderID             string     `json:"sender_id"`
	RecipientID          string     `json:"recipient_id"`
	Body                 string     `json:"body"`
	ReadAt               *time.Time `json:"read_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	CounterpartyNickname string     `json:"counterparty_nickname"`
}

type MemoListResult struct {
	Kind     string         `json:"kind"`
	Memos    []MemoListItem `json:"memos"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageRows int            `json:"page_rows"`
}

// ListMemos returns one page of the member's memos of the given kind, newest
// first. The counterparty nickname is joined in; a deleted counterparty leaves
// it empty rather than dropping the row.
func (s *MemoService) ListMemos(ctx context.Context, member *models.Member, kind string, page int) (MemoListResult, error) {
	if kind == "" {
		kind = models.MemoTypeRecv
	}
	if kind != models.MemoTypeRecv && kind != models.MemoTypeSend {
		return MemoListResult{}, ErrInvalidMemoKind
	}
	if page < 1 {
		page = 1
	}

	filter := "memos." + ownerColumn(kind) + " = ? AND memos.type = ?"

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Memo{}).
		Where(filter, member.MemberID, kind).
		Count(&total).Error; err != nil {
		return MemoListResult{}, err
	}

	offset := (page - 1) * s.settings.PageRows
	memos := []MemoListItem{}
	err := s.db.WithContext(ctx).Model(&models.Memo{}).
		Where(filter, member.MemberID, kind).
		Select("memos.id, memos.type, memos.sender_id, memos.recipient_id, memos.body, memos.read_at, memos.created_at, members.nickname AS counterparty_nickname").
		Joins("LEFT JOIN members ON members.member_id = memos." + counterpartyColumn(kind)).
		Order("memos.id DESC").
		Offset(offset).
		Limit(s.settings.PageRows).
		Scan(&memos).Error
	if err != nil {
		return MemoListResult{}, err
	}

	return MemoListResult{
		Kind:     kind,
		Memos:    memos,
		Total:    total,
		Page:     page,
		PageRows: s.settings.PageRows,
	}, nil
}

type MemoViewResult struct {
	Memo         models.Memo    `json:"memo"`
	Counterparty *models.Member `json:"counterparty,omitempty"`
	PrevID       *uint          `json:"prev_id,omitempty"`
	NextID       *uint          `json:"next_id,omitempty"`
}

// ViewMemo loads one memo for its owner. Viewing an unread received memo is
// the read event: both paired legs get the same read timestamp and the
// viewer's unread counter is refreshed, all in one transaction. Viewing a
// sent memo never touches read state.
func (s *MemoService) ViewMemo(ctx context.Context, member *models.Member, memoID uint) (MemoViewResult, error) {
	var memo models.Memo
	if err := s.db.WithContext(ctx).First(&memo, memoID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MemoViewResult{}, ErrMemoNotFound
		}
		return MemoViewResult{}, err
	}

	if memo.OwnerID() != member.MemberID {
		return MemoViewResult{}, ErrNotMemoOwner
	}

	if memo.Type == models.MemoTypeRecv && memo.ReadAt == nil {
		now := time.Now()
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.Memo{}).Where("id = ?", memo.ID).Update("read_at", now).Error; err != nil {
				return err
			}
			if memo.SendMemoID != nil {
				if err := tx.Model(&models.Memo{}).Where("id = ?", *memo.SendMemoID).Update("read_at", now).Error; err != nil {
					return err
				}
			}
			return RefreshMemoCount(tx, member.MemberID)
		})
		if err != nil {
			return MemoViewResult{}, err
		}
		memo.ReadAt = &now
	}

	result := MemoViewResult{Memo: memo}

	var counterparty models.Member
	err := s.db.WithContext(ctx).Where("member_id = ?", memo.CounterpartyID()).First(&counterparty).Error
	if err == nil {
		result.Counterparty = &counterparty
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return MemoViewResult{}, err
	}

	prevID, nextID, err := s.neighborIDs(ctx, member.MemberID, memo.Type, memo.ID)
	if err != nil {
		return MemoViewResult{}, err
	}
	result.PrevID = prevID
	result.NextID = nextID

	return result, nil
}

// neighborIDs finds the adjacent memo ids for the same owner and kind, for
// prev/next navigation without re-listing.
func (s *MemoService) neighborIDs(ctx context.Context, memberID, kind string, memoID uint) (*uint, *uint, error) {
	filter := ownerColumn(kind) + " = ? AND type = ?"

	var prevIDs []uint
	if err := s.db.WithContext(ctx).Model(&models.Memo{}).
		Where(filter, memberID, kind).
		Where("id < ?", memoID).Order("id DESC").Limit(1).Pluck("id", &prevIDs).Error; err != nil {
		return nil, nil, err
	}

	var nextIDs []uint
	if err := s.db.WithContext(ctx).Model(&models.Memo{}).
		Where(filter, memberID, kind).
		Where("id > ?", memoID).Order("id ASC").Limit(1).Pluck("id", &nextIDs).Error; err != nil {
		return nil, nil, err
	}

	var prevID, nextID *uint
	if len(prevIDs) > 0 {
		prevID = &prevIDs[0]
	}
	if len(nextIDs) > 0 {
		nextID = &nextIDs[0]
	}
	return prevID, nextID, nil
}

// Delivery is the per-recipient outcome of a send.
type Delivery struct {
	RecipientID string `json:"recipient_id"`
	MemoID      uint   `json:"memo_id,omitempty"`
	Error       string `json:"error,omitempty"`
}

// SendMemo delivers the body to every listed recipient. Validation of the
// whole recipient list and of the sender's balance happens before anything is
// written; after that gate, each recipient is one transaction (paired rows,
// notification state, point debit) so a failure rolls back that recipient
// alone and is reported in its outcome slot.
func (s *MemoService) SendMemo(ctx context.Context, sender *models.Member, recipients, body, sendIP string) ([]Delivery, error) {
	handles := strings.Split(strings.Join(strings.Fields(recipients), ""), ",")

	// Duplicates are deliberate: a handle listed twice gets two memos and
	// costs two debits.
	var targets []models.Member
	var invalid []string
	for _, handle := range handles {
		var target models.Member
		err := s.db.WithContext(ctx).Where("member_id = ?", handle).First(&target).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				invalid = append(invalid, handle)
				continue
			}
			return nil, err
		}
		if !target.CanReceiveMemo() {
			invalid = append(invalid, handle)
			continue
		}
		targets = append(targets, target)
	}
	if len(invalid) > 0 {
		return nil, &InvalidRecipientsError{IDs: invalid}
	}

	cost := s.settings.MemoSendPoint
	totalCost := cost * len(targets)
	if totalCost > 0 && sender.Point < totalCost {
		return nil, &InsufficientPointError{Have: sender.Point, Need: totalCost}
	}

	deliveries := make([]Delivery, 0, len(targets))
	for _, target := range targets {
		var memoID uint
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			sendLeg := models.Memo{
				Type:        models.MemoTypeSend,
				SenderID:    sender.MemberID,
				RecipientID: target.MemberID,
				Body:        body,
				SendIP:      sendIP,
			}
			if err := tx.Create(&sendLeg).Error; err != nil {
				return err
			}

			recvLeg := models.Memo{
				Type:        models.MemoTypeRecv,
				SenderID:    sender.MemberID,
				RecipientID: target.MemberID,
				Body:        body,
				SendIP:      sendIP,
				SendMemoID:  &sendLeg.ID,
			}
			if err := tx.Create(&recvLeg).Error; err != nil {
				return err
			}

			if err := tx.Model(&models.Member{}).
				Where("member_id = ?", target.MemberID).
				Update("memo_call", sender.MemberID).Error; err != nil {
				return err
			}
			if err := RefreshMemoCount(tx, target.MemberID); err != nil {
				return err
			}

			reason := fmt.Sprintf("Memo sent to %s(%s)", target.Nickname, target.MemberID)
			if err := DebitPoint(tx, sender.MemberID, cost, reason, target.MemberID); err != nil {
				return err
			}

			memoID = sendLeg.ID
			return nil
		})

		delivery := Delivery{RecipientID: target.MemberID}
		if err != nil {
			log.Printf("Memo delivery to %s from %s failed: %v", target.MemberID, sender.MemberID, err)
			delivery.Error = err.Error()
		} else {
			delivery.MemoID = memoID
		}
		deliveries = append(deliveries, delivery)
	}

	return deliveries, nil
}

type MemoDeleteResult struct {
	Kind string `json:"kind"`
	Page int    `json:"page"`
}

// DeleteMemo removes the one leg owned by the requester; the sibling leg stays
// with the other party. Deleting an unread received memo clears the
// recipient's notification flag only while it still points at this memo's
// sender, and refreshes the requester's unread counter, all in one
// transaction.
func (s *MemoService) DeleteMemo(ctx context.Context, member *models.Member, memoID uint, page int) (MemoDeleteResult, error) {
	var memo models.Memo
	if err := s.db.WithContext(ctx).First(&memo, memoID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MemoDeleteResult{}, ErrMemoNotFound
		}
		return MemoDeleteResult{}, err
	}

	if memo.OwnerID() != member.MemberID {
		return MemoDeleteResult{}, ErrNotMemoOwner
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if memo.Type == models.MemoTypeRecv && memo.ReadAt == nil {
			if err := tx.Model(&models.Member{}).
				Where("member_id = ? AND memo_call = ?", memo.RecipientID, memo.SenderID).
				Update("memo_call", "").Error; err != nil {
				return err
			}
		}

		if err := tx.Delete(&models.Memo{}, memo.ID).Error; err != nil {
			return err
		}

		return RefreshMemoCount(tx, member.MemberID)
	})
	if err != nil {
		return MemoDeleteResult{}, err
	}

	if page < 1 {
		page = 1
	}
	return MemoDeleteResult{Kind: memo.Type, Page: page}, nil
}

type ComposeContext struct {
	Target  *models.Member `json:"target,omitempty"`
	ReplyTo *models.Memo   `json:"reply_to,omitempty"`
}

// ComposeContext resolves the prefill data for the compose form: the intended
// recipient's identity and, when replying, the original memo. The reply
// source must be owned by the caller.
func (s *MemoService) ComposeContext(ctx context.Context, member *models.Member, recipientID string, replyTo uint) (ComposeContext, error) {
	var result ComposeContext

	if recipientID != "" {
		var target models.Member
		if err := s.db.WithContext(ctx).Where("member_id = ?", recipientID).First(&target).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ComposeContext{}, ErrMemberNotFound
			}
			return ComposeContext{}, err
		}
		result.Target = &target
	}

	if replyTo != 0 {
		var memo models.Memo
		if err := s.db.WithContext(ctx).First(&memo, replyTo).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ComposeContext{}, ErrMemoNotFound
			}
			return ComposeContext{}, err
		}
		if memo.OwnerID() != member.MemberID {
			return ComposeContext{}, ErrNotMemoOwner
		}
		result.ReplyTo = &memo
	}

	return result, nil
}

// UnreadMemoCount is the source query the denormalized member counter caches.
func UnreadMemoCount(tx *gorm.DB, memberID string) (int64, error) {
	var count int64
	err := tx.Model(&models.Memo{}).
		Where("recipient_id = ? AND type = ? AND read_at IS NULL", memberID, models.MemoTypeRecv).
		Count(&count).Error
	return count, err
}

// RefreshMemoCount recomputes the member's unread counter from the live query
// and writes it back. Always called inside the transaction of the mutation
// that changed the unread set.
func RefreshMemoCount(tx *gorm.DB, memberID string) error {
	count, err := UnreadMemoCount(tx, memberID)
	if err != nil {
		return err
	}
	return tx.Model(&models.Member{}).
		Where("member_id = ?", memberID).
		Update("memo_count", count).Error
}

// ReconcileMemoCounts rewrites every drifted unread counter from the live
// query and returns how many members were fixed. Counters are maintained
// transactionally, so this only repairs external writes or crash leftovers.
func ReconcileMemoCounts(db *gorm.DB) (int, error) {
	var memberIDs []string
	err := db.Model(&models.Member{}).
		Where(`memo_count <> (SELECT COUNT(*) FROM memos WHERE memos.recipient_id = members.member_id AND memos.type = ? AND memos.read_at IS NULL)`, models.MemoTypeRecv).
		Pluck("member_id", &memberIDs).Error
	if err != nil {
		return 0, err
	}

	for _, memberID := range memberIDs {
		err := db.Transaction(func(tx *gorm.DB) error {
			return RefreshMemoCount(tx, memberID)
		})
		if err != nil {
			return 0, err
		}
	}

	return len(memberIDs), nil
}
