package services

import (
	"errors"

	"github.com/anjiri1684/community_board/models"
	"gorm.io/gorm"
)

var ErrPointUnderflow = errors.New("point balance too low for debit")

// DebitPoint deducts amount points from the member and records a ledger entry,
// inside the caller's transaction. The balance check and the deduction are a
// single conditional UPDATE, so concurrent debits cannot drive the balance
// negative; when the condition fails, ErrPointUnderflow is returned and the
// caller's transaction rolls back.
func DebitPoint(tx *gorm.DB, memberID string, amount int, reason, relID string) error {
	if amount <= 0 {
		return nil
	}

	result := tx.Model(&models.Member{}).
		Where("member_id = ? AND point >= ?", memberID, amount).
		UpdateColumn("point", gorm.Expr("point - ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPointUnderflow
	}

	var member models.Member
	if err := tx.Where("member_id = ?", memberID).First(&member).Error; err != nil {
		return err
	}

	entry := models.Point{
		MemberID: memberID,
		Amount:   -amount,
		Balance:  member.Point,
		Reason:   reason,
		RelTable: "@memo",
		RelID:    relID,
	}
	return tx.Create(&entry).Error
}
