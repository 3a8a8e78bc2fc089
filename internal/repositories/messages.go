package repositories

import (
	"github.com/google/uuid"
	"github.com/kinddrop/server/internal/models"
	"gorm.io/gorm"
)

func CreateMessage(db *gorm.DB, msg *models.Message) error {
	msg.Status = models.StatusPending
	msg.RecipientID = nil
	return db.Create(msg).Error
}

// ListPending returns every pending message not authored by excludeSender.
// This is the candidate pool for matching.
func ListPending(db *gorm.DB, excludeSender uuid.UUID) ([]models.Message, error) {
	var messages []models.Message
	err := db.Where("status = ? AND sender_id <> ?", models.StatusPending, excludeSender).
		Order("created_at").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// ClaimMessage transitions a message from pending to delivered and assigns
// the recipient in one conditional update. It reports false when the message
// was already claimed, so two concurrent receivers can never both win it.
func ClaimMessage(db *gorm.DB, messageID, recipientID uuid.UUID) (bool, error) {
	res := db.Model(&models.Message{}).
		Where("id = ? AND status = ?", messageID, models.StatusPending).
		Updates(map[string]any{
			"status":       models.StatusDelivered,
			"recipient_id": recipientID,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func GetMessageByID(db *gorm.DB, id uuid.UUID) (*models.Message, error) {
	var msg models.Message
	if err := db.First(&msg, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// GetMessagesByIDs is a bulk point lookup; ids with no matching row are
// silently skipped.
func GetMessagesByIDs(db *gorm.DB, ids []uuid.UUID) ([]models.Message, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var messages []models.Message
	if err := db.Where("id IN ?", ids).Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

func ListMessagesBySender(db *gorm.DB, senderID uuid.UUID) ([]models.Message, error) {
	var messages []models.Message
	err := db.Where("sender_id = ?", senderID).Order("created_at").Find(&messages).Error
	return messages, err
}

func ListMessagesByRecipient(db *gorm.DB, recipientID uuid.UUID) ([]models.Message, error) {
	var messages []models.Message
	err := db.Where("recipient_id = ?", recipientID).Order("created_at").Find(&messages).Error
	return messages, err
}

func ListAllMessages(db *gorm.DB) ([]models.Message, error) {
	var messages []models.Message
	err := db.Order("created_at").Find(&messages).Error
	return messages, err
}

func CountMessagesByStatus(db *gorm.DB, status models.MessageStatus) (int64, error) {
	var n int64
	err := db.Model(&models.Message{}).Where("status = ?", status).Count(&n).Error
	return n, err
}

func CountUsers(db *gorm.DB) (int64, error) {
	var n int64
	err := db.Model(&models.User{}).Count(&n).Error
	return n, err
}

func CountMessages(db *gorm.DB) (int64, error) {
	var n int64
	err := db.Model(&models.Message{}).Count(&n).Error
	return n, err
}

func DeleteMessage(db *gorm.DB, id uuid.UUID) error {
	return db.Delete(&models.Message{}, "id = ?", id).Error
}

func CountMessagesBySender(db *gorm.DB, senderID uuid.UUID) (int64, error) {
	var n int64
	err := db.Model(&models.Message{}).Where("sender_id = ?", senderID).Count(&n).Error
	return n, err
}

func CountMessagesByRecipient(db *gorm.DB, recipientID uuid.UUID) (int64, error) {
	var n int64
	err := db.Model(&models.Message{}).Where("recipient_id = ?", recipientID).Count(&n).Error
	return n, err
}
