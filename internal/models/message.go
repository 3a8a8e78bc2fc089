package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageStatus string

const (
	// StatusPending marks a message waiting in the pool for a recipient.
	StatusPending MessageStatus = "pending"
	// StatusDelivered is terminal; the recipient is set exactly once.
	StatusDelivered MessageStatus = "delivered"
)

// Customization is the cosmetic styling a sender attached to a message.
type Customization struct {
	FontFamily      string `json:"fontFamily,omitempty"`
	Color           string `json:"color,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
	FontSize        string `json:"fontSize,omitempty"`
}

type Message struct {
	ID          uuid.UUID     `json:"id" gorm:"type:uuid;primaryKey"`
	SenderID    uuid.UUID     `json:"senderId" gorm:"type:uuid;index;not null"`
	RecipientID *uuid.UUID    `json:"recipientId" gorm:"type:uuid;index"`
	Text        string        `json:"text" gorm:"not null"`
	Status      MessageStatus `json:"status" gorm:"index;not null;default:pending"`

	Customization Customization `json:"customization" gorm:"serializer:json"`

	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
