package services

import (
	"errors"
	"math/rand"

	"github.com/google/uuid"
	"github.com/kinddrop/server/internal/daily"
	"github.com/kinddrop/server/internal/models"
	"github.com/kinddrop/server/internal/repositories"
	"gorm.io/gorm"
)

var (
	// ErrAlreadySentToday rejects a second send within one reset-zone day.
	ErrAlreadySentToday = errors.New("already sent a message today")
	// ErrAlreadyReceivedToday rejects a second receive within one reset-zone day.
	ErrAlreadyReceivedToday = errors.New("already received a message today")

	// errClaimLost aborts the claim transaction when another receiver got
	// the message first. Never escapes Receive.
	errClaimLost = errors.New("message claimed by another receiver")
)

// MessageService orchestrates the daily send/receive flow: eligibility,
// message creation, random matching, action stamping and point rewards.
type MessageService struct {
	db     *gorm.DB
	days   *daily.Resolver
	reward int

	// pick selects an index in [0,n); injectable for deterministic tests.
	pick func(n int) int
}

func NewMessageService(db *gorm.DB, days *daily.Resolver, reward int) *MessageService {
	return &MessageService{
		db:     db,
		days:   days,
		reward: reward,
		pick:   rand.Intn,
	}
}

// Status reports whether the user may still send and receive today. A
// missing user fails closed with the lookup error.
func (s *MessageService) Status(userID uuid.UUID) (canSend, canReceive bool, err error) {
	user, err := repositories.GetUserByID(s.db, userID)
	if err != nil {
		return false, false, err
	}
	return s.days.CanSendToday(user), s.days.CanReceiveToday(user), nil
}

type SendResult struct {
	Message    *models.Message
	NewBalance int
}

// Send creates a pending message, stamps the sender's last-sent day and
// credits the send reward. The three writes run in one transaction so a
// failure cannot leave a message without its date stamp or reward.
func (s *MessageService) Send(userID uuid.UUID, text string, customization models.Customization) (*SendResult, error) {
	user, err := repositories.GetUserByID(s.db, userID)
	if err != nil {
		return nil, err
	}
	if !s.days.CanSendToday(user) {
		return nil, ErrAlreadySentToday
	}

	dayKey := s.days.DayKey()
	result := &SendResult{}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		msg := &models.Message{
			SenderID:      userID,
			Text:          text,
			Customization: customization,
		}
		if err := repositories.CreateMessage(tx, msg); err != nil {
			return err
		}
		if err := repositories.StampSent(tx, userID, dayKey); err != nil {
			return err
		}
		balance, err := repositories.AddPoints(tx, userID, s.reward)
		if err != nil {
			return err
		}
		result.Message = msg
		result.NewBalance = balance
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Receive matches the user with one pending message chosen uniformly at
// random from the pool, excluding the user's own messages. A nil message
// with a nil error means the pool is empty: a waiting state, not a failure.
//
// The pending->delivered transition is a conditional update guarded on the
// pending status, so concurrent receivers drawing the same message race on
// the claim and exactly one wins; the loser simply redraws from what is
// left of the pool.
func (s *MessageService) Receive(userID uuid.UUID) (*models.Message, error) {
	user, err := repositories.GetUserByID(s.db, userID)
	if err != nil {
		return nil, err
	}
	if !s.days.CanReceiveToday(user) {
		return nil, ErrAlreadyReceivedToday
	}

	for {
		pool, err := repositories.ListPending(s.db, userID)
		if err != nil {
			return nil, err
		}
		if len(pool) == 0 {
			return nil, nil
		}

		candidate := pool[s.pick(len(pool))]
		err = s.db.Transaction(func(tx *gorm.DB) error {
			claimed, err := repositories.ClaimMessage(tx, candidate.ID, userID)
			if err != nil {
				return err
			}
			if !claimed {
				return errClaimLost
			}
			return repositories.StampReceived(tx, userID, s.days.DayKey())
		})
		if errors.Is(err, errClaimLost) {
			continue
		}
		if err != nil {
			return nil, err
		}

		candidate.Status = models.StatusDelivered
		candidate.RecipientID = &userID
		return &candidate, nil
	}
}

// History returns the user's sent and received messages.
func (s *MessageService) History(userID uuid.UUID) (sent, received []models.Message, err error) {
	sent, err = repositories.ListMessagesBySender(s.db, userID)
	if err != nil {
		return nil, nil, err
	}
	received, err = repositories.ListMessagesByRecipient(s.db, userID)
	if err != nil {
		return nil, nil, err
	}
	return sent, received, nil
}
