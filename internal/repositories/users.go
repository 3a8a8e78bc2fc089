package repositories

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/kinddrop/server/internal/models"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// ErrInsufficientPoints is returned when a spend would drive the balance
// negative.
var ErrInsufficientPoints = errors.New("insufficient points")

// ErrItemAlreadyUnlocked is returned when unlocking an item the user owns.
var ErrItemAlreadyUnlocked = errors.New("item already unlocked")

func GetUserByID(db *gorm.DB, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func GetUserByEmail(db *gorm.DB, email string) (*models.User, error) {
	var user models.User
	if err := db.First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func CreateUser(db *gorm.DB, user *models.User) error {
	return db.Create(user).Error
}

// AddPoints credits amount atomically and returns the new balance.
func AddPoints(db *gorm.DB, id uuid.UUID, amount int) (int, error) {
	err := db.Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("points", gorm.Expr("points + ?", amount)).Error
	if err != nil {
		return 0, err
	}
	var points int
	err = db.Model(&models.User{}).
		Where("id = ?", id).
		Pluck("points", &points).Error
	return points, err
}

// SpendPoints debits cost only if the balance covers it; the guard keeps the
// balance from ever going negative.
func SpendPoints(db *gorm.DB, id uuid.UUID, cost int) error {
	res := db.Model(&models.User{}).
		Where("id = ? AND points >= ?", id, cost).
		UpdateColumn("points", gorm.Expr("points - ?", cost))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientPoints
	}
	return nil
}

// UnlockItem spends cost and adds itemID to the user's unlocked set. The set
// only grows; unlocking an owned item is rejected before any debit.
func UnlockItem(db *gorm.DB, id uuid.UUID, itemID string, cost int) (*models.User, error) {
	var updated *models.User
	err := db.Transaction(func(tx *gorm.DB) error {
		user, err := GetUserByID(tx, id)
		if err != nil {
			return err
		}
		for _, owned := range user.UnlockedItems {
			if owned == itemID {
				return ErrItemAlreadyUnlocked
			}
		}
		if err := SpendPoints(tx, id, cost); err != nil {
			return err
		}
		user.Points -= cost
		user.UnlockedItems = append(user.UnlockedItems, itemID)
		// Update through the struct so the json serializer on the column
		// applies; a raw column update would expand the slice into SQL.
		if err := tx.Model(user).Select("unlocked_items").Updates(user).Error; err != nil {
			return err
		}
		updated = user
		return nil
	})
	return updated, err
}

// StampSent records today's day key as the user's last send.
func StampSent(db *gorm.DB, id uuid.UUID, dayKey string) error {
	return db.Model(&models.User{}).
		Where("id = ?", id).
		Update("last_sent_date", dayKey).Error
}

// StampReceived records today's day key as the user's last receive.
func StampReceived(db *gorm.DB, id uuid.UUID, dayKey string) error {
	return db.Model(&models.User{}).
		Where("id = ?", id).
		Update("last_received_date", dayKey).Error
}

func ListUsers(db *gorm.DB) ([]models.User, error) {
	var users []models.User
	if err := db.Order("created_at").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUserFields applies a partial admin edit. Map updates skip the field
// serializers, so slice values are marshalled to their JSON text here.
func UpdateUserFields(db *gorm.DB, id uuid.UUID, fields map[string]any) error {
	for column, value := range fields {
		if slice, ok := value.([]string); ok {
			raw, err := json.Marshal(slice)
			if err != nil {
				return err
			}
			fields[column] = string(raw)
		}
	}
	return db.Model(&models.User{}).Where("id = ?", id).Updates(fields).Error
}

// DeleteUserCascade removes the user together with every message they sent
// or received. The two message sweeps run concurrently.
func DeleteUserCascade(ctx context.Context, db *gorm.DB, id uuid.UUID) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return db.WithContext(gctx).Where("sender_id = ?", id).Delete(&models.Message{}).Error
	})
	g.Go(func() error {
		return db.WithContext(gctx).Where("recipient_id = ?", id).Delete(&models.Message{}).Error
	})
	if err := g.Wait(); err != nil {
		return err
	}
	return db.Delete(&models.User{}, "id = ?", id).Error
}

// GetUsersByIDs is a bulk lookup keyed by id; missing ids are skipped.
func GetUsersByIDs(db *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]models.User, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]models.User{}, nil
	}
	var users []models.User
	if err := db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return byID, nil
}
