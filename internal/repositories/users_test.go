package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/kinddrop/server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestAddPointsReturnsNewBalance(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db, "alice@example.com")

	balance, err := AddPoints(db, user.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 60, balance)

	balance, err = AddPoints(db, user.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 70, balance)
}

func TestSpendPointsInsufficientFunds(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db, "alice@example.com")

	err := SpendPoints(db, user.ID, 51)
	require.ErrorIs(t, err, ErrInsufficientPoints)

	// The failed spend must not touch the balance.
	stored, err := GetUserByID(db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, stored.Points)

	require.NoError(t, SpendPoints(db, user.ID, 50))
	stored, err = GetUserByID(db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Points)
}

func TestUnlockItem(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db, "alice@example.com")

	updated, err := UnlockItem(db, user.ID, "font-serif", 30)
	require.NoError(t, err)
	assert.Equal(t, 20, updated.Points)
	assert.Contains(t, updated.UnlockedItems, "font-serif")
	// The starting set is still there; the set only grows.
	for _, item := range models.DefaultUnlockedItems {
		assert.Contains(t, updated.UnlockedItems, item)
	}

	_, err = UnlockItem(db, user.ID, "font-serif", 30)
	require.ErrorIs(t, err, ErrItemAlreadyUnlocked)

	_, err = UnlockItem(db, user.ID, "bg-sunset", 100)
	require.ErrorIs(t, err, ErrInsufficientPoints)

	stored, err := GetUserByID(db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, stored.Points)
	assert.Contains(t, stored.UnlockedItems, "font-serif")
}

func TestStampSentAndReceived(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db, "alice@example.com")

	require.NoError(t, StampSent(db, user.ID, "2025-06-15"))
	require.NoError(t, StampReceived(db, user.ID, "2025-06-16"))

	stored, err := GetUserByID(db, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastSentDate)
	require.NotNil(t, stored.LastReceivedDate)
	assert.Equal(t, "2025-06-15", *stored.LastSentDate)
	assert.Equal(t, "2025-06-16", *stored.LastReceivedDate)
}

func TestDeleteUserCascade(t *testing.T) {
	db := newTestDB(t)
	alice := newTestUser(t, db, "alice@example.com")
	bob := newTestUser(t, db, "bob@example.com")

	sent := &models.Message{SenderID: alice.ID, Text: "from alice"}
	require.NoError(t, CreateMessage(db, sent))

	fromBob := &models.Message{SenderID: bob.ID, Text: "from bob"}
	require.NoError(t, CreateMessage(db, fromBob))
	claimed, err := ClaimMessage(db, fromBob.ID, alice.ID)
	require.NoError(t, err)
	require.True(t, claimed)

	require.NoError(t, DeleteUserCascade(context.Background(), db, alice.ID))

	_, err = GetUserByID(db, alice.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// Both the sent and the received message are gone.
	_, err = GetMessageByID(db, sent.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = GetMessageByID(db, fromBob.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// Unrelated accounts stay.
	_, err = GetUserByID(db, bob.ID)
	require.NoError(t, err)
}

func TestGetUsersByIDsSkipsMissing(t *testing.T) {
	db := newTestDB(t)
	alice := newTestUser(t, db, "alice@example.com")

	got, err := GetUsersByIDs(db, []uuid.UUID{alice.ID, uuid.New()})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, alice.Email, got[alice.ID].Email)
}

func TestUpdateUserFieldsSliceColumn(t *testing.T) {
	db := newTestDB(t)
	alice := newTestUser(t, db, "alice@example.com")

	// Slice values go through the json serializer, not as SQL row values.
	err := UpdateUserFields(db, alice.ID, map[string]any{
		"roles":  []string{"user", "moderator"},
		"banned": true,
	})
	require.NoError(t, err)

	stored, err := GetUserByID(db, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"user", "moderator"}, stored.Roles)
	assert.True(t, stored.Banned)
}
