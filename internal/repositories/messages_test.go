package repositories

import (
	"testing"

	"github.com/google/uuid"
	"github.com/kinddrop/server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMessageForcesPendingState(t *testing.T) {
	db := newTestDB(t)
	sender := newTestUser(t, db, "sender@example.com")

	other := uuid.New()
	msg := &models.Message{
		SenderID:    sender.ID,
		RecipientID: &other,
		Text:        "You matter.",
		Status:      models.StatusDelivered,
	}
	require.NoError(t, CreateMessage(db, msg))

	stored, err := GetMessageByID(db, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Nil(t, stored.RecipientID)
}

func TestListPendingExcludesSender(t *testing.T) {
	db := newTestDB(t)
	alice := newTestUser(t, db, "alice@example.com")
	bob := newTestUser(t, db, "bob@example.com")

	require.NoError(t, CreateMessage(db, &models.Message{SenderID: alice.ID, Text: "from alice"}))
	require.NoError(t, CreateMessage(db, &models.Message{SenderID: bob.ID, Text: "from bob"}))

	pool, err := ListPending(db, alice.ID)
	require.NoError(t, err)
	require.Len(t, pool, 1)
	assert.Equal(t, bob.ID, pool[0].SenderID)
}

func TestListPendingExcludesDelivered(t *testing.T) {
	db := newTestDB(t)
	alice := newTestUser(t, db, "alice@example.com")
	bob := newTestUser(t, db, "bob@example.com")

	msg := &models.Message{SenderID: alice.ID, Text: "hi"}
	require.NoError(t, CreateMessage(db, msg))

	claimed, err := ClaimMessage(db, msg.ID, bob.ID)
	require.NoError(t, err)
	require.True(t, claimed)

	// Once delivered, the message never shows up in the pool again.
	pool, err := ListPending(db, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, pool)
}

func TestClaimMessageAtMostOnce(t *testing.T) {
	db := newTestDB(t)
	alice := newTestUser(t, db, "alice@example.com")
	bob := newTestUser(t, db, "bob@example.com")
	carol := newTestUser(t, db, "carol@example.com")

	msg := &models.Message{SenderID: alice.ID, Text: "hi"}
	require.NoError(t, CreateMessage(db, msg))

	claimed, err := ClaimMessage(db, msg.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, claimed)

	// Second claimant loses; the recipient stays bob.
	claimed, err = ClaimMessage(db, msg.ID, carol.ID)
	require.NoError(t, err)
	assert.False(t, claimed)

	stored, err := GetMessageByID(db, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, stored.Status)
	require.NotNil(t, stored.RecipientID)
	assert.Equal(t, bob.ID, *stored.RecipientID)
}

func TestGetMessagesByIDsSkipsMissing(t *testing.T) {
	db := newTestDB(t)
	alice := newTestUser(t, db, "alice@example.com")

	msg := &models.Message{SenderID: alice.ID, Text: "hi"}
	require.NoError(t, CreateMessage(db, msg))

	got, err := GetMessagesByIDs(db, []uuid.UUID{msg.ID, uuid.New(), uuid.New()})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, msg.ID, got[0].ID)

	got, err = GetMessagesByIDs(db, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCountMessagesByStatus(t *testing.T) {
	db := newTestDB(t)
	alice := newTestUser(t, db, "alice@example.com")
	bob := newTestUser(t, db, "bob@example.com")

	first := &models.Message{SenderID: alice.ID, Text: "one"}
	require.NoError(t, CreateMessage(db, first))
	require.NoError(t, CreateMessage(db, &models.Message{SenderID: alice.ID, Text: "two"}))

	claimed, err := ClaimMessage(db, first.ID, bob.ID)
	require.NoError(t, err)
	require.True(t, claimed)

	pending, err := CountMessagesByStatus(db, models.StatusPending)
	require.NoError(t, err)
	assert.EqualValues(t, 1, pending)

	delivered, err := CountMessagesByStatus(db, models.StatusDelivered)
	require.NoError(t, err)
	assert.EqualValues(t, 1, delivered)
}
