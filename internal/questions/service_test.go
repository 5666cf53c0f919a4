package questions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func otherVenueID() bson.ObjectID {
	var id bson.ObjectID
	id[11] = 2
	return id
}

func TestArchive_OtherVenuesQuestion_NotFound(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	venueA := testVenueID()
	venueB := otherVenueID()

	targetID := store.seed(venueB, "How was the food?", true, 0)

	// Archiving through venue A must not touch venue B's question.
	err := svc.Archive(context.Background(), venueA, targetID)
	require.ErrorIs(t, err, ErrQuestionNotFound)

	active, err := store.ListActive(context.Background(), venueB)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, targetID, active[0].ID)
	assert.True(t, active[0].Active)
}

func TestUpdateQuestion_OtherVenuesQuestion_NotFound(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	venueA := testVenueID()
	venueB := otherVenueID()

	targetID := store.seed(venueB, "How was the food?", true, 0)

	text := "Rewritten?"
	err := svc.UpdateQuestion(context.Background(), venueA, targetID, UpdateFields{Text: &text})
	require.ErrorIs(t, err, ErrQuestionNotFound)

	active, err := store.ListActive(context.Background(), venueB)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "How was the food?", active[0].Text)
}

func TestListActive_StableWithEqualOrders(t *testing.T) {
	store := newFakeStore()
	venueID := testVenueID()

	// Two questions sharing an order value still come back in a fixed
	// sequence, tie-broken by ID.
	first := store.seed(venueID, "First?", true, 3)
	second := store.seed(venueID, "Second?", true, 3)

	for i := 0; i < 5; i++ {
		active, err := store.ListActive(context.Background(), venueID)
		require.NoError(t, err)
		require.Len(t, active, 2)
		assert.Equal(t, first, active[0].ID)
		assert.Equal(t, second, active[1].ID)
	}
}

func TestArchive_UnknownQuestion_NotFound(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	var bogus bson.ObjectID
	bogus[11] = 0x7f

	err := svc.Archive(context.Background(), testVenueID(), bogus)
	assert.ErrorIs(t, err, ErrQuestionNotFound)
}
