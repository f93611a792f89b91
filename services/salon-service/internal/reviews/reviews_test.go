package reviews

import (
	"context"
	"testing"

	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModerationFlow(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	r, err := store.Create(ctx, model.Review{Name: "Meera", Rating: 5, Comment: "Great cut", Service: "Haircut", Approved: true})
	require.NoError(t, err)
	assert.False(t, r.Approved, "new reviews always start unapproved")

	public, err := store.List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, public)

	all, err := store.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	approved, err := store.SetApproved(ctx, r.ID, true)
	require.NoError(t, err)
	assert.True(t, approved.Approved)

	public, err = store.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, public, 1)

	require.NoError(t, store.Delete(ctx, r.ID))
	assert.ErrorIs(t, store.Delete(ctx, r.ID), model.ErrNotFound)
	_, err = store.SetApproved(ctx, r.ID, true)
	assert.ErrorIs(t, err, model.ErrNotFound)
}
