package analytics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreajoa/linktree/backend/internal/models"
)

func TestReconcilerCorrectsDriftedCounters(t *testing.T) {
	db := newTestDB(t)

	user := createUser(t, db)
	link := createLink(t, db, user.ID, "portfolio")
	page := createPage(t, db, user.ID)

	for i := 0; i < 3; i++ {
		insertClick(t, db, models.LinkClick{LinkID: link.ID, UserID: user.ID})
	}
	for i := 0; i < 2; i++ {
		insertView(t, db, models.PageView{PageID: page.ID, SessionID: "s"})
	}

	// Simulate drift from out-of-band data surgery.
	require.NoError(t, db.Model(&models.Link{}).Where("id = ?", link.ID).
		UpdateColumn("clicks", 99).Error)
	require.NoError(t, db.Model(&models.Page{}).Where("id = ?", page.ID).
		UpdateColumn("views", 0).Error)

	NewReconciler(db).Run(context.Background())

	var gotLink models.Link
	require.NoError(t, db.First(&gotLink, "id = ?", link.ID).Error)
	assert.Equal(t, int64(3), gotLink.Clicks)

	var gotPage models.Page
	require.NoError(t, db.First(&gotPage, "id = ?", page.ID).Error)
	assert.Equal(t, int64(2), gotPage.Views)
}

func TestReconcilerLeavesConsistentCountersAlone(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	user := createUser(t, db)
	link := createLink(t, db, user.ID, "portfolio")

	meta := ClickMetadata{IP: "203.0.113.10", SessionID: "s"}
	require.NoError(t, svc.TrackLinkClick(context.Background(), link.ID, user.ID, meta))

	NewReconciler(db).Run(context.Background())

	var got models.Link
	require.NoError(t, db.First(&got, "id = ?", link.ID).Error)
	assert.Equal(t, int64(1), got.Clicks)
}

func TestReconcilerZeroesCounterWithoutEvents(t *testing.T) {
	db := newTestDB(t)

	user := createUser(t, db)
	link := createLink(t, db, user.ID, "portfolio")
	require.NoError(t, db.Model(&models.Link{}).Where("id = ?", link.ID).
		UpdateColumn("clicks", 7).Error)

	NewReconciler(db).Run(context.Background())

	var got models.Link
	require.NoError(t, db.First(&got, "id = ?", link.ID).Error)
	assert.Equal(t, int64(0), got.Clicks)
}
