package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	testutil "github.com/akash12888/note-taking-app/internal/database/testutil"
	"github.com/akash12888/note-taking-app/internal/models"
)

func seedUser(t *testing.T, db *gorm.DB, email string, verified bool, codeExpiry *time.Time) models.User {
	t.Helper()

	user := models.User{Name: "u", Email: email, IsVerified: verified}
	if codeExpiry != nil {
		hash := "hash-" + email
		user.OTPCodeHash = &hash
		user.OTPExpiresAt = codeExpiry
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func TestClearExpiredCodes(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2026, 2, 10, 15, 0, 0, 0, time.UTC)

	expired := now.Add(-time.Hour)
	active := now.Add(time.Hour)
	stale := seedUser(t, db, "stale@example.com", true, &expired)
	fresh := seedUser(t, db, "fresh@example.com", true, &active)

	cleared, err := ClearExpiredCodes(context.Background(), db, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, cleared)

	var reloaded models.User
	require.NoError(t, db.Where("id = ?", stale.ID).First(&reloaded).Error)
	require.Nil(t, reloaded.OTPCodeHash)
	require.Nil(t, reloaded.OTPExpiresAt)

	require.NoError(t, db.Where("id = ?", fresh.ID).First(&reloaded).Error)
	require.NotNil(t, reloaded.OTPCodeHash)
}

func TestPurgeStaleSignups(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2026, 2, 10, 15, 0, 0, 0, time.UTC)

	abandoned := seedUser(t, db, "abandoned@example.com", false, nil)
	verified := seedUser(t, db, "verified@example.com", true, nil)

	// Age the abandoned record past the cutoff.
	require.NoError(t, db.Model(&models.User{}).
		Where("id = ?", abandoned.ID).
		Update("created_at", now.Add(-30*24*time.Hour)).Error)

	purged, err := PurgeStaleSignups(context.Background(), db, now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, purged)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	var remaining models.User
	require.NoError(t, db.First(&remaining).Error)
	require.Equal(t, verified.ID, remaining.ID)
}

func TestPurgeStaleSignupsKeepsFederatedAccounts(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2026, 2, 10, 15, 0, 0, 0, time.UTC)

	googleID := "google-1"
	user := models.User{Name: "u", Email: "fed@example.com", IsVerified: false, GoogleID: &googleID}
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, db.Model(&models.User{}).
		Where("id = ?", user.ID).
		Update("created_at", now.Add(-30*24*time.Hour)).Error)

	purged, err := PurgeStaleSignups(context.Background(), db, now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	require.Zero(t, purged)
}

func TestCleanerRunOnce(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2026, 2, 10, 15, 0, 0, 0, time.UTC)

	expired := now.Add(-time.Hour)
	seedUser(t, db, "stale@example.com", true, &expired)

	cleaner := NewCleaner(db, WithNow(func() time.Time { return now }))
	require.NoError(t, cleaner.RunOnce(context.Background()))

	var reloaded models.User
	require.NoError(t, db.First(&reloaded).Error)
	require.Nil(t, reloaded.OTPCodeHash)
}

func TestCleanerStartAndStop(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	cleaner := NewCleaner(db, WithCodeSchedule("@every 1h"), WithStaleSignupSchedule("@every 24h"))
	require.NoError(t, cleaner.Start())

	stopCtx := cleaner.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("cleaner did not stop in time")
	}
}
