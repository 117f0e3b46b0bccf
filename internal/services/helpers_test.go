package services

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/activity-tracker-backend/internal/data/db"
	activityrepo "github.com/yungbote/activity-tracker-backend/internal/data/repos/activity"
	goalrepo "github.com/yungbote/activity-tracker-backend/internal/data/repos/goal"
	updaterepo "github.com/yungbote/activity-tracker-backend/internal/data/repos/update"
	"github.com/yungbote/activity-tracker-backend/internal/platform/logger"
)

// newTestDB opens a fresh in-memory database so each test owns its state;
// services run their own transactions, so the shared rollback-per-test
// harness used by repo tests does not apply here.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("access sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := gdb.Exec(`PRAGMA foreign_keys = ON;`).Error; err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	if err := db.AutoMigrateAll(gdb); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return gdb
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	logg, err := logger.New("development", "")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return logg
}

type testFixture struct {
	db           *gorm.DB
	log          *logger.Logger
	activityRepo activityrepo.ActivityRepo
	updateRepo   updaterepo.UpdateRepo
	goalRepo     goalrepo.GoalRepo
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()
	gdb := newTestDB(t)
	logg := testLogger(t)
	return &testFixture{
		db:           gdb,
		log:          logg,
		activityRepo: activityrepo.NewActivityRepo(gdb, logg),
		updateRepo:   updaterepo.NewUpdateRepo(gdb, logg),
		goalRepo:     goalrepo.NewGoalRepo(gdb, logg),
	}
}

func (f *testFixture) activityService() ActivityService {
	return NewActivityService(f.db, f.log, f.activityRepo, f.updateRepo)
}

func (f *testFixture) dashboardService() DashboardService {
	return NewDashboardService(f.db, f.log, f.activityRepo, f.updateRepo)
}

func (f *testFixture) goalService() GoalService {
	return NewGoalService(f.db, f.log, f.goalRepo)
}
