package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"attendance-backend/config"
	"attendance-backend/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := config.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeMatcher struct {
	result FaceComparison
	err    error
	block  bool
	calls  int
}

func (m *fakeMatcher) Compare(ctx context.Context, reference, captured []byte, tolerance float64) (FaceComparison, error) {
	m.calls++
	if m.block {
		<-ctx.Done()
		return FaceComparison{}, fmt.Errorf("%w: %v", ErrFaceServiceUnavailable, ctx.Err())
	}
	return m.result, m.err
}

func createUser(t *testing.T, db *gorm.DB, username, userType, department string) models.User {
	t.Helper()
	u := models.User{
		Username:   username,
		Email:      username + "@example.com",
		UserType:   userType,
		Department: department,
		IsActive:   true,
	}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func createRecord(t *testing.T, db *gorm.DB, userID uint, date, status string) models.AttendanceRecord {
	t.Helper()
	rec := models.AttendanceRecord{UserID: userID, Date: date, Status: status}
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("create record: %v", err)
	}
	return rec
}

// day is 2024-03-15 at the given local wall clock time.
func day(hour, min int) time.Time {
	return time.Date(2024, 3, 15, hour, min, 0, 0, time.Local)
}

type attendanceFixture struct {
	db      *gorm.DB
	clock   *fakeClock
	qr      *QRService
	matcher *fakeMatcher
	images  *ImageStore
	svc     *AttendanceService
}

func newAttendanceFixture(t *testing.T) *attendanceFixture {
	t.Helper()
	db := newTestDB(t)
	clock := newFakeClock(day(8, 30))
	images := NewImageStore(t.TempDir())
	matcher := &fakeMatcher{result: FaceComparison{Distance: 0.3, ReferenceFaces: 1, CapturedFaces: 1}}
	qr := NewQRService(db, clock, 24*time.Hour)
	face := NewFaceVerifier(matcher, images, 0.6, 200*time.Millisecond)
	svc := NewAttendanceService(db, clock, NewVerifier(qr, face), images)
	return &attendanceFixture{db: db, clock: clock, qr: qr, matcher: matcher, images: images, svc: svc}
}

func (f *attendanceFixture) issue(t *testing.T, constraint string) models.QRCode {
	t.Helper()
	qr, err := f.qr.Issue(0, constraint)
	if err != nil {
		t.Fatalf("issue qr: %v", err)
	}
	return qr
}
