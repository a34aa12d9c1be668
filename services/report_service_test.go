package services

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"attendance-backend/models"

	"gorm.io/gorm"
)

// seedTenEmployees creates 10 regular users (plus one admin) and, on
// 2024-03-15, 6 present records and 1 late record.
func seedTenEmployees(t *testing.T, db *gorm.DB) []models.User {
	t.Helper()
	createUser(t, db, "boss", models.UserTypeAdmin, "management")
	var users []models.User
	for i := 0; i < 10; i++ {
		dept := "eng"
		if i >= 6 {
			dept = "sales"
		}
		if i == 9 {
			dept = ""
		}
		users = append(users, createUser(t, db, fmt.Sprintf("emp%02d", i), models.UserTypeRegular, dept))
	}
	for i := 0; i < 6; i++ {
		createRecord(t, db, users[i].ID, "2024-03-15", models.StatusPresent)
	}
	createRecord(t, db, users[6].ID, "2024-03-15", models.StatusLate)
	return users
}

func TestDailySummary_AbsentIgnoresLate(t *testing.T) {
	db := newTestDB(t)
	seedTenEmployees(t, db)
	svc := NewReportService(db, newFakeClock(day(18, 0)))

	got, err := svc.DailySummary("2024-03-15")
	if err != nil {
		t.Fatalf("DailySummary() error = %v", err)
	}
	if got.TotalEmployees != 10 || got.Present != 6 || got.Late != 1 {
		t.Errorf("summary = total %d present %d late %d", got.TotalEmployees, got.Present, got.Late)
	}
	// absent = total - present; the late employee is counted absent too
	if got.Absent != 4 {
		t.Errorf("absent = %d, want 4", got.Absent)
	}
	if got.PresentPercentage != 60 {
		t.Errorf("present_percentage = %v, want 60", got.PresentPercentage)
	}
	if len(got.Records) != 7 {
		t.Errorf("records = %d, want 7", len(got.Records))
	}
}

func TestDashboardAndTrends_SubtractLate(t *testing.T) {
	db := newTestDB(t)
	seedTenEmployees(t, db)
	svc := NewReportService(db, newFakeClock(day(18, 0)))

	stats, err := svc.DashboardStats("")
	if err != nil {
		t.Fatalf("DashboardStats() error = %v", err)
	}
	if stats.Date != "2024-03-15" {
		t.Errorf("default date = %s", stats.Date)
	}
	if stats.Absent != 3 {
		t.Errorf("dashboard absent = %d, want 3 (total - present - late)", stats.Absent)
	}

	daily, _ := svc.DailySummary("2024-03-15")
	if daily.Absent == stats.Absent {
		t.Error("daily summary and dashboard are expected to disagree on absent when someone is late")
	}

	trends, err := svc.Trends("2024-03-14", "2024-03-15")
	if err != nil {
		t.Fatalf("Trends() error = %v", err)
	}
	if len(trends.DailyStats) != 2 {
		t.Fatalf("daily_stats = %d, want 2", len(trends.DailyStats))
	}
	empty, full := trends.DailyStats[0], trends.DailyStats[1]
	if empty.Date != "2024-03-14" || empty.Present != 0 || empty.Absent != 10 || empty.PresentPercentage != 0 {
		t.Errorf("day without records = %+v", empty)
	}
	if full.Present != 6 || full.Late != 1 || full.Absent != 3 {
		t.Errorf("2024-03-15 = %+v, want present 6 late 1 absent 3", full)
	}
}

func TestDashboardStats_Departments(t *testing.T) {
	db := newTestDB(t)
	seedTenEmployees(t, db)
	svc := NewReportService(db, newFakeClock(day(18, 0)))

	stats, err := svc.DashboardStats("2024-03-15")
	if err != nil {
		t.Fatalf("DashboardStats() error = %v", err)
	}

	want := map[string]DepartmentStat{
		"eng":   {Department: "eng", TotalEmployees: 6, Present: 6, Absent: 0, PresentPercentage: 100},
		"sales": {Department: "sales", TotalEmployees: 3, Present: 0, Absent: 3, PresentPercentage: 0},
	}
	if len(stats.DepartmentStats) != len(want) {
		t.Fatalf("department_stats = %+v", stats.DepartmentStats)
	}
	for _, d := range stats.DepartmentStats {
		if d != want[d.Department] {
			t.Errorf("department %q = %+v, want %+v", d.Department, d, want[d.Department])
		}
	}
}

func TestReports_ZeroEmployees(t *testing.T) {
	svc := NewReportService(newTestDB(t), newFakeClock(day(18, 0)))

	daily, err := svc.DailySummary("2024-03-15")
	if err != nil {
		t.Fatalf("DailySummary() error = %v", err)
	}
	if daily.TotalEmployees != 0 || daily.PresentPercentage != 0 {
		t.Errorf("empty summary = %+v", daily)
	}

	stats, err := svc.DashboardStats("2024-03-15")
	if err != nil || stats.PresentPercentage != 0 {
		t.Errorf("empty dashboard = %+v, %v", stats, err)
	}

	summary, err := svc.UserSummary("2024-03-15", "2024-03-15")
	if err != nil || len(summary) != 0 {
		t.Errorf("empty user summary = %+v, %v", summary, err)
	}
}

func TestUserSummary(t *testing.T) {
	db := newTestDB(t)
	alice := createUser(t, db, "alice", models.UserTypeRegular, "eng")
	bob := createUser(t, db, "bob", models.UserTypeRegular, "eng")
	carol := createUser(t, db, "carol", models.UserTypeRegular, "eng")
	createUser(t, db, "boss", models.UserTypeAdmin, "")

	for _, d := range []string{"2024-03-11", "2024-03-12", "2024-03-13", "2024-03-14"} {
		createRecord(t, db, bob.ID, d, models.StatusPresent)
	}
	createRecord(t, db, alice.ID, "2024-03-11", models.StatusPresent)
	createRecord(t, db, alice.ID, "2024-03-12", models.StatusLate)
	createRecord(t, db, alice.ID, "2024-03-13", models.StatusHalfDay)
	// outside the range
	createRecord(t, db, carol.ID, "2024-03-01", models.StatusPresent)

	svc := NewReportService(db, newFakeClock(day(18, 0)))
	got, err := svc.UserSummary("2024-03-11", "2024-03-15")
	if err != nil {
		t.Fatalf("UserSummary() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("summaries = %d, want 3 regular users", len(got))
	}

	if got[0].Username != "bob" || got[0].PresentDays != 4 || got[0].AttendancePercentage != 80 {
		t.Errorf("first = %+v, want bob at 80%%", got[0])
	}
	a := got[1]
	if a.Username != "alice" || a.TotalDays != 5 || a.PresentDays != 1 || a.LateDays != 1 || a.AbsentDays != 3 {
		t.Errorf("alice = %+v, want total 5 present 1 late 1 absent 3", a)
	}
	if got[2].Username != "carol" || got[2].AbsentDays != 5 || got[2].AttendancePercentage != 0 {
		t.Errorf("carol = %+v", got[2])
	}
}

func TestUserSummary_StableOrderOnTies(t *testing.T) {
	db := newTestDB(t)
	for _, name := range []string{"u1", "u2", "u3"} {
		createUser(t, db, name, models.UserTypeRegular, "")
	}
	svc := NewReportService(db, newFakeClock(day(18, 0)))

	got, err := svc.UserSummary("2024-03-15", "2024-03-15")
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []string{"u1", "u2", "u3"} {
		if got[i].Username != want {
			t.Errorf("position %d = %s, want %s", i, got[i].Username, want)
		}
	}
}

func TestReportRanges(t *testing.T) {
	svc := NewReportService(newTestDB(t), newFakeClock(day(18, 0)))

	start, end, err := svc.RangeFromDays(30)
	if err != nil || start != "2024-02-15" || end != "2024-03-15" {
		t.Errorf("RangeFromDays(30) = %s..%s, %v", start, end, err)
	}
	start, end, err = svc.RangeFromDays(1)
	if err != nil || start != end {
		t.Errorf("RangeFromDays(1) = %s..%s, %v", start, end, err)
	}
	for _, days := range []int{0, -3, MaxReportDays + 1} {
		if _, _, err := svc.RangeFromDays(days); !errors.Is(err, ErrInvalidDateRange) {
			t.Errorf("RangeFromDays(%d) error = %v", days, err)
		}
	}

	if _, err := svc.Trends("2024-03-15", "2024-03-01"); !errors.Is(err, ErrInvalidDateRange) {
		t.Errorf("inverted Trends() error = %v", err)
	}
	if _, err := svc.Trends("2020-01-01", "2024-01-01"); !errors.Is(err, ErrInvalidDateRange) {
		t.Errorf("oversized Trends() error = %v", err)
	}
	if _, err := svc.DailySummary("March 15"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("DailySummary(bad date) error = %v", err)
	}
}

func TestPercentage(t *testing.T) {
	if got := percentage(3, 0); got != 0 {
		t.Errorf("percentage(3, 0) = %v", got)
	}
	if got := percentage(1, 4); got != 25 {
		t.Errorf("percentage(1, 4) = %v", got)
	}
}

func TestReportRanges_FollowConfiguredLocation(t *testing.T) {
	svc := NewReportService(newTestDB(t), newFakeClock(time.Date(2024, 3, 15, 23, 30, 0, 0, time.UTC)))
	svc.Location = time.FixedZone("UTC+9", 9*60*60)

	start, end, err := svc.RangeFromDays(2)
	if err != nil || start != "2024-03-15" || end != "2024-03-16" {
		t.Errorf("RangeFromDays(2) = %s..%s, %v", start, end, err)
	}
	summary, err := svc.DailySummary("")
	if err != nil || summary.Date != "2024-03-16" {
		t.Errorf("DailySummary date = %s, %v", summary.Date, err)
	}
}
