package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"attendance-backend/models"

	"gorm.io/gorm"
)

const (
	DefaultReportDays = 30
	MaxReportDays     = 366
)

// ReportService computes the admin dashboards. The population is always the
// regular (non-admin) users.
type ReportService struct {
	DB       *gorm.DB
	Clock    Clock
	Location *time.Location
}

func NewReportService(db *gorm.DB, clock Clock) *ReportService {
	return &ReportService{DB: db, Clock: clockOrSystem(clock)}
}

type DailySummary struct {
	Date              string                    `json:"date"`
	TotalEmployees    int64                     `json:"total_employees"`
	Present           int64                     `json:"present"`
	Absent            int64                     `json:"absent"`
	Late              int64                     `json:"late"`
	PresentPercentage float64                   `json:"present_percentage"`
	Records           []models.AttendanceRecord `json:"records"`
}

type DepartmentStat struct {
	Department        string  `json:"department"`
	TotalEmployees    int64   `json:"total_employees"`
	Present           int64   `json:"present"`
	Absent            int64   `json:"absent"`
	PresentPercentage float64 `json:"present_percentage"`
}

type DashboardStats struct {
	Date              string           `json:"date"`
	TotalEmployees    int64            `json:"total_employees"`
	Present           int64            `json:"present"`
	Absent            int64            `json:"absent"`
	Late              int64            `json:"late"`
	PresentPercentage float64          `json:"present_percentage"`
	DepartmentStats   []DepartmentStat `json:"department_stats"`
}

type DailyStat struct {
	Date              string  `json:"date"`
	Present           int64   `json:"present"`
	Absent            int64   `json:"absent"`
	Late              int64   `json:"late"`
	PresentPercentage float64 `json:"present_percentage"`
}

type Trends struct {
	StartDate  string      `json:"start_date"`
	EndDate    string      `json:"end_date"`
	DailyStats []DailyStat `json:"daily_stats"`
}

type UserAttendanceSummary struct {
	ID                   uint    `json:"id"`
	Username             string  `json:"username"`
	Email                string  `json:"email"`
	Department           string  `json:"department"`
	TotalDays            int64   `json:"total_days"`
	PresentDays          int64   `json:"present_days"`
	AbsentDays           int64   `json:"absent_days"`
	LateDays             int64   `json:"late_days"`
	AttendancePercentage float64 `json:"attendance_percentage"`
}

func percentage(part, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func (s *ReportService) today() time.Time {
	now := s.Clock.Now()
	if s.Location != nil {
		now = now.In(s.Location)
	}
	d, _ := time.Parse(DateLayout, DateKey(now))
	return d
}

// resolveDate defaults to today.
func (s *ReportService) resolveDate(date string) (string, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return DateKey(s.today()), nil
	}
	if _, err := ParseDate(date); err != nil {
		return "", err
	}
	return date, nil
}

// RangeFromDays is [today-(days-1), today].
func (s *ReportService) RangeFromDays(days int) (string, string, error) {
	if days < 1 || days > MaxReportDays {
		return "", "", fmt.Errorf("%w: days must be between 1 and %d", ErrInvalidDateRange, MaxReportDays)
	}
	end := s.today()
	start := end.AddDate(0, 0, -(days - 1))
	return DateKey(start), DateKey(end), nil
}

// dateSpan validates the range and returns every date in it.
func dateSpan(start, end string) ([]string, error) {
	from, err := ParseDate(start)
	if err != nil {
		return nil, err
	}
	to, err := ParseDate(end)
	if err != nil {
		return nil, err
	}
	if from.After(to) {
		return nil, ErrInvalidDateRange
	}
	var days []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, DateKey(d))
		if len(days) > MaxReportDays {
			return nil, fmt.Errorf("%w: range longer than %d days", ErrInvalidDateRange, MaxReportDays)
		}
	}
	return days, nil
}

func (s *ReportService) countRegularUsers() (int64, error) {
	var total int64
	if err := s.DB.Model(&models.User{}).Where("user_type = ?", models.UserTypeRegular).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count employees: %w", err)
	}
	return total, nil
}

func (s *ReportService) countStatus(date, status string) (int64, error) {
	var n int64
	if err := s.DB.Model(&models.AttendanceRecord{}).
		Where("date = ? AND status = ?", date, status).
		Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count %s records: %w", status, err)
	}
	return n, nil
}

// DailySummary counts absence as everyone not present, so late employees are
// also counted absent here. DashboardStats and Trends subtract late as well.
func (s *ReportService) DailySummary(date string) (DailySummary, error) {
	date, err := s.resolveDate(date)
	if err != nil {
		return DailySummary{}, err
	}

	total, err := s.countRegularUsers()
	if err != nil {
		return DailySummary{}, err
	}
	present, err := s.countStatus(date, models.StatusPresent)
	if err != nil {
		return DailySummary{}, err
	}
	late, err := s.countStatus(date, models.StatusLate)
	if err != nil {
		return DailySummary{}, err
	}

	var records []models.AttendanceRecord
	if err := s.DB.Preload("User").Where("date = ?", date).Order("user_id ASC").Find(&records).Error; err != nil {
		return DailySummary{}, fmt.Errorf("failed to load records: %w", err)
	}

	return DailySummary{
		Date:              date,
		TotalEmployees:    total,
		Present:           present,
		Absent:            total - present,
		Late:              late,
		PresentPercentage: percentage(present, total),
		Records:           records,
	}, nil
}

func (s *ReportService) DashboardStats(date string) (DashboardStats, error) {
	date, err := s.resolveDate(date)
	if err != nil {
		return DashboardStats{}, err
	}

	total, err := s.countRegularUsers()
	if err != nil {
		return DashboardStats{}, err
	}
	present, err := s.countStatus(date, models.StatusPresent)
	if err != nil {
		return DashboardStats{}, err
	}
	late, err := s.countStatus(date, models.StatusLate)
	if err != nil {
		return DashboardStats{}, err
	}

	type deptCount struct {
		Department string
		N          int64
	}
	var headcount []deptCount
	if err := s.DB.Model(&models.User{}).
		Select("department, COUNT(*) AS n").
		Where("user_type = ? AND department <> ''", models.UserTypeRegular).
		Group("department").Order("department ASC").
		Scan(&headcount).Error; err != nil {
		return DashboardStats{}, fmt.Errorf("failed to count departments: %w", err)
	}

	var presentByDept []deptCount
	if err := s.DB.Table("attendance_records AS r").
		Select("u.department AS department, COUNT(*) AS n").
		Joins("JOIN users u ON u.id = r.user_id").
		Where("r.date = ? AND r.status = ? AND u.user_type = ?", date, models.StatusPresent, models.UserTypeRegular).
		Group("u.department").
		Scan(&presentByDept).Error; err != nil {
		return DashboardStats{}, fmt.Errorf("failed to count department attendance: %w", err)
	}
	presentMap := make(map[string]int64, len(presentByDept))
	for _, p := range presentByDept {
		presentMap[p.Department] = p.N
	}

	depts := make([]DepartmentStat, 0, len(headcount))
	for _, d := range headcount {
		p := presentMap[d.Department]
		depts = append(depts, DepartmentStat{
			Department:        d.Department,
			TotalEmployees:    d.N,
			Present:           p,
			Absent:            d.N - p,
			PresentPercentage: percentage(p, d.N),
		})
	}

	return DashboardStats{
		Date:              date,
		TotalEmployees:    total,
		Present:           present,
		Absent:            total - present - late,
		Late:              late,
		PresentPercentage: percentage(present, total),
		DepartmentStats:   depts,
	}, nil
}

type dateStatusCount struct {
	Date   string
	Status string
	N      int64
}

// Trends reports each day of [start, end] independently.
func (s *ReportService) Trends(start, end string) (Trends, error) {
	days, err := dateSpan(start, end)
	if err != nil {
		return Trends{}, err
	}
	start, end = days[0], days[len(days)-1]
	total, err := s.countRegularUsers()
	if err != nil {
		return Trends{}, err
	}

	var counts []dateStatusCount
	if err := s.DB.Model(&models.AttendanceRecord{}).
		Select("date, status, COUNT(*) AS n").
		Where("date >= ? AND date <= ? AND status IN ?", start, end, []string{models.StatusPresent, models.StatusLate}).
		Group("date, status").
		Scan(&counts).Error; err != nil {
		return Trends{}, fmt.Errorf("failed to aggregate attendance: %w", err)
	}

	present := map[string]int64{}
	late := map[string]int64{}
	for _, c := range counts {
		switch c.Status {
		case models.StatusPresent:
			present[c.Date] = c.N
		case models.StatusLate:
			late[c.Date] = c.N
		}
	}

	stats := make([]DailyStat, 0, len(days))
	for _, d := range days {
		p, l := present[d], late[d]
		stats = append(stats, DailyStat{
			Date:              d,
			Present:           p,
			Absent:            total - p - l,
			Late:              l,
			PresentPercentage: percentage(p, total),
		})
	}
	return Trends{StartDate: start, EndDate: end, DailyStats: stats}, nil
}

// UserSummary counts every day in range without a present or late record as
// absent, weekends included. Sorted by attendance percentage, highest first.
func (s *ReportService) UserSummary(start, end string) ([]UserAttendanceSummary, error) {
	days, err := dateSpan(start, end)
	if err != nil {
		return nil, err
	}
	start, end = days[0], days[len(days)-1]
	totalDays := int64(len(days))

	var users []models.User
	if err := s.DB.Where("user_type = ?", models.UserTypeRegular).Order("id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to load employees: %w", err)
	}

	type userStatusCount struct {
		UserID uint
		Status string
		N      int64
	}
	var counts []userStatusCount
	if err := s.DB.Model(&models.AttendanceRecord{}).
		Select("user_id, status, COUNT(*) AS n").
		Where("date >= ? AND date <= ? AND status IN ?", start, end, []string{models.StatusPresent, models.StatusLate}).
		Group("user_id, status").
		Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate attendance: %w", err)
	}

	present := map[uint]int64{}
	late := map[uint]int64{}
	for _, c := range counts {
		switch c.Status {
		case models.StatusPresent:
			present[c.UserID] = c.N
		case models.StatusLate:
			late[c.UserID] = c.N
		}
	}

	out := make([]UserAttendanceSummary, 0, len(users))
	for _, u := range users {
		p, l := present[u.ID], late[u.ID]
		out = append(out, UserAttendanceSummary{
			ID:                   u.ID,
			Username:             u.Username,
			Email:                u.Email,
			Department:           u.Department,
			TotalDays:            totalDays,
			PresentDays:          p,
			AbsentDays:           totalDays - p - l,
			LateDays:             l,
			AttendancePercentage: percentage(p, totalDays),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AttendancePercentage > out[j].AttendancePercentage
	})
	return out, nil
}
