package domain

import (
	"fmt"
	"time"
)

// TimestampLayout is the ISO-8601 form used for createdAt, millisecond precision in UTC.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

const DefaultPriority = "medium"

type Task struct {
	ID          int64  `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Title       string `json:"title" gorm:"not null"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Completed   bool   `json:"completed" gorm:"index"`
	CreatedAt   string `json:"createdAt" gorm:"column:created_at"`
}

func (Task) TableName() string {
	return "tasks"
}

// FormatTimestamp renders t the way createdAt is persisted.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ==================== FILTER ====================

type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// ParseFilter accepts "", "all", "active" and "completed". An empty name means all.
func ParseFilter(name string) (Filter, error) {
	switch Filter(name) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterActive:
		return FilterActive, nil
	case FilterCompleted:
		return FilterCompleted, nil
	default:
		return "", fmt.Errorf("unknown filter %q: must be one of all, active, completed", name)
	}
}

func (f Filter) Matches(t Task) bool {
	switch f {
	case FilterActive:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	default:
		return true
	}
}

// Apply returns the tasks matching f, preserving order.
func (f Filter) Apply(tasks []Task) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

// ==================== STATS ====================

type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
}

func ComputeStats(tasks []Task) Stats {
	var s Stats
	s.Total = len(tasks)
	for _, t := range tasks {
		if t.Completed {
			s.Completed++
		}
	}
	s.Pending = s.Total - s.Completed
	return s
}
