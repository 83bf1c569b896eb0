package models

import (
	"time"

	"github.com/samber/lo"
)

// Task is an entry of a user's daily task list
type Task struct {
	ID          string
	Owner       string
	Time        string
	Title       string
	Description []string
	Links       []string
	Completed   bool
	CreatedAt   time.Time
}

// NewTask creates an open task owned by ownerID
func NewTask(ownerID, at, title string, description, links []string) *Task {
	if links == nil {
		links = []string{}
	}
	return &Task{
		ID:          NewID(),
		Owner:       ownerID,
		Time:        at,
		Title:       title,
		Description: description,
		Links:       links,
		CreatedAt:   time.Now().UTC(),
	}
}

// SetCompleted reports whether the flag changed
func (t *Task) SetCompleted(completed bool) bool {
	if t.Completed == completed {
		return false
	}
	t.Completed = completed
	return true
}

// AddTask appends taskID to the daily task list, once
func (u *User) AddTask(taskID string) bool {
	if lo.Contains(u.DailyTask, taskID) {
		return false
	}
	u.DailyTask = append(u.DailyTask, taskID)
	return true
}

// RemoveTask pulls taskID from the daily task list
func (u *User) RemoveTask(taskID string) bool {
	n := len(u.DailyTask)
	u.DailyTask = lo.Without(u.DailyTask, taskID)
	return n != len(u.DailyTask)
}
