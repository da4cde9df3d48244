package models

import (
	"errors"
	"time"
)

const (
	StatusDone   = "done"
	StatusUndone = "undone"
)

var ErrUnknownStatus = errors.New("unknown status")

type Task struct {
	ID        int64
	Label     string
	Done      bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ParseStatus maps a status name to the value of the Done flag.
func ParseStatus(status string) (bool, error) {
	switch status {
	case StatusDone:
		return true, nil
	case StatusUndone:
		return false, nil
	default:
		return false, ErrUnknownStatus
	}
}

func StatusOf(done bool) string {
	if done {
		return StatusDone
	}
	return StatusUndone
}
