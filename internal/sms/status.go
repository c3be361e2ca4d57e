package sms

import (
	"fmt"
	"strconv"
	"strings"
)

// Status is the delivery state of a Message.
type Status int

const (
	StatusQueued Status = 0
	StatusSent   Status = 1
	StatusFailed Status = -1
)

// ValidStatuses returns every legal Status value.
func ValidStatuses() []Status {
	return []Status{StatusQueued, StatusSent, StatusFailed}
}

// Valid reports whether s is one of the legal status values.
func (s Status) Valid() bool {
	switch s {
	case StatusQueued, StatusSent, StatusFailed:
		return true
	}
	return false
}

func (s Status) String() string {
	switch s {
	case StatusQueued:
		return "queued"
	case StatusSent:
		return "sent"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// ParseStatus converts a raw record value into a Status. Numbers, numeric
// strings and status names are accepted.
func ParseStatus(v any) (Status, error) {
	var s Status
	switch x := v.(type) {
	case Status:
		s = x
	case int:
		s = Status(x)
	case int64:
		s = Status(x)
	case float64:
		if x != float64(int(x)) {
			return 0, fmt.Errorf("%w: illegal status %v", ErrInvalidArgument, v)
		}
		s = Status(int(x))
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "queued":
			return StatusQueued, nil
		case "sent":
			return StatusSent, nil
		case "failed":
			return StatusFailed, nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0, fmt.Errorf("%w: illegal status %q", ErrInvalidArgument, x)
		}
		s = Status(n)
	default:
		return 0, fmt.Errorf("%w: illegal status %v", ErrInvalidArgument, v)
	}
	if !s.Valid() {
		return 0, fmt.Errorf("%w: illegal status %d", ErrInvalidArgument, int(s))
	}
	return s, nil
}
