package series

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidStatus = errors.New("invalid episode status")

// Status is the initial status applied to episodes of a newly added show.
type Status string

const (
	StatusWanted  Status = "wanted"
	StatusSkipped Status = "skipped"
	StatusIgnored Status = "ignored"
)

// Legacy numeric codes still sent by older form clients.
var statusCodes = map[int]Status{
	3: StatusWanted,
	5: StatusSkipped,
	7: StatusIgnored,
}

// Code returns the legacy numeric code for the status, or 0.
func (s Status) Code() int {
	for code, st := range statusCodes {
		if st == s {
			return code
		}
	}
	return 0
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s.Code() != 0
}

// ParseStatus accepts a status name or its legacy numeric code.
func ParseStatus(v string) (Status, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if code, err := strconv.Atoi(v); err == nil {
		if st, ok := statusCodes[code]; ok {
			return st, nil
		}
		return "", fmt.Errorf("%w: %d", ErrInvalidStatus, code)
	}

	st := Status(v)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, v)
	}
	return st, nil
}
