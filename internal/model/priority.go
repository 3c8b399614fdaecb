package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownPriority  = errors.New("could not recognize priority")
	ErrUnknownSortOrder = errors.New("could not recognize sort order")
)

// Priority names one of the three log tiers.
type Priority uint8

const (
	Info Priority = iota
	Debug
	Error
)

// Priorities returns the tiers in their fixed export order.
func Priorities() []Priority {
	return []Priority{Info, Debug, Error}
}

// ParsePriority converts "info", "debug" or "error" (any case) to a Priority.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(s) {
	case "info":
		return Info, nil
	case "debug":
		return Debug, nil
	case "error":
		return Error, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPriority, s)
	}
}

func (p Priority) String() string {
	switch p {
	case Info:
		return "Info"
	case Debug:
		return "Debug"
	case Error:
		return "Error"
	default:
		return fmt.Sprintf("Priority(%d)", uint8(p))
	}
}

// Tag returns the upper-case label used when mirroring entries to a console.
func (p Priority) Tag() string {
	return strings.ToUpper(p.String())
}

// Valid reports whether p is one of the declared tiers.
func (p Priority) Valid() bool {
	return p <= Error
}

func (p Priority) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPriority, uint8(p))
	}
	return []byte(p.String()), nil
}

func (p *Priority) UnmarshalText(text []byte) error {
	v, err := ParsePriority(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// SortOrder selects the timestamp direction of a sorted aggregate.
type SortOrder uint8

const (
	Ascending SortOrder = iota
	Descending
)

// ParseSortOrder converts "asc" or "desc" (any case) to a SortOrder.
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(s) {
	case "asc":
		return Ascending, nil
	case "desc":
		return Descending, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownSortOrder, s)
	}
}

func (o SortOrder) String() string {
	switch o {
	case Ascending:
		return "asc"
	case Descending:
		return "desc"
	default:
		return fmt.Sprintf("SortOrder(%d)", uint8(o))
	}
}

func (o SortOrder) MarshalText() ([]byte, error) {
	if o > Descending {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSortOrder, uint8(o))
	}
	return []byte(o.String()), nil
}

func (o *SortOrder) UnmarshalText(text []byte) error {
	v, err := ParseSortOrder(string(text))
	if err != nil {
		return err
	}
	*o = v
	return nil
}
