package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
)

// BadgeSet is the set of badge names a user has unlocked.
// Names are unique and carry no order; Names enumerates them sorted.
type BadgeSet struct {
	names map[string]struct{}
}

func NewBadgeSet(names ...string) BadgeSet {
	s := BadgeSet{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		s.names[n] = struct{}{}
	}
	return s
}

// Add inserts name and reports whether it was not already present.
func (s *BadgeSet) Add(name string) bool {
	if s.names == nil {
		s.names = make(map[string]struct{})
	}
	if _, ok := s.names[name]; ok {
		return false
	}
	s.names[name] = struct{}{}
	return true
}

func (s BadgeSet) Contains(name string) bool {
	_, ok := s.names[name]
	return ok
}

func (s BadgeSet) Len() int { return len(s.names) }

func (s BadgeSet) Names() []string {
	out := make([]string, 0, len(s.names))
	for n := range s.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy.
func (s BadgeSet) Clone() BadgeSet {
	return NewBadgeSet(s.Names()...)
}

// IsSubsetOf reports whether every name in s is also in other.
func (s BadgeSet) IsSubsetOf(other BadgeSet) bool {
	for n := range s.names {
		if !other.Contains(n) {
			return false
		}
	}
	return true
}

func (s BadgeSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Names())
}

func (s *BadgeSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return fmt.Errorf("decode badge set: %w", err)
	}
	*s = NewBadgeSet(names...)
	return nil
}

// Value stores the set as a sorted JSON array.
func (s BadgeSet) Value() (driver.Value, error) {
	raw, err := s.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (s *BadgeSet) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s = NewBadgeSet()
		return nil
	case string:
		return s.UnmarshalJSON([]byte(v))
	case []byte:
		return s.UnmarshalJSON(v)
	default:
		return fmt.Errorf("scan badge set: unsupported type %T", src)
	}
}
