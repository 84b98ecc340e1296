// Package faction defines the group identities carried by detectable
// entities.
package faction

import (
	"fmt"
	"strings"
)

// ID names a faction. The set is defined by the host application; Players
// and Enemies are the built-ins.
type ID string

const (
	Players ID = "players"
	Enemies ID = "enemies"
)

// Parse normalizes a faction name read from configuration.
func Parse(name string) (ID, error) {
	id := ID(strings.ToLower(strings.TrimSpace(name)))
	if id == "" {
		return "", fmt.Errorf("faction: empty faction name")
	}
	return id, nil
}

// ParseAll parses names in order and reports the first invalid one.
func ParseAll(names []string) ([]ID, error) {
	out := make([]ID, 0, len(names))
	for i, name := range names {
		id, err := Parse(name)
		if err != nil {
			return nil, fmt.Errorf("faction %d: %w", i, err)
		}
		out = append(out, id)
	}
	return out, nil
}

// Set is an unordered collection of faction ids.
type Set map[ID]struct{}

// NewSet builds a set from ids.
func NewSet(ids ...ID) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s Set) Contains(id ID) bool {
	_, ok := s[id]
	return ok
}
