package rbac

import (
	"errors"
	"fmt"
	"regexp"
)

var ErrInvalidTable = errors.New("invalid authorization table")

var segmentPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// Table maps each role to its ordered nav entries. A Table never changes
// after NewTable returns; replace it through Policy.Swap instead.
type Table struct {
	version string
	entries map[Role][]NavEntry
	index   map[Role]map[string]Access
}

// NewTable validates and copies entries. Roles absent from entries are
// unknown to the table; a role present with no entries is valid and
// authorizes nothing.
func NewTable(version string, entries map[Role][]NavEntry) (*Table, error) {
	t := &Table{
		version: version,
		entries: make(map[Role][]NavEntry, len(entries)),
		index:   make(map[Role]map[string]Access, len(entries)),
	}

	for role, list := range entries {
		if !role.Valid() {
			return nil, fmt.Errorf("%w: %w: %q", ErrInvalidTable, ErrUnknownRole, role)
		}

		seen := make(map[string]Access, len(list))
		hasDashboard := false
		for i, e := range list {
			if !segmentPattern.MatchString(e.Segment) {
				return nil, fmt.Errorf("%w: role %s entry %d: bad segment %q", ErrInvalidTable, role, i, e.Segment)
			}
			if !e.Access.Valid() {
				return nil, fmt.Errorf("%w: role %s segment %s: bad access %q", ErrInvalidTable, role, e.Segment, e.Access)
			}
			if _, dup := seen[e.Segment]; dup {
				return nil, fmt.Errorf("%w: role %s: duplicate segment %s", ErrInvalidTable, role, e.Segment)
			}
			seen[e.Segment] = e.Access
			if e.Segment == SegmentDashboard {
				hasDashboard = true
			}
		}
		if len(list) > 0 && !hasDashboard {
			return nil, fmt.Errorf("%w: role %s has no %s entry", ErrInvalidTable, role, SegmentDashboard)
		}

		copied := make([]NavEntry, len(list))
		copy(copied, list)
		t.entries[role] = copied
		t.index[role] = seen
	}

	return t, nil
}

func (t *Table) Version() string {
	if t == nil {
		return ""
	}
	return t.version
}

// Knows reports whether role has a row in the table, even an empty one.
func (t *Table) Knows(role Role) bool {
	if t == nil {
		return false
	}
	_, ok := t.entries[role]
	return ok
}

// PermittedEntries returns a copy of the role's ordered entries. Unknown
// roles get an empty list.
func (t *Table) PermittedEntries(role Role) []NavEntry {
	if t == nil {
		return []NavEntry{}
	}
	list := t.entries[role]
	out := make([]NavEntry, len(list))
	copy(out, list)
	return out
}

func (t *Table) IsPermitted(role Role, segment string) bool {
	if t == nil {
		return false
	}
	_, ok := t.index[role][segment]
	return ok
}

// Allows reports whether role may perform access on segment.
func (t *Table) Allows(role Role, segment string, access Access) bool {
	if t == nil {
		return false
	}
	granted, ok := t.index[role][segment]
	if !ok {
		return false
	}
	return granted.covers(access)
}
