package catalog

// Changes describes how a catalog moved between two revisions.
type Changes struct {
	Added      []Entry
	Superseded []Supersede // same protocol key, new project or URL
	Removed    []Entry
}

// Supersede records an entry replaced in place: the protocol key survived
// but its project or URL changed.
type Supersede struct {
	Old Entry
	New Entry
}

// IsAppendOnly reports whether the transition only grew the catalog.
// Supersedes are allowed; removals are not.
func (c Changes) IsAppendOnly() bool { return len(c.Removed) == 0 }

// Diff compares two revisions of the catalog by protocol key.
func Diff(old, new *Catalog) Changes {
	var changes Changes

	oldByKey := make(map[string]Entry, len(old.Entries))
	for _, e := range old.Entries {
		oldByKey[e.Key()] = e
	}

	newKeys := make(map[string]struct{}, len(new.Entries))
	for _, e := range new.Entries {
		key := e.Key()
		if _, dup := newKeys[key]; dup {
			continue
		}
		newKeys[key] = struct{}{}

		prev, existed := oldByKey[key]
		switch {
		case !existed:
			changes.Added = append(changes.Added, e)
		case prev.Project != e.Project || prev.URL != e.URL:
			changes.Superseded = append(changes.Superseded, Supersede{Old: prev, New: e})
		}
	}

	removedKeys := make(map[string]struct{})
	for _, e := range old.Entries {
		key := e.Key()
		if _, still := newKeys[key]; still {
			continue
		}
		if _, dup := removedKeys[key]; dup {
			continue
		}
		removedKeys[key] = struct{}{}
		changes.Removed = append(changes.Removed, e)
	}

	return changes
}
