package release

// Set holds at most one release per server-core version.
type Set map[string]*Version

// Add inserts v unless a release with the same core version is already present.
// It reports whether v was kept.
func (s Set) Add(v *Version) bool {
	if _, ok := s[v.CoreVersion]; ok {
		return false
	}
	s[v.CoreVersion] = v
	return true
}

// List returns the releases newest first, or oldest first when reverse is set.
func (s Set) List(reverse bool) []*Version {
	vs := make([]*Version, 0, len(s))
	for _, v := range s {
		vs = append(vs, v)
	}
	Sort(vs, reverse)
	return vs
}

// Dedupe keeps the newest release of every group sharing a core version.
// vs is sorted in place, newest first, before insertion.
func Dedupe(vs []*Version) Set {
	Sort(vs, false)
	set := Set{}
	for _, v := range vs {
		set.Add(v)
	}
	return set
}
