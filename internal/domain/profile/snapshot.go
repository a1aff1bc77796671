package profile

import "time"

// Stats summarizes a snapshot.
type Stats struct {
	Version        string    `json:"version"`
	BuiltAt        time.Time `json:"builtAt"`
	Users          int       `json:"users"`
	UserTypes      int       `json:"userTypes"`
	QualityFocused int       `json:"qualityFocused"`
	BulkBuyers     int       `json:"bulkBuyers"`
	VIP            int       `json:"vip"`
}

// Snapshot is an immutable, read-only view of one build. All methods
// are safe on a nil receiver and report an empty store.
type Snapshot struct {
	version   string
	builtAt   time.Time
	profiles  map[string]UserProfile
	history   map[string][]string
	userTypes map[string]UserTypeProfile
	stats     Stats
}

// NewSnapshot wraps a build result. The result must not be mutated afterwards.
func NewSnapshot(version string, builtAt time.Time, r Result) *Snapshot {
	s := &Snapshot{
		version:   version,
		builtAt:   builtAt,
		profiles:  r.Profiles,
		history:   r.History,
		userTypes: r.UserTypes,
	}
	if s.profiles == nil {
		s.profiles = map[string]UserProfile{}
	}
	if s.history == nil {
		s.history = map[string][]string{}
	}
	if s.userTypes == nil {
		s.userTypes = map[string]UserTypeProfile{}
	}

	st := Stats{Version: version, BuiltAt: builtAt, Users: len(s.profiles), UserTypes: len(s.userTypes)}
	for _, p := range s.profiles {
		if p.QualityFocused {
			st.QualityFocused++
		}
		if p.BulkBuyer {
			st.BulkBuyers++
		}
		if p.OrderFrequency == VIP {
			st.VIP++
		}
	}
	s.stats = st
	return s
}

// Empty returns a snapshot with no profiles.
func Empty() *Snapshot {
	return NewSnapshot("", time.Time{}, Result{})
}

// Profile returns the profile of userID.
func (s *Snapshot) Profile(userID string) (UserProfile, bool) {
	if s == nil || userID == "" {
		return UserProfile{}, false
	}
	p, ok := s.profiles[userID]
	return p, ok
}

// PurchasedProducts returns the sorted, distinct product ids userID has ordered.
func (s *Snapshot) PurchasedProducts(userID string) []string {
	if s == nil || userID == "" {
		return nil
	}
	return s.history[userID]
}

// UserTypeProfile returns the aggregate for a user type.
func (s *Snapshot) UserTypeProfile(userType string) (UserTypeProfile, bool) {
	if s == nil || userType == "" {
		return UserTypeProfile{}, false
	}
	t, ok := s.userTypes[userType]
	return t, ok
}

// Profiles returns the underlying profile map. Callers must not mutate it.
func (s *Snapshot) Profiles() map[string]UserProfile {
	if s == nil {
		return nil
	}
	return s.profiles
}

// History returns the underlying history map. Callers must not mutate it.
func (s *Snapshot) History() map[string][]string {
	if s == nil {
		return nil
	}
	return s.history
}

// UserTypes returns the underlying user-type map. Callers must not mutate it.
func (s *Snapshot) UserTypes() map[string]UserTypeProfile {
	if s == nil {
		return nil
	}
	return s.userTypes
}

// Len returns the number of profiles.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.profiles)
}

// Stats returns summary counts.
func (s *Snapshot) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return s.stats
}

// Version returns the build version, empty for an empty store.
func (s *Snapshot) Version() string {
	if s == nil {
		return ""
	}
	return s.version
}

// BuiltAt returns the build time.
func (s *Snapshot) BuiltAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.builtAt
}
