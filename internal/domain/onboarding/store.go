package onboarding

// Store holds one session's draft and captured profile. Errors are recomputed
// on every write, so a read after Update always sees the current ErrorMap.
//
// Store is not safe for concurrent use; Flow serializes access to it.
type Store struct {
	draft   Draft
	profile *Profile
	errs    ErrorMap
}

// NewStore returns a store holding an empty draft.
func NewStore() *Store {
	s := &Store{}
	s.errs = Validate(s.draft)
	return s
}

// Get returns a copy of the current draft.
func (s *Store) Get() Draft {
	return s.draft
}

// Update applies a single field update.
func (s *Store) Update(u FieldUpdate) error {
	return s.UpdateAll(u)
}

// UpdateAll applies updates in order. Either all of them are applied or, on
// the first invalid update, none are.
func (s *Store) UpdateAll(updates ...FieldUpdate) error {
	next := s.draft
	for _, u := range updates {
		var err error
		next, err = next.With(u)
		if err != nil {
			return err
		}
	}
	s.draft = next
	s.errs = Validate(next)
	return nil
}

// Errors returns a copy of the current ErrorMap.
func (s *Store) Errors() ErrorMap {
	return s.errs.clone()
}

// Profile returns the captured profile, if any.
func (s *Store) Profile() (Profile, bool) {
	if s.profile == nil {
		return Profile{}, false
	}
	return *s.profile, true
}

// SetProfile records the profile and copies its name and email into the
// draft where the draft's values are still empty.
func (s *Store) SetProfile(p Profile) {
	s.profile = &p
	next := s.draft
	if next.FullName == "" {
		next.FullName = p.Name
	}
	if next.Email == "" {
		next.Email = p.Email
	}
	s.draft = next
	s.errs = Validate(next)
}

// Reset restores the empty draft and forgets the profile.
func (s *Store) Reset() {
	s.draft = Draft{}
	s.profile = nil
	s.errs = Validate(s.draft)
}
