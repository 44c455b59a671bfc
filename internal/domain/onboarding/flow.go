package onboarding

import (
	"context"
	"fmt"
	"sync"
)

// Policy holds the product switches that shape the flow.
type Policy struct {
	// AllowSkip lets a patient continue to the form without signing in.
	AllowSkip bool
}

// Flow is the step controller for one onboarding session. It owns the
// session's Store; every method is atomic with respect to the others.
type Flow struct {
	mu        sync.Mutex
	step      Step
	store     *Store
	guest     bool
	receipt   *Receipt
	policy    Policy
	submitter Submitter
}

// NewFlow starts a session at the landing step.
func NewFlow(policy Policy, submitter Submitter) *Flow {
	return &Flow{
		step:      StepLanding,
		store:     NewStore(),
		policy:    policy,
		submitter: submitter,
	}
}

// Snapshot is a consistent copy of the session for rendering.
type Snapshot struct {
	Step    Step
	Draft   Draft
	Errors  ErrorMap
	Profile *Profile
	Guest   bool
	Receipt *Receipt
}

// Authorized reports whether the session may see the form and done steps.
func (s Snapshot) Authorized() bool {
	return s.Profile != nil || s.Guest
}

func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

func (f *Flow) snapshotLocked() Snapshot {
	snap := Snapshot{
		Step:   f.step,
		Draft:  f.store.Get(),
		Errors: f.store.Errors(),
		Guest:  f.guest,
	}
	if p, ok := f.store.Profile(); ok {
		snap.Profile = &p
	}
	if f.receipt != nil {
		r := *f.receipt
		snap.Receipt = &r
	}
	return snap
}

func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

func (f *Flow) authorizedLocked() bool {
	_, ok := f.store.Profile()
	return ok || f.guest
}

// Start applies the entry deep link: a session arriving from a staff or
// kiosk QR code begins at the identity step instead of landing.
func (f *Flow) Start(deepLink bool) Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	if deepLink && f.step == StepLanding {
		f.step = StepIdentity
	}
	return f.step
}

// Scanned is the explicit "I already scanned" action on the landing step.
func (f *Flow) Scanned() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step == StepLanding {
		f.step = StepIdentity
	}
	return f.step
}

// CaptureIdentity handles the sign-in widget's callback. A failed decode
// leaves the flow untouched. Once a profile exists, or once the flow has
// moved past the identity step, further callbacks are ignored.
func (f *Flow) CaptureIdentity(credential string) (Step, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.store.Profile(); ok {
		return f.step, nil
	}
	if f.step != StepLanding && f.step != StepIdentity {
		return f.step, nil
	}

	p, err := DecodeCredential(credential)
	if err != nil {
		return f.step, fmt.Errorf("capture identity: %w", err)
	}
	f.store.SetProfile(p)
	f.step = StepForm
	return f.step, nil
}

// Skip continues to the form without a profile when the policy allows it.
func (f *Flow) Skip() (Step, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.policy.AllowSkip {
		return f.step, ErrSkipNotAllowed
	}
	if f.step != StepLanding && f.step != StepIdentity {
		return f.step, nil
	}
	f.guest = true
	f.step = StepForm
	return f.step, nil
}

// Enter moves to the requested step if the session may see it and returns
// the step actually entered. The form and done steps fall back to identity
// without a profile; done falls back to the form unless the current draft
// was accepted and is still valid.
func (f *Flow) Enter(target Step) Step {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch target {
	case StepForm, StepDone:
		if !f.authorizedLocked() {
			f.step = StepIdentity
			return f.step
		}
		if target == StepDone && (f.receipt == nil || !f.store.Errors().Valid()) {
			f.step = StepForm
			return f.step
		}
	case StepLanding, StepIdentity:
	default:
		return f.step
	}
	f.step = target
	return f.step
}

// Update applies field updates atomically and returns the resulting errors.
// The done step is read-only. Editing after going back to the form drops
// the earlier receipt, so done needs a fresh submission.
func (f *Flow) Update(updates ...FieldUpdate) (ErrorMap, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.authorizedLocked() {
		return nil, ErrProfileRequired
	}
	if f.step == StepDone {
		return f.store.Errors(), ErrAlreadySubmitted
	}
	if err := f.store.UpdateAll(updates...); err != nil {
		return f.store.Errors(), err
	}
	if len(updates) > 0 {
		f.receipt = nil
	}
	return f.store.Errors(), nil
}

// Submit accepts the form when it has no validation errors. While any error
// is present nothing happens: no submission, no step change. On success the
// flow moves to the done step.
func (f *Flow) Submit(ctx context.Context) (Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.authorizedLocked() {
		return Receipt{}, ErrProfileRequired
	}
	if f.step != StepForm {
		return Receipt{}, ErrNotOnForm
	}
	if errs := f.store.Errors(); !errs.Valid() {
		return Receipt{}, &ValidationError{Errors: errs}
	}

	sub := Submission{Form: f.store.Get()}
	if p, ok := f.store.Profile(); ok {
		sub.Profile = &p
	}
	r, err := f.submitter.Submit(ctx, sub)
	if err != nil {
		return Receipt{}, fmt.Errorf("submit onboarding: %w", err)
	}
	f.receipt = &r
	f.step = StepDone
	return r, nil
}

// Restart clears the profile, draft and receipt and returns to landing.
func (f *Flow) Restart() Step {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.store.Reset()
	f.guest = false
	f.receipt = nil
	f.step = StepLanding
	return f.step
}
