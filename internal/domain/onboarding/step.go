package onboarding

import "fmt"

// Step is a stage of the onboarding sequence.
type Step int

const (
	StepLanding Step = iota
	StepIdentity
	StepForm
	StepDone
)

var stepNames = map[Step]string{
	StepLanding:  "landing",
	StepIdentity: "identity",
	StepForm:     "form",
	StepDone:     "done",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Step) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseStep resolves a step name.
func ParseStep(name string) (Step, error) {
	for s, n := range stepNames {
		if n == name {
			return s, nil
		}
	}
	return StepLanding, fmt.Errorf("unknown step %q", name)
}
