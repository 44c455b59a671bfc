package onboarding

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Submission is what leaves the flow when the form is accepted. Profile is
// nil for guest sessions.
type Submission struct {
	Profile *Profile `json:"profile,omitempty"`
	Form    Draft    `json:"form"`
}

// Receipt acknowledges an accepted submission.
type Receipt struct {
	ID          uuid.UUID `json:"id"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Submitter hands an accepted submission to whatever sits behind the form.
type Submitter interface {
	Submit(ctx context.Context, s Submission) (Receipt, error)
}

// LogSubmitter acknowledges submissions and records a structured log event.
// Field values are never logged.
type LogSubmitter struct {
	logger zerolog.Logger
	now    func() time.Time
}

func NewLogSubmitter(logger zerolog.Logger) *LogSubmitter {
	return &LogSubmitter{logger: logger, now: time.Now}
}

func (s *LogSubmitter) Submit(ctx context.Context, sub Submission) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	r := Receipt{ID: uuid.New(), SubmittedAt: s.now().UTC()}

	filled := 0
	for _, f := range allFields {
		if sub.Form.Value(f) != "" || sub.Form.Checked(f) {
			filled++
		}
	}
	s.logger.Info().
		Str("receipt_id", r.ID.String()).
		Bool("identified", sub.Profile != nil).
		Int("fields_filled", filled).
		Msg("onboarding submitted")
	return r, nil
}
