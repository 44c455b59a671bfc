package onboarding

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/pranacare/onboarding/internal/platform/session"
	"github.com/pranacare/onboarding/internal/platform/view"
)

// MsgSignInRequired is shown when skipping the identity step is disabled.
const MsgSignInRequired = "Please sign in with Google to continue."

// Page paths for each step.
var stepPaths = map[Step]string{
	StepLanding:  "/onboarding",
	StepIdentity: "/identity",
	StepForm:     "/form",
	StepDone:     "/done",
}

// HandlerConfig carries the settings the pages need.
type HandlerConfig struct {
	GoogleClientID string
	// QRParam is the query parameter that marks a scanned deep link.
	QRParam   string
	AllowSkip bool
	// Events counts flow transitions. Nil disables counting.
	Events EventRecorder
}

// EventRecorder counts named onboarding events.
type EventRecorder interface {
	Event(name string)
}

type nopEvents struct{}

func (nopEvents) Event(string) {}

type Handler struct {
	cfg       HandlerConfig
	presenter *presenter
	logger    zerolog.Logger
}

func NewHandler(catalog view.Catalog, cfg HandlerConfig, logger zerolog.Logger) (*Handler, error) {
	p, err := newPresenter(catalog)
	if err != nil {
		return nil, err
	}
	if cfg.QRParam == "" {
		cfg.QRParam = "qr"
	}
	if cfg.Events == nil {
		cfg.Events = nopEvents{}
	}
	return &Handler{cfg: cfg, presenter: p, logger: logger}, nil
}

func (h *Handler) RegisterRoutes(e *echo.Echo, api *echo.Group) {
	e.GET("/", h.Root)
	e.GET("/onboarding", h.Landing)
	e.POST("/onboarding/scanned", h.Scanned)

	e.GET("/identity", h.Identity)
	e.POST("/identity/google", h.GoogleCallback)
	e.POST("/identity/skip", h.SkipIdentity)

	e.GET("/form", h.Form)
	e.POST("/form", h.SubmitForm)
	e.POST("/form/field", h.UpdateField)

	e.GET("/done", h.Done)
	e.POST("/done/restart", h.Restart)

	api.POST("/validate", h.ValidateDraft)
	api.GET("/session", h.GetSession)

	e.RouteNotFound("/*", h.NotFound)
}

// -- Pages --

func (h *Handler) Root(c echo.Context) error {
	target := stepPaths[StepLanding]
	if q := c.Request().URL.RawQuery; q != "" {
		target += "?" + q
	}
	return c.Redirect(http.StatusFound, target)
}

func (h *Handler) Landing(c echo.Context) error {
	flow, err := flowFrom(c)
	if err != nil {
		return err
	}
	if c.QueryParam(h.cfg.QRParam) != "" {
		if step := flow.Start(true); step != StepLanding {
			h.logStep(c, step, "deep link")
			h.cfg.Events.Event("deep_link")
			return c.Redirect(http.StatusFound, stepPaths[step])
		}
	}
	flow.Enter(StepLanding)
	return c.Render(http.StatusOK, "landing.html", map[string]any{
		"csrf":      csrfToken(c),
		"deep_link": h.deepLink(c),
	})
}

func (h *Handler) Scanned(c echo.Context) error {
	flow, err := flowFrom(c)
	if err != nil {
		return err
	}
	step := flow.Scanned()
	h.logStep(c, step, "scanned")
	h.cfg.Events.Event("scanned")
	return c.Redirect(http.StatusSeeOther, stepPaths[step])
}

func (h *Handler) Identity(c echo.Context) error {
	flow, err := flowFrom(c)
	if err != nil {
		return err
	}
	if snap := flow.Snapshot(); snap.Profile != nil {
		return c.Redirect(http.StatusFound, stepPaths[flow.Enter(StepForm)])
	}
	flow.Enter(StepIdentity)
	return h.renderIdentity(c, http.StatusOK, "")
}

func (h *Handler) GoogleCallback(c echo.Context) error {
	flow, err := flowFrom(c)
	if err != nil {
		return err
	}
	step, err := flow.CaptureIdentity(c.FormValue("credential"))
	if err != nil {
		h.logger.Warn().
			Err(err).
			Str("request_id", requestID(c)).
			Msg("identity capture failed")
		h.cfg.Events.Event("identity_failed")
		return h.renderIdentity(c, http.StatusOK, MsgSignInFailed)
	}
	h.logStep(c, step, "identity captured")
	h.cfg.Events.Event("identity_captured")
	return c.Redirect(http.StatusSeeOther, stepPaths[step])
}

func (h *Handler) SkipIdentity(c echo.Context) error {
	flow, err := flowFrom(c)
	if err != nil {
		return err
	}
	step, err := flow.Skip()
	if errors.Is(err, ErrSkipNotAllowed) {
		return h.renderIdentity(c, http.StatusOK, MsgSignInRequired)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.logStep(c, step, "identity skipped")
	h.cfg.Events.Event("identity_skipped")
	return c.Redirect(http.StatusSeeOther, stepPaths[step])
}

func (h *Handler) Form(c echo.Context) error {
	flow, err := flowFrom(c)
	if err != nil {
		return err
	}
	if step := flow.Enter(StepForm); step != StepForm {
		return c.Redirect(http.StatusFound, stepPaths[step])
	}
	return h.renderForm(c, http.StatusOK, flow.Snapshot())
}

func (h *Handler) SubmitForm(c echo.Context) error {
	flow, err := flowFrom(c)
	if err != nil {
		return err
	}
	values, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form body")
	}

	if _, err := flow.Update(h.presenter.Updates(values)...); err != nil {
		switch {
		case errors.Is(err, ErrProfileRequired):
			return c.Redirect(http.StatusSeeOther, stepPaths[StepIdentity])
		case errors.Is(err, ErrAlreadySubmitted):
			return c.Redirect(http.StatusSeeOther, stepPaths[StepDone])
		case errors.Is(err, ErrInvalidOption), errors.Is(err, ErrUnknownField), errors.Is(err, ErrFieldKind):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	receipt, err := flow.Submit(c.Request().Context())
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			h.cfg.Events.Event("form_rejected")
			return h.renderForm(c, http.StatusUnprocessableEntity, flow.Snapshot())
		case errors.Is(err, ErrProfileRequired):
			return c.Redirect(http.StatusSeeOther, stepPaths[StepIdentity])
		case errors.Is(err, ErrNotOnForm):
			return c.Redirect(http.StatusSeeOther, stepPaths[flow.Step()])
		default:
			h.logger.Error().Err(err).Str("request_id", requestID(c)).Msg("submission failed")
			return echo.NewHTTPError(http.StatusInternalServerError, "submission failed")
		}
	}

	h.logger.Info().
		Str("request_id", requestID(c)).
		Str("receipt_id", receipt.ID.String()).
		Msg("form accepted")
	h.cfg.Events.Event("form_accepted")
	return c.Redirect(http.StatusSeeOther, stepPaths[StepDone])
}

func (h *Handler) Done(c echo.Context) error {
	flow, err := flowFrom(c)
	if err != nil {
		return err
	}
	if step := flow.Enter(StepDone); step != StepDone {
		return c.Redirect(http.StatusFound, stepPaths[step])
	}
	snap := flow.Snapshot()
	data := map[string]any{
		"csrf": csrfToken(c),
		"rows": Summarize(snap.Draft),
	}
	if snap.Receipt != nil {
		data["receipt_id"] = snap.Receipt.ID.String()
	}
	return c.Render(http.StatusOK, "done.html", data)
}

func (h *Handler) Restart(c echo.Context) error {
	flow, err := flowFrom(c)
	if err != nil {
		return err
	}
	step := flow.Restart()
	if _, err := session.Regenerate[*Flow](c); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "session unavailable")
	}
	h.logStep(c, step, "restarted")
	h.cfg.Events.Event("restarted")
	return c.Redirect(http.StatusSeeOther, stepPaths[step])
}

// NotFound sends unknown paths back to the start of the flow.
func (h *Handler) NotFound(c echo.Context) error {
	status := http.StatusFound
	if c.Request().Method != http.MethodGet && c.Request().Method != http.MethodHead {
		status = http.StatusSeeOther
	}
	return c.Redirect(status, stepPaths[StepLanding])
}

// -- JSON endpoints --

type fieldResult struct {
	Errors ErrorMap `json:"errors"`
	Valid  bool     `json:"valid"`
}

// UpdateField applies one field change posted by the live validation script.
func (h *Handler) UpdateField(c echo.Context) error {
	flow, err := flowFrom(c)
	if err != nil {
		return err
	}
	f, err := ParseField(c.FormValue("field"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	u := SetText(f, c.FormValue("value"))
	if f.IsBool() {
		u = SetChecked(f, parseChecked(c.FormValue("value")))
	}

	errs, err := flow.Update(u)
	if err != nil {
		switch {
		case errors.Is(err, ErrProfileRequired):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		case errors.Is(err, ErrAlreadySubmitted):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return c.JSON(http.StatusOK, fieldResult{Errors: errs, Valid: errs.Valid()})
}

// ValidateDraft validates a JSON draft without touching any session.
func (h *Handler) ValidateDraft(c echo.Context) error {
	var d Draft
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if _, err := ParseSex(string(d.Sex)); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	errs := Validate(d)
	return c.JSON(http.StatusOK, fieldResult{Errors: errs, Valid: errs.Valid()})
}

type sessionView struct {
	Step       Step     `json:"step"`
	HasProfile bool     `json:"has_profile"`
	Guest      bool     `json:"guest"`
	Errors     ErrorMap `json:"errors"`
	ReceiptID  string   `json:"receipt_id,omitempty"`
}

func (h *Handler) GetSession(c echo.Context) error {
	flow, err := flowFrom(c)
	if err != nil {
		return err
	}
	snap := flow.Snapshot()
	out := sessionView{
		Step:       snap.Step,
		HasProfile: snap.Profile != nil,
		Guest:      snap.Guest,
		Errors:     snap.Errors,
	}
	if snap.Receipt != nil {
		out.ReceiptID = snap.Receipt.ID.String()
	}
	return c.JSON(http.StatusOK, out)
}

// -- helpers --

func (h *Handler) renderIdentity(c echo.Context, status int, notice string) error {
	return c.Render(status, "identity.html", map[string]any{
		"csrf":             csrfToken(c),
		"notice":           notice,
		"google_client_id": h.cfg.GoogleClientID,
		"allow_skip":       h.cfg.AllowSkip,
	})
}

func (h *Handler) renderForm(c echo.Context, status int, snap Snapshot) error {
	data := map[string]any{
		"csrf":     csrfToken(c),
		"sections": h.presenter.Sections(snap.Draft, snap.Errors),
	}
	if !snap.Errors.Valid() {
		data["banner"] = MsgFixHighlightedFields
	}
	if snap.Profile != nil {
		data["profile"] = *snap.Profile
	}
	return c.Render(status, "form.html", data)
}

func (h *Handler) deepLink(c echo.Context) string {
	return c.Scheme() + "://" + c.Request().Host + stepPaths[StepLanding] + "?" + h.cfg.QRParam + "=1"
}

func (h *Handler) logStep(c echo.Context, step Step, event string) {
	h.logger.Debug().
		Str("request_id", requestID(c)).
		Str("step", step.String()).
		Msg(event)
}

func flowFrom(c echo.Context) (*Flow, error) {
	flow, ok := session.FromContext[*Flow](c)
	if !ok || flow == nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "session unavailable")
	}
	return flow, nil
}

func csrfToken(c echo.Context) string {
	token, _ := c.Get("csrf").(string)
	return token
}

func requestID(c echo.Context) string {
	rid, _ := c.Get("request_id").(string)
	return rid
}
