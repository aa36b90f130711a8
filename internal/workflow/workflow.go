// Package workflow implements the list, view, create, edit, clone and
// delete actions of the SMS editor. Each action returns a Result that
// describes either a view to render or a redirect to follow.
package workflow

import (
	"context"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dimitrije/smsdesk/internal/events"
	"github.com/dimitrije/smsdesk/internal/flash"
	"github.com/dimitrije/smsdesk/internal/forms"
	"github.com/dimitrije/smsdesk/internal/listquery"
	"github.com/dimitrije/smsdesk/internal/metrics"
	"github.com/dimitrije/smsdesk/internal/models"
	"github.com/dimitrije/smsdesk/internal/permissions"
	"github.com/dimitrije/smsdesk/internal/session"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	ListTypeSms     = "sms"
	ListTypeContact = "sms.contact"

	DefaultBasePath = "/api/v1/sms"

	auditLogLimit = 50
	chartDays     = 30
)

// SmsFilterGroups are the filter groups of the message index.
var SmsFilterGroups = []listquery.Group{
	{Prefix: "list", Column: "lists", Numeric: true},
	{Prefix: "category", Column: "categories", Numeric: true},
}

type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Sms, error)
	List(ctx context.Context, q listquery.Query) ([]models.Sms, int, error)
	Save(ctx context.Context, sms *models.Sms, unlock bool) error
	Delete(ctx context.Context, sms *models.Sms) error
	DeleteMany(ctx context.Context, ids []uuid.UUID) ([]models.Sms, error)
	Lock(ctx context.Context, sms *models.Sms, userID uuid.UUID) error
	Unlock(ctx context.Context, sms *models.Sms) error
}

type AuditLog interface {
	SmsLog(ctx context.Context, smsID uuid.UUID, limit int) ([]models.AuditLogEntry, error)
}

type Stats interface {
	ClickStats(ctx context.Context, smsID uuid.UUID) ([]models.Trackable, error)
	SentPerDay(ctx context.Context, smsID uuid.UUID, from, to time.Time) ([]models.DailyCount, error)
	Contacts(ctx context.Context, smsID uuid.UUID, q listquery.Query) ([]models.SmsContact, int, error)
}

type Lookups interface {
	Categories(ctx context.Context) ([]models.Category, error)
	Lists(ctx context.Context) ([]models.LeadList, error)
}

type Outcome string

const (
	OutcomeView         Outcome = "view"
	OutcomeRedirect     Outcome = "redirect"
	OutcomeAccessDenied Outcome = "access_denied"
	OutcomeNotFound     Outcome = "not_found"
)

// Result is a view descriptor or, for OutcomeRedirect, a redirect descriptor.
type Result struct {
	Outcome         Outcome         `json:"outcome"`
	Reason          error           `json:"-"`
	ReturnURL       string          `json:"returnUrl,omitempty"`
	ViewParameters  map[string]any  `json:"viewParameters,omitempty"`
	ContentTemplate string          `json:"contentTemplate,omitempty"`
	PassthroughVars map[string]any  `json:"passthroughVars,omitempty"`
	Flashes         []flash.Message `json:"flashes,omitempty"`
}

// ListParams are the list controls sent with a request. Nil or zero values
// keep the saved state.
type ListParams struct {
	Page       int
	Search     *string
	Filters    *string
	OrderBy    string
	OrderByDir string
	Limit      int
}

type DateRange struct {
	From *time.Time
	To   *time.Time
}

// Request carries everything an action needs about the acting subject and
// the incoming request.
type Request struct {
	Subject     uuid.UUID
	SubjectName string
	Gate        *permissions.Gate
	Session     session.Store
	Method      string

	List       ListParams
	DateRange  DateRange
	Submission *forms.Submission
	// IDs is the JSON array of ids of a batch delete.
	IDs string
	// UpdateSelect names the field of the opener that a popup editor updates.
	UpdateSelect string
}

func (r *Request) isPost() bool {
	return strings.EqualFold(r.Method, http.MethodPost)
}

type Hooks struct {
	PreSave    []events.SaveHook
	PostSave   []events.SaveHook
	PostDelete []events.DeleteHook
}

type Config struct {
	Store    Store
	AuditLog AuditLog
	Stats    Stats
	Lookups  Lookups
	Binder   forms.Binder
	Hooks    Hooks
	Logger   zerolog.Logger
	Metrics  *metrics.Metrics

	DefaultLimit int
	BasePath     string
	// Configured reports whether a gateway is set up, for the index view.
	Configured bool
}

type Workflow struct {
	store      Store
	audit      AuditLog
	stats      Stats
	lookups    Lookups
	binder     forms.Binder
	hooks      Hooks
	log        zerolog.Logger
	metrics    *metrics.Metrics
	limit      int
	basePath   string
	configured bool
	now        func() time.Time
}

func New(cfg Config) *Workflow {
	limit := cfg.DefaultLimit
	if limit < 1 {
		limit = 30
	}
	base := strings.TrimRight(cfg.BasePath, "/")
	if base == "" {
		base = DefaultBasePath
	}
	binder := cfg.Binder
	if binder == nil {
		binder = forms.NewSmsBinder()
	}
	return &Workflow{
		store:      cfg.Store,
		audit:      cfg.AuditLog,
		stats:      cfg.Stats,
		lookups:    cfg.Lookups,
		binder:     binder,
		hooks:      cfg.Hooks,
		log:        cfg.Logger.With().Str("component", "workflow").Logger(),
		metrics:    cfg.Metrics,
		limit:      limit,
		basePath:   base,
		configured: cfg.Configured,
		now:        time.Now,
	}
}

func (w *Workflow) finish(action string, res *Result) *Result {
	w.metrics.ObserveAction(action, string(res.Outcome))
	return res
}

func (w *Workflow) defaultState() listquery.FilterState {
	return listquery.FilterState{
		Filters:    map[string][]string{},
		OrderBy:    "name",
		OrderByDir: listquery.SortDesc,
		Page:       1,
		Limit:      w.limit,
	}
}

func (w *Workflow) contactDefaultState() listquery.FilterState {
	return listquery.FilterState{
		Filters:    map[string][]string{},
		OrderBy:    "contact_id",
		OrderByDir: listquery.SortDesc,
		Page:       1,
		Limit:      w.limit,
	}
}

// listPage is the index page the user came from.
func (w *Workflow) listPage(req *Request) int {
	state := session.LoadFilterState(req.Session, ListTypeSms, w.defaultState())
	if state.Page < 1 {
		return 1
	}
	return state.Page
}

func (w *Workflow) indexURL(page int) string {
	return w.basePath + "?page=" + strconv.Itoa(page)
}

func (w *Workflow) actionURL(action string, id uuid.UUID) string {
	return w.basePath + "/" + action + "/" + id.String()
}

func (w *Workflow) contactsURL(id uuid.UUID, page int) string {
	return w.actionURL("contacts", id) + "?page=" + strconv.Itoa(page)
}

func passthrough(extra map[string]any) map[string]any {
	vars := map[string]any{
		"activeLink": "#sms_index",
		"mediaType":  "sms",
	}
	for k, v := range extra {
		vars[k] = v
	}
	return vars
}

// redirectToIndex is the post action redirect shared by most actions.
func (w *Workflow) redirectToIndex(req *Request, flashes ...flash.Message) *Result {
	page := w.listPage(req)
	return &Result{
		Outcome:         OutcomeRedirect,
		ReturnURL:       w.indexURL(page),
		ViewParameters:  map[string]any{"page": page},
		ContentTemplate: "sms/index",
		PassthroughVars: passthrough(nil),
		Flashes:         flashes,
	}
}

func accessDenied() *Result {
	return &Result{Outcome: OutcomeAccessDenied, Reason: ErrAccessDenied}
}

func notFoundFlash(objectID string) flash.Message {
	return flash.Error(flash.KeyNotFound, map[string]string{"id": objectID})
}

func lockedFlash(sms *models.Sms) flash.Message {
	lockedBy := ""
	if sms.CheckedOutBy != nil {
		lockedBy = sms.CheckedOutBy.String()
	}
	return flash.Error(flash.KeyLocked, map[string]string{"name": sms.Name, "lockedBy": lockedBy})
}

// snapshot copies sms so later binding does not alter it.
func snapshot(sms *models.Sms) *models.Sms {
	c := *sms
	c.ListIDs = slices.Clone(sms.ListIDs)
	return &c
}

func parseID(objectID string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(objectID))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}
