package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/dimitrije/smsdesk/internal/listquery"
	"github.com/dimitrije/smsdesk/internal/models"
	"github.com/dimitrije/smsdesk/internal/permissions"
	"github.com/dimitrije/smsdesk/internal/session"
	"github.com/google/uuid"
)

// applyListParams folds request controls into the saved state. A malformed
// filter payload clears the filters and yields ErrMalformedFilterInput.
func applyListParams(state *listquery.FilterState, p ListParams, groups []listquery.Group) error {
	var err error
	if p.Search != nil {
		state.Search = strings.TrimSpace(*p.Search)
	}
	if p.Filters != nil {
		parsed, perr := listquery.ParseFilters(*p.Filters, groups)
		if perr != nil {
			state.Filters = map[string][]string{}
			err = fmt.Errorf("%w: %v", ErrMalformedFilterInput, perr)
		} else {
			state.Filters = parsed
		}
	}
	if p.OrderBy != "" {
		if p.OrderBy == state.OrderBy && p.OrderByDir == "" {
			// Clicking the active column flips its direction.
			if state.OrderByDir == listquery.SortAsc {
				state.OrderByDir = listquery.SortDesc
			} else {
				state.OrderByDir = listquery.SortAsc
			}
		}
		state.OrderBy = p.OrderBy
	}
	if p.OrderByDir != "" {
		state.OrderByDir = listquery.NormalizeDirection(p.OrderByDir)
	}
	if p.Limit > 0 {
		state.Limit = p.Limit
	}
	if p.Page > 0 {
		state.Page = p.Page
	}
	if state.Page < 1 {
		state.Page = 1
	}
	return err
}

// List renders the message index.
func (w *Workflow) List(ctx context.Context, req *Request) (*Result, error) {
	if !req.Gate.IsGranted(permissions.SmsView) {
		return w.finish("list", accessDenied()), nil
	}

	state := session.LoadFilterState(req.Session, ListTypeSms, w.defaultState())
	if err := applyListParams(&state, req.List, SmsFilterGroups); err != nil {
		w.log.Debug().Err(err).Msg("filters reset")
	}

	var forced []listquery.Predicate
	if !req.Gate.IsGranted(permissions.SmsViewOther) {
		forced = append(forced, listquery.Predicate{
			Column: "created_by",
			Expr:   listquery.ExprEq,
			Values: []string{req.Subject.String()},
		})
	}

	q := listquery.Build(state.Input(SmsFilterGroups, forced))
	items, total, err := w.store.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list sms: %w", err)
	}

	if c := listquery.Correct(total, state.Page, q.Limit); c.NeedsRedirect {
		state.Page = c.EffectivePage
		session.SaveFilterState(req.Session, ListTypeSms, state)
		return w.finish("list", &Result{
			Outcome:         OutcomeRedirect,
			ReturnURL:       w.indexURL(state.Page),
			ViewParameters:  map[string]any{"page": state.Page},
			ContentTemplate: "sms/index",
			PassthroughVars: passthrough(nil),
		}), nil
	}

	state.Page = listquery.Clamp(total, state.Page, q.Limit)
	session.SaveFilterState(req.Session, ListTypeSms, state)

	filters, err := w.filterGroups(ctx, state.Filters)
	if err != nil {
		return nil, err
	}

	return w.finish("list", &Result{
		Outcome: OutcomeView,
		ViewParameters: map[string]any{
			"searchValue": state.Search,
			"filters":     filters,
			"items":       items,
			"totalItems":  total,
			"page":        state.Page,
			"limit":       q.Limit,
			"orderBy":     state.OrderBy,
			"orderByDir":  state.OrderByDir,
			"permissions": req.Gate.Permissions(),
			"configured":  w.configured,
		},
		ContentTemplate: "sms/list",
		PassthroughVars: passthrough(map[string]any{"route": w.indexURL(state.Page)}),
	}), nil
}

type filterOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type filterGroup struct {
	Name    string         `json:"name"`
	Prefix  string         `json:"prefix"`
	Options []filterOption `json:"options"`
	Values  []string       `json:"values"`
}

func (w *Workflow) filterGroups(ctx context.Context, selected map[string][]string) ([]filterGroup, error) {
	if w.lookups == nil {
		return []filterGroup{}, nil
	}
	cats, err := w.lookups.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	lists, err := w.lookups.Lists(ctx)
	if err != nil {
		return nil, fmt.Errorf("load lists: %w", err)
	}

	catGroup := filterGroup{Name: "categories", Prefix: "category", Options: []filterOption{}, Values: selectedValues(selected, "category")}
	for _, c := range cats {
		catGroup.Options = append(catGroup.Options, filterOption{Value: fmt.Sprint(c.ID), Label: c.Title})
	}
	listGroup := filterGroup{Name: "lists", Prefix: "list", Options: []filterOption{}, Values: selectedValues(selected, "list")}
	for _, l := range lists {
		listGroup.Options = append(listGroup.Options, filterOption{Value: fmt.Sprint(l.ID), Label: l.Name})
	}
	return []filterGroup{catGroup, listGroup}, nil
}

func selectedValues(selected map[string][]string, prefix string) []string {
	if v := selected[prefix]; v != nil {
		return v
	}
	return []string{}
}

// Contacts renders the paginated list of contacts a message was sent to.
func (w *Workflow) Contacts(ctx context.Context, req *Request, objectID string) (*Result, error) {
	if !req.Gate.IsGranted(permissions.SmsView) {
		return w.finish("contacts", accessDenied()), nil
	}
	id, ok := parseID(objectID)
	if !ok {
		return w.finish("contacts", &Result{Outcome: OutcomeNotFound, Reason: ErrNotFound}), nil
	}

	page, err := w.contactsPage(ctx, req, id, req.List, false)
	if err != nil {
		return nil, err
	}
	if page.redirect {
		return w.finish("contacts", &Result{
			Outcome:         OutcomeRedirect,
			ReturnURL:       w.contactsURL(id, page.state.Page),
			ViewParameters:  map[string]any{"page": page.state.Page, "objectId": id},
			ContentTemplate: "sms/contacts",
			PassthroughVars: map[string]any{"mediaType": "smsContacts"},
		}), nil
	}

	return w.finish("contacts", &Result{
		Outcome:         OutcomeView,
		ViewParameters:  page.viewParameters(id),
		ContentTemplate: "sms/contacts",
		PassthroughVars: map[string]any{"mediaType": "smsContacts", "route": false},
	}), nil
}

type contactPage struct {
	state    listquery.FilterState
	items    []models.SmsContact
	total    int
	limit    int
	redirect bool
}

func (p *contactPage) viewParameters(id uuid.UUID) map[string]any {
	return map[string]any{
		"page":       p.state.Page,
		"items":      p.items,
		"totalItems": p.total,
		"limit":      p.limit,
		"objectId":   id,
		"sessionVar": ListTypeContact,
		"orderBy":    p.state.OrderBy,
		"orderByDir": p.state.OrderByDir,
	}
}

// contactsPage loads one page of the contacts sub-listing. With clamp set
// a page past the end is replaced by the last page instead of reported.
func (w *Workflow) contactsPage(ctx context.Context, req *Request, id uuid.UUID, params ListParams, clamp bool) (*contactPage, error) {
	state := session.LoadFilterState(req.Session, ListTypeContact, w.contactDefaultState())
	if err := applyListParams(&state, params, nil); err != nil {
		w.log.Debug().Err(err).Msg("contact filters reset")
	}

	q := listquery.Build(state.Input(nil, nil))
	items, total, err := w.stats.Contacts(ctx, id, q)
	if err != nil {
		return nil, fmt.Errorf("list sms contacts: %w", err)
	}

	page := &contactPage{state: state, items: items, total: total, limit: q.Limit}
	if c := listquery.Correct(total, state.Page, q.Limit); c.NeedsRedirect {
		page.state.Page = c.EffectivePage
		if !clamp {
			page.redirect = true
			session.SaveFilterState(req.Session, ListTypeContact, page.state)
			return page, nil
		}
		q.Offset = listquery.Offset(c.EffectivePage, q.Limit)
		if page.items, page.total, err = w.stats.Contacts(ctx, id, q); err != nil {
			return nil, fmt.Errorf("list sms contacts: %w", err)
		}
	}

	page.state.Page = listquery.Clamp(page.total, page.state.Page, q.Limit)
	session.SaveFilterState(req.Session, ListTypeContact, page.state)
	return page, nil
}
