package view

import (
	"strings"

	"techfest_backend/internals/features/registrations/model"
	helper "techfest_backend/internals/helpers"
)

// StatusAll disables the payment status filter.
const StatusAll = "all"

type Filter struct {
	Status string
	Event  string
	Search string
}

func (f Filter) normalized() Filter {
	return Filter{
		Status: strings.ToLower(strings.TrimSpace(f.Status)),
		Event:  strings.ToLower(strings.TrimSpace(f.Event)),
		Search: strings.ToLower(strings.TrimSpace(f.Search)),
	}
}

// Match reports whether r passes every active criterion of f.
func (f Filter) Match(r model.RegistrationModel) bool {
	f = f.normalized()
	if f.Status != "" && f.Status != StatusAll && string(r.RegistrationPaymentStatus) != f.Status {
		return false
	}
	if f.Event != "" && f.Event != StatusAll && !hasEvent(r, f.Event) {
		return false
	}
	if f.Search != "" {
		if r.User == nil {
			return false
		}
		name := strings.ToLower(r.User.UserFirstName + " " + r.User.UserLastName)
		if !strings.Contains(name, f.Search) {
			return false
		}
	}
	return true
}

func hasEvent(r model.RegistrationModel, slug string) bool {
	for _, s := range r.RegistrationSelectedEvents {
		if strings.EqualFold(s, slug) {
			return true
		}
	}
	return r.Event != nil && strings.EqualFold(r.Event.EventSlug, slug)
}

// Apply keeps the input order.
func Apply(rows []model.RegistrationModel, f Filter) []model.RegistrationModel {
	out := make([]model.RegistrationModel, 0, len(rows))
	for _, r := range rows {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

type Page struct {
	Items      []model.RegistrationModel
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// Pagination converts p into the list envelope used by the JSON helpers.
func (p Page) Pagination() helper.Pagination {
	return helper.BuildPagination(int64(p.Total), p.Page, p.PerPage, len(p.Items))
}

// Paginate slices rows for one page. A size outside the allowed set falls back
// to the default; page is clamped into [1, totalPages].
func Paginate(rows []model.RegistrationModel, page, size int) Page {
	if !helper.IsAllowedPerPage(size) {
		size = helper.DefaultPerPage
	}
	totalPages := helper.TotalPages(int64(len(rows)), size)
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * size
	end := start + size
	if end > len(rows) {
		end = len(rows)
	}
	if start > end {
		start = end
	}
	return Page{
		Items:      rows[start:end],
		Page:       page,
		PerPage:    size,
		Total:      len(rows),
		TotalPages: totalPages,
	}
}

// View is the dashboard list state. Changing the filter, the search text or
// the page size moves back to the first page.
type View struct {
	filter  Filter
	page    int
	perPage int
}

func New(perPage int) *View {
	if !helper.IsAllowedPerPage(perPage) {
		perPage = helper.DefaultPerPage
	}
	return &View{page: 1, perPage: perPage}
}

func (v *View) Filter() Filter { return v.filter }
func (v *View) Page() int      { return v.page }
func (v *View) PerPage() int   { return v.perPage }

func (v *View) SetStatus(s string) {
	if v.filter.Status != s {
		v.filter.Status = s
		v.page = 1
	}
}

func (v *View) SetEvent(slug string) {
	if v.filter.Event != slug {
		v.filter.Event = slug
		v.page = 1
	}
}

func (v *View) SetSearch(q string) {
	if v.filter.Search != q {
		v.filter.Search = q
		v.page = 1
	}
}

func (v *View) SetPerPage(n int) {
	if helper.IsAllowedPerPage(n) && n != v.perPage {
		v.perPage = n
		v.page = 1
	}
}

// SetPage stores the requested page; Render clamps it.
func (v *View) SetPage(p int) { v.page = p }

// Render filters and slices rows, and remembers the clamped page.
func (v *View) Render(rows []model.RegistrationModel) Page {
	p := Paginate(Apply(rows, v.filter), v.page, v.perPage)
	v.page = p.Page
	return p
}
