package handler

import (
	"strconv"
	"time"

	"github.com/ednar28/user-admin/internal/core/domain"
	"github.com/ednar28/user-admin/internal/core/ports"
)

// timeLayout renders instants the way the existing front-end parses them.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// onEachSide is the number of page links shown around the current page.
const onEachSide = 3

type roleView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type userView struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	EmailVerifiedAt *string `json:"email_verified_at"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
	DeletedAt       *string `json:"deleted_at"`
}

// userWithRoleView is the directory representation; role is null when the
// user has none.
type userWithRoleView struct {
	userView
	Role *roleView `json:"role"`
}

type deletionView struct {
	ID        int64  `json:"id"`
	DeletedAt string `json:"deleted_at"`
}

type auditEventView struct {
	Action  string            `json:"action"`
	ActorID *int64            `json:"actor_id"`
	Email   string            `json:"email,omitempty"`
	Detail  map[string]string `json:"detail,omitempty"`
	At      string            `json:"at"`
}

type auditTrailView struct {
	Data []auditEventView `json:"data"`
}

type pageLink struct {
	URL    *string `json:"url"`
	Label  string  `json:"label"`
	Active bool    `json:"active"`
}

type pageLinks struct {
	First string  `json:"first"`
	Last  string  `json:"last"`
	Prev  *string `json:"prev"`
	Next  *string `json:"next"`
}

type pageMeta struct {
	CurrentPage int        `json:"current_page"`
	From        *int       `json:"from"`
	LastPage    int        `json:"last_page"`
	Links       []pageLink `json:"links"`
	Path        string     `json:"path"`
	PerPage     int        `json:"per_page"`
	To          *int       `json:"to"`
	Total       int64      `json:"total"`
}

type userPageView struct {
	Data  []userWithRoleView `json:"data"`
	Links pageLinks          `json:"links"`
	Meta  pageMeta           `json:"meta"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func toUserView(u *domain.User) userView {
	return userView{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		EmailVerifiedAt: formatTimePtr(u.EmailVerifiedAt),
		CreatedAt:       formatTime(u.CreatedAt),
		UpdatedAt:       formatTime(u.UpdatedAt),
		DeletedAt:       formatTimePtr(u.DeletedAt),
	}
}

func toUserWithRoleView(u *domain.User) userWithRoleView {
	v := userWithRoleView{userView: toUserView(u)}
	if u.Role != nil {
		v.Role = &roleView{ID: u.Role.ID, Name: u.Role.Name}
	}
	return v
}

func toDeletionView(r *domain.DeletionReceipt) deletionView {
	return deletionView{ID: r.ID, DeletedAt: formatTime(r.DeletedAt)}
}

func toAuditTrailView(events []domain.AuditEvent) auditTrailView {
	out := auditTrailView{Data: make([]auditEventView, 0, len(events))}
	for _, e := range events {
		v := auditEventView{
			Action: string(e.Action),
			Email:  e.Email,
			Detail: e.Detail,
			At:     formatTime(e.At),
		}
		if e.ActorID != 0 {
			actor := e.ActorID
			v.ActorID = &actor
		}
		out.Data = append(out.Data, v)
	}
	return out
}

// toUserPageView builds the paginated envelope. path is the absolute URL of
// the listing without a query string.
func toUserPageView(p *ports.UserPage, path string) userPageView {
	last := p.LastPage()
	pageURL := func(n int) string { return path + "?page=" + strconv.Itoa(n) }

	view := userPageView{
		Data: make([]userWithRoleView, 0, len(p.Items)),
		Links: pageLinks{
			First: pageURL(1),
			Last:  pageURL(last),
		},
		Meta: pageMeta{
			CurrentPage: p.Page,
			LastPage:    last,
			Path:        path,
			PerPage:     p.PerPage,
			Total:       p.Total,
		},
	}
	for _, u := range p.Items {
		view.Data = append(view.Data, toUserWithRoleView(u))
	}

	if n := len(p.Items); n > 0 {
		from := (p.Page-1)*p.PerPage + 1
		to := from + n - 1
		view.Meta.From, view.Meta.To = &from, &to
	}
	if p.Page > 1 {
		prev := pageURL(p.Page - 1)
		view.Links.Prev = &prev
	}
	if p.Page < last {
		next := pageURL(p.Page + 1)
		view.Links.Next = &next
	}

	links := []pageLink{{URL: view.Links.Prev, Label: "&laquo; Previous"}}
	for _, n := range pageWindow(p.Page, last) {
		if n == 0 {
			links = append(links, pageLink{Label: "..."})
			continue
		}
		u := pageURL(n)
		links = append(links, pageLink{URL: &u, Label: strconv.Itoa(n), Active: n == p.Page})
	}
	links = append(links, pageLink{URL: view.Links.Next, Label: "Next &raquo;"})
	view.Meta.Links = links

	return view
}

// pageWindow lists the page numbers to link, with 0 marking an elided gap.
// Short listings show every page; longer ones keep the first two, the last
// two and a slider around current.
func pageWindow(current, last int) []int {
	if last < onEachSide*2+8 {
		return pageRange(1, last)
	}

	window := onEachSide + 4
	switch {
	case current <= window:
		return joinPages(pageRange(1, window+onEachSide), pageRange(last-1, last))
	case current > last-window:
		return joinPages(pageRange(1, 2), pageRange(last-(window+onEachSide-1), last))
	default:
		return joinPages(pageRange(1, 2), pageRange(current-onEachSide, current+onEachSide), pageRange(last-1, last))
	}
}

func pageRange(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for n := from; n <= to; n++ {
		out = append(out, n)
	}
	return out
}

func joinPages(parts ...[]int) []int {
	var out []int
	for i, part := range parts {
		if i > 0 {
			out = append(out, 0)
		}
		out = append(out, part...)
	}
	return out
}
