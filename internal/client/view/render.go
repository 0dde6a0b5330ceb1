package view

import (
	"fmt"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/atikhonov/helpdesk/internal/client/store"
	"github.com/atikhonov/helpdesk/internal/client/syncer"
	"github.com/atikhonov/helpdesk/internal/models"
)

// Page is one full render of the client UI. Every render rebuilds all
// three regions from the store, so a page never mixes old and new state.
type Page struct {
	Nav        string
	StatusLine string
	Body       string
}

func (p Page) String() string {
	return p.Nav + "\n" + p.StatusLine + "\n\n" + p.Body
}

// Renderer derives a Page from the current store contents.
type Renderer struct {
	store *store.Store

	mu     sync.Mutex
	status syncer.Status
}

func NewRenderer(st *store.Store) *Renderer {
	return &Renderer{store: st, status: syncer.StatusSyncing}
}

// SetStatus records the latest connectivity indicator. Safe to call
// from the sync controller's goroutine.
func (r *Renderer) SetStatus(s syncer.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = s
}

func (r *Renderer) currentStatus() syncer.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Render produces the page for whatever view is current at call time.
func (r *Renderer) Render() Page {
	sess := r.store.Session()
	return Page{
		Nav:        renderNav(sess),
		StatusLine: fmt.Sprintf("backend: %s", r.currentStatus()),
		Body:       r.renderBody(sess),
	}
}

func renderNav(sess *models.Session) string {
	entries := []string{"home", "submit-ticket"}
	if sess == nil {
		entries = append(entries, "login", "register")
	} else {
		entries = append(entries, "dashboard", fmt.Sprintf("logout (%s)", sess.Email))
	}
	return "[ " + strings.Join(entries, " | ") + " ]"
}

func (r *Renderer) renderBody(sess *models.Session) string {
	switch r.store.View() {
	case store.ViewHome:
		return "Helpdesk\n\nSubmit a ticket or sign in to track your requests."
	case store.ViewLogin:
		return "Sign in\n\nEnter email and password."
	case store.ViewRegister:
		return "Create account\n\nEnter name, email, password and password confirmation."
	case store.ViewSubmit:
		return "Submit a ticket\n\nCategory, description and department are required.\nContact details are only needed when you are not signed in."
	case store.ViewRecover:
		return "Password recovery\n\nEnter your account email to request a reset token."
	case store.ViewReset:
		return "Password reset\n\nEnter the reset token and your new password."
	case store.ViewDashboard:
		return r.renderDashboard(sess)
	default:
		return ""
	}
}

func (r *Renderer) renderDashboard(sess *models.Session) string {
	if sess == nil {
		return "Sign in to see your dashboard."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Dashboard for %s\n", sess.Email)
	if sess.IsAdmin() {
		c := r.store.Counters()
		fmt.Fprintf(&b, "total=%d open=%d in_progress=%d resolved=%d\n",
			c.Total, c.Open, c.InProgress, c.Resolved)
	}
	b.WriteString("\n")

	tickets := r.store.VisibleTickets()
	if len(tickets) == 0 {
		b.WriteString("No tickets yet.")
		return b.String()
	}

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCATEGORY\tDEPARTMENT\tSTATUS\tREPORTER")
	for _, t := range tickets {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			shortID(t.ID), t.Category, t.Department, t.Status, reporter(t))
	}
	tw.Flush()

	if sess.IsAdmin() {
		b.WriteString("\nUse the status command to move a ticket between open, in_progress and resolved.")
	}
	return b.String()
}

func reporter(t models.Ticket) string {
	if t.CreatedBy == "" {
		if t.ContactName != "" {
			return t.ContactName + " (anonymous)"
		}
		return "anonymous"
	}
	return t.CreatedBy
}

// shortID trims UUIDs down to their first group for table display.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
