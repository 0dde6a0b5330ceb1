// Package main runs the interactive help-desk client: a text front end
// over the store, router and renderer, synced against either the local
// file backend or the hosted HTTP backend.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/atikhonov/helpdesk/internal/client/gateway"
	"github.com/atikhonov/helpdesk/internal/client/store"
	"github.com/atikhonov/helpdesk/internal/client/syncer"
	"github.com/atikhonov/helpdesk/internal/client/view"
	"github.com/atikhonov/helpdesk/internal/logger"
	"github.com/atikhonov/helpdesk/internal/models"
)

var (
	version   string
	buildDate string
)

// app bundles the client-side moving parts the REPL commands act on.
type app struct {
	gw       gateway.Gateway
	store    *store.Store
	router   *view.Router
	renderer *view.Renderer
	sync     *syncer.Controller
	ring     *logger.Ring
	scanner  *bufio.Scanner
}

func (a *app) render() {
	fmt.Println(a.renderer.Render())
}

func (a *app) prompt(label string) string {
	fmt.Printf("%s: ", label)
	if !a.scanner.Scan() {
		return ""
	}
	return strings.TrimSpace(a.scanner.Text())
}

// report translates the error taxonomy into short user-facing notices.
func report(err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		fmt.Printf("Invalid input, %s\n", verr.Error())
	case errors.Is(err, models.ErrInvalidCredentials):
		fmt.Println("Email or password is incorrect")
	case errors.Is(err, models.ErrDuplicateEmail):
		fmt.Println("That email is already registered")
	case errors.Is(err, models.ErrUnknownUser):
		fmt.Println("No account with that email")
	case errors.Is(err, models.ErrUnauthorized):
		fmt.Println("You are not allowed to do that")
	case errors.Is(err, models.ErrInvalidStatus):
		fmt.Println("Status must be one of: open, in_progress, resolved")
	case errors.Is(err, models.ErrNotFound):
		fmt.Println("Not found")
	default:
		fmt.Printf("Backend error: %v\n", err)
	}
}

func (a *app) login(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: login <email>")
		return
	}
	password := a.prompt("password")
	sess, err := a.gw.Authenticate(ctx, args[0], password)
	if err != nil {
		report(err)
		return
	}
	a.store.SetSession(sess)
	a.router.LoginSucceeded()
	a.sync.Refresh(ctx)
	a.render()
}

func (a *app) register(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: register <email> <full name...>")
		return
	}
	password := a.prompt("password")
	confirm := a.prompt("confirm password")
	// The mismatch is caught before any backend call.
	if password != confirm {
		report(models.NewValidationError("password", "confirmation does not match"))
		return
	}
	sess, err := a.gw.Register(ctx, args[0], password, strings.Join(args[1:], " "))
	if err != nil {
		report(err)
		return
	}
	a.store.SetSession(sess)
	a.router.LoginSucceeded()
	a.sync.Refresh(ctx)
	a.render()
}

func (a *app) logout(ctx context.Context) {
	if err := a.gw.EndSession(ctx, a.store.Session()); err != nil {
		report(err)
	}
	a.store.SetSession(nil)
	a.store.ReplaceTickets(nil)
	a.router.LoggedOut()
	a.render()
}

func (a *app) submit(ctx context.Context) {
	a.router.GoTo(store.ViewSubmit)
	in := models.TicketInput{
		Category:    a.prompt("category"),
		Description: a.prompt("description"),
		Department:  a.prompt("department"),
	}
	if a.store.Session() == nil {
		in.ContactName = a.prompt("your name")
		in.ContactDept = a.prompt("your department")
	}
	t, err := a.gw.CreateTicket(ctx, a.store.Session(), in)
	if err != nil {
		report(err)
		return
	}
	fmt.Printf("Ticket submitted: %s\n", t.ID)
	a.store.AddTicket(*t)
	a.router.TicketSubmitted()
	// Anonymous callers legitimately list an empty collection, so a
	// refresh here would discard the ticket just added.
	if a.store.Session() != nil {
		a.sync.Refresh(ctx)
	}
	a.render()
}

func (a *app) status(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: status <ticket-id> <open|in_progress|resolved>")
		return
	}
	t, err := a.gw.UpdateTicketStatus(ctx, a.store.Session(), args[0], models.TicketStatus(args[1]))
	if err != nil {
		report(err)
		return
	}
	a.store.ApplyTicketStatusChange(t.ID, t.Status)
	a.render()
}

func (a *app) recover(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: recover <email>")
		return
	}
	a.router.GoTo(store.ViewRecover)
	if err := a.gw.RequestPasswordReset(ctx, args[0]); err != nil {
		report(err)
		return
	}
	fmt.Println("Reset requested. Check for your token.")
	// The local backend has no delivery channel, so the token is shown
	// right here.
	if lg, ok := a.gw.(*gateway.LocalGateway); ok {
		if tok := lg.PendingResetToken(args[0]); tok != "" {
			fmt.Printf("Reset token: %s\n", tok)
		}
	}
}

func (a *app) reset(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: reset <token>")
		return
	}
	a.router.GoTo(store.ViewReset)
	password := a.prompt("new password")
	confirm := a.prompt("confirm password")
	if password != confirm {
		report(models.NewValidationError("password", "confirmation does not match"))
		return
	}
	if err := a.gw.ResetPassword(ctx, args[0], password); err != nil {
		report(err)
		return
	}
	fmt.Println("Password updated. You can sign in now.")
	a.router.GoTo(store.ViewLogin)
	a.render()
}

func (a *app) tail() {
	entries := a.ring.Recent()
	if len(entries) == 0 {
		fmt.Println("Log is empty")
		return
	}
	for _, e := range entries {
		fmt.Printf("%s %-5s %s", e.Time.Format(time.RFC3339), e.Level, e.Message)
		if e.Detail != "" {
			fmt.Printf(" (%s)", e.Detail)
		}
		fmt.Println()
	}
}

// repl runs the interactive shell loop.
func (a *app) repl(ctx context.Context) {
	a.render()
	for {
		fmt.Print("helpdesk> ")
		if !a.scanner.Scan() {
			break
		}
		args := strings.Fields(strings.TrimSpace(a.scanner.Text()))
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "help":
			fmt.Println("Available commands: help, login <email>, register <email> <name>, " +
				"logout, submit, dashboard, status <id> <status>, recover <email>, " +
				"reset <token>, nav <view>, log, exit")
		case "login":
			a.login(ctx, args[1:])
		case "register":
			a.register(ctx, args[1:])
		case "logout":
			a.logout(ctx)
		case "submit":
			a.submit(ctx)
		case "dashboard":
			a.router.GoTo(store.ViewDashboard)
			a.sync.Refresh(ctx)
			a.render()
		case "status":
			a.status(ctx, args[1:])
		case "recover":
			a.recover(ctx, args[1:])
		case "reset":
			a.reset(ctx, args[1:])
		case "nav":
			if len(args) < 2 {
				fmt.Println("Usage: nav <home|login|register|submit|dashboard|recover|reset>")
				continue
			}
			a.router.GoTo(store.ViewID(args[1]))
			a.render()
		case "log":
			a.tail()
		case "exit":
			fmt.Println("Bye")
			return
		default:
			fmt.Println("Unknown command. Type 'help' for a list of commands.")
		}
	}
}

func main() {
	var (
		backend     string
		baseURL     string
		dataPath    string
		sessionPath string
		interval    time.Duration
		adminEmail  string
		logLevel    string
		showVer     bool
	)

	flag.StringVar(&backend, "backend", "local", "backend: local | remote")
	flag.StringVar(&baseURL, "url", "http://localhost:8080", "remote backend base URL")
	flag.StringVar(&dataPath, "data", "helpdesk.json", "local backend data file")
	flag.StringVar(&sessionPath, "session", "session.json", "durable session slot file")
	flag.DurationVar(&interval, "interval", syncer.DefaultInterval, "polling interval without a push feed")
	flag.StringVar(&adminEmail, "admin", models.DefaultAdminEmail, "always-admin account email")
	flag.StringVar(&logLevel, "l", "warn", "log level")
	flag.BoolVar(&showVer, "version", false, "show build version and date")
	flag.Parse()

	if showVer {
		fmt.Printf("Helpdesk Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}

	zapLogger, ring := logger.New(logLevel)
	defer func() { _ = zapLogger.Sync() }()

	var gw gateway.Gateway
	switch backend {
	case "local":
		local, err := gateway.NewLocalGateway(dataPath, sessionPath, adminEmail)
		if err != nil {
			zapLogger.Fatal("cannot open local backend", zap.Error(err))
		}
		gw = local
	case "remote":
		gw = gateway.NewRemoteGateway(baseURL, sessionPath, adminEmail, nil)
	default:
		fmt.Fprintf(os.Stderr, "unknown backend %q (want local or remote)\n", backend)
		os.Exit(2)
	}

	st := store.New()
	router := view.NewRouter(st)
	renderer := view.NewRenderer(st)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	controller := syncer.New(gw, st, interval, zapLogger, renderer.SetStatus)
	controller.Start(ctx)

	a := &app{
		gw:       gw,
		store:    st,
		router:   router,
		renderer: renderer,
		sync:     controller,
		ring:     ring,
		scanner:  bufio.NewScanner(os.Stdin),
	}
	a.repl(ctx)
}
