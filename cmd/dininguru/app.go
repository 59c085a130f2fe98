package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/neexbeast/dininguru/internal/dining"
	"github.com/neexbeast/dininguru/internal/session"
	"github.com/neexbeast/dininguru/internal/venue"
)

// userError carries the one-line message shown for a failed command.
// The wrapped error is only logged.
type userError struct {
	msg string
	err error
}

func (e *userError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

func (e *userError) Unwrap() error { return e.err }

func fail(msg string, err error) error { return &userError{msg: msg, err: err} }

// app runs one CLI command against the backend and the local session.
type app struct {
	client *dining.Client
	images *dining.ImageLoader
	sess   *session.Session
	out    io.Writer
	log    *slog.Logger
	now    func() time.Time
}

type command struct {
	usage string
	args  int // minimum positional arguments
	run   func(a *app, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"venues":         {"venues", 0, (*app).venues},
	"show":           {"show <venueId>", 1, (*app).show},
	"rate":           {"rate <venueId> <way-worse|worse|neutral|better|way-better>", 2, (*app).rate},
	"comment":        {"comment <venueId> <text>", 2, (*app).comment},
	"like":           {"like <commentId>", 1, (*app).like},
	"unlike":         {"unlike <commentId>", 1, (*app).unlike},
	"favorite":       {"favorite <venueId>", 1, (*app).favorite},
	"login":          {"login <email>", 1, (*app).login},
	"verify":         {"verify <code>", 1, (*app).verify},
	"guest":          {"guest", 0, (*app).guest},
	"logout":         {"logout", 0, (*app).logout},
	"delete-account": {"delete-account", 0, (*app).deleteAccount},
	"whoami":         {"whoami", 0, (*app).whoami},
}

var commandOrder = []string{
	"venues", "show", "rate", "comment", "like", "unlike", "favorite",
	"login", "verify", "guest", "logout", "delete-account", "whoami",
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: dininguru [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, name := range commandOrder {
		fmt.Fprintf(w, "  %s\n", commands[name].usage)
	}
}

// dispatch runs the named command. An expired guest session is reset
// before any command runs.
func (a *app) dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		usage(a.out)
		return fail("No command given.", nil)
	}

	cmd, ok := commands[args[0]]
	if !ok {
		usage(a.out)
		return fail(fmt.Sprintf("Unknown command %q.", args[0]), nil)
	}
	if len(args)-1 < cmd.args {
		return fail("usage: dininguru "+cmd.usage, nil)
	}

	expired, err := a.sess.Refresh(ctx, a.now())
	if err != nil {
		return fail("Could not update your session.", err)
	}
	if expired {
		fmt.Fprintln(a.out, "Your guest session expired; you have been logged out.")
	}

	return cmd.run(a, ctx, args[1:])
}

func (a *app) venues(ctx context.Context, _ []string) error {
	now := a.now()
	venues, err := a.client.Venues(ctx)
	if err != nil {
		return fail("Could not load dining venues.", err)
	}

	if err := a.client.AttachRatings(ctx, venues, venue.MealPeriodAt(now)); err != nil {
		a.log.Warn("attaching ratings failed", "err", err)
	}

	halls, retail := venue.Partition(venues)
	favorites := a.sess.Favorites()
	venue.Sort(halls, favorites)
	venue.Sort(retail, favorites)

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, group := range []struct {
		title  string
		venues []venue.Venue
	}{{"Dining halls", halls}, {"Retail", retail}} {
		if len(group.venues) == 0 {
			continue
		}
		fmt.Fprintf(tw, "%s\n", group.title)
		for _, v := range group.venues {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n",
				a.star(v.ID), v.ID, v.Name, openLabel(v, now), venue.FormatToday(v, now), ratingLabel(v.Rating))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func (a *app) show(ctx context.Context, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	now := a.now()
	period := venue.MealPeriodAt(now)

	venues, err := a.client.Venues(ctx)
	if err != nil {
		return fail("Could not load dining venues.", err)
	}
	v, ok := findVenue(venues, id)
	if !ok {
		return fail(fmt.Sprintf("No venue with id %d.", id), nil)
	}

	fmt.Fprintf(a.out, "%s%s\n", a.star(v.ID), v.Name)
	if v.Address != "" {
		fmt.Fprintln(a.out, v.Address)
	}
	fmt.Fprintf(a.out, "%s, today %s\n", openLabel(v, now), venue.FormatToday(v, now))
	if menu, ok := venue.MenuURL(v.ID); ok {
		fmt.Fprintf(a.out, "Menu: %s\n", menu)
	}
	if v.Image != nil && *v.Image != "" {
		if img, err := a.images.Load(ctx, *v.Image); err != nil {
			a.log.Warn("loading venue image failed", "venue_id", v.ID, "err", err)
		} else {
			fmt.Fprintf(a.out, "Image: %s (%d KB)\n", *v.Image, (len(img)+1023)/1024)
		}
	}

	summary, err := a.client.AverageRating(ctx, v.ID, period)
	if err != nil {
		a.log.Warn("average rating failed", "venue_id", v.ID, "err", err)
	}
	fmt.Fprintf(a.out, "Rating (%s): %s\n", period, ratingLabel(summary))

	viewer, _ := a.sess.UserID()
	comments, err := a.client.Comments(ctx, v.ID, period, viewer)
	if err != nil {
		return fail("Could not load comments.", err)
	}
	if len(comments) == 0 {
		fmt.Fprintln(a.out, "No comments yet.")
		return nil
	}
	fmt.Fprintf(a.out, "\nComments (%s):\n", period)
	for _, c := range comments {
		liked := ""
		if c.HasLiked {
			liked = ", liked"
		}
		fmt.Fprintf(a.out, "  #%d  %s  (%d likes%s)\n", c.ID, c.Text, c.LikeCount, liked)
	}
	return nil
}

func (a *app) rate(ctx context.Context, args []string) error {
	userID, err := a.requireUser()
	if err != nil {
		return err
	}
	venueID, err := parseID(args[0])
	if err != nil {
		return err
	}
	rating, err := venue.ParseRating(args[1])
	if err != nil {
		return fail("Rating must be one of way-worse, worse, neutral, better, way-better.", err)
	}

	period := venue.MealPeriodAt(a.now())
	if err := a.client.SubmitRating(ctx, venueID, userID, rating, period); err != nil {
		return fail("Could not submit your rating.", err)
	}
	fmt.Fprintf(a.out, "Rated venue %d %s for %s.\n", venueID, rating, period)
	return nil
}

func (a *app) comment(ctx context.Context, args []string) error {
	userID, err := a.requireUser()
	if err != nil {
		return err
	}
	venueID, err := parseID(args[0])
	if err != nil {
		return err
	}
	text := strings.TrimSpace(strings.Join(args[1:], " "))
	if text == "" {
		return fail("Comment text is empty.", nil)
	}

	period := venue.MealPeriodAt(a.now())
	if err := a.client.SubmitComment(ctx, venueID, userID, text, period); err != nil {
		return fail("Could not submit your comment.", err)
	}
	fmt.Fprintf(a.out, "Comment saved for %s.\n", period)
	return nil
}

func (a *app) like(ctx context.Context, args []string) error {
	return a.toggleLike(ctx, args[0], true)
}

func (a *app) unlike(ctx context.Context, args []string) error {
	return a.toggleLike(ctx, args[0], false)
}

func (a *app) toggleLike(ctx context.Context, rawID string, like bool) error {
	userID, err := a.requireUser()
	if err != nil {
		return err
	}
	commentID, err := parseID(rawID)
	if err != nil {
		return err
	}

	var count int
	if like {
		count, err = a.client.LikeComment(ctx, commentID, userID)
	} else {
		count, err = a.client.UnlikeComment(ctx, commentID, userID)
	}
	if err != nil {
		return fail("Could not update your like.", err)
	}
	fmt.Fprintf(a.out, "Comment %d now has %d likes.\n", commentID, count)
	return nil
}

func (a *app) favorite(ctx context.Context, args []string) error {
	venueID, err := parseID(args[0])
	if err != nil {
		return err
	}
	on, err := a.sess.ToggleFavorite(ctx, venueID)
	if err != nil {
		return fail("Could not save your favorites.", err)
	}
	if on {
		fmt.Fprintf(a.out, "Venue %d added to favorites.\n", venueID)
	} else {
		fmt.Fprintf(a.out, "Venue %d removed from favorites.\n", venueID)
	}
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	switch a.sess.State() {
	case session.LoggedOut:
	case session.PendingVerification:
		if err := a.sess.Logout(ctx); err != nil {
			return fail("Could not update your session.", err)
		}
	default:
		return fail("Log out before logging in with an email.", nil)
	}

	email := strings.TrimSpace(args[0])
	if err := a.client.RequestLoginCode(ctx, email); err != nil {
		return fail("Could not send a login code.", err)
	}
	if err := a.sess.BeginVerification(ctx, email); err != nil {
		return fail("Could not update your session.", err)
	}
	fmt.Fprintf(a.out, "A login code was sent to %s. Run: dininguru verify <code>\n", email)
	return nil
}

func (a *app) verify(ctx context.Context, args []string) error {
	if a.sess.State() != session.PendingVerification {
		return fail("Run dininguru login <email> first.", nil)
	}

	userID, err := a.client.VerifyLoginCode(ctx, a.sess.Email(), args[0])
	if err != nil {
		return fail("That code did not work.", err)
	}
	if err := a.sess.CompleteVerification(ctx, userID); err != nil {
		return fail("Could not update your session.", err)
	}
	fmt.Fprintf(a.out, "Logged in as %s.\n", a.sess.Email())
	return nil
}

func (a *app) guest(ctx context.Context, _ []string) error {
	if err := a.sess.LoginAsGuest(ctx, a.now()); err != nil {
		if errors.Is(err, session.ErrInvalidTransition) {
			return fail("Log out before continuing as a guest.", err)
		}
		return fail("Could not update your session.", err)
	}
	fmt.Fprintf(a.out, "Browsing as a guest for the next %.0f hours.\n", session.GuestValidity.Hours())
	return nil
}

func (a *app) logout(ctx context.Context, _ []string) error {
	if err := a.sess.Logout(ctx); err != nil {
		return fail("Could not update your session.", err)
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func (a *app) deleteAccount(ctx context.Context, _ []string) error {
	userID, err := a.requireUser()
	if err != nil {
		return err
	}
	if err := a.client.DeleteAccount(ctx, userID); err != nil {
		return fail("Could not delete your account.", err)
	}
	if err := a.sess.Logout(ctx); err != nil {
		return fail("Could not update your session.", err)
	}
	fmt.Fprintln(a.out, "Your account and everything you posted has been deleted.")
	return nil
}

func (a *app) whoami(_ context.Context, _ []string) error {
	switch a.sess.State() {
	case session.LoggedIn:
		id, _ := a.sess.UserID()
		fmt.Fprintf(a.out, "Logged in as %s (user %d).\n", a.sess.Email(), id)
	case session.PendingVerification:
		fmt.Fprintf(a.out, "Waiting for the code sent to %s.\n", a.sess.Email())
	case session.Guest:
		fmt.Fprintf(a.out, "Guest %s.\n", a.sess.GuestID())
	default:
		fmt.Fprintln(a.out, "Not logged in.")
	}
	if favs := a.sess.Favorites(); len(favs) > 0 {
		ids := make([]string, len(favs))
		for i, id := range favs {
			ids[i] = strconv.Itoa(id)
		}
		fmt.Fprintf(a.out, "Favorites: %s\n", strings.Join(ids, ", "))
	}
	return nil
}

func (a *app) requireUser() (int, error) {
	id, err := a.sess.UserID()
	if err != nil {
		return 0, fail("You need to log in with your email first.", err)
	}
	return id, nil
}

func (a *app) star(id int) string {
	if a.sess.IsFavorite(id) {
		return "★ "
	}
	return ""
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fail(fmt.Sprintf("%q is not a valid id.", s), err)
	}
	return id, nil
}

func findVenue(venues []venue.Venue, id int) (venue.Venue, bool) {
	for _, v := range venues {
		if v.ID == id {
			return v, true
		}
	}
	return venue.Venue{}, false
}

func openLabel(v venue.Venue, now time.Time) string {
	if closing, open := venue.ClosingTime(v, now); open {
		return "OPEN until " + closing
	}
	return "CLOSED"
}

func ratingLabel(s *venue.RatingSummary) string {
	if s == nil {
		return "rating unavailable"
	}
	if s.ReviewCount == 0 {
		return "no ratings"
	}
	return fmt.Sprintf("%+.2f (%d)", s.AverageRating, s.ReviewCount)
}
