package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/neexbeast/dininguru/internal/cache"
	"github.com/neexbeast/dininguru/internal/config"
	"github.com/neexbeast/dininguru/internal/dining"
	"github.com/neexbeast/dininguru/internal/imagecache"
	"github.com/neexbeast/dininguru/internal/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		var ue *userError
		if errors.As(err, &ue) {
			fmt.Fprintln(os.Stderr, ue.msg)
		} else {
			fmt.Fprintln(os.Stderr, "Something went wrong. Please try again.")
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.LoadClient()
	if err != nil {
		return fail("Could not read configuration.", err)
	}

	fs := flag.NewFlagSet("dininguru", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		usage(stderr)
		fmt.Fprintln(stderr, "\nflags:")
		fs.PrintDefaults()
	}
	fs.StringVar(&cfg.APIURL, "api", cfg.APIURL, "DininGuru backend base URL")
	fs.StringVar(&cfg.Profile, "profile", cfg.Profile, "preferences profile (Redis store only)")
	verbose := fs.Bool("v", false, "log details of failed requests")
	if err := fs.Parse(args); err != nil {
		return fail("Invalid flags.", err)
	}

	level := config.Level(cfg.LogLevel)
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return fail("Could not open your preferences.", err)
	}
	defer closeStore()

	sess, err := session.Open(ctx, store)
	if err != nil {
		return fail("Could not open your preferences.", err)
	}

	images, err := imagecache.New(cfg.ImageCacheSize)
	if err != nil {
		return fail("Could not start.", err)
	}

	venues := dining.NewVenueSource(cfg.ListingURL(), cfg.BackupVenuesURL, log)
	a := &app{
		client: dining.NewClient(cfg.APIURL, venues, log),
		images: dining.NewImageLoader(images),
		sess:   sess,
		out:    stdout,
		log:    log,
		now:    time.Now,
	}

	err = a.dispatch(ctx, fs.Args())
	if err != nil {
		log.Debug("command failed", "args", fs.Args(), "err", err)
	}
	return err
}

// openStore picks the Redis preference store when PREFS_REDIS_URL is
// set and the JSON file store otherwise.
func openStore(ctx context.Context, cfg *config.Client) (session.Store, func(), error) {
	if cfg.PrefsRedisURL != "" {
		client, err := cache.Connect(ctx, cfg.PrefsRedisURL)
		if err != nil {
			return nil, nil, err
		}
		return session.NewRedisStore(client, cfg.Profile), func() { _ = client.Close() }, nil
	}

	path := cfg.PrefsPath
	if path == "" {
		p, err := session.DefaultPath()
		if err != nil {
			return nil, nil, err
		}
		path = p
	}
	return session.NewFileStore(path), func() {}, nil
}
