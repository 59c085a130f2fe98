package dining

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/neexbeast/dininguru/internal/venue"
)

const (
	DefaultVenuesURL       = "https://pennmobile.org/api/dining/venues/"
	DefaultBackupVenuesURL = "https://pennlabs.github.io/backup-data/venues.json"
)

// VenueSource fetches the venue listing, falling back once to a static
// backup document when the primary endpoint fails.
type VenueSource struct {
	primaryURL string
	backupURL  string
	client     *http.Client
	log        *slog.Logger
}

// NewVenueSource constructs a VenueSource. A nil logger uses slog.Default().
func NewVenueSource(primaryURL, backupURL string, log *slog.Logger) *VenueSource {
	if log == nil {
		log = slog.Default()
	}
	return &VenueSource{
		primaryURL: primaryURL,
		backupURL:  backupURL,
		client:     newHTTPClient(),
		log:        log,
	}
}

// FetchVenues returns the primary listing, or the backup listing if the
// primary request fails at the transport, status or decode level. The
// error is returned only when both fail.
func (s *VenueSource) FetchVenues(ctx context.Context) ([]venue.Venue, error) {
	venues, _, err := s.FetchListing(ctx)
	return venues, err
}

// FetchListing is FetchVenues that also reports whether the listing came
// from the backup document. Callers must not cache a backup listing.
func (s *VenueSource) FetchListing(ctx context.Context) (venues []venue.Venue, fromBackup bool, err error) {
	venues, err = s.fetch(ctx, s.primaryURL)
	if err == nil {
		return venues, false, nil
	}
	s.log.Warn("primary venue fetch failed, trying backup", "url", s.primaryURL, "err", err)

	venues, backupErr := s.fetch(ctx, s.backupURL)
	if backupErr != nil {
		return nil, false, fmt.Errorf("fetching venues from backup (primary: %v): %w", err, backupErr)
	}
	return venues, true, nil
}

func (s *VenueSource) fetch(ctx context.Context, rawURL string) ([]venue.Venue, error) {
	var venues []venue.Venue
	if err := doGet(ctx, s.client, rawURL, &venues); err != nil {
		return nil, err
	}
	// A literal null decodes without error but is not a listing.
	if venues == nil {
		return nil, fmt.Errorf("GET %s: %w", rawURL, ErrNoData)
	}

	for _, v := range venues {
		if err := v.Validate(); err != nil {
			s.log.Warn("venue schedule has duplicate days; first entry wins", "venue_id", v.ID, "err", err)
		}
	}
	return venues, nil
}
