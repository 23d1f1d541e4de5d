package albumanalytics

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"album-pulse/agents/album-analytics/engine"
	"album-pulse/internal/models"
	"album-pulse/shared/ai"
	"album-pulse/shared/config"
	"album-pulse/shared/email"
	"album-pulse/shared/scheduler"
	"album-pulse/shared/storage"
)

// Metrics summarizes one analytics run for the health endpoint.
type Metrics struct {
	Tracks     int
	Matched    int
	WithLyrics int
	Snapshots  int
}

func (m Metrics) GetSummary() string {
	return fmt.Sprintf("%d tracks, %d matched, %d with lyrics, %d snapshots on file",
		m.Tracks, m.Matched, m.WithLyrics, m.Snapshots)
}

// AnalyticsAgent implements the scheduler.Agent interface. Each run it
// rebuilds the denormalized per-track analytics table from the facts in
// the store and mails the digest.
type AnalyticsAgent struct {
	config      *config.Config
	store       *storage.Store
	emailSender *email.Sender
	commentator *ai.Commentator
	exportPath  string
}

func NewAnalyticsAgent(cfg *config.Config) *AnalyticsAgent {
	return &AnalyticsAgent{config: cfg}
}

func (a *AnalyticsAgent) Name() string {
	return "Album Analytics"
}

// SetExportPath makes each run also write the analytics table as CSV.
func (a *AnalyticsAgent) SetExportPath(path string) {
	a.exportPath = path
}

func (a *AnalyticsAgent) Initialize() error {
	log.Printf("Initializing %s...", a.Name())

	if a.store == nil {
		store, err := storage.Open(a.config.Storage.Path)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		a.store = store
		log.Printf("Store opened at %s", a.config.Storage.Path)
	}

	if a.emailSender == nil && a.config.EmailConfigured() {
		a.emailSender = email.NewSender(&a.config.Email)
		log.Println("Email sender initialized")
	}

	if a.commentator == nil && a.config.AIConfigured() {
		commentator, err := ai.NewCommentator(a.config)
		if err != nil {
			return fmt.Errorf("failed to create commentator: %w", err)
		}
		a.commentator = commentator
		log.Println("AI commentator initialized")
	}

	return nil
}

// ImportCSV loads a seed dataset into the store, replacing the current
// fact tables. Initialize must have been called first.
func (a *AnalyticsAgent) ImportCSV(ctx context.Context, dir string) error {
	counts, err := a.store.ImportCSVDir(ctx, dir)
	if err != nil {
		return fmt.Errorf("failed to import %s: %w", dir, err)
	}
	log.Printf("Imported %d tracks, %d lyric records, %d videos, %d snapshots from %s",
		counts.Tracks, counts.Lyrics, counts.Videos, counts.Snapshots, dir)
	return nil
}

func (a *AnalyticsAgent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	startTime := time.Now()

	facts, err := a.loadFacts(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	rows, err := engine.Build(ctx, facts, now)
	if err != nil {
		return fmt.Errorf("failed to build analytics: %w", err)
	}

	if err := a.store.ReplaceAnalytics(ctx, rows, now); err != nil {
		return fmt.Errorf("failed to store analytics: %w", err)
	}

	matched := 0
	withLyrics := 0
	for _, r := range rows {
		if r.VideoID != nil {
			matched++
		}
		if r.WordCount != nil {
			withLyrics++
		}
	}
	log.Printf("Analytics rebuilt: %d tracks, %d matched, %d with lyrics", len(rows), matched, withLyrics)

	if a.exportPath != "" {
		if err := a.exportCSV(rows); err != nil {
			return fmt.Errorf("failed to export analytics: %w", err)
		}
		log.Printf("Analytics exported to %s", a.exportPath)
	}

	partial := a.sendDigest(ctx, rows, matched, now)
	duration := time.Since(startTime)

	if events != nil {
		metrics := Metrics{
			Tracks:     len(rows),
			Matched:    matched,
			WithLyrics: withLyrics,
			Snapshots:  len(facts.Snapshots),
		}
		if partial != nil {
			events.OnPartialFailure(partial, duration)
		} else {
			events.OnSuccess(metrics, duration)
		}
	}

	log.Printf("Run complete in %s", duration.Round(time.Millisecond))
	return nil
}

func (a *AnalyticsAgent) loadFacts(ctx context.Context) (engine.Facts, error) {
	var facts engine.Facts
	var err error

	if facts.Tracks, err = a.store.Tracks(ctx); err != nil {
		return facts, fmt.Errorf("failed to load tracks: %w", err)
	}
	if facts.Videos, err = a.store.Videos(ctx); err != nil {
		return facts, fmt.Errorf("failed to load videos: %w", err)
	}
	if facts.Snapshots, err = a.store.Snapshots(ctx); err != nil {
		return facts, fmt.Errorf("failed to load snapshots: %w", err)
	}
	if facts.Lyrics, err = a.store.Lyrics(ctx); err != nil {
		return facts, fmt.Errorf("failed to load lyrics: %w", err)
	}
	return facts, nil
}

func (a *AnalyticsAgent) exportCSV(rows []*models.TrackAnalytics) error {
	f, err := os.Create(a.exportPath)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := storage.WriteAnalyticsCSV(f, rows); err != nil {
		return err
	}
	return f.Close()
}

// sendDigest mails the daily digest. A digest failure never fails the
// run; the analytics table is already rebuilt. Returns a non-nil error
// to report as a partial failure.
func (a *AnalyticsAgent) sendDigest(ctx context.Context, rows []*models.TrackAnalytics, matched int, now time.Time) error {
	if a.emailSender == nil {
		log.Println("Email not configured, skipping digest")
		return nil
	}
	if len(rows) == 0 {
		log.Println("No analytics rows, skipping digest")
		return nil
	}

	report := &models.DigestReport{
		Date:       now,
		AlbumTitle: a.config.Album.Title,
		Artist:     a.config.Album.Artist,
		Rows:       rows,
		Matched:    matched,
	}

	if a.commentator != nil {
		commentary, err := a.commentator.Commentary(ctx, report)
		if err != nil {
			log.Printf("Warning: commentary unavailable: %v", err)
		} else {
			report.Commentary = commentary
		}
	}

	if err := a.emailSender.SendDigest(report); err != nil {
		log.Printf("Warning: failed to send digest: %v", err)
		return fmt.Errorf("digest not sent: %w", err)
	}
	log.Println("Digest sent")
	return nil
}

// Close releases the store. Safe to call before Initialize.
func (a *AnalyticsAgent) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}
