// Command rewatch runs the playback engine headless against simulated decode
// paths: it seeds a demo playlist, walks it with auto-advance, and reports
// resume points on exit. Real hosts embed the internal packages directly.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/mvidal/rewatch/internal/config"
	"github.com/mvidal/rewatch/internal/errmsg"
	"github.com/mvidal/rewatch/internal/log"
	"github.com/mvidal/rewatch/internal/media"
	"github.com/mvidal/rewatch/internal/navigator"
	"github.com/mvidal/rewatch/internal/progress"
	"github.com/mvidal/rewatch/internal/resolver"
	"github.com/mvidal/rewatch/internal/session"
	"github.com/mvidal/rewatch/internal/store"
	"github.com/mvidal/rewatch/internal/surface"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("%s", errmsg.Format(errmsg.OpInitialize, err))
	}
	log.Configure(log.Config{Level: cfg.LogLevel})
	logger := log.WithComponent("main")

	var st *store.Store
	if cfg.DatabasePath != "" {
		st, err = store.OpenAt(cfg.DatabasePath)
	} else {
		st, err = store.Open()
	}
	if err != nil {
		return fmt.Errorf("%s", errmsg.Format(errmsg.OpStoreOpen, err))
	}
	defer st.Close()

	ctx := context.Background()

	const collectionID = "demo"
	items := demoItems()
	if err := st.SeedPlaylist(ctx, collectionID, "Demo reel", items); err != nil {
		return fmt.Errorf("%s", errmsg.Format(errmsg.OpPlaylistSeed, err))
	}

	res := resolver.NewCached(demoResolver(items, cfg.SimItemLength()))

	surf := surface.New(
		media.NewSimTrack(cfg.SimItemLength()),
		media.NewSimTrack(cfg.SimItemLength()),
	)
	surf.SetVolume(cfg.Volume)
	surf.SetMuted(cfg.Muted)

	syncer := progress.NewSynchronizer(st, surf, cfg.UserID)
	syncer.SetInterval(cfg.SyncInterval())

	nav := navigator.New(st)
	nav.SetShuffle(cfg.Shuffle)

	ctrl := session.New(surf, nav, syncer, res)
	sub := ctrl.Subscribe()
	ctrl.Start()
	defer ctrl.Close()

	if err := ctrl.StartTraversal(ctx, collectionID, false); err != nil {
		logger.Warn().Err(err).Msg("no playlist, continuing single-item")
	}
	ctrl.Open(ctx, items[0].ID)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case change := <-sub.StateChanged:
			logger.Info().
				Str("from", change.Previous.String()).
				Str("to", change.Current.String()).
				Msg("session state")
		case item := <-sub.ItemChanged:
			logger.Info().
				Str("item", item.ItemID).
				Str("title", item.Title).
				Int("index", item.Index).
				Msg("now playing")
		case <-sig:
			printResumePoints(ctx, st, cfg.UserID)
			return nil
		}
	}
}

func demoItems() []navigator.Item {
	return []navigator.Item{
		{ID: "vid-001", Title: "Opening Keynote (2009)", Channel: "ConfArchive"},
		{ID: "vid-002", Title: "Workshop: Time-lapse Basics", Channel: "ConfArchive"},
		{ID: "vid-003", Title: "Panel: Preservation at Scale", Channel: "ConfArchive"},
		{ID: "vid-004", Title: "Closing Remarks (2009)", Channel: "ConfArchive"},
	}
}

func demoResolver(items []navigator.Item, length time.Duration) *resolver.Static {
	res := resolver.NewStatic()
	for _, it := range items {
		res.Add(resolver.Metadata{
			ItemID:       it.ID,
			Title:        it.Title,
			Channel:      it.Channel,
			DurationHint: length,
			FileURLs: []string{
				"https://cdn.example.org/" + it.ID + "/play.mp4",
				"https://cdn.example.org/" + it.ID + "/play.webm",
			},
			PosterURL: "https://cdn.example.org/" + it.ID + "/poster.jpg",
		})
	}
	return res
}

func printResumePoints(ctx context.Context, st *store.Store, userID string) {
	if userID == "" {
		return
	}
	records, err := st.Recent(ctx, userID, 10)
	if err != nil {
		fmt.Fprintln(os.Stderr, errmsg.Format(errmsg.OpProgressRead, err))
		return
	}
	for _, rec := range records {
		fmt.Printf("%s  %s / %s  (updated %s)\n",
			rec.Title,
			rec.Position.Round(time.Second),
			rec.Duration.Round(time.Second),
			humanize.Time(rec.UpdatedAt))
	}
}
