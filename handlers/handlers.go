package handlers

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/tenchan000517/zeroone-support-sub001/bot"
	"github.com/tenchan000517/zeroone-support-sub001/config"
	"github.com/tenchan000517/zeroone-support-sub001/database"
	"github.com/tenchan000517/zeroone-support-sub001/detector"
	"github.com/tenchan000517/zeroone-support-sub001/tracker"
	"github.com/tenchan000517/zeroone-support-sub001/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Register wires the announcement detector, its commands and maintenance jobs into the bot.
func Register(b *bot.Bot) error {
	logger := utils.Logger()

	cfg, err := config.LoadAnnouncementConfig()
	if err != nil {
		return err
	}

	store, err := tracker.NewStore(cfg)
	if err != nil {
		return err
	}
	if c, ok := store.(io.Closer); ok {
		b.OnStop(func() { _ = c.Close() })
	}

	history, err := database.NewDetectionDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open detection history: %w", err)
	}
	b.OnStop(func() { _ = history.Close() })

	auth, err := utils.NewAuth()
	if err != nil {
		return fmt.Errorf("failed to load command permissions: %w", err)
	}

	det := detector.New(cfg, nil, store, logger)
	announcer := NewAnnouncer(cfg, det, b.Session, b.Session.State, history, logger)
	b.OnStop(announcer.Close)

	// Register event handlers
	b.Session.AddHandler(announcer.MessageCreate)
	b.Session.AddHandler(InteractionCreate(announcer, auth))

	// Add a ready handler to log when the bot is connected.
	b.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		logger.Info("Logged in", zap.String("user", s.State.User.Username), zap.String("channel_id", cfg.ChannelID))
	})

	b.AddJob("evict_recent_posts", cfg.EvictSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		n, err := store.Evict(ctx, time.Now())
		if err != nil {
			utils.Warn("Tracker", "Evict", err.Error())
			return
		}
		logger.Debug("Evicted idle authors", zap.Int("removed", n))
	})

	b.AddJob("cleanup_detections", "@daily", func() {
		n, err := history.CleanupOldDetections(cfg.RetentionDays)
		if err != nil {
			utils.Warn("DetectionDB", "Cleanup", err.Error())
			return
		}
		utils.Info("DetectionDB", "Cleanup", fmt.Sprintf("Removed %d detections older than %d days", n, cfg.RetentionDays))
	})

	return nil
}
