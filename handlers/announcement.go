package handlers

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tenchan000517/zeroone-support-sub001/detector"
	"github.com/tenchan000517/zeroone-support-sub001/models"
	"github.com/tenchan000517/zeroone-support-sub001/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

// messageSender is the part of *discordgo.Session used to post feedback.
type messageSender interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// guildState is the part of *discordgo.State used to resolve roles and channels.
type guildState interface {
	Role(guildID, roleID string) (*discordgo.Role, error)
	Channel(channelID string) (*discordgo.Channel, error)
}

// detectionRecorder is the detection history store.
type detectionRecorder interface {
	InsertDetection(rec models.Detection) error
	CountSince(since int64) (int64, error)
	RecentDetections(limit int) ([]models.Detection, error)
}

// Announcer watches the announcement channel and cheers on detected announcements.
type Announcer struct {
	cfg      models.AnnouncementConfig
	detector *detector.Detector
	sender   messageSender
	state    guildState
	history  detectionRecorder
	logger   *zap.Logger
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     conc.WaitGroup

	// mu orders Close after any HandleMessage that may still add to wg.
	mu     sync.RWMutex
	closed bool
}

// NewAnnouncer creates an Announcer. history may be nil.
func NewAnnouncer(cfg models.AnnouncementConfig, det *detector.Detector, sender messageSender, state guildState, history detectionRecorder, logger *zap.Logger) *Announcer {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Announcer{
		cfg:      cfg,
		detector: det,
		sender:   sender,
		state:    state,
		history:  history,
		logger:   logger.Named("announcer"),
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// MessageCreate is the discordgo handler for new messages.
func (a *Announcer) MessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	a.HandleMessage(m.Message)
}

// HandleMessage records the post and, if it is an announcement, schedules the feedback.
func (a *Announcer) HandleMessage(m *discordgo.Message) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed || m == nil || m.Author == nil {
		return
	}
	// BOTメッセージは除外
	if m.Author.Bot {
		return
	}
	if m.ChannelID != a.cfg.ChannelID {
		return
	}

	msg := toDetectorMessage(m)
	verdict, err := a.detector.Observe(a.ctx, msg, a.now())
	if err != nil {
		a.logger.Warn("Announcement check failed", zap.String("message_id", m.ID), zap.Error(err))
		return
	}
	if !verdict.Accepted {
		return
	}

	a.logger.Info("Announcement detected", zap.String("author", msg.AuthorName), zap.String("message_id", msg.ID))
	a.wg.Go(func() {
		a.dispatch(msg, verdict)
	})
}

func toDetectorMessage(m *discordgo.Message) detector.Message {
	name := m.Author.DisplayName()
	if m.Member != nil && m.Member.Nick != "" {
		name = m.Member.Nick
	}
	return detector.Message{
		ID:           m.ID,
		GuildID:      m.GuildID,
		ChannelID:    m.ChannelID,
		Content:      m.Content,
		AuthorID:     m.Author.ID,
		AuthorName:   name,
		AuthorBot:    m.Author.Bot,
		MentionRoles: m.MentionRoles,
		IsReply:      m.MessageReference != nil,
	}
}

// resolveRole returns nil when the role is not configured or cannot be found.
func (a *Announcer) resolveRole(guildID, roleID string) *discordgo.Role {
	if roleID == "" || a.state == nil {
		return nil
	}
	role, err := a.state.Role(guildID, roleID)
	if err != nil {
		a.logger.Warn("Role not found, skipping mention", zap.String("role_id", roleID), zap.Error(err))
		return nil
	}
	return role
}

// dispatch waits the configured delay, then posts the feedback with role mentions.
// Failures are logged and swallowed.
func (a *Announcer) dispatch(msg detector.Message, verdict detector.Verdict) {
	if a.cfg.DispatchDelay > 0 {
		timer := time.NewTimer(a.cfg.DispatchDelay)
		defer timer.Stop()
		select {
		case <-a.ctx.Done():
			a.logger.Info("Shutting down, dropping pending announcement feedback", zap.String("message_id", msg.ID))
			return
		case <-timer.C:
		}
	}

	feedback := a.detector.Rules().ComposeFeedback(msg.Content, msg.AuthorName)

	var mentions, roleIDs []string
	if role := a.resolveRole(msg.GuildID, a.cfg.EveryoneRoleID); role != nil {
		mentions = append(mentions, role.Mention())
		roleIDs = append(roleIDs, role.ID)
	}

	escalated := false
	if verdict.Escalate {
		if role := a.resolveRole(msg.GuildID, a.cfg.StaffRoleID); role != nil {
			mentions = append(mentions, role.Mention())
			roleIDs = append(roleIDs, role.ID)
			feedback += "\n" + detector.StaffNotice
			escalated = true
		}
	}

	content := strings.Join(mentions, " ") + "\n\n" + feedback
	_, err := a.sender.ChannelMessageSendComplex(msg.ChannelID, &discordgo.MessageSend{
		Content:         content,
		AllowedMentions: &discordgo.MessageAllowedMentions{Roles: roleIDs},
	})
	if err != nil {
		a.logger.Error("Failed to send announcement feedback", zap.String("message_id", msg.ID), zap.Error(err))
		utils.Error("AnnouncementDetector", "Dispatch", fmt.Sprintf("告知処理エラー (message %s): %v", msg.ID, err))
	} else {
		a.logger.Info("Announcement feedback sent", zap.String("message_id", msg.ID), zap.Bool("escalated", escalated))
	}

	if a.history == nil {
		return
	}
	rec := models.Detection{
		MessageID:      msg.ID,
		GuildID:        msg.GuildID,
		ChannelID:      msg.ChannelID,
		AuthorID:       msg.AuthorID,
		AuthorName:     msg.AuthorName,
		StructureScore: verdict.Structure.Score,
		ContentScore:   verdict.Content.Score,
		Escalated:      escalated,
		Sent:           err == nil,
		Timestamp:      a.now().Unix(),
	}
	if err := a.history.InsertDetection(rec); err != nil {
		a.logger.Warn("Failed to record detection", zap.String("message_id", msg.ID), zap.Error(err))
	}
}

// Close cancels pending dispatch delays and waits for in-flight dispatches.
func (a *Announcer) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	a.mu.Unlock()

	a.cancel()
	a.wg.Wait()
}
