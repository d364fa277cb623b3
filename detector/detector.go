// Package detector decides whether a message posted in the announcement channel
// is a community announcement worth amplifying with role mentions.
//
// Classification runs three gates in order: structure, content, exclusion. The
// first two are pure text checks; the exclusion gate also consults the
// recent-activity tracker, so it runs last.
package detector

import (
	"context"
	"fmt"
	"time"

	"github.com/tenchan000517/zeroone-support-sub001/models"
	"github.com/tenchan000517/zeroone-support-sub001/tracker"

	"go.uber.org/zap"
)

// Message is the view of a chat message the detector needs.
type Message struct {
	ID           string
	GuildID      string
	ChannelID    string
	Content      string
	AuthorID     string
	AuthorName   string
	AuthorBot    bool
	MentionRoles []string
	IsReply      bool
}

// Stage is the last gate a verdict reached.
type Stage int

const (
	StageStructure Stage = iota + 1
	StageContent
	StageExclusion
	StageAccepted
)

func (s Stage) String() string {
	switch s {
	case StageStructure:
		return "structure"
	case StageContent:
		return "content"
	case StageExclusion:
		return "exclusion"
	case StageAccepted:
		return "accepted"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Verdict is the outcome of a classification. Gates after the rejecting stage
// are left zero unless the verdict came from DryRun.
type Verdict struct {
	Structure StructureResult
	Content   ContentResult
	Exclusion ExclusionResult
	Stage     Stage
	Accepted  bool
	Escalate  bool
}

// Report is the dry-run breakdown: every gate evaluated, plus the feedback text on accept.
type Report struct {
	Verdict
	Feedback string
}

// Detector classifies messages. It is safe for concurrent use if its Store is.
type Detector struct {
	rules          *Rules
	tracker        tracker.Store
	everyoneRoleID string
	staffRoleID    string
	logger         *zap.Logger
}

// New creates a Detector for the configured roles and rules.
func New(cfg models.AnnouncementConfig, rules *Rules, store tracker.Store, logger *zap.Logger) *Detector {
	if rules == nil {
		rules = RulesFromConfig(cfg)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{
		rules:          rules,
		tracker:        store,
		everyoneRoleID: cfg.EveryoneRoleID,
		staffRoleID:    cfg.StaffRoleID,
		logger:         logger.Named("announcement_detector"),
	}
}

// Rules returns the rule table in use.
func (d *Detector) Rules() *Rules {
	return d.rules
}

// Observe records the post in the tracker and then classifies it. The repeat
// poster signal comes from the same tracker call that records the post, so
// concurrent posts by one author see each other exactly once.
// A tracker failure rejects the message.
func (d *Detector) Observe(ctx context.Context, msg Message, now time.Time) (Verdict, error) {
	recent, err := d.tracker.RecordAndCheck(ctx, msg.AuthorID, now)
	if err != nil {
		return Verdict{Stage: StageStructure}, fmt.Errorf("failed to update post history: %w", err)
	}
	return d.classify(msg, func() (bool, error) { return recent, nil })
}

// Classify runs the gates with short-circuiting. It does not record the post.
func (d *Detector) Classify(ctx context.Context, msg Message, now time.Time) (Verdict, error) {
	return d.classify(msg, func() (bool, error) {
		return d.tracker.HasRecentPosts(ctx, msg.AuthorID, now)
	})
}

// classify is the gate state machine. recentPosts is only consulted once the
// message has passed the structure and content gates.
func (d *Detector) classify(msg Message, recentPosts func() (bool, error)) (Verdict, error) {
	var v Verdict

	v.Stage = StageStructure
	v.Structure = d.rules.CheckStructure(msg.Content)
	d.logger.Debug("Structure check", zap.String("message_id", msg.ID), zap.Any("result", v.Structure))
	if v.Structure.Score < d.rules.StructureThreshold {
		return v, nil
	}

	v.Stage = StageContent
	v.Content = d.rules.CheckContent(msg.Content)
	d.logger.Debug("Content check", zap.String("message_id", msg.ID), zap.Any("result", v.Content))
	if v.Content.Score < d.rules.ContentThreshold {
		return v, nil
	}

	v.Stage = StageExclusion
	recent, err := recentPosts()
	if err != nil {
		return v, fmt.Errorf("failed to check exclusions: %w", err)
	}
	v.Exclusion = d.exclusions(msg, recent)
	d.logger.Debug("Exclusion check", zap.String("message_id", msg.ID), zap.Any("result", v.Exclusion))
	if v.Exclusion.ShouldExclude {
		return v, nil
	}

	v.Stage = StageAccepted
	v.Accepted = true
	v.Escalate = d.rules.ShouldEscalate(msg.Content)
	d.logger.Info("Announcement detected",
		zap.String("message_id", msg.ID),
		zap.String("author_id", msg.AuthorID),
		zap.Int("total_score", v.Structure.Score+v.Content.Score),
		zap.Bool("escalate", v.Escalate))
	return v, nil
}

// DryRun evaluates every gate without short-circuiting, without touching the
// tracker's state and without dispatching anything.
func (d *Detector) DryRun(ctx context.Context, msg Message, now time.Time) (Report, error) {
	var r Report

	r.Structure = d.rules.CheckStructure(msg.Content)
	r.Content = d.rules.CheckContent(msg.Content)
	excl, err := d.CheckExclusions(ctx, msg, now)
	if err != nil {
		return r, fmt.Errorf("failed to check exclusions: %w", err)
	}
	r.Exclusion = excl

	switch {
	case r.Structure.Score < d.rules.StructureThreshold:
		r.Stage = StageStructure
	case r.Content.Score < d.rules.ContentThreshold:
		r.Stage = StageContent
	case r.Exclusion.ShouldExclude:
		r.Stage = StageExclusion
	default:
		r.Stage = StageAccepted
		r.Accepted = true
		r.Escalate = d.rules.ShouldEscalate(msg.Content)
		r.Feedback = d.rules.ComposeFeedback(msg.Content, msg.AuthorName)
	}
	return r, nil
}

// ActiveAuthors proxies to the tracker.
func (d *Detector) ActiveAuthors(ctx context.Context, now time.Time) (int, error) {
	return d.tracker.ActiveAuthors(ctx, now)
}
