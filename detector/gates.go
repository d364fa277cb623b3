package detector

import (
	"context"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

// StructureResult is the first gate: does the text look like a formatted post.
type StructureResult struct {
	LengthOK        bool `json:"length_ok"`
	LineBreaks      bool `json:"line_breaks"`
	HasURL          bool `json:"has_url"`
	HasBulletPoints bool `json:"has_bullet_points"`
	Score           int  `json:"structure_score"`
}

// ContentResult is the second gate: is the text about a dated, actionable event.
type ContentResult struct {
	FutureDate          bool `json:"future_date"`
	HasAction           bool `json:"has_action"`
	HasAnnouncementWord bool `json:"has_announcement_word"`
	IsFirstPost         bool `json:"is_first_post"`
	HasOrgInfo          bool `json:"has_org_info"`
	Score               int  `json:"content_score"`
}

// ExclusionResult is the third gate. Any true signal rejects the message.
type ExclusionResult struct {
	HasExistingMention bool `json:"has_existing_mention"`
	IsReply            bool `json:"is_reply"`
	IsShortQuestion    bool `json:"is_short_question"`
	HasRecentPosts     bool `json:"has_recent_posts"`
	ShouldExclude      bool `json:"should_exclude"`
}

// CheckStructure scores the structural signals of text.
func (r *Rules) CheckStructure(text string) StructureResult {
	res := StructureResult{
		LengthOK:        utf8.RuneCountInString(text) >= r.MinLength,
		LineBreaks:      strings.Count(text, "\n") >= r.MinLineBreaks,
		HasURL:          urlPattern.MatchString(text),
		HasBulletPoints: bulletPattern.MatchString(text),
	}
	res.Score = b2i(res.LengthOK) + b2i(res.LineBreaks) + b2i(res.HasURL) + b2i(res.HasBulletPoints)
	return res
}

// CheckContent scores the lexical signals of text.
func (r *Rules) CheckContent(text string) ContentResult {
	res := ContentResult{
		FutureDate:          futureDatePattern.MatchString(text),
		HasAction:           containsAny(text, r.ActionKeywords),
		HasAnnouncementWord: containsAny(text, r.AnnouncementKeywords),
		IsFirstPost:         containsAny(text, r.GreetingKeywords),
		HasOrgInfo:          containsAny(text, r.OrgKeywords),
	}
	res.Score = b2i(res.FutureDate) + b2i(res.HasAction) + b2i(res.HasAnnouncementWord) +
		b2i(res.IsFirstPost) + b2i(res.HasOrgInfo)
	return res
}

// IsShortQuestion reports a short message whose trimmed text ends with a question mark.
func (r *Rules) IsShortQuestion(text string) bool {
	if utf8.RuneCountInString(text) >= r.ShortQuestionLen {
		return false
	}
	trimmed := strings.TrimSpace(text)
	return strings.HasSuffix(trimmed, "？") || strings.HasSuffix(trimmed, "?")
}

// ShouldEscalate reports whether the staff role should be mentioned as well:
// two or more high-priority keywords, or any important organization.
func (r *Rules) ShouldEscalate(text string) bool {
	return countHits(text, r.HighPriorityKeywords) >= 2 || containsAny(text, r.ImportantOrgs)
}

// CheckExclusions evaluates the third gate. It reads the tracker but never writes to it.
func (d *Detector) CheckExclusions(ctx context.Context, msg Message, now time.Time) (ExclusionResult, error) {
	recent, err := d.tracker.HasRecentPosts(ctx, msg.AuthorID, now)
	if err != nil {
		return d.exclusions(msg, false), err
	}
	return d.exclusions(msg, recent), nil
}

func (d *Detector) exclusions(msg Message, recent bool) ExclusionResult {
	res := ExclusionResult{
		HasExistingMention: slices.ContainsFunc(msg.MentionRoles, d.isImportantRole),
		IsReply:            msg.IsReply,
		IsShortQuestion:    d.rules.IsShortQuestion(msg.Content),
		HasRecentPosts:     recent,
	}
	res.ShouldExclude = res.HasExistingMention || res.IsReply || res.IsShortQuestion || res.HasRecentPosts
	return res
}

func (d *Detector) isImportantRole(roleID string) bool {
	if roleID == "" {
		return false
	}
	return roleID == d.everyoneRoleID || roleID == d.staffRoleID
}
