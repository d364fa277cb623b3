package detector

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenchan000517/zeroone-support-sub001/models"
	"github.com/tenchan000517/zeroone-support-sub001/tracker"
)

const (
	everyoneRole = "1382167308180394145"
	staffRole    = "1236487195741913119"
)

var now = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// announcementText is a well-formed event post: 4 structural and 3 content signals,
// no escalation keywords.
func announcementText() string {
	return strings.Join([]string{
		"来週イベントを開きます",
		"日時: 3月15日",
		"・ 項目A",
		"・ 項目B",
		"参加はこちらから",
		"https://example.com",
		strings.Repeat("よろしくお願いします。", 20),
	}, "\n")
}

func newDetector(t *testing.T) (*Detector, *tracker.MemoryStore) {
	t.Helper()
	store := tracker.NewMemoryStore(time.Hour)
	cfg := models.AnnouncementConfig{
		ChannelID:      "1330790111259922513",
		EveryoneRoleID: everyoneRole,
		StaffRoleID:    staffRole,
	}
	return New(cfg, nil, store, nil), store
}

func TestCheckStructure(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name     string
		text     string
		expected StructureResult
	}{
		{
			name:     "empty",
			text:     "",
			expected: StructureResult{},
		},
		{
			name:     "length counts runes",
			text:     strings.Repeat("あ", 200),
			expected: StructureResult{LengthOK: true, Score: 1},
		},
		{
			name:     "199 runes is short",
			text:     strings.Repeat("あ", 199),
			expected: StructureResult{},
		},
		{
			name:     "five line breaks",
			text:     "a\nb\nc\nd\ne\nf",
			expected: StructureResult{LineBreaks: true, Score: 1},
		},
		{
			name:     "url",
			text:     "see http://example.com",
			expected: StructureResult{HasURL: true, Score: 1},
		},
		{
			name:     "bullet with ideographic space",
			text:     "●　項目",
			expected: StructureResult{HasBulletPoints: true, Score: 1},
		},
		{
			name:     "bullet without space",
			text:     "•項目",
			expected: StructureResult{},
		},
		{
			name: "all four",
			text: announcementText(),
			expected: StructureResult{
				LengthOK: true, LineBreaks: true, HasURL: true, HasBulletPoints: true, Score: 4,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, rules.CheckStructure(tt.text))
		})
	}
}

func TestCheckContent(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name     string
		text     string
		expected ContentResult
	}{
		{
			name:     "empty",
			text:     "",
			expected: ContentResult{},
		},
		{
			name:     "invalid dates still match",
			text:     "13月40日",
			expected: ContentResult{FutureDate: true, Score: 1},
		},
		{
			name:     "slash date",
			text:     "12/24",
			expected: ContentResult{FutureDate: true, Score: 1},
		},
		{
			name:     "clock time",
			text:     "19:30",
			expected: ContentResult{FutureDate: true, Score: 1},
		},
		{
			name: "all five",
			text: "はじめまして、株式会社Xです。4月1日に勉強会を開催、エントリー受付中",
			expected: ContentResult{
				FutureDate: true, HasAction: true, HasAnnouncementWord: true, IsFirstPost: true, HasOrgInfo: true, Score: 5,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, rules.CheckContent(tt.text))
		})
	}
}

func TestShouldEscalate(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name     string
		text     string
		expected bool
	}{
		{name: "no keywords", text: announcementText(), expected: false},
		{name: "single high priority keyword", text: "スポンサー募集", expected: false},
		{name: "two high priority keywords", text: "スポンサーとメディア", expected: true},
		{name: "important org alone", text: "新聞に載りました", expected: true},
		{name: "prefecture with sponsors", text: "県の後援、企業の協賛", expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, rules.ShouldEscalate(tt.text))
		})
	}
}

func TestClassifyRejectsWithoutStructure(t *testing.T) {
	d, _ := newDetector(t)

	// Plenty of content signals but no structure.
	text := "3月15日に勉強会を開催します。参加募集中！株式会社Xより"
	v, err := d.Observe(context.Background(), Message{AuthorID: "u1", Content: text}, now)
	require.NoError(t, err)

	assert.False(t, v.Accepted)
	assert.Equal(t, StageStructure, v.Stage)
	assert.Equal(t, 0, v.Structure.Score)
	assert.Equal(t, ContentResult{}, v.Content, "content gate is skipped")
}

func TestClassifyRejectsWithoutContent(t *testing.T) {
	d, _ := newDetector(t)

	text := strings.Repeat("あ", 210) + "\nhttps://example.com"
	v, err := d.Observe(context.Background(), Message{AuthorID: "u1", Content: text}, now)
	require.NoError(t, err)

	assert.False(t, v.Accepted)
	assert.Equal(t, StageContent, v.Stage)
	assert.Equal(t, ExclusionResult{}, v.Exclusion, "exclusion gate is skipped")
}

func TestScenarioAccept(t *testing.T) {
	d, _ := newDetector(t)

	v, err := d.Observe(context.Background(), Message{AuthorID: "u1", Content: announcementText()}, now)
	require.NoError(t, err)

	assert.True(t, v.Accepted)
	assert.Equal(t, StageAccepted, v.Stage)
	assert.Equal(t, 4, v.Structure.Score)
	assert.GreaterOrEqual(t, v.Content.Score, 3)
	assert.False(t, v.Exclusion.ShouldExclude)
	assert.False(t, v.Escalate)
}

func TestScenarioReply(t *testing.T) {
	d, _ := newDetector(t)

	v, err := d.Observe(context.Background(), Message{AuthorID: "u1", Content: announcementText(), IsReply: true}, now)
	require.NoError(t, err)

	assert.False(t, v.Accepted)
	assert.Equal(t, StageExclusion, v.Stage)
	assert.True(t, v.Exclusion.IsReply)
	assert.True(t, v.Exclusion.ShouldExclude)
}

func TestScenarioExistingMention(t *testing.T) {
	d, _ := newDetector(t)

	msg := Message{AuthorID: "u1", Content: announcementText(), MentionRoles: []string{"42", staffRole}}
	v, err := d.Observe(context.Background(), msg, now)
	require.NoError(t, err)

	assert.False(t, v.Accepted)
	assert.True(t, v.Exclusion.HasExistingMention)
}

func TestScenarioShortQuestion(t *testing.T) {
	d, _ := newDetector(t)

	text := strings.Repeat("？", 50)
	assert.True(t, d.Rules().IsShortQuestion(text))

	v, err := d.Observe(context.Background(), Message{AuthorID: "u1", Content: text}, now)
	require.NoError(t, err)
	assert.False(t, v.Accepted)

	// Passes both text gates, still excluded as a question.
	text = "・ https://example.com 3/15 参加できますか？"
	v, err = d.Observe(context.Background(), Message{AuthorID: "u2", Content: text}, now)
	require.NoError(t, err)
	assert.False(t, v.Accepted)
	assert.Equal(t, StageExclusion, v.Stage)
	assert.True(t, v.Exclusion.IsShortQuestion)
}

func TestScenarioRepeatedPosts(t *testing.T) {
	d, _ := newDetector(t)
	ctx := context.Background()
	msg := Message{AuthorID: "u1", Content: announcementText()}

	first, err := d.Observe(ctx, msg, now)
	require.NoError(t, err)
	assert.True(t, first.Accepted)
	assert.False(t, first.Exclusion.HasRecentPosts)

	second, err := d.Observe(ctx, msg, now.Add(10*time.Minute))
	require.NoError(t, err)
	assert.False(t, second.Accepted)
	assert.True(t, second.Exclusion.HasRecentPosts)

	third, err := d.Observe(ctx, msg, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.True(t, third.Accepted, "earlier posts have expired")
}

func TestScenarioEscalation(t *testing.T) {
	d, _ := newDetector(t)

	text := announcementText() + "\n県の後援、協賛企業あり"
	v, err := d.Observe(context.Background(), Message{AuthorID: "u1", Content: text}, now)
	require.NoError(t, err)

	assert.True(t, v.Accepted)
	assert.True(t, v.Escalate)
}

// rendezvousStore holds every RecordAndCheck until all expected callers have
// arrived, so their tracker calls overlap.
type rendezvousStore struct {
	tracker.Store
	arrived sync.WaitGroup
}

func (r *rendezvousStore) RecordAndCheck(ctx context.Context, authorID string, at time.Time) (bool, error) {
	r.arrived.Done()
	r.arrived.Wait()
	return r.Store.RecordAndCheck(ctx, authorID, at)
}

func TestConcurrentPostsBySameAuthor(t *testing.T) {
	store := &rendezvousStore{Store: tracker.NewMemoryStore(time.Hour)}
	store.arrived.Add(2)
	d := New(models.AnnouncementConfig{}, nil, store, nil)

	var wg sync.WaitGroup
	verdicts := make([]Verdict, 2)
	for i, id := range []string{"m1", "m2"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := d.Observe(context.Background(), Message{ID: id, AuthorID: "u1", Content: announcementText()}, now)
			assert.NoError(t, err)
			verdicts[i] = v
		}()
	}
	wg.Wait()

	accepted := 0
	for _, v := range verdicts {
		if v.Accepted {
			accepted++
		}
	}
	assert.Equal(t, 1, accepted, "the first post is amplified, the second is a repeat")
	assert.NotEqual(t, verdicts[0].Exclusion.HasRecentPosts, verdicts[1].Exclusion.HasRecentPosts)
}

func TestDryRun(t *testing.T) {
	d, store := newDetector(t)
	ctx := context.Background()
	msg := Message{AuthorID: "admin", AuthorName: "テストユーザー", Content: announcementText()}

	first, err := d.DryRun(ctx, msg, now)
	require.NoError(t, err)
	second, err := d.DryRun(ctx, msg, now)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 0, store.Len(), "dry run must not record")

	assert.True(t, first.Accepted)
	assert.Contains(t, first.Feedback, "📅 3月15日")
	assert.Contains(t, first.Feedback, "🔗 詳細リンクあり")
	assert.True(t, strings.HasPrefix(first.Feedback, "📢 テストユーザーさんからのイベント告知です！"))
}

func TestDryRunEvaluatesAllGates(t *testing.T) {
	d, _ := newDetector(t)

	r, err := d.DryRun(context.Background(), Message{AuthorID: "admin", Content: "3月15日 参加？"}, now)
	require.NoError(t, err)

	assert.False(t, r.Accepted)
	assert.Equal(t, StageStructure, r.Stage)
	assert.Equal(t, 2, r.Content.Score)
	assert.True(t, r.Exclusion.IsShortQuestion)
	assert.Empty(t, r.Feedback)
}

type failingStore struct {
	tracker.Store
}

func (failingStore) RecordAndCheck(context.Context, string, time.Time) (bool, error) {
	return false, errors.New("connection refused")
}

func (failingStore) HasRecentPosts(context.Context, string, time.Time) (bool, error) {
	return false, errors.New("connection refused")
}

func TestTrackerFailureRejects(t *testing.T) {
	d := New(models.AnnouncementConfig{}, nil, failingStore{}, nil)

	v, err := d.Observe(context.Background(), Message{AuthorID: "u1", Content: announcementText()}, now)
	assert.Error(t, err)
	assert.False(t, v.Accepted)

	r, err := d.DryRun(context.Background(), Message{AuthorID: "u1", Content: announcementText()}, now)
	assert.Error(t, err)
	assert.False(t, r.Accepted)
}

func TestRulesFromConfig(t *testing.T) {
	rules := RulesFromConfig(models.AnnouncementConfig{
		StructureThreshold: 3,
		Keywords:           models.KeywordConfig{Action: []string{"申込"}},
	})

	assert.Equal(t, 3, rules.StructureThreshold)
	assert.Equal(t, 2, rules.ContentThreshold)
	assert.Equal(t, []string{"申込"}, rules.ActionKeywords)
	assert.Equal(t, DefaultRules().AnnouncementKeywords, rules.AnnouncementKeywords)
}
