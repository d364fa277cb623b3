package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tenchan000517/zeroone-support-sub001/database"
	"github.com/tenchan000517/zeroone-support-sub001/detector"
	"github.com/tenchan000517/zeroone-support-sub001/models"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	colorGreen  = 0x2ecc71
	colorOrange = 0xe67e22
	colorBlue   = 0x3498db

	dryRunAuthorName = "テストユーザー"
	statsDays        = 7
	recentLimit      = 3
)

// interactionResponder is the part of *discordgo.Session used to answer interactions.
type interactionResponder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

func mark(b bool) string {
	if b {
		return "✅"
	}
	return "❌"
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// HandleAnnouncementTest handles the logic for the /announcement_test command.
func (a *Announcer) HandleAnnouncementTest(s interactionResponder, i *discordgo.InteractionCreate) {
	var text string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "text" {
			text = opt.StringValue()
		}
	}

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		a.logger.Error("Failed to defer interaction", zap.Error(err))
		return
	}

	var authorID string
	if u := interactionUser(i); u != nil {
		authorID = u.ID
	}
	msg := detector.Message{
		GuildID:    i.GuildID,
		ChannelID:  i.ChannelID,
		Content:    text,
		AuthorID:   authorID,
		AuthorName: dryRunAuthorName,
	}

	params := &discordgo.WebhookParams{}
	report, err := a.detector.DryRun(a.ctx, msg, a.now())
	if err != nil {
		a.logger.Error("Dry run failed", zap.Error(err))
		params.Content = fmt.Sprintf("❌ 判定に失敗しました: %v", err)
	} else {
		params.Embeds = []*discordgo.MessageEmbed{buildTestEmbed(text, report)}
	}

	if _, err := s.FollowupMessageCreate(i.Interaction, true, params); err != nil {
		a.logger.Error("Failed to send dry run result", zap.Error(err))
	}
}

func buildTestEmbed(text string, r detector.Report) *discordgo.MessageEmbed {
	color := colorOrange
	if r.Accepted {
		color = colorGreen
	}

	st, ct, ex := r.Structure, r.Content, r.Exclusion
	exclusion := "✅ なし"
	if ex.ShouldExclude {
		exclusion = "⚠️ あり"
	}
	verdict := "❌ 通常メッセージ"
	if r.Accepted {
		verdict = "✅ 告知として認識"
	}

	fields := []*discordgo.MessageEmbedField{
		{
			Name:  "📝 入力テキスト",
			Value: truncate(text, 200),
		},
		{
			Name: "🏗️ 構造判定",
			Value: fmt.Sprintf("スコア: %d/4\n文字数: %s 改行: %s URL: %s 箇条書き: %s",
				st.Score, mark(st.LengthOK), mark(st.LineBreaks), mark(st.HasURL), mark(st.HasBulletPoints)),
			Inline: true,
		},
		{
			Name: "📄 内容判定",
			Value: fmt.Sprintf("スコア: %d/5\n日時: %s 行動促進: %s 告知語: %s 初投稿: %s 組織: %s",
				ct.Score, mark(ct.FutureDate), mark(ct.HasAction), mark(ct.HasAnnouncementWord), mark(ct.IsFirstPost), mark(ct.HasOrgInfo)),
			Inline: true,
		},
		{
			Name: "🚫 除外判定",
			Value: fmt.Sprintf("除外: %s\n既存メンション: %s 返信: %s 短い質問: %s 直近投稿: %s",
				exclusion, mark(ex.HasExistingMention), mark(ex.IsReply), mark(ex.IsShortQuestion), mark(ex.HasRecentPosts)),
			Inline: true,
		},
		{
			Name:  "🎯 最終判定",
			Value: "**" + verdict + "**",
		},
	}

	if r.Accepted {
		staff := "❌ なし"
		if r.Escalate {
			staff = "✅ あり"
		}
		fields = append(fields,
			&discordgo.MessageEmbedField{Name: "🏢 運営メンション", Value: staff, Inline: true},
			&discordgo.MessageEmbedField{Name: "📢 生成メッセージ", Value: truncate(r.Feedback, 500)},
		)
	}

	return &discordgo.MessageEmbed{
		Title:  "🧪 告知検出テスト結果",
		Color:  color,
		Fields: fields,
	}
}

// HandleAnnouncementConfig handles the logic for the /announcement_config command.
func (a *Announcer) HandleAnnouncementConfig(s interactionResponder, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{a.buildConfigEmbed(a.ctx)},
		},
	})
	if err != nil {
		a.logger.Error("Failed to respond to announcement_config", zap.Error(err))
	}
}

func formatWindow(d time.Duration) string {
	if d%time.Hour == 0 {
		return fmt.Sprintf("%d時間", int(d/time.Hour))
	}
	if d%time.Minute == 0 {
		return fmt.Sprintf("%d分", int(d/time.Minute))
	}
	return d.String()
}

func (a *Announcer) buildConfigEmbed(ctx context.Context) *discordgo.MessageEmbed {
	now := a.now()
	rules := a.detector.Rules()

	channel := "チャンネルが見つかりません"
	if a.state != nil {
		if _, err := a.state.Channel(a.cfg.ChannelID); err == nil {
			channel = "<#" + a.cfg.ChannelID + ">"
		}
	}

	active := "取得できません"
	if n, err := a.detector.ActiveAuthors(ctx, now); err != nil {
		a.logger.Warn("Failed to count active authors", zap.Error(err))
	} else {
		active = fmt.Sprintf("%d人", n)
	}

	history := "取得できません"
	recent := "取得できません"
	if a.history != nil {
		r := database.LastDaysRange(now, statsDays)
		if n, err := a.history.CountSince(r.StartTime); err != nil {
			a.logger.Warn("Failed to count detections", zap.Error(err))
		} else {
			history = fmt.Sprintf("%s: %d件", database.RangeLabel(statsDays), n)
		}
		if recs, err := a.history.RecentDetections(recentLimit); err != nil {
			a.logger.Warn("Failed to load recent detections", zap.Error(err))
		} else {
			recent = formatRecent(recs)
		}
	}
	_ = recent

	return &discordgo.MessageEmbed{
		Title: "⚙️ 告知検出設定",
		Color: colorBlue,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:  "📺 監視チャンネル",
				Value: channel,
			},
			{
				Name:  "👥 メンション対象ロール",
				Value: fmt.Sprintf("みんなの告知: <@&%s>\n運営: <@&%s>", a.cfg.EveryoneRoleID, a.cfg.StaffRoleID),
			},
			{
				Name: "📋 判定条件",
				Value: fmt.Sprintf("**1次: 構造** (%d/4以上)\n• %d文字以上 + %d行以上\n• URL + 箇条書き\n\n"+
					"**2次: 内容** (%d/5以上)\n• 日時 + 行動促進語\n• 告知性キーワード\n\n"+
					"**3次: 除外**\n• 既存メンション/返信\n• 直近投稿チェック",
					rules.StructureThreshold, rules.MinLength, rules.MinLineBreaks, rules.ContentThreshold),
			},
			{
				Name:  "📊 監視状況",
				Value: fmt.Sprintf("アクティブユーザー: %s\n投稿履歴: %s保持\n送信遅延: %s", active, formatWindow(a.cfg.Window), a.cfg.DispatchDelay),
			},
			{
				Name:  "📈 検出履歴",
				Value: history,
			},
		},
	}
}

func formatRecent(recs []models.Detection) string {
	if len(recs) == 0 {
		return "なし"
	}
	lines := make([]string, 0, len(recs))
	for _, d := range recs {
		line := fmt.Sprintf("・%s (構造 %d/4・内容 %d/5) <t:%d:R>", d.AuthorName, d.StructureScore, d.ContentScore, d.Timestamp)
		if d.Escalated {
			line += " 🏢"
		}
		if !d.Sent {
			line += " ⚠️ 送信失敗"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// HandlePing handles the logic for the /ping command.
func HandlePing(s interactionResponder, i *discordgo.InteractionCreate) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "Pong!",
		},
	})
}
