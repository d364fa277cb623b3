package detector

import (
	"strings"
)

// StaffNotice is appended to the feedback when the staff role is mentioned.
const StaffNotice = "🏢 運営チームにもお知らせ！ぜひ応援しましょう！"

// EventLabel picks the event type shown in the feedback header.
func (r *Rules) EventLabel(text string) string {
	for _, et := range r.EventTypes {
		if containsAny(text, et.Keywords) {
			return et.Label
		}
	}
	return r.DefaultEvent
}

// ComposeFeedback renders the cheer message posted under an accepted announcement.
func (r *Rules) ComposeFeedback(text, authorName string) string {
	lines := []string{
		"📢 " + authorName + "さんからの" + r.EventLabel(text) + "告知です！",
	}

	if date := displayDatePattern.FindString(text); date != "" {
		lines = append(lines, "📅 "+date)
	}

	hasHTTPS := strings.Contains(text, "https://")
	switch {
	case hasHTTPS && strings.Contains(text, "LINE"):
		lines = append(lines, "🔗 詳細・申し込みはLINEから！")
	case hasHTTPS:
		lines = append(lines, "🔗 詳細リンクあり")
	}

	if strings.Contains(text, "無料") {
		lines = append(lines, "💰 参加無料")
	}
	if strings.Contains(text, "抽選") || strings.Contains(text, "豪華") {
		lines = append(lines, "🎁 豪華特典あり")
	}

	lines = append(lines,
		"",
		"✨ 素晴らしい機会ですね！興味のある方はぜひチェックしてみてください！",
		"🚀 みんなで応援しましょう！",
	)
	return strings.Join(lines, "\n")
}
