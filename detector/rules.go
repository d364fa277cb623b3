package detector

import (
	"regexp"
	"strings"

	"github.com/tenchan000517/zeroone-support-sub001/models"
)

var (
	urlPattern    = regexp.MustCompile(`https?://`)
	bulletPattern = regexp.MustCompile(`[・○●•][\s\p{Zs}]`)
	// futureDatePattern matches month/day, slash dates and clock times. No validity checks: "13月40日" matches.
	futureDatePattern = regexp.MustCompile(`[0-9]{1,2}月[0-9]{1,2}日|[0-9]{1,2}/[0-9]{1,2}|[0-9]{1,2}:[0-9]{2}`)
	// displayDatePattern is the subset of futureDatePattern shown in feedback.
	displayDatePattern = regexp.MustCompile(`[0-9]{1,2}月[0-9]{1,2}日|[0-9]{1,2}/[0-9]{1,2}`)
)

// EventType maps keywords to the label used in the feedback header.
type EventType struct {
	Keywords []string
	Label    string
}

// Rules is the table of keywords and thresholds the gates run against.
type Rules struct {
	StructureThreshold int
	ContentThreshold   int
	MinLength          int // runes
	MinLineBreaks      int
	ShortQuestionLen   int // runes

	ActionKeywords       []string
	AnnouncementKeywords []string
	GreetingKeywords     []string
	OrgKeywords          []string
	HighPriorityKeywords []string
	ImportantOrgs        []string

	EventTypes   []EventType // first match wins
	DefaultEvent string
}

// DefaultRules returns the stock keyword tables.
func DefaultRules() *Rules {
	return &Rules{
		StructureThreshold: 2,
		ContentThreshold:   2,
		MinLength:          200,
		MinLineBreaks:      5,
		ShortQuestionLen:   100,

		ActionKeywords:       []string{"参加", "申し込み", "募集", "エントリー", "応募", "受付", "予約", "登録"},
		AnnouncementKeywords: []string{"イベント", "開催", "決定", "セミナー", "勉強会", "交流会", "リリース", "発表", "公開"},
		GreetingKeywords:     []string{"初めまして", "はじめまして", "初投稿"},
		OrgKeywords:          []string{"団体", "組織", "委員会", "会社", "企業", "株式会社", "有限会社"},
		HighPriorityKeywords: []string{
			"後援", "協賛", "スポンサー", "提携", "パートナー",
			"愛知県", "県", "市", "行政", "自治体",
			"新聞", "メディア", "取材", "プレス",
			"大規模", "200名", "100名", "特別", "初",
		},
		ImportantOrgs: []string{"県", "市", "新聞", "通信社", "放送"},

		EventTypes: []EventType{
			{Keywords: []string{"勉強会"}, Label: "勉強会"},
			{Keywords: []string{"セミナー"}, Label: "セミナー"},
			{Keywords: []string{"交流会"}, Label: "交流会"},
			{Keywords: []string{"リリース", "公開"}, Label: "リリース"},
			{Keywords: []string{"団体", "組織"}, Label: "団体イベント"},
		},
		DefaultEvent: "イベント",
	}
}

// RulesFromConfig starts from DefaultRules and applies the configured thresholds
// and any non-empty keyword lists.
func RulesFromConfig(cfg models.AnnouncementConfig) *Rules {
	r := DefaultRules()
	if cfg.StructureThreshold > 0 {
		r.StructureThreshold = cfg.StructureThreshold
	}
	if cfg.ContentThreshold > 0 {
		r.ContentThreshold = cfg.ContentThreshold
	}

	override := func(dst *[]string, src []string) {
		if len(src) > 0 {
			*dst = src
		}
	}
	kw := cfg.Keywords
	override(&r.ActionKeywords, kw.Action)
	override(&r.AnnouncementKeywords, kw.Announcement)
	override(&r.GreetingKeywords, kw.Greeting)
	override(&r.OrgKeywords, kw.Org)
	override(&r.HighPriorityKeywords, kw.HighPriority)
	override(&r.ImportantOrgs, kw.ImportantOrgs)
	return r
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func countHits(text string, keywords []string) int {
	n := 0
	for _, k := range keywords {
		if strings.Contains(text, k) {
			n++
		}
	}
	return n
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
