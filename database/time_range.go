package database

import (
	"strconv"
	"time"
)

// TimeRange 表示时间范围
type TimeRange struct {
	StartTime int64 // 开始时间戳
	EndTime   int64 // 结束时间戳
}

// LastDaysRange 获取截至 now 的最近N天的时间范围
func LastDaysRange(now time.Time, days int) TimeRange {
	// N天前的开始时间
	startDaysAgo := now.AddDate(0, 0, -days)
	startOfDay := time.Date(startDaysAgo.Year(), startDaysAgo.Month(), startDaysAgo.Day(), 0, 0, 0, 0, startDaysAgo.Location())

	return TimeRange{
		StartTime: startOfDay.Unix(),
		EndTime:   now.Unix(),
	}
}

// RangeLabel 获取时间范围的标签描述
func RangeLabel(days int) string {
	return "直近" + strconv.Itoa(days) + "日"
}
