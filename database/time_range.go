package database

import (
	"strconv"
	"time"
)

// TimeRange 表示时间范围 (unix seconds, inclusive)
type TimeRange struct {
	StartTime int64
	EndTime   int64
}

// GetLastDaysRange 获取最近N天的时间范围, starting at local midnight N days ago.
func GetLastDaysRange(days int) TimeRange {
	return lastDaysRange(time.Now(), days)
}

func lastDaysRange(now time.Time, days int) TimeRange {
	startDaysAgo := now.AddDate(0, 0, -days)
	startOfDay := time.Date(startDaysAgo.Year(), startDaysAgo.Month(), startDaysAgo.Day(), 0, 0, 0, 0, startDaysAgo.Location())

	return TimeRange{
		StartTime: startOfDay.Unix(),
		EndTime:   now.Unix(),
	}
}

// FormatTimestamp 格式化时间戳为可读字符串
func FormatTimestamp(timestamp int64) string {
	return time.Unix(timestamp, 0).Format("2006-01-02 15:04:05")
}

// GetTimeRangeLabel 获取时间范围的标签描述
func GetTimeRangeLabel(days int) string {
	switch days {
	case 1:
		return "last day"
	default:
		return "last " + strconv.Itoa(days) + " days"
	}
}
