package scorm

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var errBadDuration = errors.New("invalid duration")

// ParseDuration 解析课件上报的时长，返回秒数。
// 同时接受 SCORM 1.2 的 hhhh:mm:ss.ss 与 SCORM 2004 的 ISO-8601 (PTnHnMnS)，
// 制作工具两种都可能发，不按包版本拒收。
func ParseDuration(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errBadDuration
	}
	if s[0] == 'P' || s[0] == 'p' {
		return parseISO8601(s)
	}
	return parseClock(s)
}

// parseClock hhhh:mm:ss.ss，小时 2~4 位，秒可带小数
func parseClock(s string) (float64, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, errBadDuration
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || len(parts[0]) < 2 || len(parts[0]) > 4 {
		return 0, errBadDuration
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, errBadDuration
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || seconds < 0 || seconds >= 60 {
		return 0, errBadDuration
	}
	return float64(hours)*3600 + float64(minutes)*60 + seconds, nil
}

// parseISO8601 PnYnMnDTnHnMnS 的 RTE 子集：支持 D/H/M/S，年月按 0 处理被拒
func parseISO8601(s string) (float64, error) {
	rest := s[1:] // 去掉 'P'
	if rest == "" {
		return 0, errBadDuration
	}

	var total float64
	inTime := false
	num := ""

	for _, r := range rest {
		switch {
		case r >= '0' && r <= '9' || r == '.':
			num += string(r)
		case r == 'T' || r == 't':
			if inTime || num != "" {
				return 0, errBadDuration
			}
			inTime = true
		default:
			if num == "" {
				return 0, errBadDuration
			}
			v, err := strconv.ParseFloat(num, 64)
			if err != nil {
				return 0, errBadDuration
			}
			num = ""
			switch {
			case (r == 'D' || r == 'd') && !inTime:
				total += v * 86400
			case (r == 'H' || r == 'h') && inTime:
				total += v * 3600
			case (r == 'M' || r == 'm') && inTime:
				total += v * 60
			case (r == 'S' || r == 's') && inTime:
				total += v
			default:
				// 年/月粒度对会话时长没有意义，视为非法
				return 0, errBadDuration
			}
		}
	}
	if num != "" {
		return 0, errBadDuration
	}
	return total, nil
}

// splitCenti 先归一到厘秒再拆分，避免秒的小数部分四舍五入出 60.00
func splitCenti(seconds float64) (h, m, centi int64) {
	if seconds < 0 {
		seconds = 0
	}
	total := int64(math.Round(seconds * 100))
	return total / 360000, (total % 360000) / 6000, total % 6000
}

// FormatClock 秒数格式化为 SCORM 1.2 的 hhhh:mm:ss.ss
func FormatClock(seconds float64) string {
	h, m, centi := splitCenti(seconds)
	return fmt.Sprintf("%04d:%02d:%05.2f", h, m, float64(centi)/100)
}

// FormatISO8601 秒数格式化为 SCORM 2004 的 ISO-8601 时长
func FormatISO8601(seconds float64) string {
	h, m, centi := splitCenti(seconds)
	if centi%100 == 0 {
		return fmt.Sprintf("PT%dH%dM%dS", h, m, centi/100)
	}
	return fmt.Sprintf("PT%dH%dM%.2fS", h, m, float64(centi)/100)
}
