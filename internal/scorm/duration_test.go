package scorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDurationClock(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"0000:00:05", 5},
		{"0000:01:30", 90},
		{"0001:00:00", 3600},
		{"0000:00:05.50", 5.5},
		{"23:59:59", 86399},
		{"9999:00:00", 9999 * 3600},
	}
	for _, c := range cases {
		got, err := ParseDuration(c.in)
		require.NoError(t, err, c.in)
		assert.InDelta(t, c.want, got, 0.001, c.in)
	}
}

func TestParseDurationISO8601(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"PT5S", 5},
		{"PT1M30S", 90},
		{"PT1H", 3600},
		{"PT0H1M30.5S", 90.5},
		{"P1DT2H", 86400 + 7200},
	}
	for _, c := range cases {
		got, err := ParseDuration(c.in)
		require.NoError(t, err, c.in)
		assert.InDelta(t, c.want, got, 0.001, c.in)
	}
}

func TestParseDurationRejectsGarbage(t *testing.T) {
	bad := []string{
		"",
		"banana",
		"00:05",        // 缺小时段
		"0:00:05",      // 小时不足两位
		"0000:61:00",   // 分钟越界
		"0000:00:61",   // 秒越界
		"P",            // 空时长
		"P1Y",          // 年粒度
		"P2M",          // 月粒度（时间段外的 M）
		"-0001:00:00",  // 负数
		"0000:00:05:0", // 段数过多
	}
	for _, in := range bad {
		_, err := ParseDuration(in)
		assert.Error(t, err, in)
	}
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "0000:00:25.00", FormatClock(25))
	assert.Equal(t, "0001:01:01.50", FormatClock(3661.5))
	assert.Equal(t, "0000:00:00.00", FormatClock(-5))
}

func TestFormatISO8601(t *testing.T) {
	assert.Equal(t, "PT0H0M25S", FormatISO8601(25))
	assert.Equal(t, "PT1H1M1.50S", FormatISO8601(3661.5))
	assert.Equal(t, "PT0H0M0S", FormatISO8601(-5))
}

func TestFormatCarriesRoundedSecondsIntoMinutes(t *testing.T) {
	// 59.995 以上不能输出 60.00，进位到分钟
	assert.Equal(t, "0000:01:00.00", FormatClock(59.999))
	assert.Equal(t, "0001:00:00.00", FormatClock(3599.999))
	assert.Equal(t, "0000:00:59.99", FormatClock(59.994))

	assert.Equal(t, "PT0H1M0S", FormatISO8601(59.999))
	assert.Equal(t, "PT1H0M0S", FormatISO8601(3599.999))
	assert.Equal(t, "PT0H0M59.99S", FormatISO8601(59.994))
}

func TestClockRoundTrip(t *testing.T) {
	secs, err := ParseDuration(FormatClock(12345.67))
	require.NoError(t, err)
	assert.InDelta(t, 12345.67, secs, 0.01)
}
