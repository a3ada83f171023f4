package utility

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"2 + 2", "4"},
		{"10 * (5 + 3)", "80"},
		{"2 ** 8", "256"},
		{"2 ** 3 ** 2", "512"},
		{"-2 ** 2", "-4"},
		{"2 ** -1", "0.5"},
		{"7 / 2", "3.5"},
		{"10 / 2", "5"},
		{"7 // 2", "3"},
		{"-7 // 2", "-4"},
		{"-7 % 3", "2"},
		{"7 % -3", "-2"},
		{"7.5 // 2", "3"},
		{"0.1 + 0.2", "0.30000000000000004"},
		{"+3 - -3", "6"},
		{"1e3 * 2", "2000"},
		{"9223372036854775807 + 1", "9223372036854775808"},
		{"-9223372036854775808 - 1", "-9223372036854775809"},
		{"2 ** 64", "18446744073709551616"},
		{"3 ** 40", "12157665459056928801"},
		{"99999999999 * 99999999999", "9999999999800000000001"},
		{"2 ** 70 // 3", "393530540239137101141"},
		{"-(2 ** 70) % 7", "5"},
		{"-(2 ** 70) // 7", "-168655945816773043347"},
		{"10 ** 400 / 10 ** 399", "10"},
		{"(-1) ** 1000001", "-1"},
		{"((1))", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Evaluate(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	for _, expr := range []string{"", "2 +", "(1 + 2", "1 + 2)", "abc", "2 ^ 3", "1 2", "..5", "10 ** 400.0", "2 ** 1000000", "10 ** 400 * 1.5"} {
		t.Run(expr, func(t *testing.T) {
			_, err := Evaluate(expr)
			assert.Error(t, err)
		})
	}
}

func TestCalculatorTool(t *testing.T) {
	tool := NewCalculatorTool()
	assert.Equal(t, "Calculator", tool.Name())

	out, err := tool.Run(context.Background(), " 123 * 456 ")
	require.NoError(t, err)
	assert.Equal(t, "Result: 123 * 456 = 56088", out)

	_, err = tool.Run(context.Background(), "1 / 0")
	assert.EqualError(t, err, "division by zero")

	_, err = tool.Run(context.Background(), "5 % 0")
	assert.EqualError(t, err, "division by zero")

	_, err = tool.Run(context.Background(), "import os")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid expression "import os"`)
}

func TestDateTimeTool(t *testing.T) {
	fixed := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	tool := NewDateTimeTool(func() time.Time { return fixed })
	ctx := context.Background()

	tests := []struct {
		query string
		want  string
	}{
		{"now", "Current time: 2024-03-15 09:30:00"},
		{" NOW ", "Current time: 2024-03-15 09:30:00"},
		{"today", "Today is: 2024-03-15 Friday"},
		{"timezone:Asia/Shanghai", "Asia/Shanghai current time: 2024-03-15 17:30:00 CST"},
		{"add: 1 day", "Date arithmetic is not supported yet."},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			out, err := tool.Run(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}

	out, err := tool.Run(ctx, "anything")
	require.NoError(t, err)
	assert.Contains(t, out, "Date: 2024-03-15 Friday")
	assert.Contains(t, out, "Time: 09:30:00")
	assert.Contains(t, out, "Supported commands:")

	_, err = tool.Run(ctx, "timezone:Mars/Olympus")
	assert.EqualError(t, err, `unknown time zone "Mars/Olympus"`)
}

func TestWeatherTool(t *testing.T) {
	tool := NewWeatherTool(rand.New(rand.NewPCG(1, 2)))

	out, err := tool.Run(context.Background(), "  Paris ")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Weather for Paris\n"))
	assert.Contains(t, out, "Temperature: ")
	assert.Contains(t, out, "Humidity: ")
	assert.Contains(t, out, "simulated data")

	_, err = tool.Run(context.Background(), "   ")
	assert.EqualError(t, err, "please provide a city name")
}

func TestWeatherTool_ValuesInRange(t *testing.T) {
	sim := &weatherSim{rng: rand.New(rand.NewPCG(7, 7))}
	for i := 0; i < 200; i++ {
		var temp, humidity, force int
		var cond, wind string
		report := sim.report("X")
		for _, line := range strings.Split(report, "\n") {
			switch {
			case strings.HasPrefix(line, "Temperature: "):
				_, err := fmt.Sscanf(line, "Temperature: %d°C", &temp)
				require.NoError(t, err)
			case strings.HasPrefix(line, "Humidity: "):
				_, err := fmt.Sscanf(line, "Humidity: %d%%", &humidity)
				require.NoError(t, err)
			case strings.HasPrefix(line, "Wind: "):
				parts := strings.SplitN(strings.TrimPrefix(line, "Wind: "), ", force ", 2)
				require.Len(t, parts, 2)
				wind = parts[0]
				_, err := fmt.Sscanf(parts[1], "%d", &force)
				require.NoError(t, err)
			case strings.HasPrefix(line, "Conditions: "):
				cond = strings.TrimPrefix(line, "Conditions: ")
			}
		}
		assert.GreaterOrEqual(t, temp, -10)
		assert.LessOrEqual(t, temp, 35)
		assert.GreaterOrEqual(t, humidity, 30)
		assert.LessOrEqual(t, humidity, 90)
		assert.GreaterOrEqual(t, force, 1)
		assert.LessOrEqual(t, force, 8)
		assert.Contains(t, weatherConditions, cond)
		assert.Contains(t, windDirections, wind)
	}
}

func TestTranslatorTool(t *testing.T) {
	tool := NewTranslatorTool()
	ctx := context.Background()

	out, err := tool.Run(ctx, "en->zh Hello")
	require.NoError(t, err)
	assert.Equal(t, "Translation:\nSource (en): Hello\nTarget (zh): 你好", out)

	out, err = tool.Run(ctx, "zh->en 谢谢")
	require.NoError(t, err)
	assert.Equal(t, "Translation:\nSource (zh): 谢谢\nTarget (en): thank you", out)

	out, err = tool.Run(ctx, "goodbye")
	require.NoError(t, err)
	assert.Contains(t, out, "Target (auto): 再见")

	out, err = tool.Run(ctx, "en->fr cheese")
	require.NoError(t, err)
	assert.Equal(t, `Translation not available for "cheese" (en -> fr). Only a small built-in English/Chinese dictionary is supported.`, out)

	_, err = tool.Run(ctx, "en->zh ")
	assert.Error(t, err)
}

func TestParseTranslation(t *testing.T) {
	assert.Equal(t, translationRequest{Source: "en", Target: "zh", Text: "thank you"}, parseTranslation("EN->zh thank you"))
	assert.Equal(t, translationRequest{Source: "en", Target: "unknown", Text: "zh"}, parseTranslation("en->zh"))
	assert.Equal(t, translationRequest{Source: "auto", Target: "auto", Text: "hello"}, parseTranslation(" hello "))
}
