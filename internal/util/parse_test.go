package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseInt(t *testing.T) {
	testCases := []struct {
		input        string
		defaultValue int
		expected     int
	}{
		{"123", 0, 123},
		{"", 100, 100},
		{"invalid", 50, 50},
		{"-10", 0, -10},
		{"0", 100, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, ParseInt(tc.input, tc.defaultValue))
		})
	}
}

func TestParseDays(t *testing.T) {
	testCases := []struct {
		input    string
		expected int
	}{
		{"", 30},
		{"7", 7},
		{"0", 30},
		{"-5", 30},
		{"garbage", 30},
		{"365", 365},
		{"9999", 365},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, ParseDays(tc.input, 30, 365))
		})
	}
}
