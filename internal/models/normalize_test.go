package models

import (
	"math"
	"testing"
)

func TestNormalizeCounter(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		expected int64
	}{
		{"nil", nil, 0},
		{"empty string", "", 0},
		{"numeric string", "12", 12},
		{"padded string", " 7 ", 7},
		{"garbage string", "abc", 0},
		{"negative string", "-4", 0},
		{"int", 5, 5},
		{"negative int", -1, 0},
		{"int64", int64(9), 9},
		{"integral float", float64(3), 3},
		{"fractional float", 2.5, 0},
		{"NaN", math.NaN(), 0},
		{"infinity", math.Inf(1), 0},
		{"bool", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeCounter(tt.value); got != tt.expected {
				t.Errorf("NormalizeCounter(%v) = %d, want %d", tt.value, got, tt.expected)
			}
		})
	}
}

func TestToInt64(t *testing.T) {
	tests := []struct {
		name   string
		value  interface{}
		want   int64
		wantOK bool
	}{
		{"zero", 0, 0, true},
		{"negative", -3, -3, true},
		{"string", "-1", -1, true},
		{"float string", "4.0", 4, true},
		{"word", "abc", 0, false},
		{"NaN", math.NaN(), 0, false},
		{"negative infinity", math.Inf(-1), 0, false},
		{"nil", nil, 0, false},
		{"large id", "9007199254740993", 9007199254740993, true},
		{"max int64 string", "9223372036854775807", math.MaxInt64, true},
		{"int64 overflow string", "9223372036854775808", 0, false},
		{"max int64 as float", float64(math.MaxInt64), 0, false},
		{"min int64 as float", float64(math.MinInt64), math.MinInt64, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToInt64(tt.value)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ToInt64(%v) = (%d, %v), want (%d, %v)", tt.value, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestNormalizeFlag(t *testing.T) {
	tests := []struct {
		value    interface{}
		expected bool
	}{
		{"1", true},
		{"0", false},
		{"true", true},
		{"false", false},
		{"", false},
		{nil, false},
		{true, true},
		{1, true},
	}

	for _, tt := range tests {
		if got := NormalizeFlag(tt.value); got != tt.expected {
			t.Errorf("NormalizeFlag(%v) = %v, want %v", tt.value, got, tt.expected)
		}
	}
}

func TestPostFromFields(t *testing.T) {
	if p := PostFromFields(map[string]string{}); p != nil {
		t.Fatalf("empty hash should decode to nil, got %+v", p)
	}

	p := PostFromFields(map[string]string{
		"pid":       "10",
		"tid":       "2",
		"uid":       "7",
		"upvotes":   "5",
		"downvotes": "bogus",
		"timestamp": "1500000000000",
		"deleted":   "1",
		"content":   "hello",
	})
	if p == nil {
		t.Fatal("expected a post")
	}
	if p.PID != 10 || p.TID != 2 || p.UID != 7 {
		t.Errorf("unexpected ids: %+v", p)
	}
	if p.Upvotes != 5 || p.Downvotes != 0 || p.Votes() != 5 {
		t.Errorf("unexpected counters: up=%d down=%d votes=%d", p.Upvotes, p.Downvotes, p.Votes())
	}
	if !p.Deleted || p.Edited != 0 || p.Content != "hello" {
		t.Errorf("unexpected fields: %+v", p)
	}

	vc := p.VoteCount()
	if vc.PID != 10 || vc.TID != 2 || vc.UID != 7 || vc.Votes != 5 {
		t.Errorf("unexpected vote count: %+v", vc)
	}
}

func TestTopicFromFields(t *testing.T) {
	if topic := TopicFromFields(3, nil); topic != nil {
		t.Fatalf("empty hash should decode to nil, got %+v", topic)
	}
	topic := TopicFromFields(3, map[string]string{"mainPid": "11", "cid": "4"})
	if topic.TID != 3 || topic.MainPID != 11 || topic.CID != 4 {
		t.Errorf("unexpected topic: %+v", topic)
	}
}

func TestFormatTimestamp(t *testing.T) {
	if got := FormatTimestamp(0); got != "1970-01-01T00:00:00.000Z" {
		t.Errorf("FormatTimestamp(0) = %s", got)
	}
	if got := FormatTimestamp(1500000000123); got != "2017-07-14T02:40:00.123Z" {
		t.Errorf("FormatTimestamp = %s", got)
	}
}
