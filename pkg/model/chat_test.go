package model_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/recap/pkg/model"
)

func TestIsTrigger(t *testing.T) {
	testCases := []struct {
		name   string
		text   string
		phrase string
		expect bool
	}{
		{"exact", "summarize chat", "summarize chat", true},
		{"case and spaces", " Summarize Chat  ", "summarize chat", true},
		{"upper phrase", "summarize chat", "SUMMARIZE CHAT", true},
		{"newline around", "\nsummarize chat\t", "summarize chat", true},
		{"suffix", "summarize chat now", "summarize chat", false},
		{"prefix", "please summarize chat", "summarize chat", false},
		{"punctuation", "summarize chat!", "summarize chat", false},
		{"empty text", "", "summarize chat", false},
		{"empty phrase", "", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gt.V(t, model.IsTrigger(tc.text, tc.phrase)).Equal(tc.expect)
		})
	}
}

func TestTexts(t *testing.T) {
	msgs := []*model.Message{
		{ID: 1, Text: "hello"},
		{ID: 2, Text: "bye"},
	}
	gt.Equal(t, model.Texts(msgs), []string{"hello", "bye"})
	gt.A(t, model.Texts(nil)).Length(0)
}

func TestNewEventID(t *testing.T) {
	id1 := model.NewEventID()
	id2 := model.NewEventID()
	gt.NotEqual(t, id1, id2)
	gt.Equal(t, len(id1), 36)
}

func TestAppleNano(t *testing.T) {
	t.Run("reference date is zero", func(t *testing.T) {
		ref := time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)
		gt.V(t, model.ToAppleNano(ref)).Equal(int64(0))
		gt.True(t, model.FromAppleNano(0).Equal(ref))
	})

	t.Run("round trip", func(t *testing.T) {
		now := time.Date(2025, 9, 14, 12, 30, 15, 123456789, time.UTC)
		n := model.ToAppleNano(now)
		gt.True(t, model.FromAppleNano(n).Equal(now))
	})

	t.Run("offset in seconds", func(t *testing.T) {
		ts := time.Unix(model.AppleEpochOffset+3600, 0)
		gt.V(t, model.ToAppleNano(ts)).Equal(int64(3600 * time.Second))
	})
}
