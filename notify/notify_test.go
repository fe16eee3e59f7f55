package notify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kensei/kintai-engine/notify"
)

func testSubmission() notify.Submission {
	return notify.Submission{
		Date:     "2025-06-02",
		Category: "残業",
		Entries: []notify.Entry{
			{Employee: "田中 祐太", Hours: decimal.NewFromFloat(2.5)},
			{Employee: "佐藤 健", Hours: decimal.NewFromFloat(1)},
		},
		SubmittedAt: time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC),
	}
}

// =============================================================================
// MESSAGE FORMATTING
// =============================================================================

func TestFormatSubmission(t *testing.T) {
	msg := notify.FormatSubmission(testSubmission())

	assert.Contains(t, msg, "📝 残業報告が届きました")
	assert.Contains(t, msg, "📅 日付: 2025-06-02")
	assert.Contains(t, msg, "⏰ カテゴリ: 残業")
	assert.Contains(t, msg, "• 田中 祐太: 2.5時間")
	assert.Contains(t, msg, "• 佐藤 健: 1時間")
	assert.Contains(t, msg, "合計: 3.5時間")

	// Submission time is rendered in JST (UTC+9).
	assert.Contains(t, msg, "報告時刻: 2025/06/02 18:30:00")
}

func TestSubmissionTotal(t *testing.T) {
	sub := testSubmission()
	assert.True(t, sub.Total().Equal(decimal.NewFromFloat(3.5)))

	empty := notify.Submission{}
	assert.True(t, empty.Total().IsZero())
}

// =============================================================================
// LINE SINK
// =============================================================================

func TestLineSink_NotifySubmission(t *testing.T) {
	// GIVEN: a fake Messaging API capturing the push request
	var (
		gotPath string
		gotAuth string
		gotBody struct {
			To       string `json:"to"`
			Messages []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"messages"`
		}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	sink := notify.NewLineSink("channel-token", "Cgroup123", logrus.New())
	sink.SetBaseURL(srv.URL)

	// WHEN
	err := sink.NotifySubmission(context.Background(), testSubmission())

	// THEN
	require.NoError(t, err)
	assert.Equal(t, "/v2/bot/message/push", gotPath)
	assert.Equal(t, "Bearer channel-token", gotAuth)
	assert.Equal(t, "Cgroup123", gotBody.To)
	require.Len(t, gotBody.Messages, 1)
	assert.Equal(t, "text", gotBody.Messages[0].Type)
	assert.Contains(t, gotBody.Messages[0].Text, "残業報告が届きました")
}

func TestLineSink_APIErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Invalid reply token"}`, http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	sink := notify.NewLineSink("channel-token", "Cgroup123", logrus.New())
	sink.SetBaseURL(srv.URL)

	err := sink.NotifySubmission(context.Background(), testSubmission())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestNoopSink(t *testing.T) {
	assert.NoError(t, notify.Noop{}.NotifySubmission(context.Background(), testSubmission()))
}
