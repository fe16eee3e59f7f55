package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// =============================================================================
// LINE MESSAGING SINK
// =============================================================================

const defaultLineBaseURL = "https://api.line.me"

type lineMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type linePushRequest struct {
	To       string        `json:"to"`
	Messages []lineMessage `json:"messages"`
}

// LineSink pushes submission notices to a LINE group via the
// Messaging API.
type LineSink struct {
	client  *resty.Client
	groupID string
	log     *logrus.Logger
}

// NewLineSink creates a sink for the given channel access token and
// target group.
func NewLineSink(channelToken, groupID string, log *logrus.Logger) *LineSink {
	client := resty.New().
		SetBaseURL(defaultLineBaseURL).
		SetTimeout(10 * time.Second).
		SetAuthToken(channelToken).
		SetHeader("Content-Type", "application/json")

	return &LineSink{
		client:  client,
		groupID: groupID,
		log:     log,
	}
}

// SetBaseURL overrides the API endpoint. Used by tests.
func (s *LineSink) SetBaseURL(url string) {
	s.client.SetBaseURL(url)
}

// NotifySubmission pushes a formatted submission notice to the group.
func (s *LineSink) NotifySubmission(ctx context.Context, sub Submission) error {
	body := linePushRequest{
		To:       s.groupID,
		Messages: []lineMessage{{Type: "text", Text: FormatSubmission(sub)}},
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("/v2/bot/message/push")
	if err != nil {
		return fmt.Errorf("line push: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("line push: status %d: %s", resp.StatusCode(), resp.String())
	}

	s.log.WithFields(logrus.Fields{
		"group":   s.groupID,
		"entries": len(sub.Entries),
	}).Info("line notification sent")
	return nil
}
