package pushsvc

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/disiplinku/backend/core"
	"github.com/disiplinku/backend/core/notification"
)

const lang = "en"

type (
	oneSignalService struct {
		appID    string
		apiKey   string
		endpoint string
		client   *rest.Client
	}

	oneSignalMessage struct {
		AppID            string                 `json:"app_id"`
		IncludePlayerIDs []string               `json:"include_player_ids,omitempty"`
		IncludedSegments []string               `json:"included_segments,omitempty"`
		Headings         map[string]string      `json:"headings"`
		Contents         map[string]string      `json:"contents"`
		Data             map[string]interface{} `json:"data,omitempty"`
		IOSSound         string                 `json:"ios_sound,omitempty"`
		AndroidSound     string                 `json:"android_sound,omitempty"`
		Priority         int                    `json:"priority,omitempty"`
		AndroidVibrate   bool                   `json:"android_vibrate,omitempty"`
		VibrationPattern []int                  `json:"vibration_pattern,omitempty"`
		IOSBadgeType     string                 `json:"ios_badgeType,omitempty"`
		IOSBadgeCount    int                    `json:"ios_badgeCount,omitempty"`
		BigPicture       string                 `json:"big_picture,omitempty"`
		IOSAttachments   map[string]string      `json:"ios_attachments,omitempty"`
	}
)

var _ notification.Provider = (*oneSignalService)(nil)

// NewOneSignalService sends payloads to the OneSignal notifications API.
// A nil client uses rest.DefaultClient.
func NewOneSignalService(conf core.OneSignalConfig, client *rest.Client) *oneSignalService {
	if client == nil {
		client = rest.DefaultClient
	}
	return &oneSignalService{
		appID:    conf.AppID,
		apiKey:   conf.APIKey,
		endpoint: conf.Endpoint,
		client:   client,
	}
}

func (svc oneSignalService) prepare(p *notification.Payload) oneSignalMessage {
	msg := oneSignalMessage{
		AppID:            svc.appID,
		IncludePlayerIDs: p.PlayerIDs,
		IncludedSegments: p.Segments,
		Headings:         map[string]string{lang: p.Title},
		Contents:         map[string]string{lang: p.Body},
		Data:             p.Data,
		IOSSound:         p.IOSSound,
		AndroidSound:     p.AndroidSound,
		Priority:         p.Priority,
		AndroidVibrate:   p.Vibrate,
		VibrationPattern: p.VibrationPattern,
	}
	if p.BadgeIncrement > 0 {
		msg.IOSBadgeType = "Increase"
		msg.IOSBadgeCount = p.BadgeIncrement
	}
	if p.ImageURL != "" {
		msg.BigPicture = p.ImageURL
		msg.IOSAttachments = map[string]string{"image": p.ImageURL}
	}
	return msg
}

func (svc oneSignalService) Send(ctx context.Context, p *notification.Payload) error {
	body, err := json.Marshal(svc.prepare(p))
	if err != nil {
		return errors.Wrap(err, "encoding onesignal message")
	}

	req := rest.Request{
		Method:  rest.Post,
		BaseURL: svc.endpoint,
		Headers: map[string]string{
			"Authorization": "Basic " + svc.apiKey,
			"Content-Type":  "application/json",
		},
		Body: body,
	}
	res, err := send(ctx, svc.client, req)
	if err != nil {
		return errors.Wrap(err, "calling onesignal")
	}
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return errors.Errorf("onesignal - status: %d - body: %s", res.StatusCode, res.Body)
	}
	return nil
}
