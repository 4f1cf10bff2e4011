package notification

import (
	"github.com/disiplinku/backend/core"
)

// DefaultBodyLimit is the max number of characters of a payload body.
const DefaultBodyLimit = 100

const segmentAll = "All"

// Payload is a push message handed to a Provider. It is never persisted.
type Payload struct {
	Title     string
	Body      string
	PlayerIDs []string
	Segments  []string
	Data      map[string]interface{}

	IOSSound         string
	AndroidSound     string
	Priority         int
	Vibrate          bool
	VibrationPattern []int
	BadgeIncrement   int

	// ImageURL is attached as a big picture (android) & image attachment (iOS) when set.
	ImageURL string
}

// BuildCallPayload targets the recipient's device with a ringing call notification.
func BuildCallPayload(ev CallEvent, recipient Recipient, callerName string) *Payload {
	return &Payload{
		Title:     "Panggilan Masuk",
		Body:      "Panggilan " + ev.CallType + " Dari " + callerName,
		PlayerIDs: []string{recipient.PlayerID},
		Data: map[string]interface{}{
			"callType":    ev.CallType,
			"callId":      ev.CallID,
			"callerName":  callerName,
			"recipientId": ev.RecipientID,
		},
		IOSSound:         "call.wav",
		AndroidSound:     "call",
		Priority:         10,
		Vibrate:          true,
		VibrationPattern: []int{0, 1000, 500, 1000},
		BadgeIncrement:   1,
	}
}

// BuildPostPayload broadcasts a new post. The full content is kept in the data block.
func BuildPostPayload(ev PostEvent, bodyLimit int) *Payload {
	body := core.Truncate(ev.Content, bodyLimit)
	if body == "" {
		body = "Lihat post baru dari " + ev.Name
	}
	return &Payload{
		Title:    "Post Baru dari " + ev.Name,
		Body:     body,
		Segments: []string{segmentAll},
		Data: map[string]interface{}{
			"notificationId": ev.Key,
			"name":           ev.Name,
			"date":           ev.Date,
			"imageUrl":       ev.ImageURL,
			"content":        ev.Content,
		},
		IOSSound:     "default",
		AndroidSound: "default",
		ImageURL:     ev.ImageURL,
	}
}

// BuildViolationPayload broadcasts a new rule violation.
func BuildViolationPayload(ev ViolationEvent, bodyLimit int) *Payload {
	title := "Pelanggaran Baru: " + ev.Name
	if ev.Class != "" {
		title += " (" + ev.Class + ")"
	}
	body := core.Truncate(ev.Message, bodyLimit)
	if body == "" {
		body = "Pelanggaran tercatat untuk " + ev.Name
	}
	return &Payload{
		Title:    title,
		Body:     body,
		Segments: []string{segmentAll},
		Data: map[string]interface{}{
			"violationId": ev.Key,
			"nis":         ev.NIS,
			"name":        ev.Name,
			"kelas":       ev.Class,
			"message":     ev.Message,
			"timestamp":   ev.Timestamp,
		},
		IOSSound:     "default",
		AndroidSound: "default",
		ImageURL:     ev.ImageURL,
	}
}
