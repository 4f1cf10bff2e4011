package notification

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/disiplinku/backend/core"
)

// Kind is one of the queues drained by the Dispatcher.
type Kind string

const (
	KindCalls      Kind = "calls"
	KindPosts      Kind = "posts"
	KindViolations Kind = "violations"
)

// AllKinds in processing order.
var AllKinds = []Kind{KindCalls, KindPosts, KindViolations}

func (k Kind) label() string {
	switch k {
	case KindCalls:
		return "call"
	case KindPosts:
		return "post"
	default:
		return "violation"
	}
}

// Selector picks the queues processed by a dispatch.
type Selector string

const (
	SelectCalls               = Selector(KindCalls)
	SelectPosts               = Selector(KindPosts)
	SelectViolations          = Selector(KindViolations)
	SelectAll        Selector = "all"
)

// ParseSelector normalizes a trigger's type. The dashboard's legacy values are accepted;
// anything that is not a definite selector means all queues.
func ParseSelector(s string) Selector {
	switch core.CleanString(s, true) {
	case "calls", "call":
		return SelectCalls
	case "posts", "post", "general":
		return SelectPosts
	case "violations", "violation", "warnings":
		return SelectViolations
	default:
		return SelectAll
	}
}

func (s Selector) Kinds() []Kind {
	if s == SelectAll || s == "" {
		return AllKinds
	}
	return []Kind{Kind(s)}
}

// store layout
const (
	callsPath      = "incomingCalls"
	postsPath      = "notifications"
	violationsPath = "peringatan-popup"
	profilesPath   = "user-name-admin"

	callHandledField = "processed"
	sentField        = "sent"
)

type (
	CallEvent struct {
		RecipientID string
		Key         string
		CallerID    string
		CallerName  string
		CallType    string
		CallID      string
		Processed   bool
	}

	PostEvent struct {
		Key      string
		Name     string
		Date     string
		Content  string
		ImageURL string
		Sent     bool
	}

	ViolationEvent struct {
		Key       string
		NIS       string
		Name      string
		Class     string
		Message   string
		Timestamp string
		ImageURL  string
		Sent      bool
	}

	Recipient struct {
		ID       string
		Name     string
		PlayerID string
	}
)

func (ev CallEvent) path() string {
	return callsPath + "/" + ev.RecipientID + "/" + ev.Key
}

func (ev PostEvent) path() string { return postsPath + "/" + ev.Key }

func (ev ViolationEvent) path() string { return violationsPath + "/" + ev.Key }

func parseCallEvent(recipientID, key string, raw interface{}) (CallEvent, bool) {
	doc, ok := raw.(core.Document)
	if !ok {
		return CallEvent{}, false
	}
	return CallEvent{
		RecipientID: recipientID,
		Key:         key,
		CallerID:    str(doc, "callerId"),
		CallerName:  str(doc, "callerName"),
		CallType:    core.StringOr(str(doc, "callType"), "voice"),
		CallID:      str(doc, "callID"),
		Processed:   boolean(doc, callHandledField),
	}, true
}

func parsePostEvent(key string, raw interface{}) (PostEvent, bool) {
	doc, ok := raw.(core.Document)
	if !ok {
		return PostEvent{}, false
	}
	return PostEvent{
		Key:      key,
		Name:     core.StringOr(str(doc, "name"), "Unknown"),
		Date:     core.StringOr(str(doc, "date"), "No date"),
		Content:  str(doc, "content"),
		ImageURL: core.CleanString(str(doc, "imageUrl")),
		Sent:     boolean(doc, sentField),
	}, true
}

func parseViolationEvent(key string, raw interface{}) (ViolationEvent, bool) {
	doc, ok := raw.(core.Document)
	if !ok {
		return ViolationEvent{}, false
	}
	return ViolationEvent{
		Key:       key,
		NIS:       str(doc, "nis"),
		Name:      core.StringOr(str(doc, "name"), "Unknown"),
		Class:     core.CleanString(str(doc, "kelas")),
		Message:   str(doc, "message"),
		Timestamp: str(doc, "timestamp"),
		ImageURL:  core.CleanString(str(doc, "imageUrl")),
		Sent:      boolean(doc, sentField),
	}, true
}

func parseRecipient(id string, doc core.Document) Recipient {
	return Recipient{
		ID:       id,
		Name:     core.CleanString(str(doc, "name")),
		PlayerID: core.CleanString(str(doc, "oneSignalPlayerId")),
	}
}

// str reads a scalar field as a string. Numbers are common for nis & timestamps.
func str(doc core.Document, field string) string {
	switch v := doc[field].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func boolean(doc core.Document, field string) bool {
	switch v := doc[field].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	default:
		return false
	}
}
