package notification

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/disiplinku/backend/core"
)

func TestParseSelector(t *testing.T) {
	tests := map[string]Selector{
		"calls":      SelectCalls,
		"call":       SelectCalls,
		" Posts ":    SelectPosts,
		"general":    SelectPosts,
		"violations": SelectViolations,
		"warnings":   SelectViolations,
		"all":        SelectAll,
		"":           SelectAll,
		"everything": SelectAll,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseSelector(in), in)
	}
	assert.Equal(t, AllKinds, SelectAll.Kinds())
	assert.Equal(t, []Kind{KindViolations}, SelectViolations.Kinds())
}

func TestParseEvents(t *testing.T) {
	t.Run("call defaults", func(t *testing.T) {
		ev, ok := parseCallEvent("siswa1", "-C1", core.Document{"callerId": "guru1"})
		assert.True(t, ok)
		assert.Equal(t, "voice", ev.CallType)
		assert.False(t, ev.Processed)
		assert.Equal(t, "incomingCalls/siswa1/-C1", ev.path())
	})

	t.Run("not a document", func(t *testing.T) {
		_, ok := parsePostEvent("-P1", "garbage")
		assert.False(t, ok)
		_, ok = parseViolationEvent("-W1", 42.0)
		assert.False(t, ok)
	})

	t.Run("post defaults", func(t *testing.T) {
		ev, ok := parsePostEvent("-P1", core.Document{"sent": "true"})
		assert.True(t, ok)
		assert.Equal(t, "Unknown", ev.Name)
		assert.Equal(t, "No date", ev.Date)
		assert.True(t, ev.Sent)
	})

	t.Run("numeric violation fields", func(t *testing.T) {
		ev, _ := parseViolationEvent("-W1", core.Document{"nis": 12345.0, "timestamp": 1723879200000.0, "sent": false})
		assert.Equal(t, "12345", ev.NIS)
		assert.Equal(t, "1723879200000", ev.Timestamp)
		assert.False(t, ev.Sent)
	})
}

func TestBuildCallPayload(t *testing.T) {
	ev := CallEvent{RecipientID: "siswa1", Key: "-C1", CallType: "video", CallID: "c-1"}
	p := BuildCallPayload(ev, Recipient{ID: "siswa1", PlayerID: "player-ani"}, "Pak Budi")

	assert.Equal(t, "Panggilan Masuk", p.Title)
	assert.Equal(t, "Panggilan video Dari Pak Budi", p.Body)
	assert.Equal(t, []string{"player-ani"}, p.PlayerIDs)
	assert.Empty(t, p.Segments)
	assert.Equal(t, 10, p.Priority)
	assert.Equal(t, "call.wav", p.IOSSound)
	assert.Equal(t, []int{0, 1000, 500, 1000}, p.VibrationPattern)
	assert.Equal(t, map[string]interface{}{
		"callType": "video", "callId": "c-1", "callerName": "Pak Budi", "recipientId": "siswa1",
	}, p.Data)
}

func TestBuildPostPayload(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "short", content: strings.Repeat("x", 80), want: strings.Repeat("x", 80)},
		{name: "at limit", content: strings.Repeat("x", 100), want: strings.Repeat("x", 100)},
		{name: "long", content: strings.Repeat("x", 130), want: strings.Repeat("x", 97) + "..."},
		{name: "empty", content: "", want: "Lihat post baru dari OSIS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := BuildPostPayload(PostEvent{Key: "-P1", Name: "OSIS", Content: tt.content}, DefaultBodyLimit)
			assert.Equal(t, tt.want, p.Body)
			assert.Equal(t, "Post Baru dari OSIS", p.Title)
			assert.Equal(t, []string{"All"}, p.Segments)
			assert.Equal(t, tt.content, p.Data["content"])
		})
	}
}

func TestBuildViolationPayload(t *testing.T) {
	p := BuildViolationPayload(ViolationEvent{Key: "-W1", NIS: "12345", Name: "Ani", Class: "XI IPA 1"}, DefaultBodyLimit)
	assert.Equal(t, "Pelanggaran Baru: Ani (XI IPA 1)", p.Title)
	assert.Equal(t, "Pelanggaran tercatat untuk Ani", p.Body)
	assert.Equal(t, "-W1", p.Data["violationId"])

	p = BuildViolationPayload(ViolationEvent{Name: "Ani", Message: "Terlambat"}, DefaultBodyLimit)
	assert.Equal(t, "Pelanggaran Baru: Ani", p.Title)
	assert.Equal(t, "Terlambat", p.Body)
}

func TestResult_Envelope(t *testing.T) {
	res := Result{Selector: SelectAll, Kinds: []KindResult{
		newKindResult(KindCalls, nil),
		newKindResult(KindPosts, []Attempt{{Outcome: OutcomeDelivered}, {Outcome: OutcomeFailed}}),
		failedKindResult(KindViolations),
	}}
	env := res.Envelope()
	assert.False(t, env.Success)
	assert.Equal(t, "1 of 2 post deliveries failed; failed to process violation notifications", env.Error)
	assert.Equal(t, map[Kind]string{
		KindCalls:      "nothing to process",
		KindPosts:      "processed 2 (delivered 1, skipped 0, failed 1)",
		KindViolations: "",
	}, env.Message)
}
