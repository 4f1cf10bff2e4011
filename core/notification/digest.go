package notification

import (
	"fmt"
	"strings"

	"github.com/disiplinku/backend/core"
)

// sendDigest emails the failed attempts of a run to the alert recipients, if any.
func (d *Dispatcher) sendDigest(res Result, failures [][]Attempt) {
	if d.deps.Mailer == nil || len(d.opts.AlertRecipients) == 0 {
		return
	}

	var body strings.Builder
	var count int
	for _, attempts := range failures {
		for _, a := range attempts {
			count++
			_, _ = fmt.Fprintf(&body, "- %s %s: %s\n", a.Kind, a.Key, a.Error)
		}
	}
	for _, k := range res.Kinds {
		if k.Eligible == 0 && k.Error != "" {
			count++
			_, _ = fmt.Fprintf(&body, "- %s: %s\n", k.Kind, k.Error)
		}
	}
	if count == 0 {
		return
	}

	d.deps.Mailer.SendMessages(&core.EmailMessage{
		To:      d.opts.AlertRecipients,
		Subject: fmt.Sprintf("notification dispatch: %d failures", count),
		Body: fmt.Sprintf("Dispatch run %s (%s) finished with failures:\n\n%s",
			res.RunID, res.Selector, body.String()),
	})
}
