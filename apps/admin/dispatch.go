package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"

	"github.com/disiplinku/backend/core/notification"
)

// dispatch runs one dispatch & prints its envelope. Meant for cron.
func (cl *commandLine) dispatch(sel notification.Selector) error {
	res, err := cl.dispatcher.Dispatch(context.Background(), sel)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(res.Envelope(), "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding result")
	}
	_, _ = fmt.Fprintln(cl.out, string(out))
	if !res.Success() {
		return errDispatchFailed
	}
	return nil
}

func (cl *commandLine) history(limit int) error {
	if cl.attempts == nil {
		return errNoAuditLog
	}
	attempts, err := cl.attempts.RecentAttempts(context.Background(), limit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cl.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "AT\tRUN\tKIND\tKEY\tOUTCOME\tERROR")
	for _, a := range attempts {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			a.At.Format(time.RFC3339), a.RunID, a.Kind, a.Key, a.Outcome, a.Error)
	}
	return w.Flush()
}
