package notification

import (
	"context"
	"fmt"
	"net/mail"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/disiplinku/backend/core"
)

type (
	// Store is the part of core.Store the Dispatcher needs.
	Store interface {
		ReadTree(ctx context.Context, path string) (core.Document, error)
		ReadOne(ctx context.Context, path string) (core.Document, error)
		UpdateField(ctx context.Context, path, field string, value interface{}) error
	}

	// Provider delivers a Payload to a push notification service.
	Provider interface {
		Send(ctx context.Context, payload *Payload) error
	}

	// MediaProber checks that a media URL is reachable.
	MediaProber interface {
		Probe(ctx context.Context, url string) error
	}

	// AttemptRecorder persists the attempts of a run (audit log).
	AttemptRecorder interface {
		RecordAttempts(ctx context.Context, attempts []Attempt) error
	}

	// Observer receives metrics.
	Observer interface {
		ObserveAttempt(kind Kind, outcome Outcome)
		ObserveDispatch(elapsed time.Duration, success bool)
	}

	Options struct {
		// Credential of the configured store. Dispatching without it fails with core.ErrConfigMissing.
		Credential      string
		BodyLimit       int
		ProbeMedia      bool
		Concurrency     int
		AlertRecipients []mail.Address
	}

	Deps struct {
		Store    Store
		Provider Provider
		Logger   core.Logger

		// optional
		Prober   MediaProber
		Recorder AttemptRecorder
		Observer Observer
		Mailer   core.EmailService
	}

	// Dispatcher drains the notification queues.
	// Concurrent dispatches are not coordinated: an event may be delivered more than once
	// when two runs read it before either marks it handled.
	Dispatcher struct {
		opts Options
		deps Deps
	}

	// job delivers one unprocessed event.
	job struct {
		key   string
		path  string
		field string
		// build returns a nil Payload when the event cannot be delivered yet.
		build func(ctx context.Context) (*Payload, error)
	}
)

func NewDispatcher(opts Options, deps Deps) *Dispatcher {
	if opts.BodyLimit <= 0 {
		opts.BodyLimit = DefaultBodyLimit
	}
	return &Dispatcher{opts: opts, deps: deps}
}

// Dispatch processes the queues picked by sel. Per-event failures are isolated and reported
// in the Result; only a missing store credential aborts the run.
func (d *Dispatcher) Dispatch(ctx context.Context, sel Selector) (Result, error) {
	if core.CleanString(d.opts.Credential) == "" {
		return Result{}, core.ErrConfigMissing
	}
	if sel == "" {
		sel = SelectAll
	}

	start := time.Now()
	runID := uuid.New().String()
	kinds := sel.Kinds()
	results := make([]KindResult, len(kinds))
	failures := make([][]Attempt, len(kinds))

	core.Settle(ctx, len(kinds), 0, func(ctx context.Context, i int) error {
		attempts, err := d.processKind(ctx, runID, kinds[i])
		if err != nil {
			d.deps.Logger.Error(fmt.Sprintf("dispatch %s: processing %s", runID, kinds[i]), err)
			results[i] = failedKindResult(kinds[i])
			return err
		}
		results[i] = newKindResult(kinds[i], attempts)
		for _, a := range attempts {
			if a.Outcome == OutcomeFailed {
				failures[i] = append(failures[i], a)
			}
		}
		return nil
	})

	res := Result{RunID: runID, Selector: sel, Kinds: results}
	if d.deps.Observer != nil {
		d.deps.Observer.ObserveDispatch(time.Since(start), res.Success())
	}
	d.sendDigest(res, failures)

	d.deps.Logger.Info(fmt.Sprintf("dispatch %s (%s) done in %s", runID, sel, time.Since(start)),
		map[string]interface{}{"success": res.Success(), "kinds": res.Kinds})
	return res, nil
}

func (d *Dispatcher) processKind(ctx context.Context, runID string, kind Kind) ([]Attempt, error) {
	var (
		jobs []job
		err  error
	)
	switch kind {
	case KindCalls:
		jobs, err = d.callJobs(ctx)
	case KindPosts:
		jobs, err = d.postJobs(ctx)
	case KindViolations:
		jobs, err = d.violationJobs(ctx)
	default:
		err = errors.Errorf("unknown queue %q", kind)
	}
	if err != nil {
		return nil, err
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].path < jobs[j].path })

	attempts := make([]Attempt, len(jobs))
	errs := core.Settle(ctx, len(jobs), d.opts.Concurrency, func(ctx context.Context, i int) error {
		outcome, err := d.run(ctx, jobs[i])
		attempts[i] = Attempt{RunID: runID, Kind: kind, Key: jobs[i].key, Outcome: outcome, At: time.Now().UTC()}
		if err != nil {
			attempts[i].Error = err.Error()
			d.deps.Logger.Warn(fmt.Sprintf("dispatch %s: %s %s not delivered: %v", runID, kind, jobs[i].key, err))
		}
		if d.deps.Observer != nil {
			d.deps.Observer.ObserveAttempt(kind, outcome)
		}
		return err
	})

	var merr *multierror.Error
	for _, err := range errs {
		if err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	if merr != nil {
		d.deps.Logger.Error(fmt.Sprintf("dispatch %s: %d %s deliveries failed", runID, merr.Len(), kind), merr)
	}

	if d.deps.Recorder != nil && len(attempts) > 0 {
		if err := d.deps.Recorder.RecordAttempts(ctx, attempts); err != nil {
			d.deps.Logger.Error(fmt.Sprintf("dispatch %s: recording %s attempts", runID, kind), err)
		}
	}
	return attempts, nil
}

func (d *Dispatcher) run(ctx context.Context, j job) (Outcome, error) {
	payload, err := j.build(ctx)
	if err != nil {
		return OutcomeFailed, err
	}
	if payload == nil {
		return OutcomeSkipped, nil
	}
	if err = d.deps.Provider.Send(ctx, payload); err != nil {
		return OutcomeFailed, errors.Wrap(err, "sending payload")
	}
	if err = d.deps.Store.UpdateField(ctx, j.path, j.field, true); err != nil {
		return OutcomeFailed, errors.Wrapf(err, "marking %s", j.path)
	}
	return OutcomeDelivered, nil
}

func (d *Dispatcher) callJobs(ctx context.Context) ([]job, error) {
	tree, err := d.deps.Store.ReadTree(ctx, callsPath)
	if err != nil {
		return nil, errors.Wrap(err, "reading incoming calls")
	}

	var jobs []job
	for recipientID, calls := range tree {
		byKey, ok := calls.(core.Document)
		if !ok {
			continue
		}
		for key, raw := range byKey {
			ev, ok := parseCallEvent(recipientID, key, raw)
			if !ok || ev.Processed {
				continue
			}
			jobs = append(jobs, job{
				key:   recipientID + "/" + key,
				path:  ev.path(),
				field: callHandledField,
				build: func(ctx context.Context) (*Payload, error) { return d.buildCall(ctx, ev) },
			})
		}
	}
	return jobs, nil
}

func (d *Dispatcher) buildCall(ctx context.Context, ev CallEvent) (*Payload, error) {
	recipient, err := d.recipient(ctx, ev.RecipientID)
	if err != nil {
		if errors.Cause(err) == core.ErrNotFound {
			d.deps.Logger.Debug(fmt.Sprintf("no profile found for recipient %s", ev.RecipientID))
			return nil, nil
		}
		return nil, errors.Wrap(err, "reading recipient")
	}
	if recipient.PlayerID == "" {
		d.deps.Logger.Debug(fmt.Sprintf("no OneSignal player ID found for recipient %s", ev.RecipientID))
		return nil, nil
	}

	callerName := core.StringOr(ev.CallerName, "User")
	if ev.CallerID != "" {
		caller, err := d.recipient(ctx, ev.CallerID)
		switch {
		case err == nil && caller.Name != "":
			callerName = caller.Name
		case err != nil && errors.Cause(err) != core.ErrNotFound:
			return nil, errors.Wrap(err, "reading caller")
		}
	}
	return BuildCallPayload(ev, recipient, callerName), nil
}

func (d *Dispatcher) recipient(ctx context.Context, id string) (Recipient, error) {
	doc, err := d.deps.Store.ReadOne(ctx, profilesPath+"/"+id)
	if err != nil {
		return Recipient{}, err
	}
	return parseRecipient(id, doc), nil
}

func (d *Dispatcher) postJobs(ctx context.Context) ([]job, error) {
	tree, err := d.deps.Store.ReadTree(ctx, postsPath)
	if err != nil {
		return nil, errors.Wrap(err, "reading notifications")
	}

	var jobs []job
	for key, raw := range tree {
		ev, ok := parsePostEvent(key, raw)
		if !ok || ev.Sent {
			continue
		}
		jobs = append(jobs, job{
			key:   key,
			path:  ev.path(),
			field: sentField,
			build: func(ctx context.Context) (*Payload, error) {
				return d.withMedia(ctx, BuildPostPayload(ev, d.opts.BodyLimit)), nil
			},
		})
	}
	return jobs, nil
}

func (d *Dispatcher) violationJobs(ctx context.Context) ([]job, error) {
	tree, err := d.deps.Store.ReadTree(ctx, violationsPath)
	if err != nil {
		return nil, errors.Wrap(err, "reading violations")
	}

	var jobs []job
	for key, raw := range tree {
		ev, ok := parseViolationEvent(key, raw)
		if !ok || ev.Sent {
			continue
		}
		jobs = append(jobs, job{
			key:   key,
			path:  ev.path(),
			field: sentField,
			build: func(ctx context.Context) (*Payload, error) {
				return d.withMedia(ctx, BuildViolationPayload(ev, d.opts.BodyLimit)), nil
			},
		})
	}
	return jobs, nil
}

// withMedia drops the payload's attachment when its URL does not answer the probe.
func (d *Dispatcher) withMedia(ctx context.Context, p *Payload) *Payload {
	if p.ImageURL == "" || !d.opts.ProbeMedia || d.deps.Prober == nil {
		return p
	}
	if err := d.deps.Prober.Probe(ctx, p.ImageURL); err != nil {
		d.deps.Logger.Warn(fmt.Sprintf("omitting media attachment %s: %v", p.ImageURL, err))
		p.ImageURL = ""
	}
	return p
}
