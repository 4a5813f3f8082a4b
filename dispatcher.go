package checkpoint

import (
	"context"
	"io"
	"log/slog"
)

// Notification is the channel-independent payload handed to notification
// backends. Rendering for a specific channel (Slack blocks, Teams cards,
// incident payloads) is the backend's concern.
type Notification struct {
	CheckpointName       string
	ExpectationSuiteName string
	BatchIdentifier      string
	RunID                RunIdentifier
	Success              bool
	Statistics           ValidationStatistics

	// Sites lists the docs sites whose links the message should include.
	// Empty means all sites.
	Sites []string
}

// Notifier delivers one notification to one channel. The action spec
// carries the channel configuration (webhook URL, routing key, severity).
type Notifier interface {
	Send(ctx context.Context, spec ActionSpec, note Notification) error
}

// ValidationResultStore persists validation outcomes.
type ValidationResultStore interface {
	StoreValidationResult(ctx context.Context, id ValidationResultIdentifier, result *ValidationResult) error
}

// EvaluationParameterStore persists the evaluation parameters a run was
// executed with.
type EvaluationParameterStore interface {
	StoreEvaluationParameters(ctx context.Context, runID RunIdentifier, parameters map[string]any) error
}

// NullResultStore discards validation results.
type NullResultStore struct{}

func (NullResultStore) StoreValidationResult(ctx context.Context, id ValidationResultIdentifier, result *ValidationResult) error {
	return nil
}

// NullParameterStore discards evaluation parameters.
type NullParameterStore struct{}

func (NullParameterStore) StoreEvaluationParameters(ctx context.Context, runID RunIdentifier, parameters map[string]any) error {
	return nil
}

// NullNotifier discards notifications.
type NullNotifier struct{}

func (NullNotifier) Send(ctx context.Context, spec ActionSpec, note Notification) error {
	return nil
}

// DispatcherOptions configures a Dispatcher. Every backend is optional and
// defaults to a no-op implementation, so a dispatcher with zero options is
// usable for dry runs.
type DispatcherOptions struct {
	ResultStore    ValidationResultStore
	ParameterStore EvaluationParameterStore
	Docs           DocsPublisher
	Notifiers      map[ActionKind]Notifier
	Logger         *slog.Logger
}

// Dispatcher invokes a single configured action against one validation
// outcome. Its own responsibility is input marshaling and uniform
// result/error wrapping; all side effects are delegated to the backends.
// Dispatch is a total mapping over the closed ActionKind set because
// configurations are validated eagerly at build time.
type Dispatcher struct {
	resultStore    ValidationResultStore
	parameterStore EvaluationParameterStore
	docs           DocsPublisher
	notifiers      map[ActionKind]Notifier
	logger         *slog.Logger
}

func NewDispatcher(opts DispatcherOptions) *Dispatcher {
	if opts.ResultStore == nil {
		opts.ResultStore = NullResultStore{}
	}
	if opts.ParameterStore == nil {
		opts.ParameterStore = NullParameterStore{}
	}
	if opts.Docs == nil {
		opts.Docs = NewStaticSiteRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	notifiers := make(map[ActionKind]Notifier, 4)
	for kind, notifier := range opts.Notifiers {
		notifiers[kind] = notifier
	}
	return &Dispatcher{
		resultStore:    opts.ResultStore,
		parameterStore: opts.ParameterStore,
		docs:           opts.Docs,
		notifiers:      notifiers,
		logger:         opts.Logger,
	}
}

// Dispatch runs one action against one validation outcome. The returned
// ActionResult always describes what happened; the error is non-nil only
// when the backend failed, and is always a *DeliveryError.
func (d *Dispatcher) Dispatch(ctx context.Context, checkpointName string, action NamedAction, result *ValidationResult, id ValidationResultIdentifier, parameters map[string]any) (ActionResult, error) {
	actionResult := ActionResult{
		Name:   action.Name,
		Kind:   action.Action.Kind,
		Status: ActionStatusOK,
	}

	if action.Action.Kind.IsNotification() && !action.Action.NotifyOn.Matches(result.Success) {
		actionResult.Status = ActionStatusSkipped
		actionResult.Detail = map[string]any{"notify_on": string(action.Action.NotifyOn)}
		d.logger.Debug("notification skipped by notify condition",
			"action", action.Name,
			"notify_on", string(action.Action.NotifyOn),
			"success", result.Success)
		return actionResult, nil
	}

	detail, err := d.invoke(ctx, checkpointName, action.Action, result, id, parameters)
	if err != nil {
		deliveryErr := &DeliveryError{
			ActionName: action.Name,
			Kind:       action.Action.Kind,
			Cause:      err.Error(),
			Wrapped:    err,
		}
		actionResult.Status = ActionStatusFailed
		actionResult.Error = deliveryErr.Error()
		return actionResult, deliveryErr
	}
	actionResult.Detail = detail
	return actionResult, nil
}

func (d *Dispatcher) invoke(ctx context.Context, checkpointName string, spec ActionSpec, result *ValidationResult, id ValidationResultIdentifier, parameters map[string]any) (map[string]any, error) {
	switch spec.Kind {
	case ActionStoreValidationResult:
		if err := d.resultStore.StoreValidationResult(ctx, id, result); err != nil {
			return nil, err
		}
		return map[string]any{"stored": id.String()}, nil

	case ActionStoreEvaluationParams:
		if err := d.parameterStore.StoreEvaluationParameters(ctx, id.RunID, parameters); err != nil {
			return nil, err
		}
		return map[string]any{"parameter_count": len(parameters)}, nil

	case ActionUpdateDataDocs:
		pages, err := d.docs.UpdateSites(ctx, spec.SiteNames, id)
		if err != nil {
			return nil, err
		}
		detail := make(map[string]any, len(pages))
		for site, page := range pages {
			detail[site] = page
		}
		return detail, nil

	case ActionSlackNotification, ActionTeamsNotification,
		ActionPagerDutyNotification, ActionOpsgenieNotification:
		notifier, ok := d.notifiers[spec.Kind]
		if !ok {
			notifier = NullNotifier{}
		}
		note := Notification{
			CheckpointName:       checkpointName,
			ExpectationSuiteName: id.ExpectationSuiteName,
			BatchIdentifier:      id.BatchIdentifier,
			RunID:                id.RunID,
			Success:              result.Success,
			Statistics:           result.Statistics,
			Sites:                spec.NotifyWith,
		}
		if err := notifier.Send(ctx, spec, note); err != nil {
			return nil, err
		}
		return map[string]any{"notified": string(spec.Kind)}, nil

	case ActionNoOp:
		return nil, nil

	default:
		// Unreachable: unknown kinds are rejected when the config is built.
		return nil, NewConfigError("unknown action kind %q", spec.Kind)
	}
}
