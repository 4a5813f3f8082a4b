package checkpoint

import (
	"net/url"
)

// ActionKind identifies one of the supported post-validation action types.
// The set is closed: configurations referencing any other kind are rejected
// when the configuration is built, so dispatch never encounters an unknown
// kind at run time.
type ActionKind string

const (
	ActionStoreValidationResult ActionKind = "store_validation_result"
	ActionStoreEvaluationParams ActionKind = "store_evaluation_params"
	ActionUpdateDataDocs        ActionKind = "update_data_docs"
	ActionSlackNotification     ActionKind = "slack_notification"
	ActionTeamsNotification     ActionKind = "microsoft_teams_notification"
	ActionPagerDutyNotification ActionKind = "pagerduty_notification"
	ActionOpsgenieNotification  ActionKind = "opsgenie_notification"
	ActionNoOp                  ActionKind = "no_op"
)

// actionKinds is the dispatch domain. Order is not significant.
var actionKinds = map[ActionKind]bool{
	ActionStoreValidationResult: true,
	ActionStoreEvaluationParams: true,
	ActionUpdateDataDocs:        true,
	ActionSlackNotification:     true,
	ActionTeamsNotification:     true,
	ActionPagerDutyNotification: true,
	ActionOpsgenieNotification:  true,
	ActionNoOp:                  true,
}

// IsNotification reports whether the kind delivers to an external
// notification channel and therefore honors a notify condition.
func (k ActionKind) IsNotification() bool {
	switch k {
	case ActionSlackNotification, ActionTeamsNotification,
		ActionPagerDutyNotification, ActionOpsgenieNotification:
		return true
	}
	return false
}

// HaltsOnFailure reports whether a failure of this action kind stops the
// remaining actions for the same validation entry. Only the result store is
// fatal: if the validation outcome could not be persisted, follow-on
// notifications and docs updates would reference a result that does not
// exist. Notification and docs failures never block other actions.
func (k ActionKind) HaltsOnFailure() bool {
	return k == ActionStoreValidationResult
}

// NotifyCondition controls when a notification action fires relative to the
// validation outcome it is attached to.
type NotifyCondition string

const (
	NotifyAll     NotifyCondition = "all"
	NotifySuccess NotifyCondition = "success"
	NotifyFailure NotifyCondition = "failure"
)

// Matches reports whether the condition fires for the given outcome.
func (c NotifyCondition) Matches(success bool) bool {
	switch c {
	case NotifySuccess:
		return success
	case NotifyFailure:
		return !success
	default:
		return true
	}
}

func validNotifyCondition(c NotifyCondition) bool {
	switch c {
	case NotifyAll, NotifySuccess, NotifyFailure:
		return true
	}
	return false
}

// ActionSpec describes one configured action as a tagged variant: Kind
// selects the action type and the remaining fields are kind-specific.
// Fields that do not apply to the kind are left at their zero values and
// omitted from the serialized form.
type ActionSpec struct {
	Kind ActionKind `json:"kind" yaml:"kind"`

	// SiteNames filters which docs sites an update_data_docs action
	// refreshes. Empty means all sites.
	SiteNames []string `json:"site_names,omitempty" yaml:"site_names,omitempty"`

	// Webhook is the delivery URL for slack_notification and
	// microsoft_teams_notification actions.
	Webhook string `json:"webhook,omitempty" yaml:"webhook,omitempty"`

	// NotifyOn gates notification kinds on the validation outcome.
	// Empty is treated as "all".
	NotifyOn NotifyCondition `json:"notify_on,omitempty" yaml:"notify_on,omitempty"`

	// NotifyWith lists the docs sites whose links a notification includes.
	// Empty means all sites.
	NotifyWith []string `json:"notify_with,omitempty" yaml:"notify_with,omitempty"`

	// RoutingKey and Severity configure pagerduty_notification actions.
	RoutingKey string `json:"routing_key,omitempty" yaml:"routing_key,omitempty"`
	Severity   string `json:"severity,omitempty" yaml:"severity,omitempty"`

	// APIKey, Region and Priority configure opsgenie_notification actions.
	APIKey   string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Region   string `json:"region,omitempty" yaml:"region,omitempty"`
	Priority string `json:"priority,omitempty" yaml:"priority,omitempty"`
}

// Validate checks the spec against the required-field set of its kind.
func (a ActionSpec) Validate() error {
	if !actionKinds[a.Kind] {
		return NewConfigError("unknown action kind %q", a.Kind)
	}
	if a.NotifyOn != "" && !validNotifyCondition(a.NotifyOn) {
		return NewConfigError("invalid notify_on value %q", a.NotifyOn)
	}
	switch a.Kind {
	case ActionSlackNotification, ActionTeamsNotification:
		if err := validateWebhookURL(a.Webhook); err != nil {
			return err
		}
	case ActionPagerDutyNotification:
		if a.RoutingKey == "" {
			return NewConfigError("pagerduty_notification requires a routing_key")
		}
	case ActionOpsgenieNotification:
		if a.APIKey == "" {
			return NewConfigError("opsgenie_notification requires an api_key")
		}
	}
	for _, name := range a.SiteNames {
		if name == "" {
			return NewConfigError("site_names must not contain empty strings")
		}
	}
	for _, name := range a.NotifyWith {
		if name == "" {
			return NewConfigError("notify_with must not contain empty strings")
		}
	}
	return nil
}

// validateWebhookURL requires a non-empty absolute http(s) URL.
func validateWebhookURL(webhook string) error {
	if webhook == "" {
		return NewConfigError("webhook URL is required")
	}
	u, err := url.Parse(webhook)
	if err != nil {
		return &ConfigError{Cause: "malformed webhook URL " + webhook, Wrapped: err}
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return NewConfigError("webhook %q is not a valid http(s) URL", webhook)
	}
	return nil
}

// NamedAction pairs an action spec with its unique name within the list.
type NamedAction struct {
	Name   string     `json:"name" yaml:"name"`
	Action ActionSpec `json:"action" yaml:"action"`
}

// ActionList is an ordered list of named actions. Order is execution order.
type ActionList []NamedAction

// Validate checks every spec and enforces name uniqueness.
func (l ActionList) Validate() error {
	seen := make(map[string]bool, len(l))
	for _, entry := range l {
		if entry.Name == "" {
			return NewConfigError("action name is required")
		}
		if seen[entry.Name] {
			return NewConfigError("duplicate action name %q", entry.Name)
		}
		seen[entry.Name] = true
		if err := entry.Action.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Find returns the entry with the given name and whether one exists.
func (l ActionList) Find(name string) (NamedAction, bool) {
	for _, entry := range l {
		if entry.Name == name {
			return entry, true
		}
	}
	return NamedAction{}, false
}

// Copy returns a deep copy of the list.
func (l ActionList) Copy() ActionList {
	if l == nil {
		return nil
	}
	result := make(ActionList, len(l))
	for i, entry := range l {
		spec := entry.Action
		spec.SiteNames = copyStrings(entry.Action.SiteNames)
		spec.NotifyWith = copyStrings(entry.Action.NotifyWith)
		result[i] = NamedAction{Name: entry.Name, Action: spec}
	}
	return result
}

func copyStrings(values []string) []string {
	if values == nil {
		return nil
	}
	result := make([]string, len(values))
	copy(result, values)
	return result
}

// Default action names emitted by the simple configurator.
const (
	DefaultStoreValidationResultName = "store_validation_result"
	DefaultStoreEvaluationParamsName = "store_evaluation_params"
	DefaultUpdateDataDocsName        = "update_data_docs"
	DefaultSlackNotificationName     = "send_slack_notification"
)
