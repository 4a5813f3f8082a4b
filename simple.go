package checkpoint

import (
	"context"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

// SiteSelection picks which documentation sites an operation applies to.
// The zero value selects all sites. In YAML form it is the literal string
// "all", null (no sites), or a list of site names.
type SiteSelection struct {
	none  bool
	names []string
}

// AllSites selects every registered site.
func AllSites() SiteSelection {
	return SiteSelection{}
}

// NoSites selects no sites at all.
func NoSites() SiteSelection {
	return SiteSelection{none: true}
}

// SelectSites selects an explicit ordered set of site names.
func SelectSites(names ...string) SiteSelection {
	return SiteSelection{names: slices.Clone(names)}
}

// IsAll reports whether the selection means "all registered sites".
func (s SiteSelection) IsAll() bool {
	return !s.none && s.names == nil
}

// IsNone reports whether the selection is empty.
func (s SiteSelection) IsNone() bool {
	return s.none
}

// Names returns the explicit site names, nil for the all/none selections.
func (s SiteSelection) Names() []string {
	return slices.Clone(s.names)
}

func (s SiteSelection) String() string {
	switch {
	case s.none:
		return "none"
	case s.names == nil:
		return "all"
	default:
		return fmt.Sprintf("%v", s.names)
	}
}

// MarshalYAML encodes the selection as "all", null, or a list of names.
func (s SiteSelection) MarshalYAML() (any, error) {
	switch {
	case s.none:
		return nil, nil
	case s.names == nil:
		return "all", nil
	default:
		return s.names, nil
	}
}

// UnmarshalYAML decodes "all", null, or a homogeneous list of strings and
// rejects everything else.
func (s *SiteSelection) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*s = NoSites()
			return nil
		}
		var value string
		if err := node.Decode(&value); err != nil || value != "all" {
			return NewConfigError("site selection must be \"all\", null, or a list of site names, got %q", node.Value)
		}
		*s = AllSites()
		return nil
	case yaml.SequenceNode:
		names, err := decodeStringList(node)
		if err != nil {
			return &ConfigError{Cause: "site selection list must contain only strings", Wrapped: err}
		}
		*s = SelectSites(names...)
		return nil
	default:
		return NewConfigError("site selection must be \"all\", null, or a list of site names")
	}
}

// NotifySelection picks which site links a notification carries: all sites
// (the zero value) or an explicit ordered set.
type NotifySelection struct {
	names []string
}

// NotifyWithAllSites includes links for every registered site.
func NotifyWithAllSites() NotifySelection {
	return NotifySelection{}
}

// NotifyWithSites includes links for an explicit ordered set of sites.
func NotifyWithSites(names ...string) NotifySelection {
	return NotifySelection{names: slices.Clone(names)}
}

// IsAll reports whether the selection means "all registered sites".
func (s NotifySelection) IsAll() bool {
	return s.names == nil
}

// Names returns the explicit site names, nil for the all selection.
func (s NotifySelection) Names() []string {
	return slices.Clone(s.names)
}

// MarshalYAML encodes the selection as "all" or a list of names.
func (s NotifySelection) MarshalYAML() (any, error) {
	if s.names == nil {
		return "all", nil
	}
	return s.names, nil
}

// UnmarshalYAML decodes "all", null (treated as all, matching the
// downstream unset-meaning-all convention), or a homogeneous string list.
func (s *NotifySelection) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*s = NotifyWithAllSites()
			return nil
		}
		var value string
		if err := node.Decode(&value); err != nil || value != "all" {
			return NewConfigError("notify_with must be \"all\", null, or a list of site names, got %q", node.Value)
		}
		*s = NotifyWithAllSites()
		return nil
	case yaml.SequenceNode:
		names, err := decodeStringList(node)
		if err != nil {
			return &ConfigError{Cause: "notify_with list must contain only strings", Wrapped: err}
		}
		*s = NotifyWithSites(names...)
		return nil
	default:
		return NewConfigError("notify_with must be \"all\", null, or a list of site names")
	}
}

func decodeStringList(node *yaml.Node) ([]string, error) {
	names := make([]string, 0, len(node.Content))
	for _, item := range node.Content {
		if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
			return nil, fmt.Errorf("element %q is not a string", item.Value)
		}
		names = append(names, item.Value)
	}
	return names, nil
}

// SimpleOptions are the high-level knobs accepted by the simple
// configurator. Only Name is required; Sites is required when SiteNames
// selects explicit names.
type SimpleOptions struct {

	// Name of the checkpoint to build.
	Name string

	// Sites is the registry used to validate explicit site selections.
	Sites DocsSiteRegistry

	// SlackWebhook, when non-empty, appends a slack_notification action.
	SlackWebhook string

	// NotifyOn gates the slack notification on the validation outcome.
	// Empty defaults to "all". Any non-default value requires SlackWebhook.
	NotifyOn NotifyCondition

	// NotifyWith selects which site links the slack notification carries.
	// Nil defaults to all sites. Supplying it requires SlackWebhook.
	NotifyWith *NotifySelection

	// SiteNames controls the update_data_docs action: nil means update all
	// sites, NoSites omits the action, an explicit selection updates
	// exactly those sites.
	SiteNames *SiteSelection
}

// SimpleCheckpointConfigurator expands a small set of high-level options
// into the generic checkpoint configuration: the two store actions always
// come first, followed by an optional docs update and an optional slack
// notification. All option validation happens in Build, before any config
// is constructed.
type SimpleCheckpointConfigurator struct {
	opts SimpleOptions
}

func NewSimpleCheckpointConfigurator(opts SimpleOptions) *SimpleCheckpointConfigurator {
	return &SimpleCheckpointConfigurator{opts: opts}
}

// Build validates the options and constructs the checkpoint config.
func (c *SimpleCheckpointConfigurator) Build(ctx context.Context) (*CheckpointConfig, error) {
	opts := c.opts
	if opts.Name == "" {
		return nil, NewConfigError("checkpoint name is required")
	}
	if opts.SlackWebhook != "" {
		if err := validateWebhookURL(opts.SlackWebhook); err != nil {
			return nil, err
		}
	}
	if opts.NotifyOn != "" && !validNotifyCondition(opts.NotifyOn) {
		return nil, NewConfigError("notify_on must be one of \"all\", \"success\" or \"failure\", got %q", opts.NotifyOn)
	}
	if opts.SlackWebhook == "" {
		// Notification tuning is meaningless without a notification target.
		if opts.NotifyWith != nil {
			return nil, NewConfigError("notify_with requires a slack_webhook")
		}
		if opts.NotifyOn != "" && opts.NotifyOn != NotifyAll {
			return nil, NewConfigError("notify_on %q requires a slack_webhook", opts.NotifyOn)
		}
	}
	if err := c.validateSiteNames(ctx); err != nil {
		return nil, err
	}

	config := NewCheckpointConfig(opts.Name)
	config.ActionList = ActionList{
		{
			Name:   DefaultStoreValidationResultName,
			Action: ActionSpec{Kind: ActionStoreValidationResult},
		},
		{
			Name:   DefaultStoreEvaluationParamsName,
			Action: ActionSpec{Kind: ActionStoreEvaluationParams},
		},
	}

	siteNames := AllSites()
	if opts.SiteNames != nil {
		siteNames = *opts.SiteNames
	}
	if !siteNames.IsNone() {
		config.ActionList = append(config.ActionList, NamedAction{
			Name: DefaultUpdateDataDocsName,
			Action: ActionSpec{
				Kind: ActionUpdateDataDocs,
				// An empty filter means all sites to the publisher.
				SiteNames: siteNames.Names(),
			},
		})
	}

	if opts.SlackWebhook != "" {
		notifyOn := opts.NotifyOn
		if notifyOn == "" {
			notifyOn = NotifyAll
		}
		var notifyWith []string
		if opts.NotifyWith != nil {
			notifyWith = opts.NotifyWith.Names()
		}
		config.ActionList = append(config.ActionList, NamedAction{
			Name: DefaultSlackNotificationName,
			Action: ActionSpec{
				Kind:       ActionSlackNotification,
				Webhook:    opts.SlackWebhook,
				NotifyOn:   notifyOn,
				NotifyWith: notifyWith,
			},
		})
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// validateSiteNames checks an explicit site selection against the registry.
func (c *SimpleCheckpointConfigurator) validateSiteNames(ctx context.Context) error {
	if c.opts.SiteNames == nil {
		return nil
	}
	names := c.opts.SiteNames.Names()
	if len(names) == 0 {
		return nil
	}
	if c.opts.Sites == nil {
		return NewConfigError("a docs site registry is required to validate site_names")
	}
	registered, err := c.opts.Sites.SiteNames(ctx)
	if err != nil {
		return &ConfigError{Cause: "failed to list docs sites", Wrapped: err}
	}
	for _, name := range names {
		if name == "" {
			return NewConfigError("site_names must not contain empty strings")
		}
		if !slices.Contains(registered, name) {
			return NewConfigError("site %q is not a registered docs site (known sites: %v)", name, registered)
		}
	}
	return nil
}
