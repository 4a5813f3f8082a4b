package checkpoint

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestActionSpecValidate(t *testing.T) {
	tests := []struct {
		name        string
		spec        ActionSpec
		errContains string
	}{
		{
			name: "store validation result",
			spec: ActionSpec{Kind: ActionStoreValidationResult},
		},
		{
			name: "store evaluation params",
			spec: ActionSpec{Kind: ActionStoreEvaluationParams},
		},
		{
			name: "update data docs with sites",
			spec: ActionSpec{Kind: ActionUpdateDataDocs, SiteNames: []string{"local_site"}},
		},
		{
			name: "no-op",
			spec: ActionSpec{Kind: ActionNoOp},
		},
		{
			name: "slack with webhook",
			spec: ActionSpec{Kind: ActionSlackNotification, Webhook: "https://hooks.slack.com/foo/bar"},
		},
		{
			name:        "unknown kind",
			spec:        ActionSpec{Kind: "carrier_pigeon"},
			errContains: "unknown action kind",
		},
		{
			name:        "slack without webhook",
			spec:        ActionSpec{Kind: ActionSlackNotification},
			errContains: "webhook URL is required",
		},
		{
			name:        "slack with webhook missing scheme",
			spec:        ActionSpec{Kind: ActionSlackNotification, Webhook: "bad"},
			errContains: "not a valid http(s) URL",
		},
		{
			name:        "teams with ftp webhook",
			spec:        ActionSpec{Kind: ActionTeamsNotification, Webhook: "ftp://example.com/hook"},
			errContains: "not a valid http(s) URL",
		},
		{
			name:        "invalid notify_on",
			spec:        ActionSpec{Kind: ActionSlackNotification, Webhook: "https://hooks.slack.com/foo", NotifyOn: "sometimes"},
			errContains: "invalid notify_on",
		},
		{
			name:        "pagerduty without routing key",
			spec:        ActionSpec{Kind: ActionPagerDutyNotification},
			errContains: "routing_key",
		},
		{
			name:        "opsgenie without api key",
			spec:        ActionSpec{Kind: ActionOpsgenieNotification},
			errContains: "api_key",
		},
		{
			name:        "empty site name",
			spec:        ActionSpec{Kind: ActionUpdateDataDocs, SiteNames: []string{""}},
			errContains: "empty strings",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.errContains == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.True(t, IsConfigError(err))
			require.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestActionListValidate(t *testing.T) {
	t.Run("unique names pass", func(t *testing.T) {
		list := ActionList{
			{Name: "a", Action: ActionSpec{Kind: ActionNoOp}},
			{Name: "b", Action: ActionSpec{Kind: ActionNoOp}},
		}
		require.NoError(t, list.Validate())
	})

	t.Run("empty name rejected", func(t *testing.T) {
		list := ActionList{{Action: ActionSpec{Kind: ActionNoOp}}}
		err := list.Validate()
		require.Error(t, err)
		require.Contains(t, err.Error(), "action name is required")
	})

	t.Run("duplicate names rejected", func(t *testing.T) {
		list := ActionList{
			{Name: "a", Action: ActionSpec{Kind: ActionNoOp}},
			{Name: "a", Action: ActionSpec{Kind: ActionNoOp}},
		}
		err := list.Validate()
		require.Error(t, err)
		require.Contains(t, err.Error(), `duplicate action name "a"`)
	})
}

func TestNotifyConditionMatches(t *testing.T) {
	require.True(t, NotifyAll.Matches(true))
	require.True(t, NotifyAll.Matches(false))
	require.True(t, NotifyCondition("").Matches(true))
	require.True(t, NotifySuccess.Matches(true))
	require.False(t, NotifySuccess.Matches(false))
	require.True(t, NotifyFailure.Matches(false))
	require.False(t, NotifyFailure.Matches(true))
}

func TestHaltsOnFailure(t *testing.T) {
	require.True(t, ActionStoreValidationResult.HaltsOnFailure())
	for _, kind := range []ActionKind{
		ActionStoreEvaluationParams,
		ActionUpdateDataDocs,
		ActionSlackNotification,
		ActionTeamsNotification,
		ActionPagerDutyNotification,
		ActionOpsgenieNotification,
		ActionNoOp,
	} {
		require.False(t, kind.HaltsOnFailure(), "kind %s", kind)
	}
}
