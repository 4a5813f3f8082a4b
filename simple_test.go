package checkpoint

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func simpleActionNames(config *CheckpointConfig) []string {
	names := make([]string, 0, len(config.ActionList))
	for _, action := range config.ActionList {
		names = append(names, action.Name)
	}
	return names
}

func TestSimpleCheckpointConfiguratorDefaults(t *testing.T) {
	ctx := context.Background()
	configurator := NewSimpleCheckpointConfigurator(SimpleOptions{Name: "foo"})
	config, err := configurator.Build(ctx)
	require.NoError(t, err)

	require.Equal(t, "foo", config.Name)
	require.Equal(t, ConfigVersion, config.ConfigVersion)
	require.Equal(t, ConfigClassName, config.ClassName)
	require.Equal(t, []string{
		"store_validation_result",
		"store_evaluation_params",
		"update_data_docs",
	}, simpleActionNames(config))

	docs, ok := config.ActionList.Find(DefaultUpdateDataDocsName)
	require.True(t, ok)
	require.Empty(t, docs.Action.SiteNames)
}

func TestSimpleCheckpointConfiguratorRequiresName(t *testing.T) {
	_, err := NewSimpleCheckpointConfigurator(SimpleOptions{}).Build(context.Background())
	require.Error(t, err)
	require.True(t, IsConfigError(err))
}

func TestSimpleCheckpointConfiguratorSlackWebhook(t *testing.T) {
	ctx := context.Background()

	t.Run("webhook appends a notification action last", func(t *testing.T) {
		config, err := NewSimpleCheckpointConfigurator(SimpleOptions{
			Name:         "foo",
			SlackWebhook: "https://hooks.slack.com/services/T000/B000/XXXX",
		}).Build(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{
			"store_validation_result",
			"store_evaluation_params",
			"update_data_docs",
			"send_slack_notification",
		}, simpleActionNames(config))

		notify, ok := config.ActionList.Find(DefaultSlackNotificationName)
		require.True(t, ok)
		require.Equal(t, ActionSlackNotification, notify.Action.Kind)
		require.Equal(t, "https://hooks.slack.com/services/T000/B000/XXXX", notify.Action.Webhook)
		require.Equal(t, NotifyAll, notify.Action.NotifyOn)
		require.Empty(t, notify.Action.NotifyWith)
	})

	t.Run("malformed webhook urls are rejected", func(t *testing.T) {
		for _, webhook := range []string{"bad url", "ftp://hooks.slack.com/x", "https://"} {
			_, err := NewSimpleCheckpointConfigurator(SimpleOptions{
				Name:         "foo",
				SlackWebhook: webhook,
			}).Build(ctx)
			require.Error(t, err, webhook)
			require.True(t, IsConfigError(err), webhook)
		}
	})
}

func TestSimpleCheckpointConfiguratorNotifyOn(t *testing.T) {
	ctx := context.Background()
	webhook := "https://hooks.slack.com/services/T000/B000/XXXX"

	t.Run("accepts the three conditions", func(t *testing.T) {
		for _, condition := range []NotifyCondition{NotifyAll, NotifySuccess, NotifyFailure} {
			config, err := NewSimpleCheckpointConfigurator(SimpleOptions{
				Name:         "foo",
				SlackWebhook: webhook,
				NotifyOn:     condition,
			}).Build(ctx)
			require.NoError(t, err)
			notify, ok := config.ActionList.Find(DefaultSlackNotificationName)
			require.True(t, ok)
			require.Equal(t, condition, notify.Action.NotifyOn)
		}
	})

	t.Run("rejects unknown conditions", func(t *testing.T) {
		_, err := NewSimpleCheckpointConfigurator(SimpleOptions{
			Name:         "foo",
			SlackWebhook: webhook,
			NotifyOn:     NotifyCondition("always"),
		}).Build(ctx)
		require.Error(t, err)
		require.True(t, IsConfigError(err))
	})

	t.Run("rejects non-default condition without a webhook", func(t *testing.T) {
		for _, condition := range []NotifyCondition{NotifySuccess, NotifyFailure} {
			_, err := NewSimpleCheckpointConfigurator(SimpleOptions{
				Name:     "foo",
				NotifyOn: condition,
			}).Build(ctx)
			require.Error(t, err, condition)
			require.True(t, IsConfigError(err), condition)
		}
	})
}

func TestSimpleCheckpointConfiguratorNotifyWith(t *testing.T) {
	ctx := context.Background()
	webhook := "https://hooks.slack.com/services/T000/B000/XXXX"

	t.Run("explicit selection carried onto the action", func(t *testing.T) {
		selection := NotifyWithSites("local_site")
		config, err := NewSimpleCheckpointConfigurator(SimpleOptions{
			Name:         "foo",
			SlackWebhook: webhook,
			NotifyWith:   &selection,
		}).Build(ctx)
		require.NoError(t, err)
		notify, ok := config.ActionList.Find(DefaultSlackNotificationName)
		require.True(t, ok)
		require.Equal(t, []string{"local_site"}, notify.Action.NotifyWith)
	})

	t.Run("rejected without a webhook", func(t *testing.T) {
		selection := NotifyWithAllSites()
		_, err := NewSimpleCheckpointConfigurator(SimpleOptions{
			Name:       "foo",
			NotifyWith: &selection,
		}).Build(ctx)
		require.Error(t, err)
		require.True(t, IsConfigError(err))
	})
}

func TestSimpleCheckpointConfiguratorSiteNames(t *testing.T) {
	ctx := context.Background()
	registry := NewStaticSiteRegistry("local_site", "s3_site")

	t.Run("no sites omits the docs action", func(t *testing.T) {
		selection := NoSites()
		config, err := NewSimpleCheckpointConfigurator(SimpleOptions{
			Name:      "foo",
			SiteNames: &selection,
		}).Build(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{
			"store_validation_result",
			"store_evaluation_params",
		}, simpleActionNames(config))
	})

	t.Run("explicit sites filter the docs action", func(t *testing.T) {
		selection := SelectSites("local_site")
		config, err := NewSimpleCheckpointConfigurator(SimpleOptions{
			Name:      "foo",
			Sites:     registry,
			SiteNames: &selection,
		}).Build(ctx)
		require.NoError(t, err)
		docs, ok := config.ActionList.Find(DefaultUpdateDataDocsName)
		require.True(t, ok)
		require.Equal(t, []string{"local_site"}, docs.Action.SiteNames)
	})

	t.Run("unregistered site is rejected", func(t *testing.T) {
		selection := SelectSites("nonexistent_site")
		_, err := NewSimpleCheckpointConfigurator(SimpleOptions{
			Name:      "foo",
			Sites:     registry,
			SiteNames: &selection,
		}).Build(ctx)
		require.Error(t, err)
		require.True(t, IsConfigError(err))
	})

	t.Run("explicit sites require a registry", func(t *testing.T) {
		selection := SelectSites("local_site")
		_, err := NewSimpleCheckpointConfigurator(SimpleOptions{
			Name:      "foo",
			SiteNames: &selection,
		}).Build(ctx)
		require.Error(t, err)
		require.True(t, IsConfigError(err))
	})
}

func TestSiteSelectionYAML(t *testing.T) {
	t.Run("round trips the three forms", func(t *testing.T) {
		for name, selection := range map[string]SiteSelection{
			"all":  AllSites(),
			"none": NoSites(),
			"list": SelectSites("local_site", "s3_site"),
		} {
			t.Run(name, func(t *testing.T) {
				data, err := yaml.Marshal(selection)
				require.NoError(t, err)
				var decoded SiteSelection
				require.NoError(t, yaml.Unmarshal(data, &decoded))
				require.Equal(t, selection.IsAll(), decoded.IsAll())
				require.Equal(t, selection.IsNone(), decoded.IsNone())
				require.Equal(t, selection.Names(), decoded.Names())
			})
		}
	})

	t.Run("rejects other scalars", func(t *testing.T) {
		var selection SiteSelection
		err := yaml.Unmarshal([]byte(`80`), &selection)
		require.Error(t, err)
	})

	t.Run("rejects lists with non-string elements", func(t *testing.T) {
		var selection SiteSelection
		err := yaml.Unmarshal([]byte(`["local_site", 80]`), &selection)
		require.Error(t, err)
	})
}

func TestNotifySelectionYAML(t *testing.T) {
	t.Run("null decodes as all", func(t *testing.T) {
		var selection NotifySelection
		require.NoError(t, yaml.Unmarshal([]byte(`null`), &selection))
		require.True(t, selection.IsAll())
	})

	t.Run("list round trips", func(t *testing.T) {
		data, err := yaml.Marshal(NotifyWithSites("local_site"))
		require.NoError(t, err)
		var decoded NotifySelection
		require.NoError(t, yaml.Unmarshal(data, &decoded))
		require.Equal(t, []string{"local_site"}, decoded.Names())
	})

	t.Run("rejects mappings", func(t *testing.T) {
		var selection NotifySelection
		err := yaml.Unmarshal([]byte(`{"site": true}`), &selection)
		require.Error(t, err)
	})
}
