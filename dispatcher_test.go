package checkpoint

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// recordingParameterStore captures stored parameters.
type recordingParameterStore struct {
	runIDs     []RunIdentifier
	parameters []map[string]any
}

func (s *recordingParameterStore) StoreEvaluationParameters(ctx context.Context, runID RunIdentifier, parameters map[string]any) error {
	s.runIDs = append(s.runIDs, runID)
	s.parameters = append(s.parameters, parameters)
	return nil
}

func testIdentifier() ValidationResultIdentifier {
	return ValidationResultIdentifier{
		ExpectationSuiteName: "one",
		RunID:                NewRunIdentifier("run", time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)),
		BatchIdentifier:      "warehouse-default_connector-users",
	}
}

func TestDispatchStoreValidationResult(t *testing.T) {
	store := &recordingResultStore{}
	dispatcher := NewDispatcher(DispatcherOptions{ResultStore: store})
	id := testIdentifier()

	actionResult, err := dispatcher.Dispatch(context.Background(), "ckpt",
		NamedAction{Name: "store", Action: ActionSpec{Kind: ActionStoreValidationResult}},
		&ValidationResult{Success: true}, id, nil)
	require.NoError(t, err)
	require.Equal(t, ActionStatusOK, actionResult.Status)
	require.Equal(t, []ValidationResultIdentifier{id}, store.stored)
	require.Equal(t, id.String(), actionResult.Detail["stored"])
}

func TestDispatchStoreEvaluationParams(t *testing.T) {
	store := &recordingParameterStore{}
	dispatcher := NewDispatcher(DispatcherOptions{ParameterStore: store})
	id := testIdentifier()
	parameters := map[string]any{"min_rows": 100}

	actionResult, err := dispatcher.Dispatch(context.Background(), "ckpt",
		NamedAction{Name: "params", Action: ActionSpec{Kind: ActionStoreEvaluationParams}},
		&ValidationResult{Success: true}, id, parameters)
	require.NoError(t, err)
	require.Equal(t, ActionStatusOK, actionResult.Status)
	require.Equal(t, []RunIdentifier{id.RunID}, store.runIDs)
	require.Equal(t, 1, actionResult.Detail["parameter_count"])
}

func TestDispatchUpdateDataDocs(t *testing.T) {
	registry := NewStaticSiteRegistry("local_site", "s3_site")
	dispatcher := NewDispatcher(DispatcherOptions{Docs: registry})
	id := testIdentifier()

	t.Run("empty filter updates all sites", func(t *testing.T) {
		actionResult, err := dispatcher.Dispatch(context.Background(), "ckpt",
			NamedAction{Name: "docs", Action: ActionSpec{Kind: ActionUpdateDataDocs}},
			&ValidationResult{Success: true}, id, nil)
		require.NoError(t, err)
		require.Equal(t, ActionStatusOK, actionResult.Status)
		require.Len(t, actionResult.Detail, 2)
		require.Contains(t, actionResult.Detail, "local_site")
		require.Contains(t, actionResult.Detail, "s3_site")
	})

	t.Run("explicit filter limits the update", func(t *testing.T) {
		actionResult, err := dispatcher.Dispatch(context.Background(), "ckpt",
			NamedAction{Name: "docs", Action: ActionSpec{
				Kind:      ActionUpdateDataDocs,
				SiteNames: []string{"local_site"},
			}},
			&ValidationResult{Success: true}, id, nil)
		require.NoError(t, err)
		require.Len(t, actionResult.Detail, 1)
		require.Contains(t, actionResult.Detail, "local_site")
	})
}

func TestDispatchNotification(t *testing.T) {
	id := testIdentifier()
	spec := ActionSpec{
		Kind:       ActionSlackNotification,
		Webhook:    "https://hooks.slack.com/services/T000/B000/XXXX",
		NotifyWith: []string{"local_site"},
	}

	t.Run("payload carries the validation context", func(t *testing.T) {
		notifier := &recordingNotifier{}
		dispatcher := NewDispatcher(DispatcherOptions{
			Notifiers: map[ActionKind]Notifier{ActionSlackNotification: notifier},
		})
		result := &ValidationResult{
			Success:    false,
			Statistics: ValidationStatistics{EvaluatedExpectations: 10, SuccessfulExpectations: 7},
		}

		actionResult, err := dispatcher.Dispatch(context.Background(), "ckpt",
			NamedAction{Name: "notify", Action: spec}, result, id, nil)
		require.NoError(t, err)
		require.Equal(t, ActionStatusOK, actionResult.Status)
		require.Len(t, notifier.notes, 1)

		note := notifier.notes[0]
		require.Equal(t, "ckpt", note.CheckpointName)
		require.Equal(t, "one", note.ExpectationSuiteName)
		require.Equal(t, id.BatchIdentifier, note.BatchIdentifier)
		require.Equal(t, id.RunID, note.RunID)
		require.False(t, note.Success)
		require.Equal(t, 10, note.Statistics.EvaluatedExpectations)
		require.Equal(t, []string{"local_site"}, note.Sites)
	})

	t.Run("notify condition mismatch skips delivery", func(t *testing.T) {
		notifier := &recordingNotifier{}
		dispatcher := NewDispatcher(DispatcherOptions{
			Notifiers: map[ActionKind]Notifier{ActionSlackNotification: notifier},
		})
		gated := spec
		gated.NotifyOn = NotifyFailure

		actionResult, err := dispatcher.Dispatch(context.Background(), "ckpt",
			NamedAction{Name: "notify", Action: gated},
			&ValidationResult{Success: true}, id, nil)
		require.NoError(t, err)
		require.Equal(t, ActionStatusSkipped, actionResult.Status)
		require.Empty(t, notifier.notes)
	})

	t.Run("missing backend falls back to a no-op", func(t *testing.T) {
		dispatcher := NewDispatcher(DispatcherOptions{})
		actionResult, err := dispatcher.Dispatch(context.Background(), "ckpt",
			NamedAction{Name: "notify", Action: spec},
			&ValidationResult{Success: true}, id, nil)
		require.NoError(t, err)
		require.Equal(t, ActionStatusOK, actionResult.Status)
	})

	t.Run("backend failure becomes a delivery error", func(t *testing.T) {
		notifier := &recordingNotifier{err: errors.New("503 from slack")}
		dispatcher := NewDispatcher(DispatcherOptions{
			Notifiers: map[ActionKind]Notifier{ActionSlackNotification: notifier},
		})

		actionResult, err := dispatcher.Dispatch(context.Background(), "ckpt",
			NamedAction{Name: "notify", Action: spec},
			&ValidationResult{Success: true}, id, nil)
		require.Error(t, err)
		require.Equal(t, ActionStatusFailed, actionResult.Status)

		var deliveryErr *DeliveryError
		require.ErrorAs(t, err, &deliveryErr)
		require.Equal(t, "notify", deliveryErr.ActionName)
		require.Equal(t, ActionSlackNotification, deliveryErr.Kind)
		require.ErrorContains(t, err, "503 from slack")
	})
}

func TestDispatchNoOp(t *testing.T) {
	dispatcher := NewDispatcher(DispatcherOptions{})
	actionResult, err := dispatcher.Dispatch(context.Background(), "ckpt",
		NamedAction{Name: "noop", Action: ActionSpec{Kind: ActionNoOp}},
		&ValidationResult{Success: true}, testIdentifier(), nil)
	require.NoError(t, err)
	require.Equal(t, ActionStatusOK, actionResult.Status)
	require.Empty(t, actionResult.Detail)
}
