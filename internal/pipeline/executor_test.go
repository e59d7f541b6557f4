package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/yaml.v3"

	"github.com/temirov/portalaudit/internal/compliance"
	"github.com/temirov/portalaudit/internal/execshell"
	"github.com/temirov/portalaudit/internal/housekeeping"
	"github.com/temirov/portalaudit/internal/pipeline"
	"github.com/temirov/portalaudit/internal/portal"
	"github.com/temirov/portalaudit/internal/publish"
	"github.com/temirov/portalaudit/internal/sink"
	"github.com/temirov/portalaudit/internal/utils"
)

type recordingExecutor struct {
	commands []execshell.ShellCommand
}

func (executor *recordingExecutor) Execute(_ context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	executor.commands = append(executor.commands, command)
	return execshell.ExecutionResult{}, nil
}

type fakePortalClient struct {
	authentications int
	thumbnails      map[string][]byte
	items           map[string]portal.Item
	matching        []portal.Item
	users           map[string]portal.User
}

func (client *fakePortalClient) Authenticate(context.Context) error {
	client.authentications++
	return nil
}

func (client *fakePortalClient) SearchUsers(context.Context) ([]portal.User, error) {
	return nil, nil
}

func (client *fakePortalClient) SearchGroups(context.Context) ([]portal.Group, error) {
	return nil, nil
}

func (client *fakePortalClient) SearchItems(context.Context) ([]portal.Item, error) {
	return nil, nil
}

func (client *fakePortalClient) Roles(context.Context) ([]portal.Role, error) {
	return nil, nil
}

func (client *fakePortalClient) UserGroups(context.Context, string) ([]portal.Group, error) {
	return nil, nil
}

func (client *fakePortalClient) UserRootItems(context.Context, string) ([]portal.Item, error) {
	return nil, nil
}

func (client *fakePortalClient) UserFolders(context.Context, string) ([]portal.Folder, error) {
	return nil, nil
}

func (client *fakePortalClient) UserFolderItems(context.Context, string, string) ([]portal.Item, error) {
	return nil, nil
}

func (client *fakePortalClient) GroupMembers(context.Context, string) (portal.GroupMembers, error) {
	return portal.GroupMembers{}, nil
}

func (client *fakePortalClient) GroupContent(context.Context, string) ([]portal.Item, error) {
	return nil, nil
}

func (client *fakePortalClient) ItemGroups(context.Context, string) (portal.ItemGroupSharing, error) {
	return portal.ItemGroupSharing{}, nil
}

func (client *fakePortalClient) ItemHomepage(itemID string) string {
	return "https://portal.example.com/home/item.html?id=" + itemID
}

func (client *fakePortalClient) SearchItemsMatching(context.Context, string) ([]portal.Item, error) {
	return client.matching, nil
}

func (client *fakePortalClient) Item(_ context.Context, itemID string) (portal.Item, error) {
	item, found := client.items[itemID]
	if !found {
		return portal.Item{}, errors.New("item not found")
	}
	return item, nil
}

func (client *fakePortalClient) ItemThumbnail(_ context.Context, itemID string, _ string) ([]byte, error) {
	return client.thumbnails[itemID], nil
}

func (client *fakePortalClient) User(_ context.Context, username string) (portal.User, error) {
	return client.users[username], nil
}

type recordingNotifier struct {
	notifications []compliance.Notification
}

func (notifier *recordingNotifier) Notify(_ context.Context, notification compliance.Notification) error {
	notifier.notifications = append(notifier.notifications, notification)
	return nil
}

func succeedingStage(name string, requires ...string) pipeline.Stage {
	return pipeline.Stage{Name: name, Requires: requires, Execute: func(context.Context, *pipeline.Environment, *pipeline.State) error {
		return nil
	}}
}

func TestExecutorSkipsStagesWithUnsuccessfulPrerequisites(testInstance *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	executed := []string{}
	record := func(name string) pipeline.StageFunc {
		return func(context.Context, *pipeline.Environment, *pipeline.State) error {
			executed = append(executed, name)
			return nil
		}
	}
	stages := []pipeline.Stage{
		{Name: "first", Execute: record("first")},
		{Name: "broken", Execute: func(context.Context, *pipeline.Environment, *pipeline.State) error {
			return errors.New("boom")
		}},
		{Name: "dependent", Requires: []string{"broken"}, Execute: record("dependent")},
		{Name: "transitive", Requires: []string{"dependent"}, Execute: record("transitive")},
		{Name: "optional", Disabled: true, Execute: record("optional")},
		{Name: "after-optional", Requires: []string{"first", "optional"}, Execute: record("after-optional")},
	}

	executor, executorError := pipeline.NewExecutor(stages, pipeline.Dependencies{Logger: zap.New(core), CommandExecutor: &recordingExecutor{}}, pipeline.Configuration{})
	require.NoError(testInstance, executorError)

	state := executor.Execute(context.Background())

	require.Equal(testInstance, []string{"first", "after-optional"}, executed)
	require.NotEmpty(testInstance, state.RunID)
	require.Equal(testInstance, 1, state.Failed())

	expected := map[string]struct {
		status pipeline.StageStatus
		reason string
	}{
		"first":          {status: pipeline.StatusSucceeded},
		"broken":         {status: pipeline.StatusFailed, reason: "boom"},
		"dependent":      {status: pipeline.StatusSkipped, reason: "prerequisite broken did not succeed"},
		"transitive":     {status: pipeline.StatusSkipped, reason: "prerequisite dependent did not succeed"},
		"optional":       {status: pipeline.StatusSkipped, reason: pipeline.ReasonDisabled},
		"after-optional": {status: pipeline.StatusSucceeded},
	}
	require.Len(testInstance, state.Results, len(expected))
	for _, result := range state.Results {
		require.Equal(testInstance, expected[result.Name].status, result.Status, result.Name)
		require.Equal(testInstance, expected[result.Name].reason, result.Reason, result.Name)
	}

	require.Equal(testInstance, 1, logs.FilterMessage("portal audit started").Len())
	require.Equal(testInstance, 1, logs.FilterMessage("portal audit completed").Len())
	require.Equal(testInstance, 1, logs.FilterMessage("stage failed").Len())
}

func TestExecutorSkipsRemainingStagesAfterCancellation(testInstance *testing.T) {
	executionContext, cancel := context.WithCancel(context.Background())
	stages := []pipeline.Stage{
		{Name: "cancelling", Execute: func(context.Context, *pipeline.Environment, *pipeline.State) error {
			cancel()
			return nil
		}},
		succeedingStage("later"),
	}
	executor, executorError := pipeline.NewExecutor(stages, pipeline.Dependencies{CommandExecutor: &recordingExecutor{}}, pipeline.Configuration{})
	require.NoError(testInstance, executorError)

	state := executor.Execute(executionContext)

	later, found := state.Result("later")
	require.True(testInstance, found)
	require.Equal(testInstance, pipeline.StatusSkipped, later.Status)
	require.True(testInstance, strings.HasPrefix(later.Reason, "run canceled"))
}

func TestExecutorWritesSummaryAndMetrics(testInstance *testing.T) {
	runDirectory := testInstance.TempDir()
	stages := []pipeline.Stage{
		{Name: pipeline.StagePrepare, Execute: func(_ context.Context, _ *pipeline.Environment, state *pipeline.State) error {
			state.Layout = housekeeping.RunLayout{RunDirectory: runDirectory}
			return nil
		}},
		{Name: pipeline.StageReport, Requires: []string{pipeline.StagePrepare}, Execute: func(context.Context, *pipeline.Environment, *pipeline.State) error {
			return errors.New("no data")
		}},
	}
	executor, executorError := pipeline.NewExecutor(stages, pipeline.Dependencies{CommandExecutor: &recordingExecutor{}}, pipeline.Configuration{})
	require.NoError(testInstance, executorError)

	state := executor.Execute(context.Background())

	encodedSummary, readError := os.ReadFile(filepath.Join(runDirectory, pipeline.SummaryFileName))
	require.NoError(testInstance, readError)
	var summary pipeline.Summary
	require.NoError(testInstance, yaml.Unmarshal(encodedSummary, &summary))
	require.Equal(testInstance, state.RunID, summary.RunID)
	require.Equal(testInstance, runDirectory, summary.RunDirectory)
	require.Len(testInstance, summary.Stages, 2)
	require.Equal(testInstance, pipeline.StatusFailed, summary.Stages[1].Status)
	require.Equal(testInstance, "no data", summary.Stages[1].Reason)

	metrics, metricsError := os.ReadFile(filepath.Join(runDirectory, pipeline.MetricsFileName))
	require.NoError(testInstance, metricsError)
	require.Contains(testInstance, string(metrics), `portalaudit_stage_status{stage="prepare",status="succeeded"} 1`)
	require.Contains(testInstance, string(metrics), `portalaudit_stage_status{stage="report",status="failed"} 1`)
	require.Contains(testInstance, string(metrics), `portalaudit_stage_status{stage="report",status="succeeded"} 0`)
}

func TestNewExecutorRequiresCommandExecutor(testInstance *testing.T) {
	_, executorError := pipeline.NewExecutor(nil, pipeline.Dependencies{}, pipeline.Configuration{})
	require.ErrorIs(testInstance, executorError, pipeline.ErrCommandExecutorNotConfigured)
}

func TestBuildStagesKeepsFixedOrder(testInstance *testing.T) {
	stages := pipeline.BuildStages(pipeline.DefaultStageToggles())
	names := make([]string, 0, len(stages))
	for _, stage := range stages {
		names = append(names, stage.Name)
	}
	require.Equal(testInstance, []string{
		pipeline.StagePrepare,
		pipeline.StageLogReport,
		pipeline.StageInventory,
		pipeline.StageUsage,
		pipeline.StageCompliance,
		pipeline.StageSink,
		pipeline.StagePublish,
		pipeline.StageReport,
		pipeline.StageCleanup,
	}, names)
	require.False(testInstance, stages[0].Disabled)
	require.True(testInstance, stages[6].Disabled)
}

func TestRunExecutesConfiguredStages(testInstance *testing.T) {
	reportsDirectory := testInstance.TempDir()
	tablesDirectory := testInstance.TempDir()
	runDate := time.Date(2024, time.March, 15, 6, 0, 0, 0, time.UTC)

	client := &fakePortalClient{
		items:      map[string]portal.Item{"reference": {ID: "reference", Thumbnail: "thumbnail/reference.png"}},
		thumbnails: map[string][]byte{"reference": []byte("standard"), "roads": []byte("custom")},
		matching:   []portal.Item{{ID: "roads", Title: "Roads", Owner: "bob", Thumbnail: "thumbnail/roads.png", Description: strings.Repeat("x", 80), LicenseInfo: "licensed"}},
		users:      map[string]portal.User{"bob": {Username: "bob", Email: "bob@example.com"}},
	}
	notifier := &recordingNotifier{}
	publisherRequested := false

	configuration := pipeline.Configuration{
		Stages:       pipeline.StageToggles{Compliance: true, Sink: true, Publish: true},
		Housekeeping: housekeeping.Configuration{ReportsDirectory: reportsDirectory, RetentionDays: 7},
		Compliance: compliance.Configuration{
			Query:                    "tags:classified",
			ReferenceItemID:          "reference",
			MinimumDescriptionLength: 50,
			LicenseText:              "licensed",
		},
		Sink: sink.Configuration{Kind: sink.StoreKindDirectory, Directory: tablesDirectory},
	}
	dependencies := pipeline.Dependencies{
		Clock:           utils.FixedClock{Instant: runDate},
		CommandExecutor: &recordingExecutor{},
		PortalClientFactory: func(portal.Configuration, *zap.Logger) (pipeline.PortalClient, error) {
			return client, nil
		},
		NotifierFactory: func(compliance.MailConfiguration) (compliance.Notifier, error) {
			return notifier, nil
		},
		PublisherFactory: func(publish.Configuration, *zap.Logger) (publish.Publisher, error) {
			publisherRequested = true
			return nil, errors.New("unexpected publication")
		},
	}

	state, runError := pipeline.Run(context.Background(), dependencies, configuration)
	require.NoError(testInstance, runError)

	expectedLayout := housekeeping.NewRunLayout(reportsDirectory, runDate)
	require.Equal(testInstance, expectedLayout, state.Layout)
	for _, directory := range expectedLayout.Directories() {
		require.DirExists(testInstance, directory)
	}

	statuses := map[string]pipeline.StageStatus{}
	for _, result := range state.Results {
		statuses[result.Name] = result.Status
	}
	require.Equal(testInstance, map[string]pipeline.StageStatus{
		pipeline.StagePrepare:    pipeline.StatusSucceeded,
		pipeline.StageLogReport:  pipeline.StatusSkipped,
		pipeline.StageInventory:  pipeline.StatusSkipped,
		pipeline.StageUsage:      pipeline.StatusSkipped,
		pipeline.StageCompliance: pipeline.StatusSucceeded,
		pipeline.StageSink:       pipeline.StatusFailed,
		pipeline.StagePublish:    pipeline.StatusSkipped,
		pipeline.StageReport:     pipeline.StatusSkipped,
		pipeline.StageCleanup:    pipeline.StatusSkipped,
	}, statuses)

	require.Equal(testInstance, 1, client.authentications)
	require.Len(testInstance, notifier.notifications, 1)
	require.Equal(testInstance, compliance.RuleThumbnail, notifier.notifications[0].Rule)
	require.Equal(testInstance, 1, state.Compliance.NotificationsSent)

	sinkResult, _ := state.Result(pipeline.StageSink)
	require.Contains(testInstance, sinkResult.Reason, "users")
	publishResult, _ := state.Result(pipeline.StagePublish)
	require.Equal(testInstance, "prerequisite sink did not succeed", publishResult.Reason)
	require.False(testInstance, publisherRequested)

	require.FileExists(testInstance, filepath.Join(expectedLayout.RunDirectory, pipeline.SummaryFileName))
	require.FileExists(testInstance, filepath.Join(expectedLayout.RunDirectory, pipeline.MetricsFileName))
}

func TestNewTableStoreSelectsImplementation(testInstance *testing.T) {
	directoryStore, directoryError := pipeline.NewTableStore(sink.Configuration{Kind: sink.StoreKindDirectory, Directory: testInstance.TempDir()})
	require.NoError(testInstance, directoryError)
	require.IsType(testInstance, &sink.DirectoryStore{}, directoryStore)

	postgresStore, postgresError := pipeline.NewTableStore(sink.Configuration{})
	require.NoError(testInstance, postgresError)
	require.IsType(testInstance, &sink.PostgresStore{}, postgresStore)
	require.NoError(testInstance, postgresStore.(*sink.PostgresStore).Close())

	_, unknownError := pipeline.NewTableStore(sink.Configuration{Kind: "spreadsheet"})
	require.Error(testInstance, unknownError)
}
