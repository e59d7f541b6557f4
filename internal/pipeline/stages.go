package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/portalaudit/internal/compliance"
	"github.com/temirov/portalaudit/internal/housekeeping"
	"github.com/temirov/portalaudit/internal/inventory"
	"github.com/temirov/portalaudit/internal/report"
	"github.com/temirov/portalaudit/internal/sink"
	"github.com/temirov/portalaudit/internal/usage"
)

const (
	portalConnectionTemplateConstant = "portal connection failed: %w"
	timeZoneTemplateConstant         = "unknown inventory time zone %q: %w"
	storeCloseMessageConstant        = "table store not closed cleanly"
)

// BuildStages assembles the fixed stage sequence with the configured toggles applied.
func BuildStages(toggles StageToggles) []Stage {
	return []Stage{
		{Name: StagePrepare, Execute: prepareStage},
		{Name: StageLogReport, Requires: []string{StagePrepare}, Disabled: !toggles.LogReport, Execute: logReportStage},
		{Name: StageInventory, Requires: []string{StagePrepare}, Disabled: !toggles.Inventory, Execute: inventoryStage},
		{Name: StageUsage, Requires: []string{StagePrepare, StageLogReport, StageInventory}, Disabled: !toggles.Usage, Execute: usageStage},
		{Name: StageCompliance, Disabled: !toggles.Compliance, Execute: complianceStage},
		{Name: StageSink, Requires: []string{StageInventory, StageUsage}, Disabled: !toggles.Sink, Execute: sinkStage},
		{Name: StagePublish, Requires: []string{StageInventory, StageUsage, StageSink}, Disabled: !toggles.Publish, Execute: publishStage},
		{Name: StageReport, Requires: []string{StageInventory, StageUsage}, Disabled: !toggles.Report, Execute: reportStage},
		{Name: StageCleanup, Requires: []string{StagePrepare}, Disabled: !toggles.Cleanup, Execute: cleanupStage},
	}
}

func prepareStage(executionContext context.Context, environment *Environment, state *State) error {
	manager, managerError := environment.housekeepingManager()
	if managerError != nil {
		return managerError
	}
	layout, prepareError := manager.Prepare(executionContext)
	if prepareError != nil {
		return prepareError
	}
	state.Layout = layout
	return nil
}

func logReportStage(executionContext context.Context, environment *Environment, state *State) error {
	generator, generatorError := usage.NewLogReportGenerator(environment.CommandExecutor, environment.Logger, environment.Configuration.LogReport)
	if generatorError != nil {
		return generatorError
	}
	workbookPath, generateError := generator.Generate(executionContext, state.Layout.LogReportDirectory)
	if generateError != nil {
		return generateError
	}
	state.WorkbookPath = workbookPath
	return nil
}

func inventoryStage(executionContext context.Context, environment *Environment, state *State) error {
	client, clientError := environment.connectPortal(executionContext, state)
	if clientError != nil {
		return clientError
	}
	location, locationError := loadLocation(environment.Configuration.Inventory.TimeZone)
	if locationError != nil {
		return locationError
	}
	extractor, extractorError := inventory.NewExtractor(client, environment.Logger, inventory.Options{
		OutputDirectory:     state.Layout.CSVDirectory,
		IncludeMemberCounts: environment.Configuration.Inventory.IncludeMemberCounts,
		Location:            location,
	})
	if extractorError != nil {
		return extractorError
	}
	result, extractError := extractor.Extract(executionContext)
	state.Inventory = result
	return extractError
}

func usageStage(_ context.Context, environment *Environment, state *State) error {
	workbookPath := state.WorkbookPath
	if len(workbookPath) == 0 {
		locatedPath, locateError := usage.LocateWorkbook(state.Layout.LogReportDirectory)
		if locateError != nil {
			return locateError
		}
		workbookPath = locatedPath
		state.WorkbookPath = locatedPath
	}
	reconciler, reconcilerError := usage.NewReconciler(state.Layout.CSVDirectory, environment.Logger)
	if reconcilerError != nil {
		return reconcilerError
	}
	result, reconcileError := reconciler.Reconcile(workbookPath)
	state.Usage = result
	return reconcileError
}

func complianceStage(executionContext context.Context, environment *Environment, state *State) error {
	client, clientError := environment.connectPortal(executionContext, state)
	if clientError != nil {
		return clientError
	}
	notifier, notifierError := environment.notifierFactory(environment.Configuration.Compliance.Mail)
	if notifierError != nil {
		return notifierError
	}
	validator, validatorError := compliance.NewValidator(client, notifier, environment.Logger, environment.Configuration.Compliance)
	if validatorError != nil {
		return validatorError
	}
	result, validateError := validator.Validate(executionContext)
	state.Compliance = result
	return validateError
}

func sinkStage(executionContext context.Context, environment *Environment, state *State) error {
	store, storeError := environment.tableStoreFactory(environment.Configuration.Sink)
	if storeError != nil {
		return storeError
	}
	if closer, closable := store.(io.Closer); closable {
		defer func() {
			if closeError := closer.Close(); closeError != nil {
				environment.Logger.Warn(storeCloseMessageConstant, zap.Error(closeError))
			}
		}()
	}
	loader, loaderError := sink.NewLoader(store, environment.Configuration.Sink.Mode, environment.Logger)
	if loaderError != nil {
		return loaderError
	}
	result, loadError := loader.Load(executionContext, state.Layout.CSVDirectory)
	state.Sink = result
	return loadError
}

func publishStage(executionContext context.Context, environment *Environment, state *State) error {
	publisher, publisherError := environment.publisherFactory(environment.Configuration.Publish, environment.Logger)
	if publisherError != nil {
		return publisherError
	}
	result, publishError := publisher.Publish(executionContext, state.Layout.RunDirectory)
	state.Publication = result
	return publishError
}

func reportStage(executionContext context.Context, environment *Environment, state *State) error {
	composer, composerError := report.NewComposer(environment.CommandExecutor, environment.Clock, environment.Logger, environment.Configuration.Report)
	if composerError != nil {
		return composerError
	}
	result, composeError := composer.Compose(executionContext, report.Paths{
		CSVDirectory:      state.Layout.CSVDirectory,
		ChartsDirectory:   state.Layout.ChartsDirectory,
		DocumentDirectory: state.Layout.RunDirectory,
	})
	state.Report = result
	return composeError
}

func cleanupStage(executionContext context.Context, environment *Environment, state *State) error {
	manager, managerError := environment.housekeepingManager()
	if managerError != nil {
		return managerError
	}
	result, cleanError := manager.Clean(executionContext)
	state.Cleanup = result
	return cleanError
}

func (environment *Environment) housekeepingManager() (*housekeeping.Manager, error) {
	return housekeeping.NewManager(environment.FileSystem, environment.Clock, environment.Logger, environment.Configuration.Housekeeping)
}

// connectPortal authenticates once per run and shares the client between stages.
func (environment *Environment) connectPortal(executionContext context.Context, state *State) (PortalClient, error) {
	if state.portalClient != nil {
		return state.portalClient, nil
	}
	client, clientError := environment.portalClientFactory(environment.Configuration.Portal, environment.Logger)
	if clientError != nil {
		return nil, fmt.Errorf(portalConnectionTemplateConstant, clientError)
	}
	if authenticationError := client.Authenticate(executionContext); authenticationError != nil {
		return nil, fmt.Errorf(portalConnectionTemplateConstant, authenticationError)
	}
	state.portalClient = client
	return client, nil
}

func loadLocation(timeZone string) (*time.Location, error) {
	trimmed := strings.TrimSpace(timeZone)
	if len(trimmed) == 0 {
		return time.Local, nil
	}
	location, locationError := time.LoadLocation(trimmed)
	if locationError != nil {
		return nil, fmt.Errorf(timeZoneTemplateConstant, trimmed, locationError)
	}
	return location, nil
}
