package docs_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/temirov/portalaudit/cmd/cli"
	"github.com/temirov/portalaudit/internal/publish"
	"github.com/temirov/portalaudit/internal/sink"
	"github.com/temirov/portalaudit/internal/utils"
)

const (
	readmeFileNameConstant                = "README.md"
	yamlFenceStartConstant                = "```yaml"
	yamlFenceEndConstant                  = "```"
	configHeaderMarkerConstant            = "# config.yaml"
	readmeSnippetFileNameConstant         = "readme-config.yaml"
	parentDirectoryReferenceConstant      = ".."
	missingHeaderMessageConstant          = "README example missing config header marker"
	missingStartFenceMessageConstant      = "README example missing yaml fence start"
	missingEndFenceMessageConstant        = "README example missing yaml fence end"
	unknownSectionMessageTemplateConstant = "README example uses section %q absent from the embedded defaults"
)

func readReadmeConfiguration(testInstance *testing.T) string {
	testInstance.Helper()
	workingDirectory, workingDirectoryError := os.Getwd()
	require.NoError(testInstance, workingDirectoryError)

	contentBytes, readError := os.ReadFile(filepath.Join(workingDirectory, parentDirectoryReferenceConstant, readmeFileNameConstant))
	require.NoError(testInstance, readError)

	contentText := string(contentBytes)
	headerIndex := strings.Index(contentText, configHeaderMarkerConstant)
	require.NotEqual(testInstance, -1, headerIndex, missingHeaderMessageConstant)

	fenceStartIndex := strings.LastIndex(contentText[:headerIndex], yamlFenceStartConstant)
	require.NotEqual(testInstance, -1, fenceStartIndex, missingStartFenceMessageConstant)

	fenceEndRelativeIndex := strings.Index(contentText[headerIndex:], yamlFenceEndConstant)
	require.NotEqual(testInstance, -1, fenceEndRelativeIndex, missingEndFenceMessageConstant)

	return strings.TrimSpace(contentText[fenceStartIndex+len(yamlFenceStartConstant) : headerIndex+fenceEndRelativeIndex])
}

func TestReadmeConfigurationLoads(testInstance *testing.T) {
	snippetPath := filepath.Join(testInstance.TempDir(), readmeSnippetFileNameConstant)
	require.NoError(testInstance, os.WriteFile(snippetPath, []byte(readReadmeConfiguration(testInstance)), 0o600))

	loader := utils.NewConfigurationLoader("config", "yaml", "PORTALAUDIT_README_TEST", nil)
	loader.SetEmbeddedConfiguration(cli.EmbeddedDefaultConfiguration())

	var configuration cli.ApplicationConfiguration
	_, loadError := loader.LoadConfiguration(snippetPath, nil, &configuration)
	require.NoError(testInstance, loadError)

	require.True(testInstance, configuration.Audit.Stages.Publish)
	require.True(testInstance, configuration.Audit.Stages.Inventory)
	require.Equal(testInstance, 14, configuration.Audit.Housekeeping.RetentionDays)
	require.Equal(testInstance, sink.ModeTest, configuration.Audit.Sink.Mode)
	require.Equal(testInstance, publish.TargetObjectStore, configuration.Audit.Publish.Target)
	require.Equal(testInstance, 25, configuration.Audit.Compliance.Mail.RelayPort)
	require.Equal(testInstance, "0 5 * * *", configuration.Schedule.Expression)
}

func TestReadmeConfigurationUsesKnownSections(testInstance *testing.T) {
	var readmeSections map[string]any
	require.NoError(testInstance, yaml.Unmarshal([]byte(readReadmeConfiguration(testInstance)), &readmeSections))

	defaultContent, _ := cli.EmbeddedDefaultConfiguration()
	var defaultSections map[string]any
	require.NoError(testInstance, yaml.Unmarshal(defaultContent, &defaultSections))

	for section := range readmeSections {
		_, known := defaultSections[section]
		require.True(testInstance, known, unknownSectionMessageTemplateConstant, section)
	}
}
