package pathutils_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	pathutils "github.com/temirov/portalaudit/internal/utils/path"
)

func TestHomeExpanderExpand(testInstance *testing.T) {
	const homeDirectory = "/home/auditor"

	testCases := []struct {
		name         string
		provider     pathutils.HomeDirectoryProvider
		input        string
		expectedPath string
	}{
		{name: "plain_path_untouched", input: "/srv/reports", expectedPath: "/srv/reports"},
		{name: "tilde_only", input: "~", expectedPath: homeDirectory},
		{name: "tilde_prefix", input: "~/reports", expectedPath: filepath.Join(homeDirectory, "reports")},
		{name: "empty_path", input: "", expectedPath: ""},
		{
			name: "provider_failure_keeps_input",
			provider: func() (string, error) {
				return "", errors.New("no home")
			},
			input:        "~/reports",
			expectedPath: "~/reports",
		},
		{name: "other_user_untouched", input: "~auditor/reports", expectedPath: "~auditor/reports"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			provider := testCase.provider
			if provider == nil {
				provider = func() (string, error) { return homeDirectory, nil }
			}
			expander := pathutils.NewHomeExpanderWithProvider(provider)
			require.Equal(testInstance, testCase.expectedPath, expander.Expand(testCase.input))
		})
	}
}

func TestHomeExpanderExpandAllRewritesInPlace(testInstance *testing.T) {
	expander := pathutils.NewHomeExpanderWithProvider(func() (string, error) { return "/home/auditor", nil })
	reportsDirectory := "~/reports"
	logFile := "/var/log/portal-audit.log"
	expander.ExpandAll(&reportsDirectory, &logFile, nil)
	require.Equal(testInstance, filepath.Join("/home/auditor", "reports"), reportsDirectory)
	require.Equal(testInstance, "/var/log/portal-audit.log", logFile)
}
