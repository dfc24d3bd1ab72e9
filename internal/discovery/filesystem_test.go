package discovery_test

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/multipush/internal/discovery"
)

const (
	developerDirectoryName             = "Dev"
	engineeringGroupDirectoryName      = "Group1"
	applicationRepositoryDirectoryName = "Repo1"
	serviceRepositoryDirectoryName     = "Repo2"
	toolsRepositoryDirectoryName       = "Repo3"
	archiveDirectoryName               = "archive"
	nodeModulesDirectoryName           = "node_modules"
	gitMetadataDirectoryName           = ".git"
	singleRootSubtestTitle             = "discoversRepositoriesFromSingleRoot"
	combinedRootsSubtestTitle          = "discoversRepositoriesFromParentAndNestedRoots"
	repositoryDirectoryPermissions     = 0o755
)

type repositoryDefinition struct {
	directorySegments []string
}

func (definition repositoryDefinition) repositoryPath(rootDirectory string) string {
	segments := append([]string{rootDirectory}, definition.directorySegments...)
	return filepath.Join(segments...)
}

func (definition repositoryDefinition) gitMetadataPath(rootDirectory string) string {
	segments := append([]string{rootDirectory}, definition.directorySegments...)
	segments = append(segments, gitMetadataDirectoryName)
	return filepath.Join(segments...)
}

func createRepositories(testFramework *testing.T, rootDirectory string, definitions []repositoryDefinition) {
	testFramework.Helper()
	for _, definition := range definitions {
		require.NoError(testFramework, os.MkdirAll(definition.gitMetadataPath(rootDirectory), repositoryDirectoryPermissions))
	}
}

func newDiscoverer(testFramework *testing.T, excludePatterns []string) (*discovery.FilesystemRepositoryDiscoverer, *observer.ObservedLogs) {
	testFramework.Helper()
	core, observedLogs := observer.New(zapcore.DebugLevel)
	discoverer, discovererError := discovery.NewFilesystemRepositoryDiscoverer(zap.New(core), excludePatterns)
	require.NoError(testFramework, discovererError)
	return discoverer, observedLogs
}

type filesystemDiscoveryTestScenario struct {
	title                      string
	rootDirectoriesConstructor func(string) []string
}

func (scenario filesystemDiscoveryTestScenario) execute(
	testFramework *testing.T,
	repositoryDefinitions []repositoryDefinition,
) {
	testFramework.Helper()

	temporaryRootDirectory := testFramework.TempDir()
	createRepositories(testFramework, temporaryRootDirectory, repositoryDefinitions)

	repositoryDiscoverer, _ := newDiscoverer(testFramework, nil)
	discoveredRepositories, discoveryError := repositoryDiscoverer.DiscoverRepositories(
		scenario.rootDirectoriesConstructor(temporaryRootDirectory),
	)
	require.NoError(testFramework, discoveryError)

	expectedRepositories := make([]string, 0, len(repositoryDefinitions))
	for _, repositoryDefinition := range repositoryDefinitions {
		expectedRepositories = append(expectedRepositories, repositoryDefinition.repositoryPath(temporaryRootDirectory))
	}

	sort.Strings(expectedRepositories)
	require.Equal(testFramework, expectedRepositories, discoveredRepositories)
}

func TestFilesystemRepositoryDiscovererDiscoversNestedLayouts(testFramework *testing.T) {
	repositoryDefinitions := []repositoryDefinition{
		{directorySegments: []string{developerDirectoryName, engineeringGroupDirectoryName, applicationRepositoryDirectoryName}},
		{directorySegments: []string{developerDirectoryName, engineeringGroupDirectoryName, serviceRepositoryDirectoryName}},
		{directorySegments: []string{developerDirectoryName, toolsRepositoryDirectoryName}},
	}

	testScenarios := []filesystemDiscoveryTestScenario{
		{
			title: singleRootSubtestTitle,
			rootDirectoriesConstructor: func(rootDirectory string) []string {
				return []string{rootDirectory}
			},
		},
		{
			title: combinedRootsSubtestTitle,
			rootDirectoriesConstructor: func(rootDirectory string) []string {
				developerDirectoryPath := filepath.Join(rootDirectory, developerDirectoryName)
				engineeringGroupDirectoryPath := filepath.Join(developerDirectoryPath, engineeringGroupDirectoryName)
				return []string{rootDirectory, developerDirectoryPath, engineeringGroupDirectoryPath}
			},
		},
	}

	for _, testScenario := range testScenarios {
		testFramework.Run(testScenario.title, func(testFramework *testing.T) {
			testScenario.execute(testFramework, repositoryDefinitions)
		})
	}
}

func TestFilesystemRepositoryDiscovererAppliesExcludePatterns(testFramework *testing.T) {
	temporaryRootDirectory := testFramework.TempDir()
	kept := repositoryDefinition{directorySegments: []string{developerDirectoryName, applicationRepositoryDirectoryName}}
	createRepositories(testFramework, temporaryRootDirectory, []repositoryDefinition{
		kept,
		{directorySegments: []string{developerDirectoryName, nodeModulesDirectoryName, serviceRepositoryDirectoryName}},
		{directorySegments: []string{archiveDirectoryName, toolsRepositoryDirectoryName}},
	})

	discoverer, observedLogs := newDiscoverer(testFramework, []string{nodeModulesDirectoryName, archiveDirectoryName + "/**", " "})
	discoveredRepositories, discoveryError := discoverer.DiscoverRepositories([]string{temporaryRootDirectory})
	require.NoError(testFramework, discoveryError)
	require.Equal(testFramework, []string{kept.repositoryPath(temporaryRootDirectory)}, discoveredRepositories)
	require.NotZero(testFramework, observedLogs.FilterMessage("excluding directory").Len())
}

func TestFilesystemRepositoryDiscovererHandlesGitFilesAndMissingRoots(testFramework *testing.T) {
	temporaryRootDirectory := testFramework.TempDir()
	worktreePath := filepath.Join(temporaryRootDirectory, "worktree")
	require.NoError(testFramework, os.MkdirAll(worktreePath, repositoryDirectoryPermissions))
	require.NoError(testFramework, os.WriteFile(filepath.Join(worktreePath, gitMetadataDirectoryName), []byte("gitdir: /elsewhere\n"), 0o600))

	discoverer, observedLogs := newDiscoverer(testFramework, nil)
	missingRoot := filepath.Join(temporaryRootDirectory, "absent")
	discoveredRepositories, discoveryError := discoverer.DiscoverRepositories([]string{missingRoot, temporaryRootDirectory, temporaryRootDirectory})
	require.NoError(testFramework, discoveryError)
	require.Equal(testFramework, []string{worktreePath}, discoveredRepositories)

	missingRootLogs := observedLogs.FilterMessage("skipping missing scan root").All()
	require.Len(testFramework, missingRootLogs, 1)
	require.Equal(testFramework, zapcore.WarnLevel, missingRootLogs[0].Level)
}

func TestNewFilesystemRepositoryDiscovererValidation(testFramework *testing.T) {
	_, loggerError := discovery.NewFilesystemRepositoryDiscoverer(nil, nil)
	require.ErrorIs(testFramework, loggerError, discovery.ErrLoggerNotConfigured)

	_, patternError := discovery.NewFilesystemRepositoryDiscoverer(zap.NewNop(), []string{"[unclosed"})
	require.Error(testFramework, patternError)
}
