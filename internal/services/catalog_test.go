package services_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/multipush/internal/services"
	"github.com/temirov/multipush/internal/shared"
)

const (
	testMinimalCatalogConstant = `services:
  zeta:
    name: Zeta
    domain: zeta.example
    url_template: https://{domain}/{username}/{repo}.git
    auth_methods: [https]
  alpha:
    name: Alpha
    domain: alpha.example
    url_template: https://{domain}/{username}/{repo}.git
    auth_methods: [https]
`
)

func TestDefaultCatalogKeepsDocumentOrder(testInstance *testing.T) {
	catalog, catalogError := services.DefaultCatalog()
	require.NoError(testInstance, catalogError)

	identifiers := make([]string, 0)
	for _, service := range catalog.Services() {
		identifiers = append(identifiers, service.Identifier)
	}
	require.Equal(testInstance, []string{"github", "gitlab", "codeberg", "bitbucket", "gitlab-selfhosted", "gitea-selfhosted", "keybase"}, identifiers)

	for _, service := range catalog.Services() {
		if service.Supports(services.AuthMethodToken) {
			require.NotEmpty(testInstance, service.TokenEnvironmentVariable, service.Identifier)
		}
	}
}

func TestLoadCatalogPreservesOrderRepeatedly(testInstance *testing.T) {
	for attempt := 0; attempt < 20; attempt++ {
		catalog, catalogError := services.LoadCatalog([]byte(testMinimalCatalogConstant))
		require.NoError(testInstance, catalogError)
		loaded := catalog.Services()
		require.Len(testInstance, loaded, 2)
		require.Equal(testInstance, "zeta", loaded[0].Identifier)
		require.Equal(testInstance, "alpha", loaded[1].Identifier)
	}
}

func TestLoadCatalogValidation(testInstance *testing.T) {
	testCases := []struct {
		name            string
		contents        string
		expectedMessage string
	}{
		{
			name:            "missing_services",
			contents:        "other: {}\n",
			expectedMessage: "must define a services mapping",
		},
		{
			name:            "empty_services",
			contents:        "services: {}\n",
			expectedMessage: "defines no services",
		},
		{
			name:            "malformed_yaml",
			contents:        "services: [\n",
			expectedMessage: "unable to parse service catalog",
		},
		{
			name: "missing_url_template",
			contents: `services:
  broken:
    name: Broken
    domain: broken.example
    auth_methods: [https]
`,
			expectedMessage: `service "broken": url_template is required`,
		},
		{
			name: "missing_auth_methods",
			contents: `services:
  broken:
    name: Broken
    domain: broken.example
    url_template: https://{domain}/{username}/{repo}.git
`,
			expectedMessage: "auth_methods is required",
		},
		{
			name: "token_without_environment_variable",
			contents: `services:
  broken:
    name: Broken
    domain: broken.example
    url_template: https://{domain}/{username}/{repo}.git
    auth_url_template: https://{username}:{token}@{domain}/{username}/{repo}.git
    auth_methods: [token]
`,
			expectedMessage: "token authentication requires",
		},
		{
			name: "ssh_without_template",
			contents: `services:
  broken:
    name: Broken
    domain: broken.example
    url_template: https://{domain}/{username}/{repo}.git
    auth_methods: [ssh]
`,
			expectedMessage: "ssh authentication requires ssh_url_template",
		},
		{
			name: "placeholder_domain_without_flag",
			contents: `services:
  broken:
    name: Broken
    domain: "{custom_domain}"
    url_template: https://{custom_domain}/{username}/{repo}.git
    auth_methods: [https]
`,
			expectedMessage: "requires_custom_domain",
		},
		{
			name: "duplicate_identifier",
			contents: `services:
  dup:
    name: One
    domain: one.example
    url_template: https://{domain}/{username}/{repo}.git
    auth_methods: [https]
  DUP:
    name: Two
    domain: two.example
    url_template: https://{domain}/{username}/{repo}.git
    auth_methods: [https]
`,
			expectedMessage: "defined more than once",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			_, catalogError := services.LoadCatalog([]byte(testCase.contents))
			require.Error(testInstance, catalogError)
			require.Contains(testInstance, catalogError.Error(), testCase.expectedMessage)
			require.Equal(testInstance, shared.ErrorKindConfiguration, shared.KindOf(catalogError))
		})
	}
}

func TestLoadCatalogFile(testInstance *testing.T) {
	catalogPath := filepath.Join(testInstance.TempDir(), "services.yaml")
	require.NoError(testInstance, os.WriteFile(catalogPath, []byte(testMinimalCatalogConstant), 0o600))

	catalog, catalogError := services.LoadCatalogFile(catalogPath)
	require.NoError(testInstance, catalogError)
	require.Len(testInstance, catalog.Services(), 2)

	_, missingError := services.LoadCatalogFile(filepath.Join(testInstance.TempDir(), "absent.yaml"))
	require.Error(testInstance, missingError)
	require.Equal(testInstance, shared.ErrorKindConfiguration, shared.KindOf(missingError))
}

func TestServiceDefaultAuthMethod(testInstance *testing.T) {
	require.Equal(testInstance, services.AuthMethodHTTPS, services.Service{AuthMethods: []services.AuthMethod{services.AuthMethodSSH, services.AuthMethodHTTPS}}.DefaultAuthMethod())
	require.Equal(testInstance, services.AuthMethod("keybase"), services.Service{AuthMethods: []services.AuthMethod{"keybase"}}.DefaultAuthMethod())
}
