package remotes

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/temirov/multipush/internal/multipush"
	"github.com/temirov/multipush/internal/services"
	"github.com/temirov/multipush/internal/shared"
)

const (
	usernamePlaceholderConstant     = "{username}"
	repositoryPlaceholderConstant   = "{repo}"
	domainPlaceholderConstant       = "{domain}"
	customDomainPlaceholderConstant = "{custom_domain}"
	tokenPlaceholderConstant        = "{token}"
	resolveServiceFailureTemplate   = "service %q: %v"
	missingUsernameTemplateConstant = "no username configured for service %q"
	missingTemplateTemplateConstant = "service %q has no URL template for auth method %q"
	unresolvedPlaceholderTemplate   = "service %q template leaves %s unresolved"
	emptyRepositoryNameMessage      = "repository name is empty"
	placeholderSeparatorConstant    = ", "
)

var placeholderPattern = regexp.MustCompile(`\{[A-Za-z_]+\}`)

// RemotePlan is the exact remote configuration a repository should carry.
type RemotePlan struct {
	RemoteName string   `json:"remote_name"`
	FetchURL   string   `json:"fetch_url"`
	PushURLs   []string `json:"push_urls"`
}

// Redacted returns a copy of the plan with credentials masked.
func (plan RemotePlan) Redacted() RemotePlan {
	return RemotePlan{RemoteName: plan.RemoteName, FetchURL: shared.RedactURL(plan.FetchURL), PushURLs: shared.RedactArguments(plan.PushURLs)}
}

// Redact masks credentials embedded in a URL.
func Redact(remoteURL string) string {
	return shared.RedactURL(remoteURL)
}

// Composer renders remote plans from service templates.
type Composer struct {
	resolver        ServiceResolver
	credentials     CredentialProvider
	defaultUsername string
}

// NewComposer constructs a Composer; defaultUsername applies to services without their own username.
func NewComposer(resolver ServiceResolver, credentials CredentialProvider, defaultUsername string) (*Composer, error) {
	if resolver == nil {
		return nil, ErrServiceResolverNotConfigured
	}
	if credentials == nil {
		return nil, ErrCredentialProviderNotConfigured
	}
	return &Composer{resolver: resolver, credentials: credentials, defaultUsername: strings.TrimSpace(defaultUsername)}, nil
}

// BuildPlan renders one fetch URL for the primary service and one push URL per push service, in configured order.
func (composer *Composer) BuildPlan(identity shared.RepositoryIdentity, effective multipush.EffectiveConfig) (RemotePlan, error) {
	repositoryName := strings.TrimSpace(identity.Name)
	if len(repositoryName) == 0 {
		return RemotePlan{}, multipush.InvalidConfigError{Repository: identity.Path, Message: emptyRepositoryNameMessage}
	}

	primary, resolveError := composer.resolve(repositoryName, effective.PrimaryService)
	if resolveError != nil {
		return RemotePlan{}, resolveError
	}
	fetchURL, fetchError := composer.render(repositoryName, primary, fetchAuthMethod(primary.AuthMethod))
	if fetchError != nil {
		return RemotePlan{}, fetchError
	}

	plan := RemotePlan{
		RemoteName: shared.OriginRemoteNameConstant,
		FetchURL:   fetchURL,
		PushURLs:   make([]string, 0, len(effective.PushServices)),
	}
	for _, serviceIdentifier := range effective.PushServices {
		pushService, pushResolveError := composer.resolve(repositoryName, serviceIdentifier)
		if pushResolveError != nil {
			return RemotePlan{}, pushResolveError
		}
		pushURL, pushError := composer.render(repositoryName, pushService, pushService.AuthMethod)
		if pushError != nil {
			return RemotePlan{}, pushError
		}
		plan.PushURLs = append(plan.PushURLs, pushURL)
	}
	return plan, nil
}

func (composer *Composer) resolve(repositoryName string, serviceIdentifier string) (services.ConfiguredService, error) {
	service, resolveError := composer.resolver.Resolve(serviceIdentifier)
	if resolveError != nil {
		return services.ConfiguredService{}, multipush.InvalidConfigError{
			Repository: repositoryName,
			Message:    fmt.Sprintf(resolveServiceFailureTemplate, serviceIdentifier, resolveError),
		}
	}
	return service, nil
}

func (composer *Composer) render(repositoryName string, service services.ConfiguredService, authMethod services.AuthMethod) (string, error) {
	invalid := func(format string, arguments ...any) error {
		return multipush.InvalidConfigError{Repository: repositoryName, Message: fmt.Sprintf(format, arguments...)}
	}

	template := templateFor(service.Service, authMethod)
	if len(template) == 0 {
		return "", invalid(missingTemplateTemplateConstant, service.Identifier, authMethod)
	}

	username := service.Username
	if len(username) == 0 {
		username = composer.defaultUsername
	}
	if len(username) == 0 && strings.Contains(template, usernamePlaceholderConstant) {
		return "", invalid(missingUsernameTemplateConstant, service.Identifier)
	}

	rendered := strings.NewReplacer(
		usernamePlaceholderConstant, username,
		repositoryPlaceholderConstant, repositoryName,
		domainPlaceholderConstant, service.EffectiveDomain(),
		customDomainPlaceholderConstant, service.CustomDomain,
	).Replace(template)

	// {token} is substituted last so token contents never count as placeholders.
	requiresToken := authMethod == services.AuthMethodToken
	unresolved := make([]string, 0)
	for _, placeholder := range placeholderPattern.FindAllString(rendered, -1) {
		if requiresToken && placeholder == tokenPlaceholderConstant {
			continue
		}
		unresolved = append(unresolved, placeholder)
	}
	if len(unresolved) > 0 {
		return "", invalid(unresolvedPlaceholderTemplate, service.Identifier, strings.Join(unresolved, placeholderSeparatorConstant))
	}

	if !requiresToken || !strings.Contains(rendered, tokenPlaceholderConstant) {
		return rendered, nil
	}
	token, found := composer.credentials.Credential(service.Identifier)
	if !found {
		return "", MissingCredentialError{Service: service.Identifier, EnvironmentVariable: service.TokenEnvironmentVariable}
	}
	return strings.ReplaceAll(rendered, tokenPlaceholderConstant, token), nil
}

// templateFor selects the template matching an auth method; unrecognized methods use the plain template.
func templateFor(service services.Service, authMethod services.AuthMethod) string {
	switch authMethod {
	case services.AuthMethodToken:
		return service.AuthURLTemplate
	case services.AuthMethodSSH:
		return service.SSHURLTemplate
	default:
		return service.URLTemplate
	}
}

// fetchAuthMethod keeps SSH for SSH-configured primaries and drops token credentials otherwise.
func fetchAuthMethod(pushAuthMethod services.AuthMethod) services.AuthMethod {
	if pushAuthMethod == services.AuthMethodToken {
		return services.AuthMethodHTTPS
	}
	return pushAuthMethod
}
