package analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/temirov/multipush/internal/gitrepo"
	"github.com/temirov/multipush/internal/multipush"
	"github.com/temirov/multipush/internal/shared"
)

const (
	setUpMultiPushRecommendationConstant   = "Set up multi-push to multiple services"
	addServicesRecommendationTemplate      = "Add services: %s"
	removeServicesRecommendationTemplate   = "Remove services: %s"
	switchPrimaryRecommendationTemplate    = "Switch primary service to %s"
	fixConfigurationRecommendationTemplate = "Fix configuration: %s"
	addRemoteRecommendationConstant        = "Add an origin remote"
	serviceListSeparatorConstant           = ", "
	complexMissingServicesThreshold        = 2
)

// Bucket groups repositories in analysis reports.
type Bucket string

// Supported buckets.
const (
	BucketConfigured     Bucket = "configured"
	BucketNeedsMigration Bucket = "needs-migration"
	BucketNoRemotes      Bucket = "no-remotes"
	BucketInvalidConfig  Bucket = "invalid-config"
	BucketUnreadable     Bucket = "unreadable"
)

// Complexity estimates the effort of migrating a repository.
type Complexity string

// Supported complexity levels.
const (
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityComplex Complexity = "complex"
)

// ServiceDetector maps a remote URL to a service identifier.
type ServiceDetector interface {
	DetectService(remoteURL string) string
}

// RemoteDetail describes one remote with the services behind its URLs.
type RemoteDetail struct {
	Name         string                 `json:"name"`
	FetchURLs    []string               `json:"fetch_urls"`
	PushURLs     []string               `json:"push_urls,omitempty"`
	FetchService string                 `json:"fetch_service,omitempty"`
	PushServices []string               `json:"push_services,omitempty"`
	Protocol     gitrepo.RemoteProtocol `json:"protocol,omitempty"`
	Owner        string                 `json:"owner,omitempty"`
}

// Classification is the analysis verdict for one repository.
type Classification struct {
	Bucket               Bucket     `json:"bucket"`
	CurrentServices      []string   `json:"current_services"`
	DesiredServices      []string   `json:"desired_services"`
	PrimaryService       string     `json:"primary_service,omitempty"`
	DesiredPrimary       string     `json:"desired_primary,omitempty"`
	HasMultiPush         bool       `json:"has_multi_push"`
	NeedsMigration       bool       `json:"needs_migration"`
	MigrationComplexity  Complexity `json:"migration_complexity"`
	Recommendations      []string   `json:"recommendations"`
	ConfigurationProblem string     `json:"configuration_problem,omitempty"`
}

// Classify compares the services behind a repository's remote URLs with the desired services.
// A non-nil resolutionError places the repository in the invalid-config bucket.
func Classify(identity shared.RepositoryIdentity, detector ServiceDetector, effective multipush.EffectiveConfig, resolutionError error) Classification {
	classification := Classification{
		MigrationComplexity: ComplexitySimple,
		CurrentServices:     []string{},
		DesiredServices:     []string{},
		Recommendations:     []string{},
	}

	currentServices := map[string]struct{}{}
	for _, remoteName := range identity.RemoteNames() {
		remote := identity.Remotes[remoteName]
		for _, remoteURL := range remote.AllURLs() {
			currentServices[detector.DetectService(remoteURL)] = struct{}{}
		}
		if len(remote.PushURLs) > 1 {
			classification.HasMultiPush = true
		}
		if remoteName == shared.OriginRemoteNameConstant && len(remote.FetchURLs) > 0 {
			classification.PrimaryService = detector.DetectService(remote.FetchURLs[0])
		}
	}
	classification.CurrentServices = sortedKeys(currentServices)

	if resolutionError != nil {
		classification.Bucket = BucketInvalidConfig
		classification.ConfigurationProblem = shared.RedactURL(resolutionError.Error())
		classification.Recommendations = append(classification.Recommendations, fmt.Sprintf(fixConfigurationRecommendationTemplate, classification.ConfigurationProblem))
		return classification
	}

	desiredServices := effective.DesiredServices()
	classification.DesiredServices = sortedKeys(desiredServices)
	classification.DesiredPrimary = effective.PrimaryService
	classification.NeedsMigration = !equalSets(currentServices, desiredServices)

	switch {
	case len(identity.Remotes) == 0:
		classification.Bucket = BucketNoRemotes
	case classification.NeedsMigration:
		classification.Bucket = BucketNeedsMigration
	default:
		classification.Bucket = BucketConfigured
	}

	if !classification.NeedsMigration {
		return classification
	}

	missingServices := difference(desiredServices, currentServices)
	extraServices := difference(currentServices, desiredServices)
	switch {
	case len(missingServices) >= complexMissingServicesThreshold:
		classification.MigrationComplexity = ComplexityComplex
	case classification.PrimaryService != effective.PrimaryService:
		classification.MigrationComplexity = ComplexityMedium
	}

	if len(identity.Remotes) == 0 {
		classification.Recommendations = append(classification.Recommendations, addRemoteRecommendationConstant)
	}
	if !classification.HasMultiPush && len(desiredServices) > 1 {
		classification.Recommendations = append(classification.Recommendations, setUpMultiPushRecommendationConstant)
	}
	if len(missingServices) > 0 {
		classification.Recommendations = append(classification.Recommendations, fmt.Sprintf(addServicesRecommendationTemplate, strings.Join(missingServices, serviceListSeparatorConstant)))
	}
	if len(extraServices) > 0 {
		classification.Recommendations = append(classification.Recommendations, fmt.Sprintf(removeServicesRecommendationTemplate, strings.Join(extraServices, serviceListSeparatorConstant)))
	}
	if len(classification.PrimaryService) > 0 && classification.PrimaryService != effective.PrimaryService {
		classification.Recommendations = append(classification.Recommendations, fmt.Sprintf(switchPrimaryRecommendationTemplate, effective.PrimaryService))
	}
	return classification
}

// DescribeRemotes lists remotes in name order with detected services and parsed URL components.
func DescribeRemotes(identity shared.RepositoryIdentity, detector ServiceDetector) []RemoteDetail {
	details := make([]RemoteDetail, 0, len(identity.Remotes))
	for _, remoteName := range identity.RemoteNames() {
		remote := identity.Remotes[remoteName]
		detail := RemoteDetail{
			Name:      remoteName,
			FetchURLs: shared.RedactArguments(remote.FetchURLs),
		}
		if len(remote.PushURLs) > 0 {
			detail.PushURLs = shared.RedactArguments(remote.PushURLs)
		}
		if len(remote.FetchURLs) > 0 {
			detail.FetchService = detector.DetectService(remote.FetchURLs[0])
			if parsed, parseError := gitrepo.ParseRemoteURL(remote.FetchURLs[0]); parseError == nil {
				detail.Protocol = parsed.Protocol
				detail.Owner = parsed.Owner
			}
		}
		for _, pushURL := range remote.PushURLs {
			detail.PushServices = append(detail.PushServices, detector.DetectService(pushURL))
		}
		details = append(details, detail)
	}
	return details
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func difference(first map[string]struct{}, second map[string]struct{}) []string {
	var missing []string
	for key := range first {
		if _, present := second[key]; !present {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}

func equalSets(first map[string]struct{}, second map[string]struct{}) bool {
	if len(first) != len(second) {
		return false
	}
	for key := range first {
		if _, present := second[key]; !present {
			return false
		}
	}
	return true
}
