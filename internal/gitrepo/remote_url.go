package gitrepo

import (
	"fmt"
	"strings"

	"github.com/temirov/multipush/internal/shared"
)

const (
	sshProtocolPrefixConstant           = "ssh://"
	httpsProtocolPrefixConstant         = "https://"
	httpProtocolPrefixConstant          = "http://"
	keybaseProtocolPrefixConstant       = "keybase://"
	userInfoDelimiterConstant           = "@"
	sshPathDelimiterConstant            = ":"
	pathSeparatorConstant               = "/"
	gitSuffixConstant                   = ".git"
	remoteURLParseErrorTemplateConstant = "%s: %s"
	invalidRemoteURLMessageConstant     = "invalid remote url"
	requiredValueMessageConstant        = "value required"
)

// RemoteProtocol enumerates git remote transport families.
type RemoteProtocol string

// Supported remote protocols.
const (
	RemoteProtocolSSH     RemoteProtocol = RemoteProtocol("ssh")
	RemoteProtocolHTTPS   RemoteProtocol = RemoteProtocol("https")
	RemoteProtocolKeybase RemoteProtocol = RemoteProtocol("keybase")
)

// RemoteURL represents a structured git remote URL. Credentials are never retained.
type RemoteURL struct {
	Protocol   RemoteProtocol
	Host       string
	Owner      string
	Repository string
}

// RemoteURLParseError indicates a remote string could not be parsed.
type RemoteURLParseError struct {
	Input   string
	Message string
}

// Error describes the parse failure with credentials masked.
func (parseError RemoteURLParseError) Error() string {
	return fmt.Sprintf(remoteURLParseErrorTemplateConstant, shared.RedactURL(parseError.Input), parseError.Message)
}

// ParseRemoteURL converts a textual remote URL into owner and repository components.
// Nested group paths keep every segment except the last in Owner.
func ParseRemoteURL(remote string) (RemoteURL, error) {
	trimmedRemote := strings.TrimSpace(remote)
	if len(trimmedRemote) == 0 {
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: requiredValueMessageConstant}
	}

	switch {
	case strings.HasPrefix(trimmedRemote, sshProtocolPrefixConstant):
		return parseHierarchicalRemote(remote, RemoteProtocolSSH, strings.TrimPrefix(trimmedRemote, sshProtocolPrefixConstant))
	case strings.HasPrefix(trimmedRemote, httpsProtocolPrefixConstant):
		return parseHierarchicalRemote(remote, RemoteProtocolHTTPS, strings.TrimPrefix(trimmedRemote, httpsProtocolPrefixConstant))
	case strings.HasPrefix(trimmedRemote, httpProtocolPrefixConstant):
		return parseHierarchicalRemote(remote, RemoteProtocolHTTPS, strings.TrimPrefix(trimmedRemote, httpProtocolPrefixConstant))
	case strings.HasPrefix(trimmedRemote, keybaseProtocolPrefixConstant):
		return parseKeybaseRemote(remote, strings.TrimPrefix(trimmedRemote, keybaseProtocolPrefixConstant))
	case strings.Contains(trimmedRemote, userInfoDelimiterConstant) && strings.Contains(trimmedRemote, sshPathDelimiterConstant):
		return parseSCPRemote(remote, trimmedRemote)
	}

	return RemoteURL{}, RemoteURLParseError{Input: remote, Message: invalidRemoteURLMessageConstant}
}

func parseHierarchicalRemote(input string, protocol RemoteProtocol, remainder string) (RemoteURL, error) {
	if userInfoIndex := strings.LastIndex(strings.SplitN(remainder, pathSeparatorConstant, 2)[0], userInfoDelimiterConstant); userInfoIndex >= 0 {
		remainder = remainder[userInfoIndex+1:]
	}
	slashIndex := strings.Index(remainder, pathSeparatorConstant)
	if slashIndex <= 0 {
		return RemoteURL{}, RemoteURLParseError{Input: input, Message: invalidRemoteURLMessageConstant}
	}
	host := remainder[:slashIndex]
	if portIndex := strings.Index(host, sshPathDelimiterConstant); portIndex >= 0 {
		host = host[:portIndex]
	}
	return buildRemoteURL(input, protocol, host, remainder[slashIndex+1:])
}

func parseSCPRemote(input string, remote string) (RemoteURL, error) {
	hostAndPath := remote[strings.Index(remote, userInfoDelimiterConstant)+1:]
	pathIndex := strings.Index(hostAndPath, sshPathDelimiterConstant)
	if pathIndex <= 0 {
		return RemoteURL{}, RemoteURLParseError{Input: input, Message: invalidRemoteURLMessageConstant}
	}
	return buildRemoteURL(input, RemoteProtocolSSH, hostAndPath[:pathIndex], hostAndPath[pathIndex+1:])
}

func parseKeybaseRemote(input string, remainder string) (RemoteURL, error) {
	segments := strings.Split(strings.Trim(remainder, pathSeparatorConstant), pathSeparatorConstant)
	if len(segments) < 3 {
		return RemoteURL{}, RemoteURLParseError{Input: input, Message: invalidRemoteURLMessageConstant}
	}
	return buildRemoteURL(input, RemoteProtocolKeybase, string(RemoteProtocolKeybase), strings.Join(segments[1:], pathSeparatorConstant))
}

func buildRemoteURL(input string, protocol RemoteProtocol, host string, path string) (RemoteURL, error) {
	segments := strings.Split(strings.Trim(path, pathSeparatorConstant), pathSeparatorConstant)
	if len(segments) < 2 || len(strings.TrimSpace(host)) == 0 {
		return RemoteURL{}, RemoteURLParseError{Input: input, Message: invalidRemoteURLMessageConstant}
	}
	repository := strings.TrimSuffix(segments[len(segments)-1], gitSuffixConstant)
	owner := strings.Join(segments[:len(segments)-1], pathSeparatorConstant)
	if len(repository) == 0 || len(owner) == 0 {
		return RemoteURL{}, RemoteURLParseError{Input: input, Message: invalidRemoteURLMessageConstant}
	}
	return RemoteURL{Protocol: protocol, Host: strings.ToLower(host), Owner: owner, Repository: repository}, nil
}
