package migration_test

import (
	"context"
	"errors"
	"time"

	"github.com/juju/clock"

	"github.com/temirov/multipush/internal/shared"
)

type fakeRemoteManager struct {
	remotes        map[string]map[string]shared.RemoteURLs
	gitDirectories map[string]string
	mutations      []string
	readFailures   map[string]error
	addFailures    map[string]error
	probeFailures  map[string]error
	probedURLs     []string
}

func newFakeRemoteManager() *fakeRemoteManager {
	return &fakeRemoteManager{
		remotes:        map[string]map[string]shared.RemoteURLs{},
		gitDirectories: map[string]string{},
		readFailures:   map[string]error{},
		addFailures:    map[string]error{},
		probeFailures:  map[string]error{},
	}
}

func (manager *fakeRemoteManager) setRemote(repositoryPath string, remoteName string, remote shared.RemoteURLs) {
	if manager.remotes[repositoryPath] == nil {
		manager.remotes[repositoryPath] = map[string]shared.RemoteURLs{}
	}
	manager.remotes[repositoryPath][remoteName] = remote
}

func (manager *fakeRemoteManager) ReadRemote(_ context.Context, repositoryPath string, remoteName string) (shared.RemoteURLs, bool, error) {
	if readError, failing := manager.readFailures[repositoryPath]; failing {
		return shared.RemoteURLs{}, false, readError
	}
	remote, exists := manager.remotes[repositoryPath][remoteName]
	return remote, exists, nil
}

func (manager *fakeRemoteManager) RemoveRemote(_ context.Context, repositoryPath string, remoteName string) error {
	manager.mutations = append(manager.mutations, "remove "+repositoryPath+" "+remoteName)
	delete(manager.remotes[repositoryPath], remoteName)
	return nil
}

func (manager *fakeRemoteManager) AddRemote(_ context.Context, repositoryPath string, remoteName string, fetchURL string) error {
	manager.mutations = append(manager.mutations, "add "+repositoryPath+" "+remoteName+" "+fetchURL)
	if addError, failing := manager.addFailures[repositoryPath]; failing {
		return addError
	}
	manager.setRemote(repositoryPath, remoteName, shared.RemoteURLs{FetchURLs: []string{fetchURL}})
	return nil
}

func (manager *fakeRemoteManager) AddPushURL(_ context.Context, repositoryPath string, remoteName string, pushURL string) error {
	manager.mutations = append(manager.mutations, "push "+repositoryPath+" "+remoteName+" "+pushURL)
	remote := manager.remotes[repositoryPath][remoteName]
	remote.PushURLs = append(remote.PushURLs, pushURL)
	manager.remotes[repositoryPath][remoteName] = remote
	return nil
}

func (manager *fakeRemoteManager) GitDirectory(_ context.Context, repositoryPath string) (string, error) {
	gitDirectory, known := manager.gitDirectories[repositoryPath]
	if !known {
		return "", errors.New("not a git repository")
	}
	return gitDirectory, nil
}

func (manager *fakeRemoteManager) ProbeRemote(_ context.Context, _ string, remoteURL string, _ time.Duration) error {
	manager.probedURLs = append(manager.probedURLs, remoteURL)
	return manager.probeFailures[remoteURL]
}

// corruptingRemoteManager loses the last push URL so verification fails.
type corruptingRemoteManager struct {
	*fakeRemoteManager
	pushCalls int
	expected  int
}

func (manager *corruptingRemoteManager) AddPushURL(executionContext context.Context, repositoryPath string, remoteName string, pushURL string) error {
	manager.pushCalls++
	if manager.pushCalls == manager.expected {
		manager.mutations = append(manager.mutations, "push "+repositoryPath+" "+remoteName+" "+pushURL)
		return nil
	}
	return manager.fakeRemoteManager.AddPushURL(executionContext, repositoryPath, remoteName, pushURL)
}

type recordingClock struct {
	clock.Clock
	now    time.Time
	delays []time.Duration
}

func (recording *recordingClock) Now() time.Time {
	return recording.now
}

func (recording *recordingClock) After(delay time.Duration) <-chan time.Time {
	recording.delays = append(recording.delays, delay)
	channel := make(chan time.Time, 1)
	channel <- recording.now.Add(delay)
	return channel
}
