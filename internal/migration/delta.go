package migration

import (
	"github.com/temirov/multipush/internal/remotes"
	"github.com/temirov/multipush/internal/shared"
)

// RemoteDelta describes how a remote differs from its plan.
type RemoteDelta struct {
	CreatesRemote   bool     `json:"creates_remote,omitempty"`
	FetchFrom       []string `json:"fetch_from,omitempty"`
	FetchTo         string   `json:"fetch_to,omitempty"`
	FetchChanged    bool     `json:"fetch_changed,omitempty"`
	AddedPushURLs   []string `json:"added_push_urls,omitempty"`
	RemovedPushURLs []string `json:"removed_push_urls,omitempty"`
	Reordered       bool     `json:"reordered,omitempty"`
}

// Empty reports whether the remote already matches the plan.
func (delta RemoteDelta) Empty() bool {
	return !delta.CreatesRemote && !delta.FetchChanged && len(delta.AddedPushURLs) == 0 && len(delta.RemovedPushURLs) == 0 && !delta.Reordered
}

// Redacted returns a copy with credentials masked.
func (delta RemoteDelta) Redacted() RemoteDelta {
	redacted := delta
	redacted.FetchFrom = redactURLs(delta.FetchFrom)
	redacted.FetchTo = shared.RedactURL(delta.FetchTo)
	redacted.AddedPushURLs = redactURLs(delta.AddedPushURLs)
	redacted.RemovedPushURLs = redactURLs(delta.RemovedPushURLs)
	return redacted
}

func redactURLs(urls []string) []string {
	if len(urls) == 0 {
		return nil
	}
	return shared.RedactArguments(urls)
}

// ComputeDelta compares the explicit remote configuration against the plan.
// The plan requires exactly one fetch URL and the push URLs in plan order.
func ComputeDelta(current shared.RemoteURLs, exists bool, plan remotes.RemotePlan) RemoteDelta {
	delta := RemoteDelta{CreatesRemote: !exists, FetchTo: plan.FetchURL}
	if !exists {
		delta.FetchChanged = true
		delta.AddedPushURLs = append([]string{}, plan.PushURLs...)
		return delta
	}

	delta.FetchFrom = append([]string{}, current.FetchURLs...)
	delta.FetchChanged = len(current.FetchURLs) != 1 || current.FetchURLs[0] != plan.FetchURL

	currentPushURLs := make(map[string]struct{}, len(current.PushURLs))
	for _, pushURL := range current.PushURLs {
		currentPushURLs[pushURL] = struct{}{}
	}
	plannedPushURLs := make(map[string]struct{}, len(plan.PushURLs))
	for _, pushURL := range plan.PushURLs {
		plannedPushURLs[pushURL] = struct{}{}
		if _, present := currentPushURLs[pushURL]; !present {
			delta.AddedPushURLs = append(delta.AddedPushURLs, pushURL)
		}
	}
	for _, pushURL := range current.PushURLs {
		if _, planned := plannedPushURLs[pushURL]; !planned {
			delta.RemovedPushURLs = append(delta.RemovedPushURLs, pushURL)
		}
	}

	if len(delta.AddedPushURLs) == 0 && len(delta.RemovedPushURLs) == 0 {
		delta.Reordered = !equalStrings(current.PushURLs, plan.PushURLs)
	}
	return delta
}

func matchesPlan(current shared.RemoteURLs, plan remotes.RemotePlan) bool {
	return len(current.FetchURLs) == 1 && current.FetchURLs[0] == plan.FetchURL && equalStrings(current.PushURLs, plan.PushURLs)
}

func equalStrings(first []string, second []string) bool {
	if len(first) != len(second) {
		return false
	}
	for index := range first {
		if first[index] != second[index] {
			return false
		}
	}
	return true
}
