// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package identity

// Outcome labels an operation result for metrics.
type Outcome string

// Outcomes.
const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFailure  Outcome = "failure"
	OutcomeNotFound Outcome = "not_found"
	OutcomeError    Outcome = "error"
)

// Lookup operation names.
const (
	OpGetUser       = "get_user"
	OpGetUserByName = "get_user_by_name"
	OpListUsers     = "list_users"
)

// Recorder receives operational events from the backend. Failed
// authentications are reported without the stage that failed.
type Recorder interface {
	AuthAttempt(src Source, outcome Outcome)
	DirectoryBind(outcome Outcome)
	Lookup(op string, src Source, outcome Outcome)
}

// NopRecorder discards all events.
type NopRecorder struct{}

// AuthAttempt implements Recorder.
func (NopRecorder) AuthAttempt(Source, Outcome) {}

// DirectoryBind implements Recorder.
func (NopRecorder) DirectoryBind(Outcome) {}

// Lookup implements Recorder.
func (NopRecorder) Lookup(string, Source, Outcome) {}
