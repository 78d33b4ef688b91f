// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package wiki

import "errors"

// Sentinel errors returned by the wiki service. Handlers match them with
// errors.Is to pick response status codes. A merge landing in Conflict is
// NOT an error — it is reported through the MergeResult outcome.
var (
	// ErrNotFound — the referenced page, change, or work item does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation — malformed input (empty title, missing content,
	// cross-project links).
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTransition — the proposal state machine forbids the
	// attempted operation (merging a Merged proposal, resolving a Pending
	// one). The proposal is left unchanged.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrStaleBase — a direct content edit lost a race with a merge; the
	// caller should reload the page and retry.
	ErrStaleBase = errors.New("page content changed underneath the edit")

	// ErrForbidden — the actor may not touch this proposal (only its
	// creator can rewrite or withdraw a pending change).
	ErrForbidden = errors.New("forbidden")
)
