// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldCommandID  = "command_id"
	FieldSessionID  = "session_id"
	FieldServiceRef = "service_ref"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Command / transition fields
	FieldSource   = "source"
	FieldStrategy = "strategy"
	FieldLock     = "lock"
	FieldReason   = "reason"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// Path / URL fields
	FieldPath    = "path"
	FieldBaseURL = "base_url"
)
