// Copyright (c) 2026 Baseliner Team
// Baseliner - network device hardening audit
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import "fmt"

// Transport operations reported in TransportError.Op.
const (
	OpFetch = "fetch"
	OpApply = "apply"
)

// TransportError is a session failure while fetching the running configuration
// or applying commands: lost connection, rejected authentication, or a
// command refused by the device.
type TransportError struct {
	Op   string // OpFetch or OpApply.
	Host string
	Sent int // Commands of the failing batch confirmed sent before the failure.
	Err  error
}

func (e *TransportError) Error() string {
	if e.Host == "" {
		return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("transport %s on %s: %v", e.Op, e.Host, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
