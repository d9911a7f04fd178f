// SPDX-License-Identifier: Apache-2.0

package qosmgmt

import (
	"errors"
	"fmt"

	"github.com/opennetsys/nefqos/qosmodels"
)

var (
	ErrNotFound            = errors.New("subscription not found")
	ErrUnknownQosReference = errors.New("unknown qosReference")
	ErrImmutableField      = errors.New("immutable field cannot be changed")
)

// ValidationError carries field-level detail for ProblemDetails responses.
type ValidationError struct {
	Params []qosmodels.InvalidParam
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %d parameter(s)", len(e.Params))
}
