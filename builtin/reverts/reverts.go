// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package reverts marks errors that reject a call because of its inputs or the
// current state, as opposed to failures of the storage underneath.
package reverts

import (
	"errors"
	"fmt"
)

type ErrRevert struct {
	message string
	cause   *ErrRevert
}

// New returns a sentinel revert error.
func New(message string) *ErrRevert {
	return &ErrRevert{message: message}
}

// Wrap annotates a revert sentinel while keeping it matchable with errors.Is.
func Wrap(sentinel *ErrRevert, format string, args ...any) *ErrRevert {
	return &ErrRevert{message: fmt.Sprintf(format, args...), cause: sentinel}
}

func (e *ErrRevert) Error() string {
	if e.cause != nil {
		return e.cause.Error() + ": " + e.message
	}
	return e.message
}

func (e *ErrRevert) Unwrap() error {
	if e.cause == nil {
		return nil
	}
	return e.cause
}

// IsRevertErr reports whether err, or anything it wraps, is a revert.
func IsRevertErr(err error) bool {
	var ve *ErrRevert
	return errors.As(err, &ve) && ve != nil
}
