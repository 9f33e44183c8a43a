// Package cmn provides common low-level types and utilities shared by the
// droplet dispatch layer, transports, and backends.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package cmn

import (
	"fmt"
	"os"
	"syscall"

	"github.com/pkg/errors"
)

// Status is the canonical outcome of every droplet operation. Backends and
// transports never surface raw errno or HTTP codes to callers; everything is
// funneled through this taxonomy.
type Status int

const (
	Success Status = iota
	Failure
	ENoEnt
	EInval
	ETimeout
	ENoMem
	ESys
	EIO
	ELimit
	ENameTooLong
	ENotDir
	ENotEmpty
	EIsDir
	EExist
	ENotSupp
	EPerm
	EConflict
	EPrecond
	ERedirect
	ERangeUnavail
)

var statusNames = map[Status]string{
	Success:       "success",
	Failure:       "failure",
	ENoEnt:        "no such entity",
	EInval:        "invalid argument",
	ETimeout:      "operation timed out",
	ENoMem:        "out of memory",
	ESys:          "system error",
	EIO:           "I/O error",
	ELimit:        "limit reached",
	ENameTooLong:  "name too long",
	ENotDir:       "not a directory",
	ENotEmpty:     "directory not empty",
	EIsDir:        "is a directory",
	EExist:        "already exists",
	ENotSupp:      "not supported",
	EPerm:         "permission denied",
	EConflict:     "conflict",
	EPrecond:      "precondition failed",
	ERedirect:     "redirect",
	ERangeUnavail: "requested range unavailable",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

type (
	// Error carries a canonical Status together with optional detail and an
	// optional wrapped cause. Error values with the same Status compare equal
	// under errors.Is, so callers match on e.g. cmn.Err(cmn.ENoEnt).
	Error struct {
		Status   Status
		Msg      string
		Location string // redirect target, set only with ERedirect
		Cause    error
	}
)

// interface guard
var _ error = (*Error)(nil)

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Cause != nil:
		return fmt.Sprintf("%s: %s: %v", e.Status, e.Msg, e.Cause)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Status, e.Msg)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", e.Status, e.Cause)
	default:
		return e.Status.String()
	}
}

func (e *Error) Unwrap() error { return e.Cause }

func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	return ok && te.Status == e.Status
}

// Err returns a bare status error.
func Err(s Status) *Error { return &Error{Status: s} }

// Errf formats detail into a status error.
func Errf(s Status, format string, a ...interface{}) *Error {
	return &Error{Status: s, Msg: fmt.Sprintf(format, a...)}
}

// ErrWrap attaches a cause to a status error.
func ErrWrap(s Status, cause error, msg string) *Error {
	return &Error{Status: s, Msg: msg, Cause: cause}
}

// ErrRedirect carries the Location header of a 301/302 reply up to dispatch.
func ErrRedirect(location string) *Error {
	return &Error{Status: ERedirect, Location: location}
}

// StatusOf extracts the canonical status from any error produced by this
// module; unknown errors collapse to Failure, nil to Success.
func StatusOf(err error) Status {
	if err == nil {
		return Success
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	if os.IsTimeout(err) {
		return ETimeout
	}
	return Failure
}

// RedirectLocation returns the Location carried by an ERedirect error.
func RedirectLocation(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Status == ERedirect {
		return e.Location
	}
	return ""
}

// syscall failures are mapped through a small table and otherwise collapse
// to Failure.
var errnoMap = map[syscall.Errno]Status{
	syscall.ENOENT:       ENoEnt,
	syscall.EINVAL:       EInval,
	syscall.ETIMEDOUT:    ETimeout,
	syscall.ENOMEM:       ENoMem,
	syscall.EIO:          EIO,
	syscall.ENAMETOOLONG: ENameTooLong,
	syscall.ENOTDIR:      ENotDir,
	syscall.ENOTEMPTY:    ENotEmpty,
	syscall.EISDIR:       EIsDir,
	syscall.EEXIST:       EExist,
	syscall.EPERM:        EPerm,
	syscall.EACCES:       EPerm,
	syscall.ENOTSUP:      ENotSupp,
}

// ErrFromSyscall maps an OS-level error to the canonical taxonomy.
func ErrFromSyscall(err error, msg string) *Error {
	if err == nil {
		return nil
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		if s, ok := errnoMap[errno]; ok {
			return ErrWrap(s, err, msg)
		}
		return ErrWrap(Failure, err, msg)
	}
	if os.IsNotExist(err) {
		return ErrWrap(ENoEnt, err, msg)
	}
	if os.IsPermission(err) {
		return ErrWrap(EPerm, err, msg)
	}
	if os.IsTimeout(err) {
		return ErrWrap(ETimeout, err, msg)
	}
	return ErrWrap(Failure, err, msg)
}
