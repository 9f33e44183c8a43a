// Package cmn provides common low-level types and utilities shared by the
// droplet dispatch layer, transports, and backends.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package cmn_test

import (
	"syscall"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/droplet/cmn"
)

func TestStatusOf(t *testing.T) {
	assert.Equal(t, cmn.Success, cmn.StatusOf(nil))
	assert.Equal(t, cmn.ENoEnt, cmn.StatusOf(cmn.Err(cmn.ENoEnt)))
	assert.Equal(t, cmn.ETimeout, cmn.StatusOf(cmn.Errf(cmn.ETimeout, "read")))
	assert.Equal(t, cmn.Failure, cmn.StatusOf(errors.New("anything")))

	// status survives wrapping
	wrapped := errors.Wrap(cmn.Err(cmn.EPrecond), "outer")
	assert.Equal(t, cmn.EPrecond, cmn.StatusOf(wrapped))
}

func TestErrIs(t *testing.T) {
	err := cmn.Errf(cmn.EConflict, "busy")
	assert.True(t, errors.Is(err, cmn.Err(cmn.EConflict)))
	assert.False(t, errors.Is(err, cmn.Err(cmn.ENoEnt)))
}

func TestErrFromSyscall(t *testing.T) {
	tests := []struct {
		errno    syscall.Errno
		expected cmn.Status
	}{
		{syscall.ENOENT, cmn.ENoEnt},
		{syscall.EINVAL, cmn.EInval},
		{syscall.ENOTDIR, cmn.ENotDir},
		{syscall.ENOTEMPTY, cmn.ENotEmpty},
		{syscall.EISDIR, cmn.EIsDir},
		{syscall.EEXIST, cmn.EExist},
		{syscall.EACCES, cmn.EPerm},
		{syscall.EBADF, cmn.Failure}, // unmapped errno collapses to Failure
	}
	for _, test := range tests {
		got := cmn.StatusOf(cmn.ErrFromSyscall(test.errno, "op"))
		assert.Equal(t, test.expected, got, "errno %v", test.errno)
	}
	assert.Nil(t, cmn.ErrFromSyscall(nil, "op"))
}

func TestRedirectLocation(t *testing.T) {
	err := cmn.ErrRedirect("https://h2/b/o?x=y")
	assert.Equal(t, cmn.ERedirect, cmn.StatusOf(err))
	assert.Equal(t, "https://h2/b/o?x=y", cmn.RedirectLocation(err))
	assert.Equal(t, "", cmn.RedirectLocation(cmn.Err(cmn.ENoEnt)))
}

func TestConditionOverflow(t *testing.T) {
	var cond cmn.Condition
	for i := 0; i < cmn.MaxConds; i++ {
		require.NoError(t, cond.Add(cmn.Cond{Type: cmn.CondIfMatch, ETag: "e"}))
	}
	err := cond.Add(cmn.Cond{Type: cmn.CondIfMatch, ETag: "overflow"})
	assert.Equal(t, cmn.ENameTooLong, cmn.StatusOf(err))
	assert.Len(t, cond.Conds, cmn.MaxConds)
}

func TestSysMDEtagUnquote(t *testing.T) {
	var md cmn.SysMD
	md.SetETag(`"abcdef"`)
	assert.Equal(t, "abcdef", md.ETag)
	assert.True(t, md.Has(cmn.SysMDMaskETag))

	md.SetETag("plain")
	assert.Equal(t, "plain", md.ETag)
}

func TestHTTPDate(t *testing.T) {
	when := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Sat, 01 Jan 2022 00:00:00 GMT", cmn.FormatHTTPDate(when))

	parsed, err := cmn.ParseHTTPDate("Sat, 01 Jan 2022 00:00:00 GMT")
	require.NoError(t, err)
	assert.True(t, parsed.Equal(when))

	epoch, err := cmn.ParseHTTPDate("1640995200")
	require.NoError(t, err)
	assert.True(t, epoch.Equal(when))
}
