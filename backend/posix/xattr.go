// Package posix implements the local-filesystem backend: objects are files
// under the context base path, user metadata lives in user.droplet.* xattrs,
// system metadata comes from stat. No HTTP, no signing, no connection pool:
// the vtable contract exercised against a completely different strategy.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package posix

import (
	"strings"

	"golang.org/x/sys/unix"

	"github.com/NVIDIA/droplet/cmn"
	"github.com/NVIDIA/droplet/cmn/dict"
)

// xattrPrefix is the extended-attribute namespace carrying user metadata.
const xattrPrefix = "user.droplet."

// setXattrs stores every user-metadata binding as one xattr; existing
// droplet xattrs not in md are removed so the update replaces the set.
func setXattrs(path string, md *dict.Dict) error {
	existing, err := listXattrNames(path)
	if err != nil {
		return err
	}
	keep := make(map[string]bool, md.Count())
	if md != nil {
		err = md.Iterate(func(e *dict.Entry) error {
			name := xattrPrefix + e.Key
			keep[name] = true
			if err := unix.Setxattr(path, name, e.Val.Str, 0); err != nil {
				return cmn.ErrFromSyscall(err, "setxattr")
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	for _, name := range existing {
		if !keep[name] {
			if err := unix.Removexattr(path, name); err != nil && err != unix.ENODATA {
				return cmn.ErrFromSyscall(err, "removexattr")
			}
		}
	}
	return nil
}

// getXattrs returns the user-metadata dictionary stored on path.
func getXattrs(path string) (*dict.Dict, error) {
	md := dict.New(13)
	names, err := listXattrNames(path)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		size, err := unix.Getxattr(path, name, nil)
		if err != nil {
			return nil, cmn.ErrFromSyscall(err, "getxattr")
		}
		value := make([]byte, size)
		if size > 0 {
			if _, err := unix.Getxattr(path, name, value); err != nil {
				return nil, cmn.ErrFromSyscall(err, "getxattr")
			}
		}
		md.AddValue(strings.TrimPrefix(name, xattrPrefix), dict.BytesValue(value), false)
	}
	return md, nil
}

func listXattrNames(path string) ([]string, error) {
	size, err := unix.Listxattr(path, nil)
	if err != nil {
		if err == unix.ENOTSUP || err == unix.EOPNOTSUPP {
			return nil, nil
		}
		return nil, cmn.ErrFromSyscall(err, "listxattr")
	}
	if size == 0 {
		return nil, nil
	}
	buf := make([]byte, size)
	if _, err := unix.Listxattr(path, buf); err != nil {
		return nil, cmn.ErrFromSyscall(err, "listxattr")
	}
	var names []string
	for _, name := range strings.Split(string(buf), "\x00") {
		if strings.HasPrefix(name, xattrPrefix) {
			names = append(names, name)
		}
	}
	return names, nil
}
