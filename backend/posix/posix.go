// Package posix implements the local-filesystem backend: objects are files
// under the context base path, user metadata lives in user.droplet.* xattrs,
// system metadata comes from stat. No HTTP, no signing, no connection pool:
// the vtable contract exercised against a completely different strategy.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package posix

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/NVIDIA/droplet/cmn"
	"github.com/NVIDIA/droplet/cmn/dict"
	"github.com/NVIDIA/droplet/core"
)

const Name = "posix"

type backend struct {
	core.Unsupported
}

// interface guard
var _ core.Backend = (*backend)(nil)

func init() {
	core.Register(&backend{})
}

func (*backend) Name() string { return Name }

func (*backend) Capabilities(*core.Ctx) (cmn.Capability, error) {
	return cmn.CapFnames | cmn.CapBuckets | cmn.CapRaw | cmn.CapCopy | cmn.CapPutRange, nil
}

// pathOf maps (bucket, resource) onto the filesystem under the base path;
// the bucket is a first-level directory when given.
func pathOf(c *core.Ctx, bucket, resource string) string {
	root := c.Profile().BasePath
	parts := make([]string, 0, 3)
	parts = append(parts, root)
	if bucket != "" {
		parts = append(parts, bucket)
	}
	if resource != "" && resource != "/" {
		parts = append(parts, strings.TrimPrefix(resource, "/"))
	}
	return filepath.Join(parts...)
}

// checkRange rejects inverted ranges outright instead of reproducing the
// negative-length arithmetic of older clients.
func checkRange(rng *cmn.Range) (offset, length int64, err error) {
	if rng == nil {
		return 0, -1, nil
	}
	if rng.Start == cmn.OffsetUndef || rng.End == cmn.OffsetUndef ||
		rng.End < rng.Start || rng.Start < 0 {
		return 0, 0, cmn.Err(cmn.EInval)
	}
	return rng.Start, rng.End - rng.Start + 1, nil
}

func (b *backend) MakeBucket(ctx context.Context, c *core.Ctx, bucket string,
	opt *cmn.Option, sysmd *cmn.SysMD) error {
	if err := os.MkdirAll(pathOf(c, bucket, ""), 0o755); err != nil {
		return cmn.ErrFromSyscall(err, "mkdir")
	}
	return nil
}

func (b *backend) DeleteBucket(ctx context.Context, c *core.Ctx, bucket string, opt *cmn.Option) error {
	if err := os.Remove(pathOf(c, bucket, "")); err != nil {
		return cmn.ErrFromSyscall(err, "rmdir")
	}
	return nil
}

func (b *backend) ListBucket(ctx context.Context, c *core.Ctx, bucket, prefix, delimiter string,
	maxKeys int, opt *cmn.Option) ([]*cmn.ObjectInfo, []string, error) {
	dir := pathOf(c, bucket, prefix)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, cmn.ErrFromSyscall(err, "readdir")
	}
	var (
		objects  []*cmn.ObjectInfo
		prefixes []string
	)
	base := strings.TrimPrefix(prefix, "/")
	if base != "" && !strings.HasSuffix(base, "/") {
		base += "/"
	}
	for _, entry := range entries {
		if maxKeys >= 0 && len(objects)+len(prefixes) >= maxKeys {
			break
		}
		name := entry.Name()
		if entry.IsDir() {
			prefixes = append(prefixes, base+name+"/")
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		objects = append(objects, &cmn.ObjectInfo{
			Path:         base + name,
			Type:         ftypeOfMode(info.Mode()),
			LastModified: info.ModTime(),
			Size:         info.Size(),
		})
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Path < objects[j].Path })
	sort.Strings(prefixes)
	return objects, prefixes, nil
}

func (b *backend) ListBucketAttrs(ctx context.Context, c *core.Ctx, bucket, prefix, delimiter string,
	maxKeys int, opt *cmn.Option) (*dict.Dict, *cmn.SysMD, []*cmn.ObjectInfo, []string, error) {
	md, sysmd, _, err := b.Head(ctx, c, bucket, "/", "", opt, cmn.FTypeDir, nil)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	objects, prefixes, err := b.ListBucket(ctx, c, bucket, prefix, delimiter, maxKeys, opt)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return md, sysmd, objects, prefixes, nil
}

func (b *backend) Put(ctx context.Context, c *core.Ctx, bucket, resource, subresource string,
	opt *cmn.Option, objectType cmn.FType, cond *cmn.Condition, rng *cmn.Range,
	md *dict.Dict, sysmd *cmn.SysMD, data []byte) (string, error) {
	path := pathOf(c, bucket, resource)

	switch objectType {
	case cmn.FTypeDir:
		if err := os.Mkdir(path, 0o755); err != nil {
			return "", cmn.ErrFromSyscall(err, "mkdir")
		}
		if err := setXattrs(path, md); err != nil {
			return "", err
		}
		return "", nil
	case cmn.FTypeReg, cmn.FTypeUndef:
	default:
		return "", cmn.Err(cmn.ENotSupp)
	}

	offset, _, err := checkRange(rng)
	if err != nil {
		return "", err
	}
	flags := os.O_WRONLY | os.O_CREATE
	if rng == nil {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return "", cmn.ErrFromSyscall(err, "open")
	}
	defer f.Close()
	if _, err := f.WriteAt(data, offset); err != nil {
		return "", cmn.ErrFromSyscall(err, "pwrite")
	}
	if err := setXattrs(path, md); err != nil {
		return "", err
	}
	return "", nil
}

func (b *backend) Get(ctx context.Context, c *core.Ctx, bucket, resource, subresource string,
	opt *cmn.Option, objectType cmn.FType, cond *cmn.Condition, rng *cmn.Range) (
	[]byte, *dict.Dict, *cmn.SysMD, string, error) {
	path := pathOf(c, bucket, resource)

	offset, length, err := checkRange(rng)
	if err != nil {
		return nil, nil, nil, "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, "", cmn.ErrFromSyscall(err, "open")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, nil, nil, "", cmn.ErrFromSyscall(err, "stat")
	}
	if info.IsDir() {
		return nil, nil, nil, "", cmn.Err(cmn.EIsDir)
	}
	if length < 0 {
		length = info.Size() - offset
	}
	if offset > info.Size() {
		return nil, nil, nil, "", cmn.Err(cmn.ERangeUnavail)
	}
	if offset+length > info.Size() {
		length = info.Size() - offset
	}
	data := make([]byte, length)
	if length > 0 {
		if _, err := f.ReadAt(data, offset); err != nil {
			return nil, nil, nil, "", cmn.ErrFromSyscall(err, "pread")
		}
	}
	md, err := getXattrs(path)
	if err != nil {
		return nil, nil, nil, "", err
	}
	sysmd := sysmdOfInfo(info)
	return data, md, sysmd, "", nil
}

func (b *backend) Head(ctx context.Context, c *core.Ctx, bucket, resource, subresource string,
	opt *cmn.Option, objectType cmn.FType, cond *cmn.Condition) (
	*dict.Dict, *cmn.SysMD, string, error) {
	path := pathOf(c, bucket, resource)
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, "", cmn.ErrFromSyscall(err, "stat")
	}
	md, err := getXattrs(path)
	if err != nil {
		return nil, nil, "", err
	}
	return md, sysmdOfInfo(info), "", nil
}

func (b *backend) HeadRaw(ctx context.Context, c *core.Ctx, bucket, resource, subresource string,
	opt *cmn.Option, objectType cmn.FType) (*dict.Dict, string, error) {
	path := pathOf(c, bucket, resource)
	info, err := os.Stat(path)
	if err != nil {
		return nil, "", cmn.ErrFromSyscall(err, "stat")
	}
	md, err := getXattrs(path)
	if err != nil {
		return nil, "", err
	}
	all := dict.New(13)
	all.AddValue("xattr", dict.DictValue(md), false)
	sys := dict.New(13)
	sysmd := sysmdOfInfo(info)
	sys.Add("size", itoa64(sysmd.Size), false)
	sys.Add("mtime", cmn.FormatHTTPDate(sysmd.MTime), false)
	sys.Add("ftype", sysmd.FType.String(), false)
	all.AddValue("stat", dict.DictValue(sys), false)
	return all, "", nil
}

func (b *backend) Delete(ctx context.Context, c *core.Ctx, bucket, resource, subresource string,
	opt *cmn.Option, objectType cmn.FType, cond *cmn.Condition) (string, error) {
	path := pathOf(c, bucket, resource)
	if err := os.Remove(path); err != nil {
		return "", cmn.ErrFromSyscall(err, "unlink")
	}
	return "", nil
}

func (b *backend) DeleteAll(ctx context.Context, c *core.Ctx, bucket string, resources []string,
	opt *cmn.Option) ([]cmn.DeleteResult, error) {
	results := make([]cmn.DeleteResult, len(resources))
	for i, res := range resources {
		_, err := b.Delete(ctx, c, bucket, res, "", opt, cmn.FTypeUndef, nil)
		results[i] = cmn.DeleteResult{Name: res, Status: cmn.StatusOf(err)}
		if err != nil {
			results[i].Error = err.Error()
		}
	}
	return results, nil
}

func (b *backend) Copy(ctx context.Context, c *core.Ctx, srcBucket, srcResource, srcSubresource,
	dstBucket, dstResource, dstSubresource string, opt *cmn.Option, objectType cmn.FType,
	directive cmn.CopyDirective, md *dict.Dict, sysmd *cmn.SysMD,
	cond, copyCond *cmn.Condition) (string, error) {
	src := pathOf(c, srcBucket, srcResource)
	dst := pathOf(c, dstBucket, dstResource)

	switch directive {
	case cmn.CopyDirectiveUndef, cmn.CopyDirectiveCopy, cmn.CopyDirectiveMetadataReplace:
		data, err := os.ReadFile(src)
		if err != nil {
			return "", cmn.ErrFromSyscall(err, "read")
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return "", cmn.ErrFromSyscall(err, "write")
		}
		newMD := md
		if directive != cmn.CopyDirectiveMetadataReplace {
			srcMD, err := getXattrs(src)
			if err != nil {
				return "", err
			}
			if md != nil && md.Count() > 0 {
				_ = md.Iterate(func(e *dict.Entry) error {
					srcMD.AddValue(e.Key, e.Val.Copy(), false)
					return nil
				})
			}
			newMD = srcMD
		}
		return "", setXattrs(dst, newMD)

	case cmn.CopyDirectiveMove:
		if err := os.Rename(src, dst); err != nil {
			return "", cmn.ErrFromSyscall(err, "rename")
		}
		return "", nil

	case cmn.CopyDirectiveLink:
		if err := os.Link(src, dst); err != nil {
			return "", cmn.ErrFromSyscall(err, "link")
		}
		return "", nil

	case cmn.CopyDirectiveSymlink:
		if err := os.Symlink(src, dst); err != nil {
			return "", cmn.ErrFromSyscall(err, "symlink")
		}
		return "", nil

	default:
		// MKDENT/RMDENT/MVDENT are directory-entry semantics of another
		// protocol
		return "", cmn.Err(cmn.ENotSupp)
	}
}

func ftypeOfMode(mode os.FileMode) cmn.FType {
	switch {
	case mode.IsRegular():
		return cmn.FTypeReg
	case mode.IsDir():
		return cmn.FTypeDir
	case mode&os.ModeSymlink != 0:
		return cmn.FTypeSymlink
	case mode&os.ModeNamedPipe != 0:
		return cmn.FTypeFifo
	case mode&os.ModeSocket != 0:
		return cmn.FTypeSocket
	case mode&os.ModeCharDevice != 0:
		return cmn.FTypeChrdev
	case mode&os.ModeDevice != 0:
		return cmn.FTypeBlkdev
	}
	return cmn.FTypeUndef
}

func sysmdOfInfo(info os.FileInfo) *cmn.SysMD {
	sysmd := &cmn.SysMD{}
	sysmd.SetSize(info.Size())
	sysmd.SetMTime(info.ModTime())
	sysmd.SetFType(ftypeOfMode(info.Mode()))
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		sysmd.SetATime(timeOfTimespec(st.Atim))
		sysmd.SetCTime(timeOfTimespec(st.Ctim))
		sysmd.Owner = itoa64(int64(st.Uid))
		sysmd.Group = itoa64(int64(st.Gid))
		sysmd.Mask |= cmn.SysMDMaskOwner | cmn.SysMDMaskGroup
	}
	return sysmd
}

func itoa64(n int64) string {
	return strconv.FormatInt(n, 10)
}

func timeOfTimespec(ts syscall.Timespec) time.Time {
	return time.Unix(ts.Sec, ts.Nsec)
}
