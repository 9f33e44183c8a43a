// Package core holds the droplet context, the backend vtable contract, and
// the shared request-exchange plumbing that every HTTP backend drives.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package core

import (
	"crypto/tls"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/NVIDIA/droplet/cmn"
	"github.com/NVIDIA/droplet/req"
	"github.com/NVIDIA/droplet/stats"
	"github.com/NVIDIA/droplet/transport/addrlist"
	"github.com/NVIDIA/droplet/transport/connpool"
)

// Ctx is the droplet context: one storage profile, one backend, one endpoint
// list, one connection pool. Multiple goroutines may share a context; no
// call is inherently serialized.
type Ctx struct {
	prof    *Profile
	backend Backend

	addrs *addrlist.List
	pool  *connpool.Pool
	rec   *stats.Recorder

	trace cmn.TraceFlag

	// mutable per-context backend state (login tokens and the like)
	mu          sync.Mutex
	backendData interface{}
}

// NewCtx builds a context from a loaded profile.
func NewCtx(prof *Profile) (*Ctx, error) {
	backend, err := Lookup(prof.Backend)
	if err != nil {
		return nil, err
	}
	addrs := addrlist.New(prof.Port)
	if prof.Host != "" {
		if err := addrs.AddFromStr(prof.Host); err != nil {
			return nil, err
		}
	}
	var tcfg *tls.Config
	if prof.UseHTTPS && !prof.SSLVerifyPeer {
		tcfg = &tls.Config{InsecureSkipVerify: true}
	}
	pool := connpool.New(connpool.Config{
		NBuckets:       prof.NConnBuckets,
		MaxConns:       prof.MaxConns,
		MaxHits:        prof.MaxHits,
		IdleTime:       time.Duration(prof.ConnIdleSec) * time.Second,
		ConnectTimeout: time.Duration(prof.ConnTimeoutSec) * time.Second,
		ReadTimeout:    time.Duration(prof.ReadTimeoutSec) * time.Second,
		WriteTimeout:   time.Duration(prof.WriteTimeoutSec) * time.Second,
		ReadBufSize:    prof.ReadBufSize,
		UseTLS:         prof.UseHTTPS,
		TLSConfig:      tcfg,
	})
	rec, err := stats.NewRecorder(prof.EventLogPath)
	if err != nil {
		return nil, cmn.ErrFromSyscall(err, "event log")
	}
	return &Ctx{
		prof:    prof,
		backend: backend,
		addrs:   addrs,
		pool:    pool,
		rec:     rec,
		trace:   cmn.TraceFlag(prof.TraceLevel),
	}, nil
}

// New loads a profile and builds a context.
func New(dir, profileName string) (*Ctx, error) {
	prof, err := LoadProfile(dir, profileName)
	if err != nil {
		return nil, err
	}
	return NewCtx(prof)
}

// Close releases the context resources.
func (c *Ctx) Close() error {
	return c.rec.Close()
}

// Profile returns the context's profile.
func (c *Ctx) Profile() *Profile { return c.prof }

// Backend returns the active backend.
func (c *Ctx) Backend() Backend { return c.backend }

// AddrList returns the endpoint list.
func (c *Ctx) AddrList() *addrlist.List { return c.addrs }

// Pool returns the connection pool.
func (c *Ctx) Pool() *connpool.Pool { return c.pool }

// Events returns the event recorder.
func (c *Ctx) Events() *stats.Recorder { return c.rec }

// Event records one completed operation.
func (c *Ctx) Event(category, op string, bytes int64) {
	c.rec.Record(category, op, bytes)
}

// BackendData returns the per-context backend state slot.
func (c *Ctx) BackendData() interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backendData
}

// SetBackendData installs per-context backend state (login tokens etc).
func (c *Ctx) SetBackendData(v interface{}) {
	c.mu.Lock()
	c.backendData = v
	c.mu.Unlock()
}

// Trace logs a gated trace line for one subsystem.
func (c *Ctx) Trace(flag cmn.TraceFlag, format string, a ...interface{}) {
	if c.trace&flag == 0 {
		return
	}
	glog.InfoDepth(1, prefixOf(flag)+": "+fmt.Sprintf(format, a...))
}

func prefixOf(flag cmn.TraceFlag) string {
	switch flag {
	case cmn.TraceREQ:
		return "req"
	case cmn.TraceREST:
		return "rest"
	case cmn.TraceID:
		return "id"
	case cmn.TraceBackend:
		return "backend"
	case cmn.TraceIO:
		return "io"
	case cmn.TraceHTTP:
		return "http"
	case cmn.TraceConn:
		return "conn"
	case cmn.TraceSSL:
		return "ssl"
	case cmn.TraceBuf:
		return "buf"
	}
	return "trace"
}

// MakeResource composes the effective resource path from the context's base
// path and the caller-supplied path.
func (c *Ctx) MakeResource(resource string) string {
	base := c.prof.BasePath
	preserve := c.prof.PreserveRootPath
	switch {
	case resource == "" || resource == "/":
		if base == "/" {
			if preserve {
				return resource
			}
			return ""
		}
		if preserve {
			return base + resource
		}
		return base
	case base == "/":
		return resource
	default:
		return base + "/" + resource
	}
}

// LocationToResource splits an absolute redirect URI into a resource
// relative to the context's base path, and the query-string subresource.
func (c *Ctx) LocationToResource(location string) (resource, subresource string) {
	// strip scheme and authority
	if i := strings.Index(location, "://"); i >= 0 {
		rest := location[i+3:]
		if j := strings.IndexByte(rest, '/'); j >= 0 {
			location = rest[j:]
		} else {
			location = "/"
		}
	}
	resource = location
	if base := c.prof.BasePath; base != "/" && strings.HasPrefix(location, base) {
		resource = location[len(base):]
	}
	if i := strings.IndexByte(resource, '?'); i >= 0 {
		subresource = resource[i+1:]
		resource = resource[:i]
	}
	return resource, subresource
}

// NewRequest allocates the per-call request state with the context's
// credentials and behaviors applied.
func (c *Ctx) NewRequest(method cmn.Method, bucket, resource, subresource string) *req.Request {
	r := req.New(method)
	r.Bucket = bucket
	r.Resource = c.MakeResource(resource)
	r.Subresource = subresource
	r.AccessKey = c.prof.AccessKey
	r.SecretKey = c.prof.SecretKey
	r.TraceID = cmn.GenRequestID()
	if !c.prof.KeepAlive {
		r.RmBehavior(cmn.BehaviorKeepAlive)
	}
	if c.prof.EnableMD5 {
		r.AddBehavior(cmn.BehaviorMD5)
	}
	if c.prof.EnableExpect {
		r.AddBehavior(cmn.BehaviorExpect)
	}
	return r
}

// Connect draws an endpoint from the list and a connection from the pool; a
// connect failure blacklists the endpoint before surfacing.
func (c *Ctx) Connect() (*connpool.Conn, error) {
	addr, err := c.addrs.GetRand()
	if err != nil {
		return nil, err
	}
	conn, err := c.pool.Open(addr.Host, addr.IP, addr.Port)
	if err != nil {
		c.Blacklist(addr.Host, addr.PortStr)
		return nil, err
	}
	return conn, nil
}

// Blacklist marks an endpoint down for the profile's blacklist window.
func (c *Ctx) Blacklist(host, portStr string) {
	if err := c.addrs.Blacklist(host, portStr, int64(c.prof.BlacklistExpire)); err != nil {
		glog.Warningf("blacklist %s:%s: %v", host, portStr, err)
	}
}
