// Package core holds the droplet context, the backend vtable contract, and
// the shared request-exchange plumbing.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package core_test

import (
	"context"
	"net"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/droplet/cmn"
	"github.com/NVIDIA/droplet/cmn/dict"
	"github.com/NVIDIA/droplet/core"
)

type stubBackend struct {
	core.Unsupported
}

func (stubBackend) Name() string { return "stub" }

func init() {
	core.Register(stubBackend{})
}

func newCtx(t *testing.T, prof *core.Profile) *core.Ctx {
	prof.Backend = "stub"
	require.NoError(t, prof.Validate())
	c, err := core.NewCtx(prof)
	require.NoError(t, err)
	return c
}

func TestRegistry(t *testing.T) {
	b, err := core.Lookup("stub")
	require.NoError(t, err)
	assert.Equal(t, "stub", b.Name())

	_, err = core.Lookup("no-such-backend")
	assert.Equal(t, cmn.EInval, cmn.StatusOf(err))

	assert.Contains(t, core.Backends(), "stub")
}

func TestUnsupportedDeclinesEverything(t *testing.T) {
	c := newCtx(t, &core.Profile{})
	b := c.Backend()
	gctx := context.Background()

	_, err := b.ListAllMyBuckets(gctx, c, nil)
	assert.Equal(t, cmn.ENotSupp, cmn.StatusOf(err))
	_, err = b.Put(gctx, c, "b", "/r", "", nil, cmn.FTypeReg, nil, nil, nil, nil, nil)
	assert.Equal(t, cmn.ENotSupp, cmn.StatusOf(err))
	_, _, _, _, err = b.Get(gctx, c, "b", "/r", "", nil, cmn.FTypeReg, nil, nil)
	assert.Equal(t, cmn.ENotSupp, cmn.StatusOf(err))
	err = b.Login(gctx, c)
	assert.Equal(t, cmn.ENotSupp, cmn.StatusOf(err))
	_, err = b.GetIDScheme(c)
	assert.Equal(t, cmn.ENotSupp, cmn.StatusOf(err))
}

func TestMakeResource(t *testing.T) {
	tests := []struct {
		base     string
		preserve bool
		resource string
		expected string
	}{
		{"/", false, "", ""},
		{"/", false, "/", ""},
		{"/", true, "/", "/"},
		{"/", false, "/x", "/x"},
		{"/base", false, "", "/base"},
		{"/base", false, "/", "/base"},
		{"/base", true, "/", "/base/"},
		{"/base", false, "/x", "/base//x"},
	}
	for _, test := range tests {
		c := newCtx(t, &core.Profile{
			BasePath:         test.base,
			PreserveRootPath: test.preserve,
		})
		got := c.MakeResource(test.resource)
		assert.Equal(t, test.expected, got,
			"base=%q preserve=%v resource=%q", test.base, test.preserve, test.resource)
	}
}

func TestLocationToResource(t *testing.T) {
	c := newCtx(t, &core.Profile{BasePath: "/"})
	res, sub := c.LocationToResource("https://h2/b/o?x=y")
	assert.Equal(t, "/b/o", res)
	assert.Equal(t, "x=y", sub)

	res, sub = c.LocationToResource("/b/o")
	assert.Equal(t, "/b/o", res)
	assert.Equal(t, "", sub)

	c2 := newCtx(t, &core.Profile{BasePath: "/base"})
	res, sub = c2.LocationToResource("/base/b/o?q")
	assert.Equal(t, "/b/o", res)
	assert.Equal(t, "q", sub)
}

func TestNewRequestDefaults(t *testing.T) {
	c := newCtx(t, &core.Profile{
		AccessKey: "AK",
		SecretKey: "SK",
		KeepAlive: true,
	})
	r := c.NewRequest(cmn.MethodGet, "b", "/o", "sub")
	assert.Equal(t, "AK", r.AccessKey)
	assert.Equal(t, "SK", r.SecretKey)
	assert.Equal(t, "/o", r.Resource)
	assert.Equal(t, "sub", r.Subresource)
	assert.True(t, r.HasBehavior(cmn.BehaviorKeepAlive))
	assert.NotEmpty(t, r.TraceID)

	// keep-alive follows the profile
	c2 := newCtx(t, &core.Profile{KeepAlive: false})
	r2 := c2.NewRequest(cmn.MethodGet, "b", "/o", "")
	assert.False(t, r2.HasBehavior(cmn.BehaviorKeepAlive))
}

// rawServer serves one canned HTTP reply per accepted connection.
func rawServer(t *testing.T, reply string) (host, port string, stop func()) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				buf := make([]byte, 4096)
				c.Read(buf)
				c.Write([]byte(reply))
			}(c)
		}
	}()
	addr := ln.Addr().(*net.TCPAddr)
	return "127.0.0.1", strconv.Itoa(addr.Port), func() { ln.Close() }
}

func TestDoRequestBlacklistsOn5xx(t *testing.T) {
	host, port, stop := rawServer(t,
		"HTTP/1.1 503 Service Unavailable\r\nContent-Length: 0\r\n\r\n")
	defer stop()

	c := newCtx(t, &core.Profile{
		Host:      host + ":" + port,
		KeepAlive: true,
	})
	r := c.NewRequest(cmn.MethodGet, "", "/o", "")
	headers := dict.New(7)
	_, err := c.DoRequest(context.Background(), r, headers, nil, nil, nil, nil)
	assert.Equal(t, cmn.Failure, cmn.StatusOf(err))

	// the endpoint is blacklisted until the expiry passes
	assert.True(t, c.AddrList().Blacklisted(host, port))
	_, err = c.AddrList().GetRand()
	assert.Equal(t, cmn.ENoEnt, cmn.StatusOf(err))
}

func TestDoRequestSuccess(t *testing.T) {
	host, port, stop := rawServer(t,
		"HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nok")
	defer stop()

	c := newCtx(t, &core.Profile{
		Host:      host + ":" + port,
		KeepAlive: true,
	})
	r := c.NewRequest(cmn.MethodGet, "", "/o", "")
	reply, err := c.DoRequest(context.Background(), r, dict.New(7), nil, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 200, reply.Code)
	assert.Equal(t, "ok", string(reply.Body))
	assert.False(t, c.AddrList().Blacklisted(host, port))
}

func TestDoRequestRedirect(t *testing.T) {
	host, port, stop := rawServer(t,
		"HTTP/1.1 301 Moved\r\nLocation: http://h2/b/o?x=y\r\nContent-Length: 0\r\n\r\n")
	defer stop()

	c := newCtx(t, &core.Profile{
		Host:      host + ":" + port,
		KeepAlive: true,
	})
	r := c.NewRequest(cmn.MethodGet, "", "/o", "")
	_, err := c.DoRequest(context.Background(), r, dict.New(7), nil, nil, nil, nil)
	assert.Equal(t, cmn.ERedirect, cmn.StatusOf(err))
	assert.Equal(t, "http://h2/b/o?x=y", cmn.RedirectLocation(err))
}

func TestBackendDataSlot(t *testing.T) {
	c := newCtx(t, &core.Profile{})
	assert.Nil(t, c.BackendData())
	c.SetBackendData("token")
	assert.Equal(t, "token", c.BackendData())
}
