// Package droplet is a client library for cloud and object storage systems:
// one object-storage API over S3-compatible REST, CDMI, Scality sproxyd and
// SRWS, OpenStack Swift, and the local POSIX filesystem.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package droplet

import (
	"github.com/NVIDIA/droplet/core"

	// link every backend into the registry
	_ "github.com/NVIDIA/droplet/backend/cdmi"
	_ "github.com/NVIDIA/droplet/backend/posix"
	_ "github.com/NVIDIA/droplet/backend/s3"
	_ "github.com/NVIDIA/droplet/backend/sproxyd"
	_ "github.com/NVIDIA/droplet/backend/srws"
	_ "github.com/NVIDIA/droplet/backend/swift"
)

// Ctx is the public handle: a core context plus the dispatch front-end.
type Ctx struct {
	c *core.Ctx
}

// New loads <dir>/<profile>.profile and builds a context; empty arguments
// fall back to the DPLDIR/DPLPROFILE environment and then to
// ~/.droplet/default.profile.
func New(dir, profile string) (*Ctx, error) {
	c, err := core.New(dir, profile)
	if err != nil {
		return nil, err
	}
	return &Ctx{c: c}, nil
}

// NewWithProfile builds a context from an in-memory profile.
func NewWithProfile(prof *core.Profile) (*Ctx, error) {
	if err := prof.Validate(); err != nil {
		return nil, err
	}
	c, err := core.NewCtx(prof)
	if err != nil {
		return nil, err
	}
	return &Ctx{c: c}, nil
}

// Close releases the context.
func (ctx *Ctx) Close() error { return ctx.c.Close() }

// BackendName returns the name of the backend currently used.
func (ctx *Ctx) BackendName() string { return ctx.c.Backend().Name() }

// Core exposes the underlying context to advanced callers.
func (ctx *Ctx) Core() *core.Ctx { return ctx.c }
