// Package core holds the droplet context, the backend vtable contract, and
// the shared request-exchange plumbing that every HTTP backend drives.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package core

import (
	"context"
	"strconv"

	"github.com/NVIDIA/droplet/cmn"
	"github.com/NVIDIA/droplet/cmn/dict"
	"github.com/NVIDIA/droplet/req"
	"github.com/NVIDIA/droplet/transport/httpio"
)

// Reply is the collected outcome of one wire exchange.
type Reply struct {
	Code    int
	Headers *dict.Dict
	Body    []byte
}

// DoRequest runs one complete wire exchange for an already built request:
// draw a connection, synthesize Host, emit start line + headers + body, read
// the reply. The connection is released for reuse on a clean keep-alive
// exchange and terminated otherwise; transport failures and 5xx replies
// blacklist the endpoint.
//
// The caller owns interpretation of the reply; redirect and error statuses
// come back as canonical errors with the collected reply still populated.
func (c *Ctx) DoRequest(ctx context.Context, r *req.Request, headers, queryParams *dict.Dict,
	body []byte, opt *cmn.Option, buf []byte) (*Reply, error) {
	if err := ctx.Err(); err != nil {
		return nil, cmn.ErrWrap(cmn.ETimeout, err, "canceled")
	}

	conn, err := c.Connect()
	if err != nil {
		return nil, err
	}
	r.Host = conn.Host()
	r.Port = strconv.Itoa(conn.Port())
	req.AddHost(r, headers, conn.Host())

	c.Trace(cmn.TraceHTTP, "[%s] %s %s?%s", r.TraceID, r.Method, r.Resource, r.Subresource)

	head := req.GenHTTPRequest(r, headers, queryParams)
	iov := [][]byte{head, []byte("\r\n")}
	if len(body) > 0 {
		iov = append(iov, body)
	}
	if err := conn.WritevAll(iov); err != nil {
		conn.Terminate()
		c.Blacklist(conn.Host(), r.Port)
		return nil, err
	}

	expectData := r.Method != cmn.MethodHead
	code, replyHdrs, replyBody, connClose, rerr := httpio.ReadReply(conn, expectData, opt, buf)
	reply := &Reply{Code: code, Headers: replyHdrs, Body: replyBody}

	ioFailed := rerr != nil && code == 0
	if ioFailed || connClose || !r.HasBehavior(cmn.BehaviorKeepAlive) {
		conn.Terminate()
	} else {
		conn.Release()
	}
	if ioFailed || httpio.ServerFailure(code) {
		c.Blacklist(conn.Host(), r.Port)
	}
	if rerr != nil {
		return reply, rerr
	}
	return reply, nil
}
