// Package httpio parses HTTP replies off a pooled connection: status line,
// headers, then a fixed-length or chunked body, delivered through callbacks
// or collected into a dictionary and buffer.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package httpio

import (
	"net"
	"strconv"
	"strings"

	"github.com/golang/glog"

	"github.com/NVIDIA/droplet/cmn"
	"github.com/NVIDIA/droplet/cmn/dict"
	"github.com/NVIDIA/droplet/transport/connpool"
)

const (
	// maxLineLen bounds a status or header line; beyond it the reply is
	// treated as garbage.
	maxLineLen = 100 * 1024
)

type (
	// HeaderFunc receives each reply header except Transfer-Encoding, and
	// except Content-Length when a body is expected.
	HeaderFunc func(key, value string) error

	// BodyFunc receives each body slice as it arrives.
	BodyFunc func(buf []byte) error
)

// reader mode machine
const (
	modeReply = iota
	modeHeader
	modeChunked
	modeChunk
)

func mapReadErr(err error) error {
	if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
		return cmn.ErrWrap(cmn.ETimeout, err, "read")
	}
	return cmn.ErrWrap(cmn.EIO, err, "read")
}

func readLine(conn *connpool.Conn) (string, error) {
	if err := conn.ArmReadDeadline(); err != nil {
		return "", cmn.ErrWrap(cmn.ESys, err, "set read deadline")
	}
	var sb strings.Builder
	br := conn.Reader()
	for {
		b, err := br.ReadByte()
		if err != nil {
			conn.SetEOF()
			return "", mapReadErr(err)
		}
		if b == '\n' {
			return sb.String(), nil
		}
		if sb.Len() >= maxLineLen {
			return "", cmn.Errf(cmn.ELimit, "header line too long")
		}
		sb.WriteByte(b)
	}
}

func parseStatusLine(line string) (int, error) {
	sp := strings.IndexByte(line, ' ')
	if sp < 0 {
		return 0, cmn.Errf(cmn.Failure, "bad http reply: %.100s", line)
	}
	ver := line[:sp]
	if ver != "HTTP/1.0" && ver != "HTTP/1.1" {
		return 0, cmn.Errf(cmn.Failure, "bad http version: %.100s", line)
	}
	rest := line[sp+1:]
	if sp = strings.IndexByte(rest, ' '); sp < 0 {
		sp = len(rest)
	}
	codeStr := strings.TrimRight(rest[:sp], "\r")
	if len(codeStr) > 3 {
		return 0, cmn.Errf(cmn.Failure, "bad http status: %.100s", line)
	}
	code, err := strconv.Atoi(codeStr)
	if err != nil {
		return 0, cmn.Errf(cmn.Failure, "bad http status: %.100s", line)
	}
	return code, nil
}

func readBodyBytes(conn *connpool.Conn, remain int64, bodyFunc BodyFunc) error {
	buf := make([]byte, 8192)
	br := conn.Reader()
	for remain > 0 {
		if err := conn.ArmReadDeadline(); err != nil {
			return cmn.ErrWrap(cmn.ESys, err, "set read deadline")
		}
		n := int64(len(buf))
		if remain < n {
			n = remain
		}
		cc, err := br.Read(buf[:n])
		if cc > 0 {
			if bodyFunc != nil {
				if err2 := bodyFunc(buf[:cc]); err2 != nil {
					return err2
				}
			}
			remain -= int64(cc)
		}
		if err != nil {
			conn.SetEOF()
			return mapReadErr(err)
		}
	}
	return nil
}

// ReadReplyBuffered runs the reply state machine: status line, headers, then
// a Content-Length or chunked body. Transfer-Encoding is always intercepted,
// and Content-Length is intercepted when expectData is set; all other
// headers, Connection included, go to headerFunc (Content-Length too when
// expectData is false). When expectData is false any announced body is left
// unread.
func ReadReplyBuffered(conn *connpool.Conn, expectData bool,
	headerFunc HeaderFunc, bodyFunc BodyFunc) (code int, err error) {
	var (
		chunkLen int64
		chunked  bool
		mode     = modeReply
	)
	for {
		switch mode {
		case modeReply:
			line, err := readLine(conn)
			if err != nil {
				return 0, err
			}
			if code, err = parseStatusLine(line); err != nil {
				return 0, err
			}
			glog.V(4).Infof("http status=%d", code)
			mode = modeHeader

		case modeHeader:
			line, err := readLine(conn)
			if err != nil {
				return code, err
			}
			if line == "" || line[0] == '\r' {
				// end of headers
				if chunked {
					mode = modeChunked
					continue
				}
				mode = modeChunk
				continue
			}
			colon := strings.IndexByte(line, ':')
			if colon < 0 {
				glog.Errorf("bad header: %.100s", line)
				continue
			}
			key := line[:colon]
			value := strings.TrimRight(strings.TrimLeft(line[colon+1:], " \t"), "\r")
			switch {
			case expectData && strings.EqualFold(key, "Content-Length"):
				chunkLen, _ = strconv.ParseInt(value, 10, 64)
			case strings.EqualFold(key, "Transfer-Encoding"):
				if expectData && strings.EqualFold(value, "chunked") {
					chunked = true
				}
			default:
				if headerFunc != nil {
					if err := headerFunc(key, value); err != nil {
						return code, err
					}
				}
			}

		case modeChunked:
			line, err := readLine(conn)
			if err != nil {
				return code, err
			}
			n, perr := strconv.ParseInt(strings.TrimRight(line, "\r"), 16, 64)
			if perr != nil {
				return code, cmn.Errf(cmn.Failure, "bad chunk length: %.100s", line)
			}
			if n == 0 {
				return code, nil
			}
			chunkLen = n
			mode = modeChunk

		case modeChunk:
			if err := readBodyBytes(conn, chunkLen, bodyFunc); err != nil {
				return code, err
			}
			if chunked {
				// skip the chunk-terminating crlf, then next chunk header
				if _, err := readLine(conn); err != nil {
					return code, err
				}
				mode = modeChunked
				continue
			}
			return code, nil
		}
	}
}

// ReadReply is the collecting wrapper: headers land in a dictionary (lowered
// keys) and the body in an owned buffer - or, with OptNoAlloc, in the
// caller-provided buf capped at its length. It also maps the HTTP status to
// the canonical taxonomy and reports whether the server asked to close.
func ReadReply(conn *connpool.Conn, expectData bool, opt *cmn.Option, buf []byte) (
	code int, headers *dict.Dict, body []byte, connClose bool, err error) {
	var (
		noAlloc = opt.Has(cmn.OptNoAlloc)
		off     int
	)
	headers = dict.New(13)
	code, err = ReadReplyBuffered(conn, expectData,
		func(key, value string) error {
			headers.Add(key, value, true)
			return nil
		},
		func(b []byte) error {
			if noAlloc {
				n := copy(buf[off:], b)
				off += n
				return nil
			}
			body = append(body, b...)
			return nil
		})
	if err != nil {
		return code, headers, body, true, err
	}
	if noAlloc {
		body = buf[:off]
	}
	connClose = ConnectionClose(headers)
	if serr := MapStatus(code, headers); serr != nil {
		return code, headers, body, connClose, serr
	}
	return code, headers, body, connClose, nil
}

// ConnectionClose reports whether the reply carried Connection: close.
func ConnectionClose(headers *dict.Dict) bool {
	if headers == nil {
		return true // assume close
	}
	return strings.EqualFold(headers.GetLoweredValue("Connection"), "close")
}

// Location returns the reply's Location header.
func Location(headers *dict.Dict) string {
	return headers.GetLoweredValue("Location")
}

// MapStatus maps an HTTP status code to the canonical taxonomy; nil means
// success. Redirects carry the Location header in the returned error.
func MapStatus(code int, headers *dict.Dict) error {
	switch code {
	case 100, 200, 201, 204, 206:
		return nil
	case 301, 302:
		return cmn.ErrRedirect(Location(headers))
	case 403:
		return cmn.Err(cmn.EPerm)
	case 404:
		return cmn.Err(cmn.ENoEnt)
	case 409:
		return cmn.Err(cmn.EConflict)
	case 412:
		return cmn.Err(cmn.EPrecond)
	case 416:
		return cmn.Err(cmn.ERangeUnavail)
	default:
		return cmn.Errf(cmn.Failure, "http status %d", code)
	}
}

// ServerFailure reports whether the status calls for endpoint blacklisting.
func ServerFailure(code int) bool { return code >= 500 }
