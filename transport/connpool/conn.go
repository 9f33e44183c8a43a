// Package connpool implements the per-context connection pool: idle
// connections keyed by (address, port) with a per-connection hit cap, an
// idle-eviction timeout, a global open cap, and optional TLS transport.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package connpool

import (
	"bufio"
	"crypto/tls"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/OneOfOne/xxhash"
	"github.com/golang/glog"
	"go.uber.org/atomic"

	"github.com/NVIDIA/droplet/cmn"
)

type (
	// Config sizes the pool and its timeouts.
	Config struct {
		NBuckets       int
		MaxConns       int
		MaxHits        int
		IdleTime       time.Duration
		ConnectTimeout time.Duration
		ReadTimeout    time.Duration
		WriteTimeout   time.Duration
		ReadBufSize    int
		UseTLS         bool
		TLSConfig      *tls.Config
	}

	connKey struct {
		addr string // textual IP
		port int
	}

	// Conn is one transport connection. While idle it is owned by the pool;
	// once handed out by Open it is owned by the caller until Release or
	// Terminate.
	Conn struct {
		pool *Pool
		key  connKey
		host string // endpoint hostname, for Host headers and blacklisting

		nc net.Conn // TLS session when the pool is TLS-configured
		br *bufio.Reader

		startTime time.Time
		closeTime time.Time
		hits      int
		eof       bool
	}

	// Pool is a fixed-size hash table of idle connections.
	Pool struct {
		cfg     Config
		mu      sync.Mutex
		buckets [][]*Conn
		nOpen   atomic.Int32
	}
)

// DefaultConfig fills in the zero fields of cfg.
func DefaultConfig(cfg Config) Config {
	if cfg.NBuckets <= 0 {
		cfg.NBuckets = 13
	}
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = 900
	}
	if cfg.MaxHits <= 0 {
		cfg.MaxHits = 50
	}
	if cfg.IdleTime <= 0 {
		cfg.IdleTime = 100 * time.Second
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if cfg.ReadBufSize <= 0 {
		cfg.ReadBufSize = 8192
	}
	return cfg
}

// New creates a pool.
func New(cfg Config) *Pool {
	cfg = DefaultConfig(cfg)
	return &Pool{cfg: cfg, buckets: make([][]*Conn, cfg.NBuckets)}
}

// Config returns the pool configuration.
func (p *Pool) Config() Config { return p.cfg }

// NOpen returns the number of currently open connections.
func (p *Pool) NOpen() int { return int(p.nOpen.Load()) }

func (p *Pool) bucketOf(key connKey) int {
	h := xxhash.ChecksumString32(key.addr + ":" + strconv.Itoa(key.port))
	return int(h % uint32(len(p.buckets)))
}

func (p *Pool) getNolock(key connKey) *Conn {
	b := p.bucketOf(key)
	for i, c := range p.buckets[b] {
		if c.key == key {
			p.buckets[b] = append(p.buckets[b][:i], p.buckets[b][i+1:]...)
			return c
		}
	}
	return nil
}

func (p *Pool) addNolock(c *Conn) {
	b := p.bucketOf(c.key)
	p.buckets[b] = append(p.buckets[b], c)
}

func (p *Pool) removeNolock(c *Conn) {
	b := p.bucketOf(c.key)
	for i, idle := range p.buckets[b] {
		if idle == c {
			p.buckets[b] = append(p.buckets[b][:i], p.buckets[b][i+1:]...)
			return
		}
	}
}

func (c *Conn) closeTransport() {
	if c.nc != nil {
		c.nc.Close()
		c.nc = nil
	}
	c.br = nil
}

// Open returns a connection to (host, ip, port): an idle one when its hit
// count and idle age allow, otherwise a fresh one, failing with ELimit once
// the global cap is reached.
func (p *Pool) Open(host string, ip net.IP, port int) (*Conn, error) {
	key := connKey{addr: ip.String(), port: port}
	now := time.Now()

	p.mu.Lock()
	for {
		c := p.getNolock(key)
		if c == nil {
			break
		}
		if c.hits >= p.cfg.MaxHits || now.Sub(c.closeTime) >= p.cfg.IdleTime {
			glog.V(4).Infof("closing idle conn %s (hits=%d)", key.addr, c.hits)
			c.closeTransport()
			p.nOpen.Dec()
			continue
		}
		c.hits++
		p.mu.Unlock()
		return c, nil
	}
	if int(p.nOpen.Load()) >= p.cfg.MaxConns {
		p.mu.Unlock()
		return nil, cmn.Errf(cmn.ELimit, "too many connections (%d)", p.cfg.MaxConns)
	}
	p.nOpen.Inc()
	p.mu.Unlock()

	c, err := p.dial(host, key)
	if err != nil {
		p.nOpen.Dec()
		return nil, err
	}
	return c, nil
}

func (p *Pool) dial(host string, key connKey) (*Conn, error) {
	raddr := net.JoinHostPort(key.addr, strconv.Itoa(key.port))
	nc, err := net.DialTimeout("tcp", raddr, p.cfg.ConnectTimeout)
	if err != nil {
		if opErr, ok := err.(net.Error); ok && opErr.Timeout() {
			return nil, cmn.ErrWrap(cmn.ETimeout, err, "connect "+raddr)
		}
		return nil, cmn.ErrWrap(cmn.Failure, err, "connect "+raddr)
	}
	if p.cfg.UseTLS {
		tcfg := p.cfg.TLSConfig
		if tcfg == nil {
			tcfg = &tls.Config{}
		}
		if tcfg.ServerName == "" {
			tcfg = tcfg.Clone()
			tcfg.ServerName = host
		}
		tlsc := tls.Client(nc, tcfg)
		tlsc.SetDeadline(time.Now().Add(p.cfg.ConnectTimeout))
		if err := tlsc.Handshake(); err != nil {
			nc.Close()
			return nil, cmn.ErrWrap(cmn.Failure, err, "TLS handshake "+raddr)
		}
		tlsc.SetDeadline(time.Time{})
		nc = tlsc
	}
	glog.V(4).Infof("new conn %s", raddr)
	return &Conn{
		pool:      p,
		key:       key,
		host:      host,
		nc:        nc,
		br:        bufio.NewReaderSize(nc, p.cfg.ReadBufSize),
		startTime: time.Now(),
	}, nil
}

// Release returns a healthy connection to the pool for reuse.
func (c *Conn) Release() {
	p := c.pool
	c.closeTime = time.Now()
	p.mu.Lock()
	p.addNolock(c)
	p.mu.Unlock()
}

// Terminate closes a connection after an I/O failure or a Connection: close
// reply; it must be used instead of Release on any error path.
func (c *Conn) Terminate() {
	p := c.pool
	p.mu.Lock()
	p.removeNolock(c)
	p.mu.Unlock()
	c.closeTransport()
	p.nOpen.Dec()
}

// Host returns the endpoint hostname the connection was opened against.
func (c *Conn) Host() string { return c.host }

// Port returns the endpoint port.
func (c *Conn) Port() int { return c.key.port }

// Hits returns how many times the connection was reused.
func (c *Conn) Hits() int { return c.hits }

// EOF reports whether the peer closed the stream.
func (c *Conn) EOF() bool { return c.eof }

// SetEOF records peer close.
func (c *Conn) SetEOF() { c.eof = true }

// ReadTimeout returns the configured per-read deadline.
func (c *Conn) ReadTimeout() time.Duration { return c.pool.cfg.ReadTimeout }

// Reader exposes the buffered read side for the reply reader; every read
// must be preceded by ArmReadDeadline.
func (c *Conn) Reader() *bufio.Reader { return c.br }

// ArmReadDeadline sets the absolute deadline of the next read.
func (c *Conn) ArmReadDeadline() error {
	return c.nc.SetReadDeadline(time.Now().Add(c.pool.cfg.ReadTimeout))
}

// WritevAll writes every vector fully. Plaintext writes go out vectored with
// the write deadline re-armed after each short write; TLS concatenates into
// one record sequence since the session already frames.
func (c *Conn) WritevAll(iov [][]byte) error {
	var total int64
	for _, v := range iov {
		total += int64(len(v))
	}
	if err := c.nc.SetWriteDeadline(time.Now().Add(c.pool.cfg.WriteTimeout)); err != nil {
		return cmn.ErrWrap(cmn.ESys, err, "set write deadline")
	}
	defer c.nc.SetWriteDeadline(time.Time{})

	if _, isTLS := c.nc.(*tls.Conn); isTLS {
		buf := make([]byte, 0, total)
		for _, v := range iov {
			buf = append(buf, v...)
		}
		if _, err := c.nc.Write(buf); err != nil {
			return writeErr(err)
		}
		return nil
	}

	bufs := make(net.Buffers, 0, len(iov))
	for _, v := range iov {
		if len(v) > 0 {
			bufs = append(bufs, v)
		}
	}
	n, err := bufs.WriteTo(c.nc)
	if err != nil {
		return writeErr(err)
	}
	if n != total {
		return cmn.Errf(cmn.EIO, "short write: %d/%d", n, total)
	}
	return nil
}

func writeErr(err error) error {
	if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
		return cmn.ErrWrap(cmn.ETimeout, err, "write")
	}
	return cmn.ErrWrap(cmn.EIO, err, "write")
}
