// Package addrlist maintains the per-context set of service endpoints with
// blacklisting: a mutex-guarded ordered list of resolved (address, port)
// entries from which connections are drawn.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package addrlist

import (
	"math"
	"math/rand"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/NVIDIA/droplet/cmn"
	"github.com/golang/glog"
)

const (
	// expireNever marks a permanently blacklisted entry.
	expireNever int64 = math.MaxInt64
)

type (
	// Addr is one endpoint. The blacklist expiry is an absolute wall-clock
	// second count: 0 means available, expireNever means permanent.
	Addr struct {
		Host    string
		PortStr string
		Port    int
		IP      net.IP

		blacklistExpire int64
	}

	// List is the mutex-guarded ordered endpoint set. Membership is uniquely
	// keyed by (resolved address, port). Every read/modify operation takes
	// the mutex; *Nolock variants are for callers already holding it via
	// Lock/Unlock.
	List struct {
		defaultPort string
		mu          sync.Mutex
		addrs       []*Addr
	}
)

// New creates an empty list; defaultPort applies to entries given without
// an explicit port.
func New(defaultPort string) *List {
	return &List{defaultPort: defaultPort}
}

// NewFromStr creates a list from a separator-delimited "host[:port]" string.
func NewFromStr(defaultPort, addrsStr string) (*List, error) {
	l := New(defaultPort)
	if err := l.SetFromStr(addrsStr); err != nil {
		return nil, err
	}
	return l, nil
}

// Lock takes the list mutex for a *Nolock call sequence.
func (l *List) Lock() { l.mu.Lock() }

// Unlock releases the list mutex.
func (l *List) Unlock() { l.mu.Unlock() }

func (l *List) getByIPNolock(ip net.IP, port int) *Addr {
	for _, a := range l.addrs {
		if a.Port == port && a.IP.Equal(ip) {
			return a
		}
	}
	return nil
}

func (l *List) getByNameNolock(host, portStr string) (*Addr, error) {
	ip, port, err := resolve(host, portStr)
	if err != nil {
		return nil, err
	}
	return l.getByIPNolock(ip, port), nil
}

func resolve(host, portStr string) (net.IP, int, error) {
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, 0, cmn.Errf(cmn.EInval, "bad port %q", portStr)
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip, port, nil
	}
	ipaddr, err := net.ResolveIPAddr("ip", host)
	if err != nil {
		return nil, 0, cmn.ErrWrap(cmn.Failure, err, "resolve "+host)
	}
	return ipaddr.IP, port, nil
}

// Add inserts an endpoint, resolving its name once so hot paths stay
// DNS-free. The insertion position is random to disperse retries. A
// duplicate (address, port) add is idempotent and resets the blacklist
// expiry to available.
func (l *List) Add(host, portStr string) error {
	if portStr == "" {
		portStr = l.defaultPort
	}
	ip, port, err := resolve(host, portStr)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if a := l.getByIPNolock(ip, port); a != nil {
		a.blacklistExpire = 0
		return nil
	}

	a := &Addr{Host: host, PortStr: portStr, Port: port, IP: ip}
	pos := 0
	if n := len(l.addrs); n > 0 {
		pos = rand.Intn(n + 1)
	}
	l.addrs = append(l.addrs, nil)
	copy(l.addrs[pos+1:], l.addrs[pos:])
	l.addrs[pos] = a
	return nil
}

// AddFromStr adds every "host[:port]" in a ";, "-separated string.
func (l *List) AddFromStr(addrsStr string) error {
	for _, tok := range strings.FieldsFunc(addrsStr, func(r rune) bool {
		return r == ';' || r == ',' || r == ' '
	}) {
		host, portStr := tok, ""
		if i := strings.LastIndexByte(tok, ':'); i >= 0 {
			host, portStr = tok[:i], tok[i+1:]
		}
		if err := l.Add(host, portStr); err != nil {
			return err
		}
	}
	return nil
}

// SetFromStr replaces the list contents.
func (l *List) SetFromStr(addrsStr string) error {
	l.Clear()
	return l.AddFromStr(addrsStr)
}

// Clear removes every endpoint.
func (l *List) Clear() {
	l.mu.Lock()
	l.addrs = nil
	l.mu.Unlock()
}

func (l *List) countNolock() int { return len(l.addrs) }

// Count returns the total endpoint count.
func (l *List) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.countNolock()
}

func (l *List) countAvailNolock() int {
	n := 0
	for _, a := range l.addrs {
		if a.blacklistExpire == 0 {
			n++
		}
	}
	return n
}

// CountAvail returns the non-blacklisted endpoint count.
func (l *List) CountAvail() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.countAvailNolock()
}

func (l *List) refreshBlacklistNolock(now int64) {
	for _, a := range l.addrs {
		if a.blacklistExpire != 0 && a.blacklistExpire != expireNever && a.blacklistExpire <= now {
			a.blacklistExpire = 0
		}
	}
}

// RefreshBlacklist clears expiries at or below now.
func (l *List) RefreshBlacklist() {
	l.mu.Lock()
	l.refreshBlacklistNolock(time.Now().Unix())
	l.mu.Unlock()
}

// GetNth returns a copy of the (n mod available)-th non-blacklisted entry in
// list order, refreshing expired blacklisting first. An empty available set
// is ENoEnt.
func (l *List) GetNth(n uint32) (Addr, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refreshBlacklistNolock(time.Now().Unix())

	avail := l.countAvailNolock()
	if avail == 0 {
		return Addr{}, cmn.Err(cmn.ENoEnt)
	}
	idx := int(n % uint32(avail))
	for _, a := range l.addrs {
		if a.blacklistExpire != 0 {
			continue
		}
		if idx == 0 {
			return *a, nil
		}
		idx--
	}
	return Addr{}, cmn.Err(cmn.ENoEnt)
}

// GetRand returns a random available endpoint.
func (l *List) GetRand() (Addr, error) {
	return l.GetNth(rand.Uint32())
}

// Blacklist marks an endpoint unavailable for expire seconds; expire < 0
// blacklists permanently.
func (l *List) Blacklist(host, portStr string, expire int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, err := l.getByNameNolock(host, portStr)
	if err != nil {
		return err
	}
	if a == nil {
		return cmn.Err(cmn.ENoEnt)
	}
	if expire >= 0 {
		a.blacklistExpire = time.Now().Unix() + expire
	} else {
		a.blacklistExpire = expireNever
	}
	glog.V(4).Infof("blacklisted %s:%s for %ds", host, portStr, expire)
	return nil
}

// Unblacklist clears an endpoint's blacklisting, permanent included.
func (l *List) Unblacklist(host, portStr string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, err := l.getByNameNolock(host, portStr)
	if err != nil {
		return err
	}
	if a == nil {
		return cmn.Err(cmn.ENoEnt)
	}
	a.blacklistExpire = 0
	return nil
}

// Blacklisted reports whether the endpoint is currently blacklisted.
func (l *List) Blacklisted(host, portStr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, err := l.getByNameNolock(host, portStr)
	return err == nil && a != nil && a.blacklistExpire != 0
}
