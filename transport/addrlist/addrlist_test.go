// Package addrlist maintains the per-context set of service endpoints with
// blacklisting.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package addrlist_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/droplet/cmn"
	"github.com/NVIDIA/droplet/transport/addrlist"
)

func newList(t *testing.T, addrs string) *addrlist.List {
	l, err := addrlist.NewFromStr("80", addrs)
	require.NoError(t, err)
	return l
}

func TestAddFromStr(t *testing.T) {
	l := newList(t, "127.0.0.1:8080;127.0.0.2,127.0.0.3:9000 127.0.0.4")
	assert.Equal(t, 4, l.Count())
	assert.Equal(t, 4, l.CountAvail())
}

func TestDuplicateAddIdempotent(t *testing.T) {
	l := newList(t, "127.0.0.1:8080")
	require.NoError(t, l.Blacklist("127.0.0.1", "8080", 1000))
	assert.Equal(t, 0, l.CountAvail())

	// re-adding the same (address, port) resets the blacklisting
	require.NoError(t, l.Add("127.0.0.1", "8080"))
	assert.Equal(t, 1, l.Count())
	assert.Equal(t, 1, l.CountAvail())
}

func TestGetNthModulo(t *testing.T) {
	l := newList(t, "127.0.0.1:1;127.0.0.2:2;127.0.0.3:3")
	n := uint32(1)
	a1, err := l.GetNth(n)
	require.NoError(t, err)
	a2, err := l.GetNth(n + uint32(l.Count()))
	require.NoError(t, err)
	assert.Equal(t, a1.Host, a2.Host)
	assert.Equal(t, a1.Port, a2.Port)
}

func TestGetNthEmpty(t *testing.T) {
	l := addrlist.New("80")
	_, err := l.GetNth(0)
	assert.Equal(t, cmn.ENoEnt, cmn.StatusOf(err))

	l2 := newList(t, "127.0.0.1:1")
	require.NoError(t, l2.Blacklist("127.0.0.1", "1", 1000))
	_, err = l2.GetNth(0)
	assert.Equal(t, cmn.ENoEnt, cmn.StatusOf(err))
}

func TestGetNthSkipsBlacklisted(t *testing.T) {
	l := newList(t, "127.0.0.1:1;127.0.0.2:2")
	require.NoError(t, l.Blacklist("127.0.0.1", "1", 1000))
	for n := uint32(0); n < 5; n++ {
		a, err := l.GetNth(n)
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.2", a.Host)
	}
}

func TestBlacklistExpiry(t *testing.T) {
	l := newList(t, "127.0.0.1:1")
	// expire in the future: refresh leaves it blacklisted
	require.NoError(t, l.Blacklist("127.0.0.1", "1", 1000))
	l.RefreshBlacklist()
	assert.Equal(t, 0, l.CountAvail())

	// expire of zero seconds: available again at the next refresh
	require.NoError(t, l.Blacklist("127.0.0.1", "1", 0))
	time.Sleep(1100 * time.Millisecond)
	l.RefreshBlacklist()
	assert.Equal(t, 1, l.CountAvail())
}

func TestPermanentBlacklist(t *testing.T) {
	l := newList(t, "127.0.0.1:1")
	require.NoError(t, l.Blacklist("127.0.0.1", "1", -1))
	l.RefreshBlacklist()
	assert.Equal(t, 0, l.CountAvail())
	assert.True(t, l.Blacklisted("127.0.0.1", "1"))

	require.NoError(t, l.Unblacklist("127.0.0.1", "1"))
	assert.Equal(t, 1, l.CountAvail())
}

func TestGetRand(t *testing.T) {
	l := newList(t, "127.0.0.1:1;127.0.0.2:2;127.0.0.3:3")
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		a, err := l.GetRand()
		require.NoError(t, err)
		seen[a.Host] = true
	}
	assert.Len(t, seen, 3, "all endpoints should eventually be drawn")
}

func TestClear(t *testing.T) {
	l := newList(t, "127.0.0.1:1;127.0.0.2:2")
	l.Clear()
	assert.Equal(t, 0, l.Count())
}
