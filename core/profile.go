// Package core holds the droplet context, the backend vtable contract, and
// the shared request-exchange plumbing that every HTTP backend drives.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package core

import (
	"os"
	"path/filepath"

	"github.com/NVIDIA/droplet/cmn"
	"github.com/NVIDIA/droplet/cmn/jsp"
)

const (
	// profile/env selection, resolved in this order: explicit arguments,
	// environment, defaults
	envDropletDir = "DPLDIR"
	envProfile    = "DPLPROFILE"

	defaultProfileName = "default"
	defaultDropletDir  = ".droplet"

	profileExt = ".profile"
)

// Profile is the persistent, per-context configuration. Profiles are JSON
// documents named <dir>/<name>.profile.
type Profile struct {
	Host     string `json:"host"` // "host[:port][;host[:port]]*"
	Port     string `json:"port,omitempty"`
	Backend  string `json:"backend"`
	BasePath string `json:"base_path,omitempty"`

	AccessKey string `json:"access_key,omitempty"`
	SecretKey string `json:"secret_key,omitempty"`

	UseHTTPS         bool `json:"use_https,omitempty"`
	SSLVerifyPeer    bool `json:"ssl_verify_peer,omitempty"`
	KeepAlive        bool `json:"keep_alive"`
	PreserveRootPath bool `json:"preserve_root_path,omitempty"`
	EnableMD5        bool `json:"enable_md5,omitempty"`
	EnableExpect     bool `json:"enable_expect,omitempty"`

	ConnTimeoutSec  int `json:"conn_timeout,omitempty"`
	ReadTimeoutSec  int `json:"read_timeout,omitempty"`
	WriteTimeoutSec int `json:"write_timeout,omitempty"`
	ReadBufSize     int `json:"read_buf_size,omitempty"`

	NConnBuckets    int `json:"n_conn_buckets,omitempty"`
	MaxConns        int `json:"max_connections,omitempty"`
	MaxHits         int `json:"conn_max_hits,omitempty"`
	ConnIdleSec     int `json:"conn_idle_time,omitempty"`
	BlacklistExpire int `json:"blacklist_expiretime,omitempty"`

	EventLogPath string `json:"event_log,omitempty"`
	PricingPath  string `json:"pricing,omitempty"`

	TraceLevel uint32 `json:"trace_level,omitempty"`

	DropletDir string `json:"droplet_dir,omitempty"`
}

// LoadProfile reads <dir>/<name>.profile. Empty dir and name fall back to
// the environment, then to ~/.droplet/default.profile.
func LoadProfile(dir, name string) (*Profile, error) {
	if dir == "" {
		dir = os.Getenv(envDropletDir)
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, cmn.ErrWrap(cmn.Failure, err, "home directory")
		}
		dir = filepath.Join(home, defaultDropletDir)
	}
	if name == "" {
		name = os.Getenv(envProfile)
	}
	if name == "" {
		name = defaultProfileName
	}
	var prof Profile
	if err := jsp.Load(filepath.Join(dir, name+profileExt), &prof); err != nil {
		return nil, cmn.ErrFromSyscall(err, "load profile")
	}
	if prof.DropletDir == "" {
		prof.DropletDir = dir
	}
	if err := prof.Validate(); err != nil {
		return nil, err
	}
	return &prof, nil
}

// Validate applies defaults and rejects nonsense.
func (p *Profile) Validate() error {
	if p.Backend == "" {
		return cmn.Errf(cmn.EInval, "profile: backend not set")
	}
	if p.BasePath == "" {
		p.BasePath = "/"
	}
	if p.Port == "" {
		if p.UseHTTPS {
			p.Port = "443"
		} else {
			p.Port = "80"
		}
	}
	if p.BlacklistExpire <= 0 {
		p.BlacklistExpire = 10
	}
	return nil
}

// SaveProfile persists a profile document.
func SaveProfile(dir, name string, p *Profile) error {
	return jsp.Save(filepath.Join(dir, name+profileExt), p)
}
