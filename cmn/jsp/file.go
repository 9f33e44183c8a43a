// Package jsp (JSON persistence) provides utilities to store and load
// JSON-encoded structures, used for droplet profile files.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package jsp

import (
	"os"

	"github.com/NVIDIA/droplet/cmn"
	"github.com/golang/glog"
	jsoniter "github.com/json-iterator/go"
)

var js = jsoniter.ConfigCompatibleWithStandardLibrary

// Save atomically writes v as indented JSON: temp file next to the target,
// then rename.
func Save(filepath string, v interface{}) (err error) {
	var file *os.File
	tmp := filepath + ".tmp." + cmn.GenTie()
	if file, err = os.Create(tmp); err != nil {
		return
	}
	defer func() {
		if err == nil {
			return
		}
		if nestedErr := os.Remove(tmp); nestedErr != nil {
			glog.Errorf("Nested (%v): failed to remove %s, err: %v", err, tmp, nestedErr)
		}
	}()
	enc := js.NewEncoder(file)
	enc.SetIndent("", "    ")
	if err = enc.Encode(v); err != nil {
		glog.Errorf("Failed to encode %s: %v", filepath, err)
		file.Close()
		return
	}
	if err = file.Close(); err != nil {
		return
	}
	err = os.Rename(tmp, filepath)
	return
}

// Load reads a JSON document into v.
func Load(filepath string, v interface{}) error {
	file, err := os.Open(filepath)
	if err != nil {
		return err
	}
	defer file.Close()
	return js.NewDecoder(file).Decode(v)
}
