//go:build debug
// +build debug

// Package debug provides assertions that compile away in production builds.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package debug

import (
	"fmt"

	"github.com/golang/glog"
)

const Enabled = true

func fatalMsg(f string, v ...interface{}) {
	s := fmt.Sprintf(f, v...)
	if s == "" || s[len(s)-1] != '\n' {
		glog.Fatalln(s)
	} else {
		glog.Fatal(s)
	}
}

func Assert(cond bool, a ...interface{}) {
	if !cond {
		if len(a) > 0 {
			fatalMsg("DEBUG PANIC: %v", a)
		} else {
			fatalMsg("DEBUG PANIC")
		}
	}
}

func Assertf(cond bool, f string, a ...interface{}) {
	if !cond {
		fatalMsg(f, a...)
	}
}

func AssertNoErr(err error) {
	if err != nil {
		fatalMsg("%v", err)
	}
}
