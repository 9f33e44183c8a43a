//go:build !debug
// +build !debug

// Package debug provides assertions that compile away in production builds.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package debug

const Enabled = false

func Assert(bool, ...interface{})          {}
func Assertf(bool, string, ...interface{}) {}
func AssertNoErr(error)                    {}
