// Copyright 2023 RWProxy Authors
// SPDX-License-Identifier: Apache-2.0

package versioninfo

// These variables will be overwritten by Makefile.
var (
	Version   = "None"
	GitBranch = "None"
	GitHash   = "None"
	BuildTS   = "None"
)
