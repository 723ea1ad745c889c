// Copyright 2026 The Memoria Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/memoriapp/memoria/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
