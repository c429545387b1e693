// ollachat - chat with local and hosted language models from the terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"os"

	"github.com/jeranaias/ollachat/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
