// SPDX-License-Identifier: MPL-2.0

package main

import "github.com/assetsync/assetsync/cmd/assetsync"

func main() {
	cmd.Execute()
}
