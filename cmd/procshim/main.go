// procshim starts, waits for and probes child processes, and runs the
// process diagnostics.
package main

import "github.com/sunlightlinux/procshim/internal/cli"

func main() {
	cli.Execute()
}
