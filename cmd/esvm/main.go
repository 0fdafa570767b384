// Command esvm is a reference launcher for the embedded bytecode VM. It
// exercises the public bytecode package surface the same way an embedding
// host would: build a VM, register host callbacks, load a byte program,
// and run it to completion.
package main

import (
	"fmt"
	"os"

	"github.com/esvm-dev/esvm/cmd/esvm/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
