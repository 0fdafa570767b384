package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/esvm-dev/esvm/internal/bytecode"
)

var (
	byteArgs []string
	filePath string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a byte program",
	Long: `Execute a byte program through the bytecode VM.

Examples:
  # Run an inline program, one decimal byte per -b flag
  esvm run -b 20 -b 0 -b 0 -b 0 -b 0 -b 0 -b 0 -b 0 -b 0

  # Run a program read whole from a file
  esvm run --file program.bin`,
	RunE: runProgram,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringArrayVarP(&byteArgs, "byte", "b", nil, "one decimal byte of the program (repeatable)")
	runCmd.Flags().StringVar(&filePath, "file", "", "read the program from a file instead of -b flags")
}

func runProgram(_ *cobra.Command, _ []string) error {
	program, err := loadProgram()
	if err != nil {
		return err
	}

	host := bytecode.HostCallbacks{
		Print: func(s string) { fmt.Fprint(os.Stdout, s) },
		Fail:  func(msg string) { fmt.Fprintln(os.Stderr, msg) },
	}

	vm := bytecode.New(bytecode.DefaultConfig(), host)
	status, err := vm.Execute(program)
	if verbose {
		fmt.Fprintf(os.Stderr, "status: %s\n", status)
	}
	if err != nil {
		return fmt.Errorf("execution halted: %w", err)
	}
	return nil
}

func loadProgram() ([]byte, error) {
	if filePath != "" {
		return os.ReadFile(filePath)
	}

	program := make([]byte, 0, len(byteArgs))
	for _, raw := range byteArgs {
		n, err := strconv.ParseUint(raw, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid -b value %q: %w", raw, err)
		}
		program = append(program, byte(n))
	}
	if len(program) == 0 {
		return nil, fmt.Errorf("no program given: supply -b flags or --file")
	}
	return program, nil
}
