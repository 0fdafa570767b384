package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/esvm-dev/esvm/internal/bytecode"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm",
	Short: "Disassemble a byte program without running it",
	Long: `Print one line per instruction: offset, mnemonic, and decoded operand.

disasm walks the program with the exact same decode rule the VM's dispatch
loop uses, so it can never disagree with what execution would actually do.`,
	RunE: disassembleProgram,
}

func init() {
	rootCmd.AddCommand(disasmCmd)

	disasmCmd.Flags().StringArrayVarP(&byteArgs, "byte", "b", nil, "one decimal byte of the program (repeatable)")
	disasmCmd.Flags().StringVar(&filePath, "file", "", "read the program from a file instead of -b flags")
}

func disassembleProgram(_ *cobra.Command, _ []string) error {
	program, err := loadProgram()
	if err != nil {
		return err
	}

	cfg := bytecode.DefaultConfig()
	ds := bytecode.NewDataSegment(cfg.DataSegmentSize)
	ds.Load(program)

	d := bytecode.NewDisassembler(ds, os.Stdout)
	return d.Disassemble()
}
