package cmd

import (
	"os"

	"github.com/axill-mp/mpascal/internal/runner"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	lexemeFile string
	polirFile  string
	vocabFile  string

	// exitCode holds the exit code runMain captured from runner.Run, for
	// Execute to read once rootCmd.Execute returns. Only
	// cmd/mpascal/main.go is allowed to turn this into an os.Exit call.
	exitCode int
)

var rootCmd = &cobra.Command{
	Use:   "mpascal <source>",
	Short: "Lex, parse, generate, and run a MiniPascal program",
	Long: `mpascal is a four-stage MiniPascal interpreter: a lexer, a parser that
builds a symbol table and checks expression types, a POLIR (postfix)
instruction generator, and a stack interpreter that executes the result.
`,
	Args: cobra.ExactArgs(1),
	RunE: runMain,
}

func runMain(cmd *cobra.Command, args []string) error {
	exitCode = runner.Run(runner.Config{
		SourcePath: args[0],
		VocabPath:  vocabFile,
		Verbose:    verbose,
		LexemeFile: lexemeFile,
		PolirFile:  polirFile,
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
	})
	return nil
}

// Execute runs the root command and returns the process exit code it
// should terminate with. It never calls os.Exit itself; only
// cmd/mpascal/main.go does that.
func Execute() int {
	exitCode = 0
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return exitCode
}

func init() {
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "raise diagnostic verbosity")
	rootCmd.Flags().StringVarP(&lexemeFile, "lexeme-file", "l", "", "dump the classified token table to FILE after lexing")
	rootCmd.Flags().StringVarP(&polirFile, "polir-file", "p", "", "dump the generated POLIR instruction stream to FILE after generation")
	rootCmd.Flags().StringVar(&vocabFile, "vocab", "", "load the grammar vocabulary from FILE instead of the built-in default")
}
