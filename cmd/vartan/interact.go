package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/gramforge/gramforge/driver/parser"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:     "interact <grammar file path>",
		Short:   "Parse lines of input interactively against a compiled grammar",
		Example: `  vartan interact grammar.json`,
		Args:    cobra.ExactArgs(1),
		RunE:    runInteract,
	}
	rootCmd.AddCommand(cmd)
}

func runInteract(cmd *cobra.Command, args []string) error {
	cgram, err := readCompiledGrammar(args[0])
	if err != nil {
		return fmt.Errorf("Cannot read a compiled grammar: %w", err)
	}
	gram := parser.NewGrammar(cgram)

	rl, err := readline.New(fmt.Sprintf("%v> ", cgram.Name))
	if err != nil {
		return err
	}
	defer rl.Close()

	pterm.Info.Printfln("Loaded grammar %v. Enter a line to parse it, or <ctrl>D to quit.", cgram.Name)

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		toks, err := parser.NewTokenStream(cgram, bytes.NewReader([]byte(line)))
		if err != nil {
			pterm.Error.Println(err)
			continue
		}

		tb := parser.NewDefaultSyntaxTreeBuilder()
		p, err := parser.NewParser(toks, gram, parser.SemanticAction(parser.NewASTActionSet(gram, tb)))
		if err != nil {
			pterm.Error.Println(err)
			continue
		}

		if err := p.Parse(); err != nil {
			pterm.Error.Println(err)
			continue
		}

		if synErrs := p.SyntaxErrors(); len(synErrs) > 0 {
			for _, synErr := range synErrs {
				pterm.Error.Printfln("%v:%v: %v", synErr.Row+1, synErr.Col+1, synErr.Message)
			}
			continue
		}

		pterm.Success.Println("parsed")
		parser.PrintTree(os.Stdout, tb.Tree())
	}
}
