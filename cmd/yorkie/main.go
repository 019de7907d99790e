// Command yorkie compiles a single Yorkie source file to SSA IR,
// printing the module to stdout. See spec §6.1 for the CLI surface;
// grounded on smasonuk-sicpu's main.go (flag.String for a required
// input path, explicit os.Exit codes per failure class rather than a
// single catch-all).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"yorkie/internal/codegen"
	"yorkie/internal/context"
	"yorkie/internal/driver"
	"yorkie/internal/dumper"
	"yorkie/internal/emitter"
	"yorkie/internal/parser"
)

func main() {
	var inputFile string
	flag.StringVar(&inputFile, "input-file", "", "path to the source file to compile (required)")
	flag.StringVar(&inputFile, "i", "", "shorthand for -input-file")
	printAST := flag.Bool("print-ast", false, "run the Dump pass and print the parsed AST before codegen")
	flag.Parse()

	if inputFile == "" {
		fmt.Fprintln(os.Stderr, "yorkie: -input-file (or -i) is required")
		flag.Usage()
		os.Exit(2)
	}

	src, err := os.ReadFile(inputFile)
	if err != nil {
		log.Printf("yorkie: open %q: %s", inputFile, err)
		os.Exit(2)
	}

	ctx := context.New(inputFile)
	em := emitter.New()

	d := driver.New()
	d.Add("Parse", func() error {
		p := parser.New(string(src), ctx)
		bag := p.ParseTopLevel()
		for _, diagnostic := range bag.All() {
			fmt.Fprintln(os.Stderr, diagnostic.Error())
		}
		if bag.Failed() {
			return fmt.Errorf("%d syntax error(s)", len(bag.All()))
		}
		return nil
	})
	if *printAST {
		d.Add("Dump", func() error {
			fmt.Fprint(os.Stdout, dumper.String(ctx))
			return nil
		})
	}
	d.Add("CodeGen", func() error {
		bag := codegen.New(em, ctx).Run()
		for _, diagnostic := range bag.All() {
			fmt.Fprintln(os.Stderr, diagnostic.Error())
		}
		if bag.Failed() {
			return fmt.Errorf("%d codegen error(s)", len(bag.All()))
		}
		return nil
	})

	if err := d.Run(); err != nil {
		log.Printf("yorkie: %s", err)
		os.Exit(1)
	}

	fmt.Println(em.Dump())
}
