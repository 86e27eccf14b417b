// Command bcc compiles a single source file to an ARM executable.
//
// The compiler core lives in pkg/compiler; this driver owns flag parsing,
// file handling and the call into the assembler/linker script.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/xyproto/env/v2"

	"github.com/AliBay07/bc-compiler/pkg/compiler"
	"github.com/AliBay07/bc-compiler/pkg/project"
	"github.com/AliBay07/bc-compiler/pkg/utils"
)

const (
	compilerName = "bc-compiler (bcc)"
	version      = "0.3.0"
)

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func main() {
	cfg, err := project.LoadIfPresent(project.ConfigFileName)
	if err != nil {
		fail("config error: %v", err)
	}

	var (
		showTokens    = flag.Bool("tokens", false, "display the token stream")
		showAST       = flag.Bool("ast", false, "display the abstract syntax tree")
		showRegisters = flag.Bool("show-registers", false, "show register allocation details")
		arch          = flag.String("arch", env.Str("BCC_ARCH", cfg.Arch), "target architecture")
		saveAsm       = flag.Bool("save-assembly", cfg.SaveAssembly || env.Bool("BCC_SAVE_ASM"), "keep the generated assembly file")
		outName       = flag.String("o", cfg.Output, "output executable name")
		showVersion   = flag.Bool("version", false, "show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s v%s\n", compilerName, version)
		return
	}
	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <input-file>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}
	if !strings.EqualFold(*arch, "arm") {
		fail("unsupported architecture: %s", *arch)
	}

	inputPath := flag.Arg(0)
	data, err := os.ReadFile(inputPath)
	if err != nil {
		fail("read error: %v", err)
	}
	src := string(data)

	tokens, err := compiler.Lex(src)
	if err != nil {
		fail("lex error: %v", err)
	}
	if *showTokens {
		fmt.Println("Token Stream:")
		fmt.Println("-------------------------------")
		for _, tok := range tokens {
			fmt.Println(" ", tok)
		}
		fmt.Println("-------------------------------")
	}

	unit, err := compiler.Parse(tokens, src)
	if err != nil {
		fail("syntax error: %v", err)
	}
	if *showAST {
		fmt.Println("AST:")
		fmt.Println("-------------------------------")
		compiler.Dump(os.Stdout, unit)
		fmt.Println("-------------------------------")
	}

	alloc := &compiler.Allocator{}
	if *showRegisters {
		alloc.Debug = os.Stdout
	}
	if err := alloc.Allocate(unit); err != nil {
		fail("allocation error: %v", err)
	}

	asmText, err := compiler.Generate(unit)
	if err != nil {
		fail("codegen error: %v", err)
	}

	name := *outName
	if name == "" {
		name = utils.Stem(inputPath)
	}
	asmPath := name + ".s"
	if err := os.WriteFile(asmPath, []byte(asmText), 0o644); err != nil {
		fail("write error: %v", err)
	}

	script := env.Str("BCC_LINK_SCRIPT", cfg.LinkScript)
	cmd := exec.Command("/bin/sh", script, asmPath, name)
	if out, err := cmd.CombinedOutput(); err != nil {
		fmt.Fprint(os.Stderr, string(out))
		fail("link error: %v", err)
	}

	if !*saveAsm {
		if err := os.Remove(asmPath); err != nil {
			fmt.Fprintln(os.Stderr, "warning:", err)
		}
	}

	fmt.Printf("Compilation and linking succeeded for target %s\n", strings.ToUpper(*arch))
}
