package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/goccy/go-json"
	"github.com/jessevdk/go-flags"
	"github.com/k0kubun/pp/v3"
	"github.com/mattn/go-isatty"
	"github.com/xplshn/gfe/pkg/ast"
	"github.com/xplshn/gfe/pkg/config"
	"github.com/xplshn/gfe/pkg/lexer"
	"github.com/xplshn/gfe/pkg/parser"
	"github.com/xplshn/gfe/pkg/util"
)

type Option struct {
	Tokens     bool     `long:"tokens" description:"Print one token per line (default)"`
	AST        bool     `long:"ast" description:"Print the parsed program as source"`
	Dump       bool     `long:"dump" description:"Print one S-expression per statement"`
	JSON       bool     `long:"json" description:"Print the tokens as JSON"`
	PP         bool     `long:"pp" description:"Pretty-print the AST structures"`
	Config     string   `short:"c" long:"config" description:"Load settings from a YAML file" value-name:"FILE"`
	Feature    []string `short:"F" long:"feature" description:"Enable a language feature" value-name:"NAME"`
	NoFeature  []string `long:"no-feature" description:"Disable a language feature" value-name:"NAME"`
	MaxDepth   int      `long:"max-depth" description:"Maximum expression nesting depth" value-name:"N"`
	Positional struct {
		File string `positional-arg-name:"FILE"`
	} `positional-args:"yes"`
}

func main() {
	log.SetFlags(0)
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var opt Option
	p := flags.NewParser(&opt, flags.HelpFlag|flags.PassDoubleDash)
	p.Usage = "[options] <file>"
	rest, err := p.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			p.WriteHelp(stdout)
			return 0
		}
		fmt.Fprintf(stderr, "gfe: %v\n", err)
		p.WriteHelp(stderr)
		return 1
	}
	if opt.Positional.File == "" || len(rest) != 0 {
		p.WriteHelp(stderr)
		return 1
	}

	cfg, err := buildConfig(opt)
	if err != nil {
		fmt.Fprintf(stderr, "gfe: %v\n", err)
		return 1
	}

	path := opt.Positional.File
	content, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "gfe: %v\n", err)
		return 1
	}
	sources := util.NewSourceSet()
	source := []rune(string(content))
	fileID := sources.Add(path, source)

	if !opt.AST && !opt.Dump && !opt.JSON && !opt.PP {
		opt.Tokens = true
	}

	if opt.Tokens {
		if err := printTokens(stdout, lexer.NewLexer(source, fileID, cfg)); err != nil {
			sources.PrintError(stderr, err)
			return 1
		}
	}
	if opt.JSON {
		tokens, err := lexer.Tokenize(source, fileID, cfg)
		if err != nil {
			sources.PrintError(stderr, err)
			return 1
		}
		if err := dumpJSON(stdout, tokens); err != nil {
			log.Printf("failed to dump tokens: %v", err)
			return 1
		}
	}

	if opt.AST || opt.Dump || opt.PP {
		prog, err := parser.ParseSource(source, fileID, cfg)
		if err != nil {
			sources.PrintError(stderr, err)
			return 1
		}
		if opt.AST {
			fmt.Fprint(stdout, prog.String())
		}
		if opt.Dump {
			for _, stmt := range prog.Body {
				fmt.Fprintln(stdout, ast.Dump(stmt))
			}
		}
		if opt.PP {
			printer := pp.New()
			printer.SetOutput(stdout)
			printer.SetColoringEnabled(isTerminal(stdout))
			printer.Println(prog)
		}
	}
	return 0
}

// buildConfig layers the config file, then the feature switches, then
// --max-depth over the defaults.
func buildConfig(opt Option) (*config.Config, error) {
	cfg := config.NewConfig()
	if opt.Config != "" {
		loaded, err := config.Load(opt.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	for _, name := range opt.Feature {
		if err := cfg.SetFeatureByName(name, true); err != nil {
			return nil, err
		}
	}
	for _, name := range opt.NoFeature {
		if err := cfg.SetFeatureByName(name, false); err != nil {
			return nil, err
		}
	}
	if opt.MaxDepth < 0 {
		return nil, fmt.Errorf("--max-depth must not be negative, got %d", opt.MaxDepth)
	}
	if opt.MaxDepth > 0 {
		cfg.MaxNestingDepth = opt.MaxDepth
	}
	return cfg, nil
}

// printTokens writes tokens as they are scanned, so everything before a
// lexer error is still shown.
func printTokens(w io.Writer, l *lexer.Lexer) error {
	for {
		tok, ok, err := l.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		fmt.Fprintln(w, tok.String())
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && isatty.IsTerminal(f.Fd())
}

func dumpJSON(w io.Writer, v any) error {
	opts := []json.EncodeOptionFunc{json.DisableHTMLEscape()}
	if isTerminal(w) {
		opts = append(opts, json.Colorize(json.DefaultColorScheme))
	}

	b, err := json.MarshalIndentWithOption(v, "", "\t", opts...)
	if err != nil {
		return fmt.Errorf("json.MarshalIndentWithOption: %w", err)
	}
	if _, err = w.Write(b); err != nil {
		return fmt.Errorf("w.Write: %w", err)
	}
	if _, err = io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("io.WriteString: %w", err)
	}
	return nil
}
