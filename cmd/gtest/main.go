package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/jessevdk/go-flags"
	"github.com/samber/lo"
	"github.com/xplshn/gfe/pkg/ast"
	"github.com/xplshn/gfe/pkg/config"
	"github.com/xplshn/gfe/pkg/lexer"
	"github.com/xplshn/gfe/pkg/parser"
	"github.com/xplshn/gfe/pkg/token"
	"github.com/xplshn/gfe/pkg/util"
	"golang.org/x/sync/errgroup"
)

// Snapshot is the recorded front end output for one source file.
type Snapshot struct {
	File   string   `json:"file"`
	Hash   string   `json:"hash"`
	Tokens []string `json:"tokens"`
	AST    []string `json:"ast"`
	Error  string   `json:"error,omitempty"`
}

type FileTestResult struct {
	File     string        `json:"file"`
	Status   string        `json:"status"` // PASS, FAIL, SKIP, ERROR
	Message  string        `json:"message,omitempty"`
	Diff     string        `json:"diff,omitempty"`
	Duration time.Duration `json:"duration"`
}

type Option struct {
	Files          string `long:"files" default:"tests/*.gfe" description:"Space-separated glob patterns of source files"`
	Dir            string `long:"dir" description:"Directory holding the golden files (default: next to each source)" value-name:"DIR"`
	GenerateGolden bool   `long:"generate-golden" description:"Write golden files instead of checking them"`
	Jobs           int    `short:"j" long:"jobs" default:"4" description:"Number of files processed in parallel"`
	Verbose        bool   `short:"v" long:"verbose" description:"Report passing files too"`
}

const (
	cRed     = "\033[31m"
	cYellow  = "\033[33m"
	cGreen   = "\033[32m"
	cCyan    = "\033[36m"
	cMagenta = "\033[35m"
	cBold    = "\033[1m"
	cNone    = "\033[0m"
)

func main() {
	log.SetFlags(0)
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, stdout io.Writer) int {
	var opt Option
	p := flags.NewParser(&opt, flags.Default)
	if _, err := p.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return 0
		}
		return 1
	}
	if opt.Jobs < 1 {
		opt.Jobs = 1
	}

	files, err := expandGlobPatterns(opt.Files)
	if err != nil {
		log.Printf("%s[ERROR]%s %v", cRed, cNone, err)
		return 1
	}
	if len(files) == 0 {
		log.Printf("%s[ERROR]%s No source files match %q", cRed, cNone, opt.Files)
		return 1
	}
	if opt.Dir != "" {
		if err := os.MkdirAll(opt.Dir, 0755); err != nil {
			log.Printf("%s[ERROR]%s Failed to create directory %s: %v", cRed, cNone, opt.Dir, err)
			return 1
		}
	}

	results := make([]*FileTestResult, len(files))
	var g errgroup.Group
	g.SetLimit(opt.Jobs)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			start := time.Now()
			results[i] = testFile(file, opt)
			results[i].Duration = time.Since(start)
			return nil
		})
	}
	_ = g.Wait()

	printSummary(stdout, results, opt.Verbose)
	if hasFailures(results) {
		return 1
	}
	return 0
}

// getJSONPath returns where the golden file of sourceFile lives:
// ".<base>.json" in dir, or next to the source when dir is empty.
func getJSONPath(sourceFile, dir string) string {
	name := "." + filepath.Base(sourceFile) + ".json"
	if dir != "" {
		return filepath.Join(dir, name)
	}
	return filepath.Join(filepath.Dir(sourceFile), name)
}

// sourceHash fingerprints a source file so stale goldens can be told apart
// from real regressions.
func sourceHash(content []byte) string {
	return strconv.FormatUint(xxhash.Sum64(content), 16)
}

// takeSnapshot runs the lexer and parser over path. A syntax error is part
// of the snapshot, not a failure of the runner.
func takeSnapshot(path string) (*Snapshot, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(path)
	snap := &Snapshot{File: name, Hash: sourceHash(content), Tokens: []string{}, AST: []string{}}
	sources := util.NewSourceSet()
	source := []rune(string(content))
	fileID := sources.Add(name, source)
	cfg := config.NewConfig()

	tokens, err := lexer.Tokenize(source, fileID, cfg)
	if err != nil {
		snap.Error = sources.Diagnose(err, false)
		return snap, nil
	}
	snap.Tokens = lo.Map(tokens, func(tok token.Token, _ int) string { return tok.String() })

	prog, err := parser.Parse(tokens, cfg)
	if err != nil {
		snap.Error = sources.Diagnose(err, false)
		return snap, nil
	}
	snap.AST = lo.Map(prog.Body, func(stmt ast.Statement, _ int) string { return ast.Dump(stmt) })
	return snap, nil
}

func testFile(file string, opt Option) *FileTestResult {
	current, err := takeSnapshot(file)
	if err != nil {
		return &FileTestResult{File: file, Status: "ERROR", Message: err.Error()}
	}
	goldenFile := getJSONPath(file, opt.Dir)

	if opt.GenerateGolden {
		jsonData, err := json.MarshalIndent(current, "", "  ")
		if err != nil {
			return &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Failed to marshal golden file: %v", err)}
		}
		if err := os.WriteFile(goldenFile, append(jsonData, '\n'), 0644); err != nil {
			return &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Failed to write golden file: %v", err)}
		}
		return &FileTestResult{File: file, Status: "PASS", Message: "Golden file written to " + goldenFile}
	}

	goldenData, err := os.ReadFile(goldenFile)
	if errors.Is(err, os.ErrNotExist) {
		return &FileTestResult{File: file, Status: "SKIP", Message: "No golden file; run with --generate-golden"}
	}
	if err != nil {
		return &FileTestResult{File: file, Status: "ERROR", Message: err.Error()}
	}
	var golden Snapshot
	if err := json.Unmarshal(goldenData, &golden); err != nil {
		return &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Failed to parse golden file %s: %v", goldenFile, err)}
	}

	if golden.Hash != current.Hash {
		return &FileTestResult{File: file, Status: "FAIL", Message: "Source changed since the golden file was written"}
	}
	if diff := cmp.Diff(golden, *current); diff != "" {
		return &FileTestResult{File: file, Status: "FAIL", Message: "Output differs from the golden file", Diff: diff}
	}
	return &FileTestResult{File: file, Status: "PASS"}
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%6dµs", d.Microseconds())
	}
	return fmt.Sprintf("%6dms", d.Milliseconds())
}

var statusColor = map[string]string{
	"PASS":  cGreen,
	"FAIL":  cRed,
	"SKIP":  cYellow,
	"ERROR": cMagenta,
}

func printSummary(w io.Writer, results []*FileTestResult, verbose bool) {
	sorted := append([]*FileTestResult(nil), results...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].File < sorted[j].File })

	for _, r := range sorted {
		if r.Status == "PASS" && !verbose {
			continue
		}
		fmt.Fprintf(w, "%s[%s]%s %s %s%s%s", statusColor[r.Status], r.Status, cNone, formatDuration(r.Duration), cCyan, r.File, cNone)
		if r.Message != "" {
			fmt.Fprintf(w, ": %s", r.Message)
		}
		fmt.Fprintln(w)
		writeDiff(w, r.Diff)
	}

	fmt.Fprintf(w, "%s%d files:%s", cBold, len(sorted), cNone)
	for i, status := range []string{"PASS", "FAIL", "SKIP", "ERROR"} {
		sep := ","
		if i == 0 {
			sep = ""
		}
		fmt.Fprintf(w, "%s %s%d %s%s", sep, statusColor[status], countStatus(sorted, status), statusNoun[status], cNone)
	}
	fmt.Fprintln(w)
}

var statusNoun = map[string]string{
	"PASS":  "passed",
	"FAIL":  "failed",
	"SKIP":  "skipped",
	"ERROR": "errors",
}

// writeDiff indents a cmp.Diff report under its result line, coloring
// removed golden lines red and added output lines green.
func writeDiff(w io.Writer, diff string) {
	if diff == "" {
		return
	}
	fmt.Fprintln(w, "    --- Diff ---")
	for _, line := range strings.Split(strings.TrimRight(diff, "\n"), "\n") {
		color := ""
		switch trimmed := strings.TrimSpace(line); {
		case strings.HasPrefix(trimmed, "-"):
			color = statusColor["FAIL"]
		case strings.HasPrefix(trimmed, "+"):
			color = statusColor["PASS"]
		}
		fmt.Fprintf(w, "%s    %s%s\n", color, line, cNone)
	}
}

func countStatus(results []*FileTestResult, status string) int {
	return len(lo.Filter(results, func(r *FileTestResult, _ int) bool { return r.Status == status }))
}

func hasFailures(results []*FileTestResult) bool {
	return countStatus(results, "FAIL")+countStatus(results, "ERROR") > 0
}

// expandGlobPatterns resolves space separated globs to the absolute paths
// of regular files, sorted and without duplicates.
func expandGlobPatterns(patterns string) ([]string, error) {
	var matches []string
	for _, pattern := range strings.Fields(patterns) {
		files, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("filepath.Glob(%q): %w", pattern, err)
		}
		matches = append(matches, files...)
	}
	var abs []string
	for _, file := range matches {
		path, err := filepath.Abs(file)
		if err != nil {
			continue
		}
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			abs = append(abs, path)
		}
	}
	files := lo.Uniq(abs)
	sort.Strings(files)
	return files, nil
}
