package repl

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/peterh/liner"

	"github.com/leengari/mini-optimizer/internal/domain/schema"
	"github.com/leengari/mini-optimizer/internal/engine"
	"github.com/leengari/mini-optimizer/internal/planner"
)

var (
	stageColor = color.New(color.FgCyan, color.Bold)
	errorColor = color.New(color.FgRed)
)

// REPL reads statements and prints the optimizer snapshots for each.
type REPL struct {
	eng *engine.Engine
	out io.Writer
}

func New(eng *engine.Engine, out io.Writer) *REPL {
	return &REPL{eng: eng, out: out}
}

// Start runs the interactive loop until exit, \q or end of input.
func (r *REPL) Start() error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(r.complete)

	fmt.Fprintln(r.out, "Welcome to the query optimizer")
	fmt.Fprintln(r.out, "Type 'exit' or '\\q' to quit, 'tables' to list tables, '\\d <table>' to describe one.")

	for {
		input, err := line.Prompt("> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		line.AppendHistory(input)
		if !r.Execute(input) {
			return nil
		}
	}
}

// Execute handles one input line and reports whether the loop should go
// on.
func (r *REPL) Execute(input string) bool {
	input = strings.TrimSpace(input)
	switch {
	case input == "exit" || input == "\\q":
		return false
	case input == "ls" || input == "list" || input == "tables":
		names, err := r.eng.ListTables()
		if err != nil {
			printError(r.out, err)
			return true
		}
		fmt.Fprintln(r.out, "Available tables:")
		for _, name := range names {
			fmt.Fprintf(r.out, "  - %s\n", name)
		}
		return true
	case strings.HasPrefix(input, "\\d"):
		name := strings.TrimSpace(strings.TrimPrefix(input, "\\d"))
		if r.eng.Catalog() == nil {
			printError(r.out, errors.New("no database loaded"))
			return true
		}
		t, ok := r.eng.Catalog().Get(name)
		if !ok {
			printError(r.out, fmt.Errorf("table not found: %s", name))
			return true
		}
		PrintTable(r.out, t)
		return true
	}

	res, err := r.eng.Explain(input)
	if err != nil {
		printError(r.out, err)
		return true
	}
	PrintResult(r.out, res)
	return true
}

func (r *REPL) complete(prefix string) []string {
	words := strings.Fields(prefix)
	if len(words) == 0 {
		return nil
	}
	last := words[len(words)-1]
	head := strings.TrimSuffix(prefix, last)

	if r.eng.Catalog() == nil {
		return nil
	}
	var out []string
	for _, name := range r.eng.Catalog().Names() {
		if strings.HasPrefix(strings.ToLower(name), strings.ToLower(last)) {
			out = append(out, head+name)
		}
	}
	return out
}

func printError(w io.Writer, err error) {
	errorColor.Fprintf(w, "Error: %v\n", err)
}

// PrintResult writes every snapshot as a markdown table of its nodes.
func PrintResult(w io.Writer, res *engine.Result) {
	pipeline := 0
	for _, s := range res.Snapshots {
		title := string(s.Stage)
		if s.Stage == planner.StagePipeline {
			pipeline++
			title = fmt.Sprintf("%s %d", title, pipeline)
		}
		stageColor.Fprintf(w, "== %s (%d nodes) ==\n", title, s.NodeCount())
		printSnapshot(w, s)
		fmt.Fprintln(w)
	}
}

func printSnapshot(w io.Writer, s planner.Snapshot) {
	header := []string{"operator", "path", "rows"}
	if s.Stage == planner.StagePipeline {
		header = append(header, "pipeline")
	}

	table := tablewriter.NewTable(w,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header(header)

	for i, e := range s.Entries() {
		rows := ""
		if i < len(s.Rows) {
			rows = strconv.FormatFloat(s.Rows[i], 'f', 0, 64)
		}
		row := []string{indent(len(e.Path)) + e.Operator.String(), e.Path.String(), rows}
		if s.Stage == planner.StagePipeline {
			mark := ""
			if s.InPipeline(e.Path) {
				mark = "*"
			}
			row = append(row, mark)
		}
		table.Append(row)
	}
	table.Render()
}

func indent(depth int) string {
	return strings.Repeat("· ", depth)
}

// PrintTable describes the columns of t.
func PrintTable(w io.Writer, t *schema.Table) {
	stageColor.Fprintf(w, "%s (%d rows)\n", t.Name, t.RowCount)
	table := tablewriter.NewTable(w,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header([]string{"column", "type", "key"})
	for _, c := range t.Columns {
		key := ""
		if c.PrimaryKey {
			key = "PK"
		}
		table.Append([]string{c.Name, string(c.Type), key})
	}
	table.Render()
}
