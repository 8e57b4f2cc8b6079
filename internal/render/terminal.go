package render

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/glamour"
	"github.com/cli/go-gh/v2/pkg/markdown"
	"github.com/fatih/color"
	"github.com/markis/bizcoach/internal/config"
	"github.com/markis/bizcoach/internal/segment"
)

var headings = map[segment.Field]string{
	segment.FieldNext:         "Partner",
	segment.FieldNextJP:       "Partner (日本語)",
	segment.FieldRefactored:   "Better phrasing",
	segment.FieldRefactoredJP: "Better phrasing (日本語)",
	segment.FieldAnalysis:     "Analysis",
	segment.FieldNote:         "Note",
}

// markdownFields hold free-form commentary that is worth rendering as markdown.
var markdownFields = map[segment.Field]bool{
	segment.FieldAnalysis: true,
	segment.FieldNote:     true,
}

// TerminalRenderer prints segmenter snapshots as they arrive. Each section is printed
// once under its heading; later snapshots only add the new suffix.
type TerminalRenderer struct {
	schema    segment.Schema
	out       io.Writer
	markdown  *glamour.TermRenderer
	plainText bool
	heading   *color.Color
	spinner   *spinner.Spinner

	printed map[segment.Field]int
	current segment.Field
	started bool
	pending strings.Builder
	err     error
}

func NewTerminalRenderer(schema segment.Schema, cfg config.RenderConfig, usePlainText bool, out io.Writer) (*TerminalRenderer, error) {
	t := &TerminalRenderer{
		schema:    schema,
		out:       out,
		plainText: usePlainText,
		heading:   color.New(color.FgCyan, color.Bold),
		printed:   make(map[segment.Field]int),
	}
	if usePlainText {
		t.heading.DisableColor()
		return t, nil
	}

	md, err := glamour.NewTermRenderer(
		markdown.WithTheme(cfg.Theme),
		markdown.WithWrap(cfg.Wrap),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	t.markdown = md

	t.spinner = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	t.spinner.Suffix = " Thinking..."
	_ = t.spinner.Color("fgHiMagenta", "bold")
	return t, nil
}

// Start shows the waiting indicator until the first snapshot arrives.
func (t *TerminalRenderer) Start() {
	if t.spinner != nil {
		t.spinner.Start()
	}
}

func (t *TerminalRenderer) stopSpinner() {
	if t.spinner != nil && t.spinner.Active() {
		t.spinner.Stop()
	}
}

// Update prints whatever snap adds to the sections already shown. It has the
// segmenter callback's signature.
func (t *TerminalRenderer) Update(snap segment.Snapshot) {
	t.stopSpinner()
	if t.err != nil {
		return
	}

	for _, sec := range t.schema.Sections {
		value := snap.Get(sec.Field)
		done := t.printed[sec.Field]
		if len(value) <= done {
			continue
		}
		t.write(sec.Field, value[done:])
		t.printed[sec.Field] = len(value)
	}
}

func (t *TerminalRenderer) write(field segment.Field, text string) {
	if !t.started || field != t.current {
		t.flushPending()
		if t.started {
			fmt.Fprint(t.out, "\n\n")
		}
		fmt.Fprintln(t.out, t.heading.Sprint(headings[field]))
		t.current = field
		t.started = true
	}

	if t.plainText || !markdownFields[field] {
		fmt.Fprint(t.out, text)
		return
	}

	t.pending.WriteString(text)
	content := t.pending.String()
	if idx := findMarkdownBreakPoint(content); idx > 0 {
		t.renderContent(content[:idx])
		remaining := content[idx:]
		t.pending.Reset()
		t.pending.WriteString(remaining)
	}
}

func (t *TerminalRenderer) flushPending() {
	if remaining := t.pending.String(); remaining != "" {
		t.pending.Reset()
		t.renderContent(remaining)
	}
}

func (t *TerminalRenderer) renderContent(content string) {
	content = strings.TrimSpace(content)
	if content == "" || t.err != nil {
		return
	}

	mdContent, err := t.markdown.Render(content)
	if err != nil {
		t.err = fmt.Errorf("failed to render markdown: %w", err)
		return
	}
	fmt.Fprintln(t.out, strings.TrimSpace(mdContent))
}

// Finish renders anything still buffered and ends the output.
func (t *TerminalRenderer) Finish() error {
	t.stopSpinner()
	t.flushPending()
	if t.started {
		fmt.Fprintln(t.out)
	}
	return t.err
}

func findMarkdownBreakPoint(content string) int {
	const marker string = "\n\n"
	lastBreak := -1
	idx := strings.LastIndex(content, marker)
	if idx > lastBreak {
		lastBreak = idx + len(marker)
	}
	return lastBreak
}
