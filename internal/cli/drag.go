package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/spf13/cobra"

	"github.com/topoviz/topoviz/pkg/drag"
	"github.com/topoviz/topoviz/pkg/pipeline"
	"github.com/topoviz/topoviz/pkg/route"
	"github.com/topoviz/topoviz/pkg/scene"
	"github.com/topoviz/topoviz/pkg/topo"
	"github.com/topoviz/topoviz/pkg/viewport"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// dragCommand creates the drag command for interactive repositioning.
func (c *CLI) dragCommand() *cobra.Command {
	var (
		output string
		step   float64
	)
	opts := c.pipelineOptions()

	cmd := &cobra.Command{
		Use:   "drag [scene.json]",
		Short: "Move topology elements interactively in the terminal",
		Long: `Move topology elements interactively in the terminal.

The drag command computes the layout for a scene, then opens a terminal UI
where elements can be grabbed and moved with the arrow keys. Moving a group
moves its entire subtree; edges touching moved elements are re-routed live.
Press 'w' to write the adjusted layout document.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDrag(cmd.Context(), args[0], opts, output, step)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "layout output file (default: <input>.layout.json)")
	cmd.Flags().Float64Var(&step, "step", 10, "movement per keypress, in layout units")
	cmd.Flags().StringVarP(&opts.Algorithm, "algorithm", "a", opts.Algorithm, "layout algorithm: pack (default), bottomup")

	return cmd
}

// runDrag computes the initial layout and hands control to the TUI.
func (c *CLI) runDrag(ctx context.Context, input string, opts pipeline.Options, output string, step float64) error {
	sc, err := scene.LoadScene(input)
	if err != nil {
		return fmt.Errorf("load scene %s: %w", input, err)
	}

	runner, err := c.newRunner(false)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger
	opts.LayoutOnly = true

	result, err := runner.Execute(ctx, sc, opts)
	if err != nil {
		return fmt.Errorf("compute layout: %w", err)
	}

	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + ".layout.json"
	}

	_, edges, err := sc.Topology()
	if err != nil {
		return err
	}

	model := newDragModel(result.Tree, edges, opts, output, step)
	program := tea.NewProgram(model, tea.WithContext(ctx))
	final, err := program.Run()
	if err != nil {
		return fmt.Errorf("run drag ui: %w", err)
	}

	m := final.(dragModel)
	if m.saved {
		printSuccess("Layout saved")
		printFile(output)
	}
	if m.err != nil {
		return m.err
	}
	return nil
}

// =============================================================================
// dragModel - Interactive element repositioning
// =============================================================================

// dragModel is the bubbletea model driving a drag session.
type dragModel struct {
	session *drag.Session
	tree    *topo.Tree
	opts    pipeline.Options
	output  string
	step    float64

	ids     []string // selectable element IDs, sorted
	cursor  int
	pointer r2.Vec // pointer position while dragging
	moved   int    // rerouted edge count of the last move
	saved   bool
	err     error
}

func newDragModel(tree *topo.Tree, edges []topo.Edge, opts pipeline.Options, output string, step float64) dragModel {
	var ids []string
	for _, n := range tree.Nodes() {
		if !n.Virtual {
			ids = append(ids, n.Vertex.ID)
		}
	}
	sort.Strings(ids)

	return dragModel{
		session: drag.NewSession(tree, edges),
		tree:    tree,
		opts:    opts,
		output:  output,
		step:    step,
		ids:     ids,
	}
}

func (m dragModel) Init() tea.Cmd {
	return nil
}

func (m dragModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.session.State() == drag.StateDragging {
		return m.updateDragging(key)
	}
	return m.updateSelecting(key)
}

// updateSelecting handles keys while no element is grabbed.
func (m dragModel) updateSelecting(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.ids)-1 {
			m.cursor++
		}
	case "enter", " ":
		id := m.ids[m.cursor]
		if err := m.session.Start(id); err != nil {
			m.err = err
			return m, tea.Quit
		}
		n, _ := m.tree.Node(id)
		m.pointer = n.Pos()
		m.moved = 0
	case "w":
		m.err = m.save()
		if m.err != nil {
			return m, tea.Quit
		}
		m.saved = true
	}
	return m, nil
}

// updateDragging handles keys while an element is grabbed.
func (m dragModel) updateDragging(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	id := m.session.Active()

	var delta r2.Vec
	switch key.String() {
	case "q", "ctrl+c":
		if _, err := m.session.End(id); err != nil {
			m.err = err
		}
		return m, tea.Quit
	case "enter", " ", "esc":
		if _, err := m.session.End(id); err != nil {
			m.err = err
			return m, tea.Quit
		}
		return m, nil
	case "up", "k":
		delta = r2.Vec{Y: -m.step}
	case "down", "j":
		delta = r2.Vec{Y: m.step}
	case "left", "h":
		delta = r2.Vec{X: -m.step}
	case "right", "l":
		delta = r2.Vec{X: m.step}
	default:
		return m, nil
	}

	m.pointer = r2.Add(m.pointer, delta)
	update, err := m.session.Move(id, m.pointer)
	if err != nil {
		m.err = err
		return m, tea.Quit
	}
	m.moved = len(update.Edges)
	return m, nil
}

func (m dragModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Drag Elements"))
	b.WriteString("\n")
	if m.session.State() == drag.StateDragging {
		b.WriteString(listDimStyle.Render("arrows: move  enter: drop  q: quit"))
	} else {
		b.WriteString(listDimStyle.Render("arrows: navigate  enter: grab  w: write layout  q: quit"))
	}
	b.WriteString("\n\n")

	active := m.session.Active()
	for i, id := range m.ids {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}

		n, _ := m.tree.Node(id)
		marker := " "
		if n.IsGroup() {
			marker = StyleHighlight.Render("◉")
		}

		line := fmt.Sprintf("%s%s %-25s  %s", cursor, marker, id,
			listDimStyle.Render(fmt.Sprintf("(%.0f, %.0f)", n.X, n.Y)))

		switch {
		case id == active:
			b.WriteString(StyleSuccess.Render(line))
		case i == m.cursor:
			b.WriteString(listSelectedStyle.Render(line))
		default:
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if active != "" {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  dragging %s · %d edge(s) re-routed", active, m.moved)))
	} else if m.saved {
		b.WriteString(StyleSuccess.Render("  saved " + m.output))
	}
	b.WriteString("\n")

	return b.String()
}

// save re-routes every edge and writes the current layout document.
func (m dragModel) save() error {
	router := route.New(m.tree)
	res := router.Route(m.session.Edges())
	tr := viewport.Fit(m.tree, viewport.Size{
		Width:  m.opts.ViewportWidth,
		Height: m.opts.ViewportHeight,
	}, m.opts.Margin)
	doc := scene.FromTree(m.tree, m.opts.ViewportWidth, m.opts.ViewportHeight, res, tr)
	return scene.ExportLayout(doc, m.output)
}
