package ui

import (
	"fmt"
	"regexp"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/viewport"
	markdown "github.com/MichaelMure/go-term-markdown"
	"github.com/gomarkdown/markdown/parser"

	"plana/chat"
	appmodel "plana/model"
)

func newChatViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.KeyMap.Up.SetEnabled(false)
	vp.KeyMap.Down.SetEnabled(false)
	vp.KeyMap.HalfPageUp.SetEnabled(false)
	vp.KeyMap.HalfPageDown.SetEnabled(false)
	vp.KeyMap.PageUp.SetEnabled(false)
	vp.KeyMap.PageDown.SetEnabled(false)
	return vp
}

// updateViewportContent re-renders the whole transcript into the viewport.
func (a *AppView) updateViewportContent(gotoBottom bool) {
	if !a.ready {
		return
	}

	var content strings.Builder
	for i, turn := range a.dataModel.Turns {
		highlighted := i == a.highlightedTurnIdx && a.highlightFlashCount%2 == 1
		switch turn.Role {
		case chat.RoleUser:
			content.WriteString(a.formatUserTurn(turn, highlighted))
		case chat.RoleAgent:
			content.WriteString(a.formatAgentTurn(turn, highlighted))
		case chat.RoleSystem:
			content.WriteString(a.formatSystemTurn(turn))
		}
		content.WriteString("\n")
	}

	a.viewport.SetContent(content.String())
	if gotoBottom {
		a.viewport.GotoBottom()
	}
}

// formatSystemTurn renders an app status line (stream failure, forced stop)
// in dim text so it reads as scrollback context rather than agent output.
func (a *AppView) formatSystemTurn(turn chat.Turn) string {
	timestamp := DimStyle.Render(turn.CreatedAt.Format("[15:04]"))
	var b strings.Builder
	for i, line := range strings.Split(turn.Content, "\n") {
		if i == 0 {
			fmt.Fprintf(&b, "%s %s\n", timestamp, DimStyle.Render(line))
			continue
		}
		fmt.Fprintf(&b, "        %s\n", DimStyle.Render(line))
	}
	return b.String()
}

// formatUserTurn renders a user prompt with the green gutter bar. Edited
// prompts carry a marker so reruns are distinguishable in scrollback.
func (a *AppView) formatUserTurn(turn chat.Turn, highlighted bool) string {
	timestamp := DimStyle.Render(turn.CreatedAt.Format("[15:04]"))
	role := UserStyle.Render("You")
	if turn.Original != "" && turn.Original != turn.Content {
		role += DimStyle.Render(" (edited)")
	}

	body := turn.Content
	if rendered, ok := a.renderedTurns[turn.ID]; ok {
		body = rendered
	}
	if highlighted {
		body = HighlightStyle.Render(turn.Content)
	}

	// Raw ANSI keeps the bar color stable inside lipgloss-rendered lines.
	greenBold := "\x1b[32;1m"
	reset := "\x1b[0m"
	bar := greenBold + "┃" + reset

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s\n", bar, timestamp, role)
	for _, line := range strings.Split(body, "\n") {
		fmt.Fprintf(&b, "%s %s\n", bar, line)
	}
	return b.String()
}

// formatAgentTurn renders an agent reply from its chunk timeline: text in
// markdown, reasoning dimmed, tool calls as status badge lines, all in
// presentation order.
func (a *AppView) formatAgentTurn(turn chat.Turn, highlighted bool) string {
	timestamp := DimStyle.Render(turn.CreatedAt.Format("[15:04]"))
	role := AssistantStyle.Render("Assistant")
	if !turn.Complete && !turn.Typing && turn.Content != "" {
		role += DimStyle.Render(" (stopped)")
	}

	chunks := a.turnChunks(turn)

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", timestamp, role)

	if len(chunks) == 0 {
		if turn.Typing {
			b.WriteString(DimStyle.Render("…") + "\n")
		}
		return b.String()
	}

	for _, c := range chunks {
		switch c.Kind {
		case chat.ChunkText:
			text := c.Content
			if turn.Complete && !highlighted {
				if rendered, ok := a.renderedTurns[turn.ID]; ok {
					text = rendered
				}
			}
			if highlighted {
				text = HighlightStyle.Render(text)
			}
			b.WriteString(text)
			if !strings.HasSuffix(text, "\n") {
				b.WriteString("\n")
			}
		case chat.ChunkReasoning:
			for _, line := range strings.Split(strings.TrimRight(c.Content, "\n"), "\n") {
				b.WriteString(ReasoningStyle.Render("│ "+line) + "\n")
			}
		case chat.ChunkToolStatus:
			b.WriteString(a.formatToolBadge(c) + "\n")
		}
	}

	if turn.Typing {
		b.WriteString(DimStyle.Render("…") + "\n")
	}
	return b.String()
}

// turnChunks returns the chunks to display: the frozen timeline for
// finalized turns, the live merger projection while streaming, or a single
// synthetic text chunk when only plain content exists.
func (a *AppView) turnChunks(turn chat.Turn) []chat.Chunk {
	if len(turn.Chunks) > 0 {
		return turn.Chunks
	}
	if turn.AgentID != "" && !turn.Complete {
		if sess := a.dataModel.Coordinator.SessionFor(turn.AgentID); sess != nil {
			return sess.Merger.Timeline().Sorted()
		}
	}
	if turn.Content == "" {
		return nil
	}
	return []chat.Chunk{{Kind: chat.ChunkText, Content: turn.Content}}
}

// formatToolBadge renders one tool call status line.
func (a *AppView) formatToolBadge(c chat.Chunk) string {
	name := c.ToolName
	if name == "" {
		name = c.CallID
	}
	switch c.Status {
	case chat.StatusPreparing:
		return ToolPendingStyle.Render("⚙ " + name + " preparing...")
	case chat.StatusExecuting:
		return ToolPendingStyle.Render("⚙ " + name + " running...")
	case chat.StatusCompleted:
		return ToolDoneStyle.Render("✓ " + name)
	case chat.StatusError:
		detail := ""
		if len(c.Error) > 0 {
			detail = ": " + truncateOneLine(string(c.Error), 60)
		}
		return ToolErrorStyle.Render("✗ " + name + detail)
	}
	return DimStyle.Render("⚙ " + name)
}

func truncateOneLine(s string, limit int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > limit {
		return s[:limit-3] + "..."
	}
	return s
}

// renderMarkdownAsync renders a turn's text to terminal markdown off the
// update loop. The index travels with the result so a rewound transcript
// can reject stale renders.
func (a AppView) renderMarkdownAsync(turnIndex int, content string) tea.Cmd {
	width := a.viewport.Width - 4
	if width < 20 {
		width = 80
	}
	return func() tea.Msg {
		// Autolink mangles bare URLs in terminal output; disable it.
		extensions := parser.CommonExtensions &^ parser.Autolink
		p := parser.NewWithExtensions(extensions)

		rendered := string(markdown.Render(content, width, 0, markdown.WithCustomParser(p)))
		rendered = postProcessMarkdown(rendered)
		rendered = strings.TrimRight(rendered, "\n")

		return appmodel.MarkdownRenderedMsg{TurnIndex: turnIndex, Rendered: rendered}
	}
}

// postProcessMarkdown fixes go-term-markdown output quirks for chat display.
func postProcessMarkdown(rendered string) string {
	rendered = fixInlineCode(rendered)
	rendered = fixMarkdownLinks(rendered)
	rendered = frameCodeBlocks(rendered)
	return rendered
}

var inlineCodeRe = regexp.MustCompile(`\x1b\[44m(.*?)\x1b\[0m`)

// fixInlineCode replaces the default blue-background inline code styling
// with red foreground, which survives more terminal themes.
func fixInlineCode(rendered string) string {
	return inlineCodeRe.ReplaceAllString(rendered, "\x1b[31m$1\x1b[0m")
}

var markdownLinkRe = regexp.MustCompile(`(https?://[^\s\x1b]+)`)

// fixMarkdownLinks colors bare URLs red so they stand out without relying
// on terminal hyperlink support.
func fixMarkdownLinks(rendered string) string {
	return markdownLinkRe.ReplaceAllString(rendered, "\x1b[31m$1\x1b[0m")
}

// frameCodeBlocks wraps indented code block regions with labeled rule lines.
func frameCodeBlocks(rendered string) string {
	lines := strings.Split(rendered, "\n")
	var out []string
	inBlock := false
	ruleWidth := 40

	for _, line := range lines {
		isCode := strings.HasPrefix(line, "    ") && strings.TrimSpace(line) != ""
		if isCode && !inBlock {
			out = append(out, DimStyle.Render("━ [code] "+strings.Repeat("━", ruleWidth-9)))
			inBlock = true
		} else if !isCode && inBlock && strings.TrimSpace(line) != "" {
			out = append(out, DimStyle.Render(strings.Repeat("━", ruleWidth)))
			inBlock = false
		}
		out = append(out, stripCodeBlockPrefix(line, inBlock))
	}
	if inBlock {
		out = append(out, DimStyle.Render(strings.Repeat("━", ruleWidth)))
	}
	return strings.Join(out, "\n")
}

func stripCodeBlockPrefix(line string, inBlock bool) string {
	if inBlock && strings.HasPrefix(line, "    ") {
		return line[4:]
	}
	return line
}

var ansiRe = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string {
	return ansiRe.ReplaceAllString(s, "")
}

// wordWrapWithIndent wraps text at width, indenting continuation lines.
func wordWrapWithIndent(text string, width int, indent string) string {
	if width <= len(indent) {
		return text
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var b strings.Builder
	lineLen := 0
	for i, word := range words {
		if i == 0 {
			b.WriteString(word)
			lineLen = len(word)
			continue
		}
		if lineLen+1+len(word) > width {
			b.WriteString("\n" + indent + word)
			lineLen = len(indent) + len(word)
		} else {
			b.WriteString(" " + word)
			lineLen += 1 + len(word)
		}
	}
	return b.String()
}
