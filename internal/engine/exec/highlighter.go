package exec

import (
	"context"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
)

// StyledSegment is one run of text sharing a single rendering style — the
// Go analogue of highlighter.rs's `(Style, String)` tuple, using
// lipgloss.Style (the teacher's rendering library) in place of ratatui's.
type StyledSegment struct {
	Style lipgloss.Style
	Text  string
}

// HighlightResponse is the completed styling of one YAML document,
// optionally sliced down to the lines from Start onward (HighlightRequest
// Partial requests only the tail a scrolled viewport still needs).
type HighlightResponse struct {
	Plain  []string
	Styled [][]StyledSegment
}

// HighlightRequest asks the highlighter goroutine to style lines,
// returning only Plain/Styled[Start:] when Start > 0. Grounded on
// highlighter.rs's HighlightRequest::{Full,Partial} variants, collapsed
// into one struct since Go has no enum-with-payload sugar worth
// reproducing for a two-case split.
type HighlightRequest struct {
	Lines    []string
	Start    int
	Response chan HighlightResponse
}

const highlightQueueCapacity = 16

// BgHighlighter runs YAML syntax highlighting on its own goroutine so the
// render loop never blocks on tokenizing a large document. Grounded on
// original_source/b4n-tasks/highlighter.rs (which used a dedicated OS
// thread and syntect); this uses alecthomas/chroma/v2, the tokenizer
// already present among the example pack's dependencies.
type BgHighlighter struct {
	requests chan HighlightRequest
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewHighlighter starts the background goroutine immediately, matching
// BgHighlighter::new's doc note ("immediately starts the background
// thread").
func NewHighlighter(themeName string) *BgHighlighter {
	ctx, cancel := context.WithCancel(context.Background())
	h := &BgHighlighter{
		requests: make(chan HighlightRequest, highlightQueueCapacity),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go h.run(ctx, themeName)
	return h
}

func (h *BgHighlighter) run(ctx context.Context, themeName string) {
	defer close(h.done)
	lexer := lexers.Get("yaml")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	style := styles.Get(themeName)
	if style == nil {
		style = styles.Fallback
	}

	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-h.requests:
			if !ok {
				return
			}
			resp := highlightLines(lexer, style, req.Lines)
			if req.Start > 0 && req.Start < len(resp.Plain) {
				resp = HighlightResponse{Plain: resp.Plain[req.Start:], Styled: resp.Styled[req.Start:]}
			}
			select {
			case req.Response <- resp:
			case <-ctx.Done():
			}
		}
	}
}

func highlightLines(lexer chroma.Lexer, style *chroma.Style, lines []string) HighlightResponse {
	resp := HighlightResponse{Plain: lines, Styled: make([][]StyledSegment, len(lines))}
	for i, line := range lines {
		iterator, err := lexer.Tokenise(nil, line)
		if err != nil {
			resp.Styled[i] = []StyledSegment{{Text: line}}
			continue
		}
		var segs []StyledSegment
		for _, tok := range iterator.Tokens() {
			entry := style.Get(tok.Type)
			segs = append(segs, StyledSegment{Style: styleFromChroma(entry), Text: tok.Value})
		}
		resp.Styled[i] = segs
	}
	return resp
}

func styleFromChroma(entry chroma.StyleEntry) lipgloss.Style {
	s := lipgloss.NewStyle()
	if entry.Colour.IsSet() {
		s = s.Foreground(lipgloss.Color(entry.Colour.String()))
	}
	if entry.Background.IsSet() {
		s = s.Background(lipgloss.Color(entry.Background.String()))
	}
	if entry.Bold == chroma.Yes {
		s = s.Bold(true)
	}
	if entry.Italic == chroma.Yes {
		s = s.Italic(true)
	}
	if entry.Underline == chroma.Yes {
		s = s.Underline(true)
	}
	return s
}

// Highlight submits lines for full highlighting and blocks until the
// response is ready or ctx is cancelled.
func (h *BgHighlighter) Highlight(ctx context.Context, lines []string) (HighlightResponse, error) {
	return h.request(ctx, HighlightRequest{Lines: lines})
}

// HighlightFrom submits lines but only wants the rendering from start
// onward, for a viewport that has already rendered the head of a long
// document.
func (h *BgHighlighter) HighlightFrom(ctx context.Context, lines []string, start int) (HighlightResponse, error) {
	return h.request(ctx, HighlightRequest{Lines: lines, Start: start})
}

func (h *BgHighlighter) request(ctx context.Context, req HighlightRequest) (HighlightResponse, error) {
	req.Response = make(chan HighlightResponse, 1)
	select {
	case h.requests <- req:
	case <-ctx.Done():
		return HighlightResponse{}, ctx.Err()
	}
	select {
	case resp := <-req.Response:
		return resp, nil
	case <-ctx.Done():
		return HighlightResponse{}, ctx.Err()
	}
}

// IsRunning reports whether the background goroutine is still alive.
func (h *BgHighlighter) IsRunning() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// Stop terminates the background goroutine.
func (h *BgHighlighter) Stop() { h.cancel() }
