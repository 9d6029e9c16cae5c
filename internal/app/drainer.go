package app

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/five82/obcdbg/internal/console"
	"github.com/five82/obcdbg/internal/telemetry"
)

// eraseLastLine moves the cursor up one row and clears it.
const eraseLastLine = "\x1b[1A\x1b[2K"

// StartDrainer pops at most one record per interval, renders it and writes the
// resulting line to out. The returned channel closes once the loop has exited,
// either because ctx ended or because out failed.
func StartDrainer(ctx context.Context, queue *telemetry.Queue, renderer *console.Renderer, out io.Writer, interval time.Duration) <-chan struct{} {
	if interval <= 0 {
		interval = DefaultTick
	}
	done := make(chan struct{})
	w := newLineWriter(out)

	go func() {
		defer close(done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rec, ok := queue.Pop()
				if !ok {
					continue
				}
				ins, ok := renderer.Render(rec)
				if !ok {
					continue
				}
				if err := w.write(ins); err != nil {
					return
				}
			}
		}
	}()

	return done
}

// lineWriter prints render instructions. Terminals get level colors and
// in-place progress updates; pipes and files get plain lines.
type lineWriter struct {
	out io.Writer
	tty bool
}

func newLineWriter(out io.Writer) *lineWriter {
	w := &lineWriter{out: out}
	if f, ok := out.(*os.File); ok {
		fd := f.Fd()
		w.tty = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
	return w
}

func (w *lineWriter) write(ins console.Instruction) error {
	text := ins.Line.Text
	if w.tty {
		text = console.Style(ins.Line.Level).Render(text)
		if ins.Overwrite {
			text = eraseLastLine + text
		}
	}
	_, err := io.WriteString(w.out, text+"\n")
	return err
}
