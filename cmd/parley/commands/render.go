package commands

import (
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
)

func render(w io.Writer, markdown string) error {
	glam, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("creating markdown renderer: %w", err)
	}
	out, err := glam.Render(markdown)
	if err != nil {
		return fmt.Errorf("rendering reply: %w", err)
	}
	_, err = fmt.Fprint(w, out)
	return err
}
