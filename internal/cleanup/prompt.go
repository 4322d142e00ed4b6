package cleanup

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// LinePrompter asks a yes/no question and reads the answer from a line of
// input. Only "y" or "yes" count as confirmation.
type LinePrompter struct {
	In  io.Reader
	Out io.Writer
}

func (p LinePrompter) Confirm(question string) (bool, error) {
	fmt.Fprintf(p.Out, "%s (y/N) ", question)
	answer, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
