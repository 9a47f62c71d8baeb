// Package prompt provides interactive CLI prompts for user input.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/thoreinstein/autoback/internal/errors"
)

// Sentinel errors for selection.
var (
	ErrNoChoices          = errors.New("nothing to select from")
	ErrInvalidSelection   = errors.New("invalid selection")
	ErrSelectionCancelled = errors.New("selection cancelled")
)

// Selector handles numbered selection prompts.
type Selector struct {
	reader io.Reader
	writer io.Writer
}

// NewSelector creates a new Selector using stdin and stdout.
func NewSelector() *Selector {
	return &Selector{
		reader: os.Stdin,
		writer: os.Stdout,
	}
}

// NewSelectorWithIO creates a Selector with custom reader and writer for testing.
func NewSelectorWithIO(r io.Reader, w io.Writer) *Selector {
	return &Selector{
		reader: r,
		writer: w,
	}
}

// Select prints choices as a numbered list under title and returns the
// index of the one the user picks. An empty answer picks the first choice.
//
// Returns:
//   - ErrNoChoices if choices is empty
//   - ErrInvalidSelection if the answer is not a number in range
//   - ErrSelectionCancelled if input ends before an answer (e.g. Ctrl+D)
func (s *Selector) Select(title string, choices []string) (int, error) {
	if len(choices) == 0 {
		return 0, ErrNoChoices
	}

	fmt.Fprintln(s.writer, title)
	for i, c := range choices {
		fmt.Fprintf(s.writer, "  [%d] %s\n", i+1, c)
	}
	fmt.Fprintf(s.writer, "Select [1]: ")

	input, err := bufio.NewReader(s.reader).ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && strings.TrimSpace(input) == "" {
			return 0, ErrSelectionCancelled
		}
		if !errors.Is(err, io.EOF) {
			return 0, errors.Wrap(err, "reading selection")
		}
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return 0, nil
	}

	selection, err := strconv.Atoi(input)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidSelection, "%q is not a number", input)
	}
	if selection < 1 || selection > len(choices) {
		return 0, errors.Wrapf(ErrInvalidSelection, "%d is out of range [1-%d]", selection, len(choices))
	}
	return selection - 1, nil
}
