package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

var errNoInput = errors.New("no input")

// prompter reads interactive answers line by line
type prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{scanner: bufio.NewScanner(in), out: out}
}

func (p *prompter) readLine() (string, error) {
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", errNoInput
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}

// Ask prompts until a non-empty answer is given
func (p *prompter) Ask(question string) (string, error) {
	for {
		fmt.Fprintf(p.out, "%s: ", question)
		answer, err := p.readLine()
		if err != nil {
			return "", err
		}
		if answer != "" {
			return answer, nil
		}
	}
}

// Confirm asks a yes/no question; an empty answer picks def
func (p *prompter) Confirm(question string, def bool) (bool, error) {
	hint := "[y/N]"
	if def {
		hint = "[Y/n]"
	}
	for {
		fmt.Fprintf(p.out, "%s %s: ", question, hint)
		answer, err := p.readLine()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		default:
			fmt.Fprintln(p.out, "Error: invalid input")
		}
	}
}
