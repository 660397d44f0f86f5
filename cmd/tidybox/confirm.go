package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

// confirmTyped asks the user to type expected and reports whether they did.
// Interactive terminals get a huh input; pipes and tests get a plain line read.
// Matching is exact and case-sensitive.
func confirmTyped(cmd *cobra.Command, prompt, expected string) (bool, error) {
	answer, err := readAnswer(cmd, fmt.Sprintf("%s Type %s to continue", prompt, expected), false)
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return answer == expected, nil
}

func readAnswer(cmd *cobra.Command, title string, secret bool) (string, error) {
	in := cmd.InOrStdin()
	if file, ok := in.(*os.File); ok && isTerminal(file) {
		var answer string
		input := huh.NewInput().Title(title).Value(&answer)
		if secret {
			input = input.EchoMode(huh.EchoModePassword)
		}
		if err := input.Run(); err != nil {
			return "", err
		}
		return answer, nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: ", title)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read answer: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return strings.TrimRight(line, "\r\n"), nil
}
