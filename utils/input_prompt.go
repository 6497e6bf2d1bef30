package utils

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/RoscoeTheDog/codectx/constants/lipgloss"
)

// InputPrompt reads a single line of user input behind a styled prompt.
// EOF and empty input both yield an empty string.
func InputPrompt(reader *bufio.Reader) (string, error) {

	// Beautifully styled prompt message
	fmt.Print(lipgloss.BlueSky.Render("> "))

	userInput, err := reader.ReadString('\n')
	if userInput == "" {
		return "", nil
	}

	if err != nil && err != io.EOF {
		return "", fmt.Errorf("error reading input: %w", err)
	}

	return strings.TrimSpace(userInput), nil
}

// ConfirmPrompt asks a yes/no question and returns true only for an explicit
// yes answer.
func ConfirmPrompt(reader *bufio.Reader, question string) (bool, error) {
	fmt.Println(lipgloss.Yellow.Render(question + " [y/N]"))

	answer, err := InputPrompt(reader)
	if err != nil {
		return false, err
	}

	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
