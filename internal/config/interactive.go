package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

var (
	inputFile = os.Stdin
)

func guidedInitialization(config *Config) error {
	scanner := bufio.NewScanner(inputFile)

	input, err := ask(scanner, fmt.Sprintf("Enter repository owner [default: %s]", config.Owner))
	if err != nil {
		return err
	}
	if input != "" {
		config.Owner = input
	}

	input, err = ask(scanner, fmt.Sprintf("Enter repository name [default: %s]", config.Repo))
	if err != nil {
		return err
	}
	if input != "" {
		config.Repo = input
	}

	input, err = ask(scanner, fmt.Sprintf("Enter path within the repository [default: %s]", config.Path))
	if err != nil {
		return err
	}
	if input != "" {
		config.Path = input
	}

	input, err = ask(scanner, fmt.Sprintf("Enter output file [default: %s]", config.OutputFile))
	if err != nil {
		return err
	}
	if input != "" {
		config.OutputFile = input
	}

	input, err = ask(scanner, "Enter GitHub token (optional, raises the API rate limit)")
	if err != nil {
		return err
	}
	if input != "" {
		config.Token = input
	}

	return nil
}

func ask(scanner *bufio.Scanner, prompt string) (string, error) {
	fmt.Printf("%s: ", prompt)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("could not read user input: %w", err)
		}
		return "", nil // EOF or closed input
	}
	return strings.TrimSpace(scanner.Text()), nil
}
