package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

type AskCommand struct {
	Query string `arg:"" help:"The question to answer."`
}

func (c AskCommand) Run(ctx context.Context, g *Globals) error {
	a, err := newApp(g)
	if err != nil {
		return err
	}

	index, closeIndex, err := a.openIndex(ctx)
	if err != nil {
		return err
	}
	defer closeIndex()

	generator, err := a.newGenerator(ctx, index)
	if err != nil {
		return err
	}

	response, err := generator.Answer(ctx, c.Query)
	if err != nil {
		return err
	}
	fmt.Println(response)
	return nil
}

type ChatCommand struct{}

func (c ChatCommand) Run(ctx context.Context, g *Globals) error {
	a, err := newApp(g)
	if err != nil {
		return err
	}

	index, closeIndex, err := a.openIndex(ctx)
	if err != nil {
		return err
	}
	defer closeIndex()

	generator, err := a.newGenerator(ctx, index)
	if err != nil {
		return err
	}

	color.Cyan("\nChat with your documents (type 'exit' to quit)")

	scanner := bufio.NewScanner(os.Stdin)
	userPrompt := color.New(color.FgGreen).PrintfFunc()
	assistantPrompt := color.New(color.FgCyan).PrintfFunc()

	for ctx.Err() == nil {
		userPrompt("\nYou: ")
		if !scanner.Scan() {
			break
		}

		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if strings.ToLower(query) == "exit" {
			break
		}

		spinner := getSpinner("🤖 Generating response...")
		response, err := generator.Answer(ctx, query)
		spinner.Finish()
		fmt.Print("\r")

		if err != nil {
			color.Red("Error: %v\n", err)
			continue
		}
		assistantPrompt("Assistant: %s\n", response)
	}

	return scanner.Err()
}
