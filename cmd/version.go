package main

import (
	"context"
	"fmt"
)

type VersionCommand struct {
}

func (c VersionCommand) Run(ctx context.Context) (err error) {
	fmt.Println(version)
	return nil
}
