package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/turtacn/Anima/internal/cli"
	"github.com/turtacn/Anima/pkg/logger"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			if logger.Log != nil {
				logger.Log.Error("Panic recovered, control core exiting", "panic", r, "stack", string(debug.Stack()))
			} else {
				fmt.Fprintf(os.Stderr, "Panic recovered: %v\n%s", r, debug.Stack())
			}
			os.Exit(2)
		}
	}()

	cli.Execute()
}

// Personal.AI order the ending
