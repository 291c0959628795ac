package main

import (
	"os"

	"github.com/fundedai/boothchat/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
