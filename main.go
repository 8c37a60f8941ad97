package main

import (
	"github.com/zkfl/zkptoolkit/cmd"
)

func main() {
	cmd.Execute()
}
