package main

import "github.com/OpenTraceLab/OpenTraceIC/cmd/ictest/cmd"

func main() {
	cmd.Execute()
}
