package main

import "github.com/dotcommander/qtrend/cmd"

func main() {
	cmd.Execute()
}
