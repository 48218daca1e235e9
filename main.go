package main

import "github.com/audiolibrelab/jamroll/cmd"

func main() {
	cmd.Execute()
}
