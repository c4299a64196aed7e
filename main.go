package main

import "github.com/nboudali/herbscrap/cmd"

func main() {
	cmd.Execute()
}
