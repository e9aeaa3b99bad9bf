package main

import "avifgun/cmd"

func main() {
	cmd.Execute()
}
