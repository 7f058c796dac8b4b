package main

import "github.com/darmiel/riegel/cmd"

func main() {
	cmd.Execute()
}
