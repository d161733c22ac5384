package main

import "github.com/samuelfneumann/simgym/cmd"

func main() {
	cmd.Execute()
}
