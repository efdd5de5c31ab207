package main

import "github.com/valpere/perelay/cmd"

func main() {
	cmd.Execute()
}
