package main

import "github.com/planline/planline/internal/cmd"

func main() {
	cmd.Execute()
}
