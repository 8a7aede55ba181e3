package main

import "github.com/mikesmitty/movavg/cmd"

func main() {
	cmd.Execute()
}
