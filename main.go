package main

import "github.com/Builder-Lawyers/execution-service/cmd"

func main() {
	cmd.Init()
}
