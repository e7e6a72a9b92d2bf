package main

import "github.com/glbter/distributed-systems/portfolio-analytics/cmd"

func main() {
	cmd.Execute()
}
