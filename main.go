package main

import "github.com/jsphweid/chordrnn/cmd"

func main() {
	cmd.Execute()
}
