package main

import "github.com/KaramelBytes/docquery-cli/cmd"

func main() {
	cmd.Execute()
}
