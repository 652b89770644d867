package main

import "github.com/KaramelBytes/dkap-cli/cmd"

func main() {
	cmd.Execute()
}
