package main

import "github.com/MeKo-Tech/scontrino/cmd/scontrino/cmd"

func main() {
	cmd.Execute()
}
