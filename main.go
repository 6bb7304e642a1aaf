package main

import "github.com/Alijeyrad/physio_backend/cmd"

func main() {
	cmd.Execute()
}
