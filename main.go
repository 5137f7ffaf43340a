package main

import "github.com/ValentinKolb/routeipc/cmd"

func main() {
	cmd.Execute()
}
