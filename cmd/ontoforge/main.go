package main

import "github.com/dbsmedya/ontoforge/cmd/ontoforge/cmd"

func main() {
	cmd.Execute()
}
