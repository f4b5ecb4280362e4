package main

import "github.com/florinutz/docsink/cmd"

func main() {
	cmd.Execute()
}
