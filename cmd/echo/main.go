package main

import "os"

func main() {
	os.Exit(reportExit(newApp(os.Stdin, os.Stdout).Run(os.Args)))
}
