package main

import "github.com/vietddude/markerbridge/internal/cli"

func main() {
	cli.Execute()
}
