package main

import "github.com/hamed0406/online/internal/cli"

func main() {
	cli.Execute()
}
