package main

import "github.com/oceanbase/decaymem-go/cmd/decaymem/cli"

func main() {
	cli.Execute()
}
