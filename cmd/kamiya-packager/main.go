package main

import "github.com/oshokin/kamiya-packager/cmd/kamiya-packager/cmd"

func main() {
	cmd.Execute()
}
