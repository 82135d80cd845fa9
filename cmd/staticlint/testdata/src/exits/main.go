package main

import xos "os"

func helper() {
	xos.Exit(2)
}

func main() {
	defer helper()
	go func() { xos.Exit(3) }()
	xos.Exit(1) // want "direct call os.Exit is not allowed in main function"
}
