// Package main is the entry point for stackup, the first-run provisioner
// for a containerized web application stack.
package main

func main() {
	Execute()
}
