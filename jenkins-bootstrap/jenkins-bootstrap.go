// Command jenkins-bootstrap provisions a Jenkins CI server on a dnf-based host.
package main

import "github.com/oshokin/jenkins-bootstrap/cmd/jenkins-bootstrap/cmd"

func main() {
	cmd.Execute()
}
