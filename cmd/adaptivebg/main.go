// adaptivebg derives an adaptive background colour from an image.
//
// It clusters the opaque pixels of an image to find its dominant colour and
// prints presentation values for it: a background, a readable text colour and
// a light/dark class.
package main

import (
	"os"

	"github.com/jmylchreest/adaptivebg/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
