// Command tonevent reads bridge event contracts from their account state and
// builds the payload relays sign for them.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	if err := newRootCmd(logger, nil).Execute(); err != nil {
		logger.WithError(err).Error("command failed")
		os.Exit(1)
	}
}
