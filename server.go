// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"

	"github.com/urfave/cli"

	"github.com/opennetsys/nefqos/backend/logger"
	"github.com/opennetsys/nefqos/backend/nef_service"
)

var NEF = &nef_service.NEF{}

func main() {
	app := cli.NewApp()
	app.Name = "nefqos"
	logger.AppLog.Infoln(app.Name)
	app.Usage = "-cfg nefqos configuration file"
	app.Action = action
	app.Flags = NEF.GetCliCmd()
	if err := app.Run(os.Args); err != nil {
		logger.AppLog.Warnf("Error args: %v", err)
	}
}

func action(c *cli.Context) {
	NEF.Initialize(c)
	NEF.Start()
}
