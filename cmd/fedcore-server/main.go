/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package main fedcore.
//
// Terms Of Service:
//
//     Schemes: http
//     Version: 1.0
//     License: SPDX-License-Identifier: Apache-2.0
//
// swagger:meta
package main

import (
	"github.com/spf13/cobra"
	"github.com/trustbloc/edge-core/pkg/log"

	"github.com/fedcore/federation/cmd/fedcore-server/startcmd"
)

var logger = log.New("fedcore-server")

func main() {
	rootCmd := &cobra.Command{
		Use: "fedcore-server",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}

	rootCmd.AddCommand(startcmd.GetStartCmd())

	if err := rootCmd.Execute(); err != nil {
		logger.Fatalf("Failed to run fedcore-server: %s", err)
	}
}
