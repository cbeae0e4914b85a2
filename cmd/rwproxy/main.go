// Copyright 2023 RWProxy Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/rwproxy/rwproxy/lib/util/cmd"
	"github.com/rwproxy/rwproxy/lib/util/errors"
	"github.com/rwproxy/rwproxy/pkg/sctx"
	"github.com/rwproxy/rwproxy/pkg/server"
	"github.com/rwproxy/rwproxy/pkg/util/versioninfo"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     os.Args[0],
		Short:   "start the proxy server",
		Version: fmt.Sprintf("%s, commit %s", versioninfo.Version, versioninfo.GitHash),
	}
	rootCmd.SetOut(os.Stdout)
	rootCmd.SetErr(os.Stderr)

	sctx := &sctx.Context{}

	rootCmd.PersistentFlags().StringVar(&sctx.ConfigFile, "config", "", "proxy config file path")

	rootCmd.RunE = func(cmd *cobra.Command, _ []string) error {
		srv, err := server.NewServer(cmd.Context(), sctx)
		if err != nil {
			return errors.Wrapf(err, "fail to create server")
		}

		<-cmd.Context().Done()
		if e := srv.Close(); e != nil {
			err = errors.Wrapf(e, "shutdown with errors")
		}

		return err
	}

	cmd.RunRootCommand(rootCmd)
}
