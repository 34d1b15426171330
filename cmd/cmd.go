package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"k8s.io/klog/klogr"

	"github.com/variantdev/buildmaster/pkg/buildmaster"
	"github.com/variantdev/buildmaster/pkg/config"
	"github.com/variantdev/buildmaster/pkg/loginfra"
	"github.com/variantdev/buildmaster/pkg/release"
	"github.com/variantdev/buildmaster/pkg/releasetracker"
)

func Execute() {
	log := klogr.New()

	fs := loginfra.Init()

	var flags *config.Flags

	resolve := func() (*config.Config, error) {
		conf, err := flags.Resolve()
		if err != nil {
			return nil, err
		}
		if err := loginfra.SetDebug(fs, conf.Debug); err != nil {
			return nil, err
		}
		return conf, nil
	}

	cmd := cobra.Command{
		Use:   "buildmaster",
		Short: "Build every published Spigot release with BuildTools",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := resolve()
			if err != nil {
				return err
			}

			man, err := buildmaster.New(conf, buildmaster.Logger(log))
			if err != nil {
				return err
			}
			return man.Run()
		},
	}

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	flags = config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print the releases that would be built, in build order",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := resolve()
			if err != nil {
				return err
			}

			t, err := releasetracker.New(conf.Discovery, releasetracker.Logger(log))
			if err != nil {
				return err
			}

			versions, err := t.Discover(conf.Reverse)
			if err != nil {
				return err
			}

			for _, v := range versions {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", v.Name, v.CoreVersion, v.Toolchain)
			}
			if len(versions) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "no releases found")
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "generation INDEX",
		Short: "Print the toolchain generation a class-file version index maps to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var index int
			if _, err := fmt.Sscanf(args[0], "%d", &index); err != nil {
				return fmt.Errorf("parsing index %q: %v", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), release.GenerationForIndex(index))
			return nil
		},
	})

	// Hand parsing of remaining flags to pflags and cobra
	pflag.CommandLine.AddGoFlagSet(fs)

	if err := cmd.Execute(); err != nil {
		log.Error(err, err.Error())
		os.Exit(1)
	}
}
