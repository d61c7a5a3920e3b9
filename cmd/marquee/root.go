package main

import (
	"github.com/spf13/cobra"

	"github.com/marquee/marquee/internal/config"
	"github.com/marquee/marquee/internal/database"
)

// commandContext loads configuration once per invocation.
type commandContext struct {
	configFlag *string
	cfg        *config.Config
}

func (c *commandContext) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(*c.configFlag)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

// openDatabase opens the configured database and applies pending migrations.
func (c *commandContext) openDatabase(migrate bool) (*database.DB, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	db, err := database.New(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

func newRootCommand() *cobra.Command {
	var configFlag string
	ctx := &commandContext{configFlag: &configFlag}

	rootCmd := &cobra.Command{
		Use:           "marquee",
		Short:         "Marquee show-addition service",
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newMigrateCommand(ctx))
	rootCmd.AddCommand(newShowsCommand(ctx))

	return rootCmd
}
