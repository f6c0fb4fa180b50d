package mapcoreutil

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds the mapcore CLI's bound configuration, the same shape as
// the teacher's inmaputil.Cfg: a *viper.Viper plus the command tree it
// is bound to.
type Cfg struct {
	*viper.Viper

	Root, convertCmd, infoCmd, cspaceCmd, voronoiCmd *cobra.Command

	log *logrus.Logger
}

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

// InitializeConfig builds the command tree and binds every flag the
// subcommands use to cfg, the same two-pass shape (build commands, then
// loop over a flat options table registering flags across whichever
// commands use them) the teacher's InitializeConfig uses.
func InitializeConfig() *Cfg {
	cfg := &Cfg{Viper: viper.New(), log: logrus.New()}

	cfg.Root = &cobra.Command{
		Use:   "mapcore",
		Short: "A 2D robotics occupancy-grid and vector-map toolkit.",
		Long: `mapcore converts, inspects and transforms robot occupancy-grid and
vector map files: MapViewer, Saphira, Carmen, Beesoft and Point-List
formats, configuration-space growth, and grid-to-vector Voronoi
reduction.

Configuration can be set with flags, with environment variables in the
form MAPCORE_var, or with a TOML file named by --config.`,
		DisableAutoGenTag: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return setConfig(cfg)
		},
	}

	cfg.convertCmd = &cobra.Command{
		Use:   "convert",
		Short: "Convert a map file from one format to another.",
		Long:  `convert loads --in in --in-format and saves it as --out in --out-format.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunConvert(cfg.GetString("in"), cfg.GetString("in-format"), cfg.GetString("out"), cfg.GetString("out-format"), cfg.log)
		},
		DisableAutoGenTag: true,
	}

	cfg.infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Print a map file's resolution, bounds and vector object count.",
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := RunInfo(cfg.GetString("in"), cfg.GetString("in-format"), cfg.log)
			if err != nil {
				return err
			}
			cmd.Println(info)
			return nil
		},
		DisableAutoGenTag: true,
	}

	cfg.cspaceCmd = &cobra.Command{
		Use:   "cspace",
		Short: "Grow occupied cells outward by a robot radius and re-save.",
		Long: `cspace reads --in, treats cells in [--lo,--hi] as occupied, dilates
them outward by --dist millimetres, and writes the result to --out.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunCspace(cfg.GetString("in"), cfg.GetString("in-format"), cfg.GetString("out"), cfg.GetString("out-format"),
				float32(cfg.GetFloat64("lo")), float32(cfg.GetFloat64("hi")), cfg.GetFloat64("dist"), cfg.log)
		},
		DisableAutoGenTag: true,
	}

	cfg.voronoiCmd = &cobra.Command{
		Use:   "voronoi",
		Short: "Reduce an occupancy grid's boundaries to Voronoi line segments.",
		Long: `voronoi treats cells in [--occ-lo,--occ-hi] as occupied, computes the
boundary Voronoi diagram with a minimum site spacing of --d-min, and
writes the merged line segments to --out in voronoifile format.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunVoronoi(cfg.GetString("in"), cfg.GetString("in-format"), cfg.GetString("out"),
				float32(cfg.GetFloat64("occ-lo")), float32(cfg.GetFloat64("occ-hi")), cfg.GetFloat64("d-min"), cfg.log)
		},
		DisableAutoGenTag: true,
	}

	cfg.Root.AddCommand(cfg.convertCmd, cfg.infoCmd, cfg.cspaceCmd, cfg.voronoiCmd)

	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name:       "config",
			usage:      "config names a TOML file of default option values, applied before flags and environment variables.",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{cfg.Root.PersistentFlags()},
		},
		{
			name:       "in",
			usage:      "in is the input map file path.",
			shorthand:  "i",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{cfg.convertCmd.Flags(), cfg.infoCmd.Flags(), cfg.cspaceCmd.Flags(), cfg.voronoiCmd.Flags()},
		},
		{
			name:       "in-format",
			usage:      "in-format is the input file's format: mapviewer, saphira, beesoft, pointlist or carmen.",
			defaultVal: "mapviewer",
			flagsets:   []*pflag.FlagSet{cfg.convertCmd.Flags(), cfg.infoCmd.Flags(), cfg.cspaceCmd.Flags(), cfg.voronoiCmd.Flags()},
		},
		{
			name:       "out",
			usage:      "out is the output map file path.",
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{cfg.convertCmd.Flags(), cfg.cspaceCmd.Flags(), cfg.voronoiCmd.Flags()},
		},
		{
			name:       "out-format",
			usage:      "out-format is the output file's format: mapviewer, saphira, beesoft, pointlist or carmen.",
			defaultVal: "mapviewer",
			flagsets:   []*pflag.FlagSet{cfg.convertCmd.Flags(), cfg.cspaceCmd.Flags()},
		},
		{
			name:       "lo",
			usage:      "lo is the lower bound of the occupied-cell value range for cspace.",
			defaultVal: 0.5,
			flagsets:   []*pflag.FlagSet{cfg.cspaceCmd.Flags()},
		},
		{
			name:       "hi",
			usage:      "hi is the upper bound of the occupied-cell value range for cspace.",
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{cfg.cspaceCmd.Flags()},
		},
		{
			name:       "dist",
			usage:      "dist is the configuration-space growth radius in millimetres.",
			defaultVal: 300.0,
			flagsets:   []*pflag.FlagSet{cfg.cspaceCmd.Flags()},
		},
		{
			name:       "occ-lo",
			usage:      "occ-lo is the lower bound of the occupied-cell value range for voronoi.",
			defaultVal: 0.5,
			flagsets:   []*pflag.FlagSet{cfg.voronoiCmd.Flags()},
		},
		{
			name:       "occ-hi",
			usage:      "occ-hi is the upper bound of the occupied-cell value range for voronoi.",
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{cfg.voronoiCmd.Flags()},
		},
		{
			name:       "d-min",
			usage:      "d-min is the minimum spacing between Voronoi sites, in millimetres.",
			defaultVal: 100.0,
			flagsets:   []*pflag.FlagSet{cfg.voronoiCmd.Flags()},
		},
	}

	cfg.SetEnvPrefix("MAPCORE")
	cfg.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	cfg.AutomaticEnv()
	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 {
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch v := option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, v, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, v, option.usage)
				}
			case float64:
				set.Float64(option.name, v, option.usage)
			default:
				panic(fmt.Errorf("mapcore: invalid option default type: %T", v))
			}
			cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
	return cfg
}

// setConfig loads the TOML session file named by --config, if any, as
// defaults that flags and environment variables still override.
func setConfig(cfg *Cfg) error {
	path := cfg.GetString("config")
	if path == "" {
		return nil
	}
	var defaults map[string]interface{}
	if _, err := toml.DecodeFile(path, &defaults); err != nil {
		return fmt.Errorf("mapcore: reading config file %q: %w", path, err)
	}
	for k, v := range defaults {
		cfg.SetDefault(k, v)
	}
	return nil
}
