/*
Copyright © 2024 the slstr authors.
This file is part of slstr.

slstr is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

slstr is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with slstr.  If not, see <http://www.gnu.org/licenses/>.
*/

package slstrutil

import (
	"context"
	"fmt"
	"os"

	"github.com/lnashier/viper"
	"github.com/ningaloo-research/slstr"
	"github.com/ningaloo-research/slstr/catalog"
	"github.com/ningaloo-research/slstr/datastore"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to slstr.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel sets the logging verbosity: one of panic, fatal,
              error, warn, info or debug.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "validate",
			usage: `
              validate specifies whether to check the content of each decoded
              field (codes, timestamps and numbers) in addition to splitting
              the identifier.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{decodeCmd.Flags()},
		},
		{
			name: "Pattern",
			usage: `
              Pattern selects the data files inside a SAFE directory.`,
			defaultVal: slstr.DefaultLoadConfig.Pattern,
			flagsets:   []*pflag.FlagSet{loadCmd.Flags(), plotCmd.Flags(), exportCmd.Flags()},
		},
		{
			name: "TimeDeltaVariable",
			usage: `
              TimeDeltaVariable is the variable holding the per-pixel time
              offset from the reference time of the product. It is corrected
              for packing before use.`,
			defaultVal: slstr.DefaultLoadConfig.TimeDeltaVariable,
			flagsets:   []*pflag.FlagSet{loadCmd.Flags(), plotCmd.Flags(), exportCmd.Flags()},
		},
		{
			name: "Variable",
			usage: `
              Variable is the variable to plot or export. If it is the same
              as TimeDeltaVariable, the corrected time offsets are used.`,
			shorthand:  "v",
			defaultVal: "sea_surface_temperature",
			flagsets:   []*pflag.FlagSet{plotCmd.Flags(), exportCmd.Flags()},
		},
		{
			name: "Window",
			usage: `
              Window limits the output to a region, given as
              "minLon,maxLon,minLat,maxLat" in degrees. An empty value
              includes everything.`,
			shorthand:  "w",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{plotCmd.Flags(), exportCmd.Flags()},
		},
		{
			name: "VMin",
			usage: `
              VMin is the value at the low end of the color scale. When
              VMin and VMax are both zero the range of the data is used.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
		{
			name: "VMax",
			usage: `
              VMax is the value at the high end of the color scale.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
		{
			name: "GridStep",
			usage: `
              GridStep is the spacing of map grid lines in degrees.`,
			defaultVal: 5.0,
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the file to write. For plot the format follows
              the extension (.png, .svg, .pdf). For export an empty value
              writes to standard output.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{plotCmd.Flags(), exportCmd.Flags()},
		},
		{
			name: "Credentials",
			usage: `
              Credentials is the path of the Data Store credentials file. The
              consumer key is on its third line and the consumer secret on
              its fourth. Environment variables are expanded.`,
			defaultVal: "${HOME}/eumetsat_api_credentials.txt",
			flagsets:   []*pflag.FlagSet{downloadCmd.Flags()},
		},
		{
			name: "DataStoreURL",
			usage: `
              DataStoreURL is the address of the Data Store API.`,
			defaultVal: datastore.DefaultURL,
			flagsets:   []*pflag.FlagSet{downloadCmd.Flags()},
		},
		{
			name: "DownloadDir",
			usage: `
              DownloadDir is the directory that products are extracted into.`,
			defaultVal: ".",
			flagsets:   []*pflag.FlagSet{downloadCmd.Flags()},
		},
		{
			name: "Archive",
			usage: `
              Archive, if set, is a directory or blob storage location
              (file://, gs:// or s3://) that downloaded products are copied to.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{downloadCmd.Flags()},
		},
		{
			name: "CatalogFile",
			usage: `
              CatalogFile is the SQLite database holding the product catalog.
              Downloaded products are added to it unless it is empty.`,
			defaultVal: "slstr.db",
			flagsets:   []*pflag.FlagSet{catalogCmd.PersistentFlags(), downloadCmd.Flags()},
		},
		{
			name: "Mission",
			usage: `
              Mission limits catalog listings to one mission, e.g. S3A.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{catalogListCmd.Flags()},
		},
		{
			name: "DataType",
			usage: `
              DataType limits catalog listings to one data type, e.g. WST.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{catalogListCmd.Flags()},
		},
		{
			name: "Limit",
			usage: `
              Limit is the maximum number of catalog entries listed.`,
			defaultVal: 100,
			flagsets:   []*pflag.FlagSet{catalogListCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("SLSTR")
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(decodeCmd)
	Root.AddCommand(loadCmd)
	Root.AddCommand(plotCmd)
	Root.AddCommand(exportCmd)
	Root.AddCommand(downloadCmd)
	Root.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogScanCmd)
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogStatsCmd)
}

// setConfig finds and reads in the configuration file, if there is one,
// and sets the log level.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(os.ExpandEnv(cfgpath))
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("slstr: problem reading configuration file: %v", err)
		}
	}
	lvl, err := logrus.ParseLevel(Cfg.GetString("LogLevel"))
	if err != nil {
		return fmt.Errorf("slstr: invalid LogLevel: %v", err)
	}
	logrus.SetLevel(lvl)
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "slstr",
	Short: "Tools for Sentinel-3 SLSTR sea surface temperature products.",
	Long: `slstr decodes Sentinel-3 product identifiers, loads SLSTR products
from SAFE directories, corrects the per-pixel time offsets, and maps or
exports the result. Products can be downloaded from the EUMETSAT Data Store
and indexed in a local catalog.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'SLSTR_var' where 'var' is the
name of the variable to be set.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
	SilenceUsage:      true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of slstr.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "slstr v%s\n", slstr.Version)
	},
	DisableAutoGenTag: true,
}

var decodeCmd = &cobra.Command{
	Use:   "decode <product id>...",
	Short: "Decode product identifiers",
	Long: `decode splits Sentinel-3 product identifiers into their fields.
With --validate the field contents are also checked.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return Decode(cmd.OutOrStdout(), args, Cfg.GetBool("validate"))
	},
	DisableAutoGenTag: true,
}

var loadCmd = &cobra.Command{
	Use:   "load <SAFE directory>",
	Short: "Load a product and summarize it",
	Long: `load reads the data files of a SAFE directory, corrects the time
offset variable, and prints a summary of the variables.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return Load(cmd.OutOrStdout(), os.ExpandEnv(args[0]), loadConfig())
	},
	DisableAutoGenTag: true,
}

var plotCmd = &cobra.Command{
	Use:   "plot <SAFE directory>",
	Short: "Draw a map of a product variable",
	Long: `plot draws a map of a variable of the product in a SAFE directory and
saves it to OutputFile.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		window, err := parseWindow(Cfg.GetString("Window"))
		if err != nil {
			return err
		}
		out := os.ExpandEnv(Cfg.GetString("OutputFile"))
		if out == "" {
			out = Cfg.GetString("Variable") + ".png"
		}
		return Plot(os.ExpandEnv(args[0]), out, loadConfig(), PlotOptions{
			Variable: Cfg.GetString("Variable"),
			Window:   window,
			VMin:     Cfg.GetFloat64("VMin"),
			VMax:     Cfg.GetFloat64("VMax"),
			GridStep: Cfg.GetFloat64("GridStep"),
		})
	},
	DisableAutoGenTag: true,
}

var exportCmd = &cobra.Command{
	Use:   "export <SAFE directory>",
	Short: "Export a product variable as located points",
	Long: `export writes the unmasked cells of a variable as JSON points with
their location, time and quality class.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		window, err := parseWindow(Cfg.GetString("Window"))
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if out := os.ExpandEnv(Cfg.GetString("OutputFile")); out != "" {
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("slstr: creating output file: %v", err)
			}
			defer f.Close()
			w = f
		}
		return Export(w, os.ExpandEnv(args[0]), loadConfig(), Cfg.GetString("Variable"), window)
	},
	DisableAutoGenTag: true,
}

var downloadCmd = &cobra.Command{
	Use:   "download <product URL>",
	Short: "Download a product from the EUMETSAT Data Store",
	Long: `download fetches a zipped product from the Data Store, extracts it
into DownloadDir, and optionally copies it to Archive and adds it to the
catalog.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		safe, err := Download(context.Background(), args[0], DownloadOptions{
			Credentials: os.ExpandEnv(Cfg.GetString("Credentials")),
			URL:         Cfg.GetString("DataStoreURL"),
			Dir:         os.ExpandEnv(Cfg.GetString("DownloadDir")),
			Archive:     os.ExpandEnv(Cfg.GetString("Archive")),
			CatalogFile: os.ExpandEnv(Cfg.GetString("CatalogFile")),
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), safe)
		return nil
	},
	DisableAutoGenTag: true,
}

var catalogCmd = &cobra.Command{
	Use:               "catalog",
	Short:             "Manage the local product catalog",
	Long:              `catalog indexes downloaded products in a local SQLite database.`,
	DisableAutoGenTag: true,
}

var catalogScanCmd = &cobra.Command{
	Use:   "scan <root directory>",
	Short: "Add the SAFE directories under a directory to the catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := catalog.Open(os.ExpandEnv(Cfg.GetString("CatalogFile")))
		if err != nil {
			return err
		}
		defer db.Close()
		n, err := catalog.Scan(db, os.ExpandEnv(args[0]))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added %d products\n", n)
		return nil
	},
	DisableAutoGenTag: true,
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalogued products",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := catalog.Open(os.ExpandEnv(Cfg.GetString("CatalogFile")))
		if err != nil {
			return err
		}
		defer db.Close()
		return ListCatalog(cmd.OutOrStdout(), db, catalog.QueryParams{
			Mission:  Cfg.GetString("Mission"),
			DataType: Cfg.GetString("DataType"),
			Limit:    Cfg.GetInt("Limit"),
		})
	},
	DisableAutoGenTag: true,
}

var catalogStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := catalog.Open(os.ExpandEnv(Cfg.GetString("CatalogFile")))
		if err != nil {
			return err
		}
		defer db.Close()
		return CatalogStats(cmd.OutOrStdout(), db)
	},
	DisableAutoGenTag: true,
}

func loadConfig() *slstr.LoadConfig {
	return &slstr.LoadConfig{
		Pattern:           Cfg.GetString("Pattern"),
		TimeDeltaVariable: Cfg.GetString("TimeDeltaVariable"),
	}
}
